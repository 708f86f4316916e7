package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/api/middleware"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/ingest"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/jobs"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/recon"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/report"
)

const maxUploadBytes = 32 << 20

// ReconcileHandler handles reconciliation runs and their exports.
type ReconcileHandler struct {
	runs     *RunStore
	jobStore jobs.JobStore
	log      zerolog.Logger
}

// NewReconcileHandler creates a new reconcile handler. jobStore may be
// nil when voucher extraction is not configured.
func NewReconcileHandler(runs *RunStore, jobStore jobs.JobStore, log zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		runs:     runs,
		jobStore: jobStore,
		log:      log,
	}
}

// Reconcile handles POST /api/reconcile.
// Multipart form: "primary" and "secondary" are tabular files (xlsx or
// csv); optional "voucher_jobs" is a comma-separated list of completed
// extraction job IDs whose records join as the tertiary set.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	primary, err := h.recordsFromUpload(r, "primary")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	secondary, err := h.recordsFromUpload(r, "secondary")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tertiary, err := h.voucherRecords(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	set := recon.ReconcileSources(primary, secondary, tertiary)
	runID := h.runs.Save(set)

	h.log.Info().
		Str("run_id", runID).
		Int("matched", set.MatchedCount).
		Int("unmatched", set.UnmatchedCount).
		Msg("Reconciliation run completed")

	writeRun(w, runID, set)
}

// ReconcileSheets handles POST /api/reconcile/sheets.
// Multipart form: "workbook" is one xlsx file whose first two sheets
// are matched against each other.
func (h *ReconcileHandler) ReconcileSheets(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("workbook")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file field \"workbook\"")
		return
	}
	defer file.Close()

	sheets, err := ingest.ReadWorkbook(file)
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to read workbook")
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unreadable workbook %q", header.Filename))
		return
	}
	if len(sheets) < 2 {
		middleware.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("Workbook %q needs at least 2 data sheets, found %d", header.Filename, len(sheets)))
		return
	}

	one := recon.NamedSet{Name: sheets[0].Name, Records: sheets[0].Records(h.log)}
	two := recon.NamedSet{Name: sheets[1].Name, Records: sheets[1].Records(h.log)}
	if len(one.Records) == 0 || len(two.Records) == 0 {
		middleware.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("Workbook %q has an empty sheet after validation", header.Filename))
		return
	}

	set := recon.ReconcileSheets(one, two)
	runID := h.runs.Save(set)

	h.log.Info().
		Str("run_id", runID).
		Str("sheet_one", one.Name).
		Str("sheet_two", two.Name).
		Int("matched", set.MatchedCount).
		Msg("Two-sheet reconciliation completed")

	writeRun(w, runID, set)
}

// GetRun handles GET /api/runs/:runId.
func (h *ReconcileHandler) GetRun(w http.ResponseWriter, r *http.Request, runID string) {
	set, ok := h.runs.Get(runID)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	writeRun(w, runID, set)
}

// ExportRun handles GET /api/runs/:runId/export.
// It streams the run as an xlsx workbook.
func (h *ReconcileHandler) ExportRun(w http.ResponseWriter, r *http.Request, runID string) {
	set, ok := h.runs.Get(runID)
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=conciliacion-%s.xlsx", runID))

	if err := report.Write(w, set); err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to export run")
	}
}

func (h *ReconcileHandler) recordsFromUpload(r *http.Request, field string) ([]domain.Record, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing file field %q", field)
	}
	defer file.Close()

	return h.readRecords(file, header.Filename)
}

func (h *ReconcileHandler) readRecords(file multipart.File, filename string) ([]domain.Record, error) {
	sheets, err := ingest.ReadFile(file, filename)
	if err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("Failed to read upload")
		return nil, fmt.Errorf("unreadable file %q", filename)
	}

	var records []domain.Record
	for _, sheet := range sheets {
		records = append(records, sheet.Records(h.log)...)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file %q has no valid rows", filename)
	}
	return records, nil
}

// voucherRecords collects extracted records from the completed jobs
// named in the voucher_jobs form field.
func (h *ReconcileHandler) voucherRecords(r *http.Request) ([]domain.Record, error) {
	raw := strings.TrimSpace(r.FormValue("voucher_jobs"))
	if raw == "" {
		return nil, nil
	}
	if h.jobStore == nil {
		return nil, fmt.Errorf("voucher extraction is not configured")
	}

	var records []domain.Record
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		job, err := h.jobStore.GetJob(r.Context(), id)
		if err != nil {
			return nil, fmt.Errorf("unknown voucher job %q", id)
		}
		if job.Status != jobs.JobStatusCompleted {
			return nil, fmt.Errorf("voucher job %q is %s, not completed", id, job.Status)
		}
		records = append(records, job.Records...)
	}
	return records, nil
}

func writeRun(w http.ResponseWriter, runID string, set domain.ResultSet) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":           runID,
		"matched_count":    set.MatchedCount,
		"unmatched_count":  set.UnmatchedCount,
		"matched_amount":   set.MatchedAmount,
		"unmatched_amount": set.UnmatchedAmount,
		"results":          set.Results,
	})
}
