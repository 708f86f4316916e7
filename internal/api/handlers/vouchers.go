package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/api/middleware"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/jobs"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/storage"
)

// VouchersHandler accepts voucher uploads and enqueues extraction jobs.
type VouchersHandler struct {
	store     storage.Service
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewVouchersHandler creates a new vouchers handler.
func NewVouchersHandler(store storage.Service, publisher jobs.Publisher, bucket string, log zerolog.Logger) *VouchersHandler {
	return &VouchersHandler{
		store:     store,
		publisher: publisher,
		bucket:    bucket,
		log:       log,
	}
}

// Upload handles POST /api/vouchers.
// Multipart form: "file" is the voucher image or PDF. The file is
// stored in GCS and an extraction job is enqueued; the response carries
// the job ID to poll.
func (h *VouchersHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.bucket == "" {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Voucher uploads are not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Missing file field \"file\"")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	objectName := fmt.Sprintf("vouchers/%s/%s", time.Now().Format("2006/01/02"),
		uuid.New().String()+"-"+filepath.Base(header.Filename))

	uri, err := h.store.Upload(r.Context(), h.bucket, objectName, file)
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to upload voucher")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	job := &jobs.ExtractVoucherJob{GCSURI: uri, MIMEType: mimeType}
	if err := h.publisher.PublishExtractVoucher(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", uri).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("gcs_uri", uri).
		Msg("Voucher uploaded and extraction enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": uri,
		"status":  string(job.Status),
	})
}

// JobsHandler exposes extraction job status.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// ListJobs handles GET /api/jobs with optional status, limit and offset
// query parameters.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
		GCSURI: r.URL.Query().Get("gcs_uri"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJob handles GET /api/jobs/:jobId.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}
