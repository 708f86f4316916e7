package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/ingest"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/logger"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/recon"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/report"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/voucher"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "reconcile":
		err = runReconcile(os.Args[2:], log)
	case "sheets":
		err = runSheets(os.Args[2:], log)
	case "extract":
		err = runExtract(os.Args[2:], log)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage:
  cli reconcile -primary <file> -secondary <file> [-vouchers <json>] -out <xlsx>
  cli sheets -workbook <xlsx> -out <xlsx>
  cli extract -file <pdf|image> [-out <json>]`)
}

// runReconcile matches a primary file (bank) against a secondary file
// (ledger), with optional voucher records from a JSON file produced by
// the extract command.
func runReconcile(args []string, log zerolog.Logger) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	primaryPath := fs.String("primary", "", "primary tabular file (xlsx or csv)")
	secondaryPath := fs.String("secondary", "", "secondary tabular file (xlsx or csv)")
	vouchersPath := fs.String("vouchers", "", "optional JSON file with extracted voucher records")
	outPath := fs.String("out", "conciliacion.xlsx", "output workbook path")
	fs.Parse(args)

	if *primaryPath == "" || *secondaryPath == "" {
		return fmt.Errorf("runReconcile: -primary and -secondary are required")
	}

	primary, err := readRecords(*primaryPath, log)
	if err != nil {
		return err
	}
	secondary, err := readRecords(*secondaryPath, log)
	if err != nil {
		return err
	}

	var tertiary []domain.Record
	if *vouchersPath != "" {
		data, err := os.ReadFile(*vouchersPath)
		if err != nil {
			return fmt.Errorf("runReconcile: reading vouchers: %w", err)
		}
		if err := json.Unmarshal(data, &tertiary); err != nil {
			return fmt.Errorf("runReconcile: decoding vouchers: %w", err)
		}
		// The file may be hand-edited; re-normalize before matching.
		tertiary = voucher.Canonicalize(tertiary)
	}

	set := recon.ReconcileSources(primary, secondary, tertiary)

	log.Info().
		Int("matched", set.MatchedCount).
		Int("unmatched", set.UnmatchedCount).
		Float64("matched_amount", set.MatchedAmount).
		Msg("Reconciliation completed")

	return writeReport(*outPath, set)
}

// runSheets matches the first two sheets of one workbook against each
// other.
func runSheets(args []string, log zerolog.Logger) error {
	fs := flag.NewFlagSet("sheets", flag.ExitOnError)
	workbookPath := fs.String("workbook", "", "workbook with at least two data sheets")
	outPath := fs.String("out", "conciliacion.xlsx", "output workbook path")
	fs.Parse(args)

	if *workbookPath == "" {
		return fmt.Errorf("runSheets: -workbook is required")
	}

	f, err := os.Open(*workbookPath)
	if err != nil {
		return fmt.Errorf("runSheets: opening workbook: %w", err)
	}
	defer f.Close()

	sheets, err := ingest.ReadWorkbook(f)
	if err != nil {
		return fmt.Errorf("runSheets: %w", err)
	}
	if len(sheets) < 2 {
		return fmt.Errorf("runSheets: workbook needs at least 2 data sheets, found %d", len(sheets))
	}

	one := recon.NamedSet{Name: sheets[0].Name, Records: sheets[0].Records(log)}
	two := recon.NamedSet{Name: sheets[1].Name, Records: sheets[1].Records(log)}

	set := recon.ReconcileSheets(one, two)

	log.Info().
		Str("sheet_one", one.Name).
		Str("sheet_two", two.Name).
		Int("matched", set.MatchedCount).
		Int("unmatched", set.UnmatchedCount).
		Msg("Two-sheet reconciliation completed")

	return writeReport(*outPath, set)
}

// runExtract sends a voucher file to the model and writes the extracted
// records as JSON, ready for reconcile -vouchers.
func runExtract(args []string, log zerolog.Logger) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	filePath := fs.String("file", "", "voucher image or PDF")
	outPath := fs.String("out", "", "output JSON path (default stdout)")
	fs.Parse(args)

	if *filePath == "" {
		return fmt.Errorf("runExtract: -file is required")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("runExtract: reading file: %w", err)
	}

	extractor := voucher.NewGeminiExtractor()
	payments, err := extractor.Extract(context.Background(), data, mimeTypeFor(*filePath))
	if err != nil {
		return fmt.Errorf("runExtract: %w", err)
	}

	records := voucher.Records(payments)
	log.Info().
		Int("extracted", len(payments)).
		Int("valid", len(records)).
		Msg("Extraction completed")

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("runExtract: encoding records: %w", err)
	}

	if *outPath == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		return fmt.Errorf("runExtract: writing output: %w", err)
	}
	return nil
}

func readRecords(path string, log zerolog.Logger) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("readRecords: opening %q: %w", path, err)
	}
	defer f.Close()

	sheets, err := ingest.ReadFile(f, path)
	if err != nil {
		return nil, fmt.Errorf("readRecords: %w", err)
	}

	var records []domain.Record
	for _, sheet := range sheets {
		records = append(records, sheet.Records(log)...)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("readRecords: %q has no valid rows", path)
	}
	return records, nil
}

func writeReport(path string, set domain.ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writeReport: creating %q: %w", path, err)
	}
	defer f.Close()

	if err := report.Write(f, set); err != nil {
		return fmt.Errorf("writeReport: %w", err)
	}
	return nil
}

func mimeTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/pdf"
	}
}
