// Package ingest turns loosely typed tabular rows into canonical records.
// Column headers are detected by keyword heuristics, field values run
// through normalize, and rows that fail validation (no parseable date, or
// a non-positive amount) are dropped rather than reported.
package ingest

import (
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/normalize"
)

// Row is one raw input row keyed by its original column headers.
type Row map[string]interface{}

// Sheet is a named sequence of raw rows with their header order preserved.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Records converts a sheet's raw rows to canonical records, preserving
// input order. Invalid rows are dropped with a warning; they never reach
// the engine.
func (s Sheet) Records(log zerolog.Logger) []domain.Record {
	return Rows(s.Headers, s.Rows, log)
}

// Rows converts raw rows to canonical records using the given header
// order for column detection. When headers is nil the keys of the first
// row are used in sorted order as a fallback.
func Rows(headers []string, rows []Row, log zerolog.Logger) []domain.Record {
	if len(rows) == 0 {
		return nil
	}
	if headers == nil {
		headers = headersOf(rows[0])
	}

	cols := DetectColumns(headers)

	out := make([]domain.Record, 0, len(rows))
	for i, row := range rows {
		rec, ok := convertRow(row, cols)
		if !ok {
			log.Warn().
				Int("row", i+2). // +2: 1-based plus the header row
				Msg("Dropping row with invalid date or amount")
			continue
		}
		out = append(out, rec)
	}
	return out
}

func headersOf(row Row) []string {
	headers := make([]string, 0, len(row))
	for k := range row {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}

func convertRow(row Row, cols Columns) (domain.Record, bool) {
	date := normalize.Date(stringValue(row, cols.Date))
	if !normalize.IsDate(date) {
		return domain.Record{}, false
	}

	amount := normalize.Amount(valueOf(row, cols.Amount))
	if amount <= 0 {
		return domain.Record{}, false
	}

	return domain.Record{
		Date:        date,
		Amount:      amount,
		Reference:   normalize.ExtractPV(stringValue(row, cols.Reference)),
		Description: stringValue(row, cols.Description),
		Original:    row,
	}, true
}

func valueOf(row Row, column string) interface{} {
	if column == "" {
		return nil
	}
	return row[column]
}

func stringValue(row Row, column string) string {
	switch v := valueOf(row, column).(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
