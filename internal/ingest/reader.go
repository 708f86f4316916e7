package ingest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook reads every non-empty sheet of an xlsx workbook into raw
// rows. The first row of each sheet is treated as the header row; sheets
// with no data rows are skipped.
func ReadWorkbook(r io.Reader) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ReadWorkbook: opening workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("ReadWorkbook: reading sheet %q: %w", name, err)
		}
		sheet := sheetFromCells(name, rows)
		if len(sheet.Rows) > 0 {
			sheets = append(sheets, sheet)
		}
	}
	return sheets, nil
}

// ReadCSV reads a single CSV file into one sheet named after the file.
func ReadCSV(r io.Reader, filename string) (Sheet, error) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("ReadCSV: reading %q: %w", filename, err)
	}
	return sheetFromCells(name, records), nil
}

// ReadFile dispatches on the file extension: .csv goes through the CSV
// codec, everything else is treated as an xlsx workbook.
func ReadFile(r io.Reader, filename string) ([]Sheet, error) {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		sheet, err := ReadCSV(r, filename)
		if err != nil {
			return nil, err
		}
		return []Sheet{sheet}, nil
	}
	return ReadWorkbook(r)
}

func sheetFromCells(name string, cells [][]string) Sheet {
	if len(cells) < 2 {
		return Sheet{Name: name}
	}

	headers := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		headers[i] = strings.TrimSpace(h)
	}

	rows := make([]Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		if isBlank(line) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(line) {
				row[h] = line[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return Sheet{Name: name, Headers: headers, Rows: rows}
}

func isBlank(line []string) bool {
	for _, cell := range line {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
