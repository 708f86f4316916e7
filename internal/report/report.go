// Package report serializes a reconciliation result set to an xlsx
// workbook. The column layout is a compatibility contract with the
// spreadsheets accountants already consume, so changes to the header
// row or column order are breaking.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
)

// SheetName is the single sheet every exported workbook carries.
const SheetName = "Conciliacion"

var headers = []string{
	"Status",
	"MatchBasis",
	"PrimaryDate",
	"PrimaryAmount",
	"PrimaryReference",
	"PrimaryDescription",
	"SecondaryDate",
	"SecondaryAmount",
	"SecondaryReference",
	"SecondaryDescription",
	"Difference",
}

const maxColWidth = 25

// Write renders the result set as an xlsx workbook on w, one row per
// match result in the set's final order.
func Write(w io.Writer, set domain.ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("Write: creating sheet: %w", err)
	}
	f.SetActiveSheet(sheet)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("Write: removing default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return fmt.Errorf("Write: creating header style: %w", err)
	}

	widths := make([]int, len(headers))
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("Write: header cell %s: %w", cell, err)
		}
		widths[col] = len(h)
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", endHeader, headerStyle); err != nil {
		return fmt.Errorf("Write: styling header: %w", err)
	}

	for i, r := range set.Results {
		for col, v := range rowValues(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("Write: cell %s: %w", cell, err)
			}
			if s, ok := v.(string); ok && len(s) > widths[col] {
				widths[col] = len(s)
			}
		}
	}

	for col := range headers {
		w := widths[col] + 2
		if w > maxColWidth {
			w = maxColWidth
		}
		name, _ := excelize.ColumnNumberToName(col + 1)
		if err := f.SetColWidth(SheetName, name, name, float64(w)); err != nil {
			return fmt.Errorf("Write: column width %s: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("Write: writing workbook: %w", err)
	}
	return nil
}

func rowValues(r domain.MatchResult) []interface{} {
	return []interface{}{
		string(r.Status),
		string(r.Basis),
		r.Primary.Date,
		r.Primary.Amount,
		r.Primary.Reference,
		r.Primary.Description,
		r.Secondary.Date,
		r.Secondary.Amount,
		r.Secondary.Reference,
		r.Secondary.Description,
		r.Difference(),
	}
}
