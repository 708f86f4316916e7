package ingest

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func discard() zerolog.Logger {
	return zerolog.Nop()
}

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Columns
	}{
		{
			name:    "spanish headers",
			headers: []string{"Fecha", "Monto", "Referencia", "Descripcion"},
			want:    Columns{Date: "Fecha", Amount: "Monto", Reference: "Referencia", Description: "Descripcion"},
		},
		{
			name:    "english headers",
			headers: []string{"Date", "Amount", "Reference", "Description"},
			want:    Columns{Date: "Date", Amount: "Amount", Reference: "Reference", Description: "Description"},
		},
		{
			name:    "bank export variants",
			headers: []string{"F_Operacion", "Cargo/Abono (ML)", "Cod. PV", "Concepto"},
			want:    Columns{Date: "F_Operacion", Amount: "Cargo/Abono (ML)", Reference: "Cod. PV", Description: "Concepto"},
		},
		{
			name:    "missing columns stay empty",
			headers: []string{"Foo", "Bar"},
			want:    Columns{},
		},
		{
			name:    "substring containment both directions",
			headers: []string{"fecha_pago_real", "importe total"},
			want:    Columns{Date: "fecha_pago_real", Amount: "importe total"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectColumns(tt.headers)
			if got != tt.want {
				t.Errorf("DetectColumns(%v) = %+v, want %+v", tt.headers, got, tt.want)
			}
		})
	}
}

func TestRows(t *testing.T) {
	headers := []string{"Fecha", "Monto", "Referencia", "Concepto"}
	raw := []Row{
		{"Fecha": "15/01/2024", "Monto": "1.234,56", "Referencia": "PUNTO VENTA 047", "Concepto": "deposito"},
		{"Fecha": "", "Monto": "100.00", "Referencia": "PV001", "Concepto": "sin fecha"},         // dropped: no date
		{"Fecha": "16/01/2024", "Monto": "0", "Referencia": "PV002", "Concepto": "monto cero"},   // dropped: amount <= 0
		{"Fecha": "no es fecha", "Monto": "50", "Referencia": "PV003", "Concepto": "mala fecha"}, // dropped: unparseable date
		{"Fecha": "17/01/2024", "Monto": "-200", "Referencia": "", "Concepto": "retiro"},
	}

	records := Rows(headers, raw, discard())

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Date != "2024-01-15" || first.Amount != 1234.56 || first.Reference != "PV047" {
		t.Errorf("first record = %+v", first)
	}
	if first.Original == nil {
		t.Error("original row not retained")
	}

	second := records[1]
	if second.Date != "2024-01-17" || second.Amount != 200 || second.Reference != "" {
		t.Errorf("second record = %+v", second)
	}
}

func TestRowsMissingColumns(t *testing.T) {
	// No detectable amount column: every row drops on amount <= 0.
	headers := []string{"Fecha", "Foo"}
	raw := []Row{{"Fecha": "15/01/2024", "Foo": "x"}}

	if records := Rows(headers, raw, discard()); len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestReadCSV(t *testing.T) {
	data := "Fecha,Monto,Referencia,Descripcion\n15/01/2024,100.00,PV047,pago uno\n16/01/2024,200.00,PV048,pago dos\n"

	sheet, err := ReadCSV(strings.NewReader(data), "banco.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if sheet.Name != "banco" {
		t.Errorf("sheet name = %q, want banco", sheet.Name)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(sheet.Rows))
	}

	records := sheet.Records(discard())
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Date != "2024-01-15" || records[0].Amount != 100 {
		t.Errorf("first record = %+v", records[0])
	}
}

func TestReadCSVRaggedRows(t *testing.T) {
	data := "Fecha,Monto\n15/01/2024,100.00,extra\n16/01/2024\n"

	sheet, err := ReadCSV(strings.NewReader(data), "ragged.csv")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	records := sheet.Records(discard())
	// Second line has no amount cell and drops; first survives.
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}
