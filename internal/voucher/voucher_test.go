package voucher

import (
	"testing"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "already clean",
			raw:  `[{"date":"2024-01-15"}]`,
			want: `[{"date":"2024-01-15"}]`,
		},
		{
			name: "json fence",
			raw:  "```json\n[{\"date\":\"2024-01-15\"}]\n```",
			want: `[{"date":"2024-01-15"}]`,
		},
		{
			name: "bare fence",
			raw:  "```\n[]\n```",
			want: "[]",
		},
		{
			name: "surrounding prose",
			raw:  "Here are the payments:\n[{\"amount\":10}]\nLet me know if you need more.",
			want: `[{"amount":10}]`,
		},
		{
			name: "whitespace",
			raw:  "  \n []  \n",
			want: "[]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.raw); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	// Records decoded from an edited JSON file: locale-formatted fields
	// and entries that must not become match candidates.
	raw := []domain.Record{
		{Date: "15/01/2024", Amount: 100.009, Reference: "punto venta 47", Origin: "voucher"},
		{Date: "2024-01-16", Amount: 0, Reference: "PV001"},  // amount <= 0
		{Date: "not a date", Amount: 50, Reference: "PV002"}, // unparseable date
	}

	records := Canonicalize(raw)

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Date != "2024-01-15" || r.Amount != 100.01 || r.Reference != "PV047" {
		t.Errorf("record = %+v", r)
	}
	if r.Origin != "voucher" {
		t.Errorf("metadata not carried: %+v", r)
	}
}

func TestRecords(t *testing.T) {
	payments := []Payment{
		{Date: "15/01/2024", Amount: 100.004, Reference: "punto venta 47", Description: "deposito", Time: "14:30", IsQR: true, Page: 2},
		{Date: "", Amount: 50},       // dropped: no date
		{Date: "2024-01-16", Amount: 0}, // dropped: zero amount
	}

	records := Records(payments)

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Date != "2024-01-15" {
		t.Errorf("date = %q", r.Date)
	}
	if r.Amount != 100.00 {
		t.Errorf("amount = %v", r.Amount)
	}
	if r.Reference != "PV047" {
		t.Errorf("reference = %q", r.Reference)
	}
	if r.Origin != "voucher" || !r.IsQR || r.Page != 2 || r.Time != "14:30" {
		t.Errorf("metadata not carried: %+v", r)
	}
}
