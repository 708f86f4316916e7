package domain

import (
	"cloud.google.com/go/civil"
)

// Record is one normalized payment entry, the unit the matching engine
// operates on. Date is canonical "YYYY-MM-DD" (string-sortable), Amount is
// the absolute value rounded to 2 decimals, Reference is a canonical PV
// code or "" when no reference is available.
type Record struct {
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Reference   string  `json:"reference"`
	Description string  `json:"description"`

	// Display-only metadata carried through from voucher extraction.
	Time   string `json:"time,omitempty"`
	Page   int    `json:"page,omitempty"`
	Origin string `json:"origin,omitempty"`
	IsQR   bool   `json:"is_qr,omitempty"`

	// Original is the pre-normalization input row, kept for audit and
	// export. Matching never looks at it.
	Original map[string]interface{} `json:"original,omitempty"`
}

// Absent returns the sentinel record standing in for "no counterpart".
func Absent() Record {
	return Record{}
}

// IsAbsent reports whether r is the absent sentinel.
func (r Record) IsAbsent() bool {
	return r.Date == "" && r.Amount == 0 && r.Reference == "" && r.Description == ""
}

// Valid reports whether r may participate in matching: a parseable
// canonical date and a positive amount.
func (r Record) Valid() bool {
	if r.Amount <= 0 {
		return false
	}
	_, err := civil.ParseDate(r.Date)
	return err == nil
}

// MatchStatus indicates whether a counterpart record was found.
type MatchStatus string

const (
	StatusMatched   MatchStatus = "Matched"
	StatusUnmatched MatchStatus = "Unmatched"
)

// MatchBasis identifies which pass produced a match, or which source an
// orphan came from.
type MatchBasis string

const (
	// Three-source engine passes.
	BasisExactKey   MatchBasis = "exact-key"
	BasisPartialKey MatchBasis = "partial-key"

	// Orphan origins for the three-source engine.
	BasisOriginPrimary   MatchBasis = "origin:primary"
	BasisOriginSecondary MatchBasis = "origin:secondary"
	BasisOriginTertiary  MatchBasis = "origin:tertiary"

	// Two-sheet engine passes. Unmatched two-sheet rows are tagged with
	// the originating sheet name instead.
	BasisDateRefAmount MatchBasis = "exact-date-ref-amount"
	BasisDateRef       MatchBasis = "date-ref"
	BasisDateAmount    MatchBasis = "date-amount"
)

// MatchResult pairs a primary-side record with a secondary-side record.
// Exactly one side is the absent sentinel when Status is Unmatched.
type MatchResult struct {
	Primary   Record      `json:"primary"`
	Secondary Record      `json:"secondary"`
	Status    MatchStatus `json:"status"`
	Basis     MatchBasis  `json:"basis"`
}

// Amount returns the monetary value a result contributes to totals: the
// primary amount when present, else the secondary amount.
func (m MatchResult) Amount() float64 {
	if !m.Primary.IsAbsent() {
		return m.Primary.Amount
	}
	return m.Secondary.Amount
}

// Date returns the date used for result ordering.
func (m MatchResult) Date() string {
	if m.Primary.Date != "" {
		return m.Primary.Date
	}
	return m.Secondary.Date
}

// Difference is the absolute amount gap between the two sides; zero for
// matched results by definition of the export contract.
func (m MatchResult) Difference() float64 {
	if m.Status == StatusMatched {
		return 0
	}
	d := m.Primary.Amount - m.Secondary.Amount
	if d < 0 {
		d = -d
	}
	return d
}

// ResultSet is the ordered output of one reconciliation run plus totals.
// Totals are always folded from Results, never tracked during matching.
type ResultSet struct {
	Results []MatchResult `json:"results"`

	MatchedCount    int     `json:"matched_count"`
	UnmatchedCount  int     `json:"unmatched_count"`
	MatchedAmount   float64 `json:"matched_amount"`
	UnmatchedAmount float64 `json:"unmatched_amount"`
}

// Summarize recomputes the four aggregates from the result sequence.
func Summarize(results []MatchResult) ResultSet {
	rs := ResultSet{Results: results}
	for _, r := range results {
		if r.Status == StatusMatched {
			rs.MatchedCount++
			rs.MatchedAmount += r.Amount()
		} else {
			rs.UnmatchedCount++
			rs.UnmatchedAmount += r.Amount()
		}
	}
	return rs
}
