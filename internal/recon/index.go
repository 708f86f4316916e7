package recon

import (
	"strconv"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
)

// amountKey renders an amount at the 2-decimal precision the engine
// compares at, so "100" and "100.00" index identically.
func amountKey(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// fullKey is date|amount|reference, the most specific lookup key.
func fullKey(r domain.Record) string {
	return r.Date + "|" + amountKey(r.Amount) + "|" + r.Reference
}

// partialKey is date|amount, used when references disagree or are absent.
func partialKey(r domain.Record) string {
	return r.Date + "|" + amountKey(r.Amount)
}

// dateRefKey is date|reference, used by the two-sheet engine's middle pass.
func dateRefKey(r domain.Record) string {
	return r.Date + "|" + r.Reference
}

// index is a multimap from key to record positions, preserving insertion
// order so ties always resolve to the earliest record. Indexes are built
// per reconciliation call and never shared; the engine stays re-entrant.
type index map[string][]int

func (ix index) add(key string, pos int) {
	ix[key] = append(ix[key], pos)
}

// candidates returns the positions stored under key, in insertion order.
func (ix index) candidates(key string) []int {
	return ix[key]
}
