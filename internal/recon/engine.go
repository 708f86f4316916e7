// Package recon implements the multi-pass reconciliation engine. Two
// variants exist: ReconcileSources matches a primary set against a
// secondary set with an optional tertiary set that can stand in for the
// primary side, and ReconcileSheets matches two named sheets with a
// three-pass ladder of progressively weaker keys. Both are pure
// in-memory computations; all state is local to one call.
package recon

import (
	"math"
	"sort"

	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/domain"
	"github.com/leonidas890/conciliacion-bancaria-calypso/internal/normalize"
)

// amountsEqual compares two 2-decimal amounts with sub-cent tolerance.
func amountsEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

// ReconcileSources matches primary records against secondary records in
// two passes (full key date|amount|reference, then partial key
// date|amount), then emits the unmatched remainder of every set. When a
// match is found and a tertiary record shares the matched primary's full
// or partial key, the tertiary record takes the primary slot of the
// emitted result and is consumed. Pass tertiary as nil when there is no
// third set.
func ReconcileSources(primary, secondary, tertiary []domain.Record) domain.ResultSet {
	secFull := index{}
	secPartial := index{}
	for i, rec := range secondary {
		secFull.add(fullKey(rec), i)
		secPartial.add(partialKey(rec), i)
	}

	// A record sharing the full key also shares the partial key, so one
	// partial-key index covers both: scanning its candidates in insertion
	// order yields the lowest-index tertiary record matching either key.
	terPartial := index{}
	for i, rec := range tertiary {
		terPartial.add(partialKey(rec), i)
	}

	consumedPri := make([]bool, len(primary))
	consumedSec := make([]bool, len(secondary))
	consumedTer := make([]bool, len(tertiary))

	takeSecondary := func(ix index, key string, want domain.Record) (int, bool) {
		for _, pos := range ix.candidates(key) {
			if consumedSec[pos] {
				continue
			}
			if amountsEqual(secondary[pos].Amount, want.Amount) {
				return pos, true
			}
		}
		return 0, false
	}

	takeTertiary := func(rec domain.Record) (domain.Record, bool) {
		for _, pos := range terPartial.candidates(partialKey(rec)) {
			if consumedTer[pos] {
				continue
			}
			consumedTer[pos] = true
			return tertiary[pos], true
		}
		return domain.Record{}, false
	}

	results := make([]domain.MatchResult, 0, len(primary)+len(secondary)+len(tertiary))

	match := func(ix index, keyOf func(domain.Record) string, basis domain.MatchBasis) {
		for i, rec := range primary {
			if consumedPri[i] {
				continue
			}
			pos, ok := takeSecondary(ix, keyOf(rec), rec)
			if !ok {
				continue
			}
			consumedPri[i] = true
			consumedSec[pos] = true

			emitted := rec
			if sub, ok := takeTertiary(rec); ok {
				emitted = sub
			}
			results = append(results, domain.MatchResult{
				Primary:   emitted,
				Secondary: secondary[pos],
				Status:    domain.StatusMatched,
				Basis:     basis,
			})
		}
	}

	match(secFull, fullKey, domain.BasisExactKey)
	match(secPartial, partialKey, domain.BasisPartialKey)

	for i, rec := range primary {
		if consumedPri[i] {
			continue
		}
		results = append(results, domain.MatchResult{
			Primary:   rec,
			Secondary: domain.Absent(),
			Status:    domain.StatusUnmatched,
			Basis:     domain.BasisOriginPrimary,
		})
	}
	for i, rec := range secondary {
		if consumedSec[i] {
			continue
		}
		results = append(results, domain.MatchResult{
			Primary:   domain.Absent(),
			Secondary: rec,
			Status:    domain.StatusUnmatched,
			Basis:     domain.BasisOriginSecondary,
		})
	}
	for i, rec := range tertiary {
		if consumedTer[i] {
			continue
		}
		results = append(results, domain.MatchResult{
			Primary:   rec,
			Secondary: domain.Absent(),
			Status:    domain.StatusUnmatched,
			Basis:     domain.BasisOriginTertiary,
		})
	}

	sortResults(results)
	return domain.Summarize(results)
}

// NamedSet is one sheet's records plus the sheet name used to tag its
// unmatched remainder.
type NamedSet struct {
	Name    string
	Records []domain.Record
}

// ReconcileSheets matches sheetOne against sheetTwo with three ordered
// passes: date+reference+amount, date+reference (skipped for records
// without a reference), date+amount. Records from either sheet that
// survive all passes are emitted unmatched, tagged origin:<sheet name>.
// Inputs are re-normalized and filtered before matching, so callers may
// pass rows straight from ingestion.
func ReconcileSheets(sheetOne, sheetTwo NamedSet) domain.ResultSet {
	one := canonicalize(sheetOne.Records)
	two := canonicalize(sheetTwo.Records)

	twoFull := index{}
	twoDateRef := index{}
	twoDateAmount := index{}
	for i, rec := range two {
		twoFull.add(fullKey(rec), i)
		if rec.Date != "" && rec.Reference != "" {
			twoDateRef.add(dateRefKey(rec), i)
		}
		twoDateAmount.add(partialKey(rec), i)
	}

	consumedOne := make([]bool, len(one))
	consumedTwo := make([]bool, len(two))

	results := make([]domain.MatchResult, 0, len(one)+len(two))

	match := func(ix index, keyOf func(domain.Record) string, basis domain.MatchBasis, needRef bool) {
		for i, rec := range one {
			if consumedOne[i] {
				continue
			}
			if needRef && rec.Reference == "" {
				continue
			}
			for _, pos := range ix.candidates(keyOf(rec)) {
				if consumedTwo[pos] {
					continue
				}
				consumedOne[i] = true
				consumedTwo[pos] = true
				results = append(results, domain.MatchResult{
					Primary:   rec,
					Secondary: two[pos],
					Status:    domain.StatusMatched,
					Basis:     basis,
				})
				break
			}
		}
	}

	match(twoFull, fullKey, domain.BasisDateRefAmount, false)
	match(twoDateRef, dateRefKey, domain.BasisDateRef, true)
	match(twoDateAmount, partialKey, domain.BasisDateAmount, false)

	for i, rec := range one {
		if consumedOne[i] {
			continue
		}
		results = append(results, domain.MatchResult{
			Primary:   rec,
			Secondary: domain.Absent(),
			Status:    domain.StatusUnmatched,
			Basis:     originBasis(sheetOne.Name),
		})
	}
	for i, rec := range two {
		if consumedTwo[i] {
			continue
		}
		results = append(results, domain.MatchResult{
			Primary:   domain.Absent(),
			Secondary: rec,
			Status:    domain.StatusUnmatched,
			Basis:     originBasis(sheetTwo.Name),
		})
	}

	sortResults(results)
	return domain.Summarize(results)
}

func originBasis(name string) domain.MatchBasis {
	return domain.MatchBasis("origin:" + name)
}

// canonicalize re-runs normalization over a record set and drops records
// that fail validation, so sheet inputs need no prior cleaning.
func canonicalize(records []domain.Record) []domain.Record {
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		rec.Date = normalize.Date(rec.Date)
		rec.Amount = normalize.Amount(rec.Amount)
		rec.Reference = normalize.ExtractPV(rec.Reference)
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// sortResults orders matched results before unmatched ones, and within
// each group by date descending. The sort is stable so ties keep their
// emission order.
func sortResults(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Status != b.Status {
			return a.Status == domain.StatusMatched
		}
		return a.Date() > b.Date()
	})
}
