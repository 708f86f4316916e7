// Package normalize converts raw, loosely formatted field values into the
// canonical forms the matching engine compares: dates as "YYYY-MM-DD",
// amounts as non-negative 2-decimal floats, references as "PV###" codes.
// All functions are pure and total: bad input yields the zero form, never
// an error or a panic.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Spreadsheet day serials count from the day before 1900-01-01 (day 0 is
// 1899-12-30, absorbing the historical leap-year bug).
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	serialRe    = regexp.MustCompile(`^\d+\.?\d*$`)
	canonicalRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	spacesRe    = regexp.MustCompile(`\s+`)
)

// datePattern matches one separator format and knows where day, month and
// year sit in the submatches.
type datePattern struct {
	re             *regexp.Regexp
	day, month, yr int
}

// Order matters: the first matching pattern wins. Slash, dash and dot
// formats are read day-first; "03/04/2024" is always 3 April 2024.
var datePatterns = []datePattern{
	{regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), 1, 2, 3},
	{regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), 1, 2, 3},
	{regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), 3, 2, 1},
	{regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`), 3, 2, 1},
	{regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`), 1, 2, 3},
}

// Layouts tried as a last resort, standing in for a generic date parse.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// Date normalizes an arbitrary date string to "YYYY-MM-DD". When nothing
// parses, the trimmed input is returned unchanged; callers must treat any
// result that is not canonical-shaped as a failed parse (see IsDate).
func Date(raw string) string {
	str := strings.TrimSpace(raw)
	if str == "" {
		return ""
	}

	// Spreadsheet day serial, possibly fractional.
	if serialRe.MatchString(str) {
		if serial, err := strconv.ParseFloat(str, 64); err == nil {
			t := serialEpoch.Add(time.Duration(serial * float64(24*time.Hour)))
			return civil.DateOf(t).String()
		}
	}

	// Full timestamps keep the date part only.
	if strings.ContainsAny(str, "TZ") {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, str); err == nil {
				return civil.DateOf(t).String()
			}
		}
	}

	str = spacesRe.ReplaceAllString(str, " ")

	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(str)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[p.day])
		month, _ := strconv.Atoi(m[p.month])
		year, _ := strconv.Atoi(m[p.yr])
		if day >= 1 && day <= 31 && month >= 1 && month <= 12 && year >= 1900 && year <= 2100 {
			return civil.Date{Year: year, Month: time.Month(month), Day: day}.String()
		}
	}

	for _, layout := range fallbackLayouts {
		t, err := time.Parse(layout, str)
		if err != nil {
			continue
		}
		if t.Year() >= 1900 && t.Year() <= 2100 {
			return civil.DateOf(t).String()
		}
	}

	return str
}

// IsDate reports whether s has the canonical "YYYY-MM-DD" shape.
func IsDate(s string) bool {
	if !canonicalRe.MatchString(s) {
		return false
	}
	_, err := civil.ParseDate(s)
	return err == nil
}

var (
	currencyRe = regexp.MustCompile(`[$€£¥₱₹¢]`)
	commaDecRe = regexp.MustCompile(`,\d{1,2}$`)
	dotDecRe   = regexp.MustCompile(`\.\d{1,2}$`)
	amountJunk = regexp.MustCompile(`[^0-9.\-]`)
)

// Amount normalizes a loosely typed monetary value to a non-negative
// float rounded to 2 decimals. Strings may use either the European
// ("1.234,56") or American ("1,234.56") convention; when both separators
// appear, the one occurring last is the decimal point. Unparseable input
// yields 0.
func Amount(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return absRound2(v)
	case float32:
		return absRound2(float64(v))
	case int:
		return absRound2(float64(v))
	case int64:
		return absRound2(float64(v))
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return amountFromString(v)
	default:
		return 0
	}
}

func amountFromString(raw string) float64 {
	cleaned := currencyRe.ReplaceAllString(raw, "")
	cleaned = strings.Join(strings.Fields(cleaned), "")
	if cleaned == "" {
		return 0
	}

	hasCommaDecimal := commaDecRe.MatchString(cleaned)
	hasDotDecimal := dotDecRe.MatchString(cleaned)
	commaCount := strings.Count(cleaned, ",")
	dotCount := strings.Count(cleaned, ".")

	switch {
	case hasCommaDecimal && !hasDotDecimal && commaCount == 1:
		// European: 1.234,56 or 1234,56
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case hasCommaDecimal && dotCount > 0:
		// Both separators present: the last one is the decimal point.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	default:
		// American or separator-free: commas are thousands.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	cleaned = amountJunk.ReplaceAllString(cleaned, "")

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return absRound2(parsed)
}

func absRound2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Abs(math.Round(v*100) / 100)
}

// Round2 rounds to 2 decimal fraction digits. Exposed for the engine,
// which compares amounts at that precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var (
	pvPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)PV[\s\-.]*0*(\d+)`),             // PV047, PV 047, P.V.-047
		regexp.MustCompile(`(?i)PUNTO[\s\-]*VENTA[\s\-]*0*(\d+)`), // PUNTO VENTA 047
		regexp.MustCompile(`(?i)P\.?V\.?[\s\-]*0*(\d+)`),        // P.V.047, P V 047
	}
	bareNumberRe = regexp.MustCompile(`^0*(\d+)$`)
	digitRunRe   = regexp.MustCompile(`\d{2,}`)
	nonAlnumRe   = regexp.MustCompile(`[^A-Z0-9]`)
)

// ExtractPV canonicalizes a point-of-sale reference to "PV###". It tries
// explicit PV spellings first, then bare numbers, then falls back to the
// last run of 2+ digits anywhere in the string (a heuristic that can
// misfire on free text containing unrelated numbers). Strings with no
// digits are uppercased and stripped to alphanumerics.
func ExtractPV(text string) string {
	str := strings.TrimSpace(text)
	if str == "" {
		return ""
	}
	upper := strings.ToUpper(str)

	for _, re := range pvPatterns {
		if m := re.FindStringSubmatch(upper); m != nil {
			return "PV" + padPV(m[1])
		}
	}

	if m := bareNumberRe.FindStringSubmatch(str); m != nil {
		return "PV" + padPV(m[1])
	}

	if runs := digitRunRe.FindAllString(upper, -1); len(runs) > 0 {
		return "PV" + padPV(runs[len(runs)-1])
	}

	return nonAlnumRe.ReplaceAllString(upper, "")
}

// padPV strips leading zeros (keeping at least one digit) and left-pads
// the result to 3 digits.
func padPV(digits string) string {
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	for len(trimmed) < 3 {
		trimmed = "0" + trimmed
	}
	return trimmed
}
