package core

// convert.go turns raw spreadsheet cells into typed values.
//
// Roster sheets are filled in by hand, so numeric columns arrive in many shapes:
//   - real numbers from numeric cells
//   - numeric text, possibly with thousands separators ("1,000")
//   - Excel formula prefixes (="700")
//   - free text, blanks, or error literals (#N/A)
//
// Anything that is not a finite number is reported as not ok so the caller
// can apply its defaulting policy.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a plain decimal number after cleanup.
// Matches integers, decimals, and scientific notation; rejects NaN/Inf literals.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber extracts a finite float64 from a cell.
func ParseNumber(c Cell) (float64, bool) {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0, false
		}
		return c.Num, true
	case CellString:
		return parseNumericText(c.Str)
	default:
		return 0, false
	}
}

func parseNumericText(s string) (float64, bool) {
	s = CleanCell(s)
	if s == "" {
		return 0, false
	}

	// Thousands separators only; a decimal comma is not supported.
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
//
// It is meant for typed columns and header labels. Free-text columns such as
// names are never cleaned.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
