package core

// convert.go provides tolerant parsing for values typed into register cells
// or read from spreadsheets.
//
// These functions handle the messy reality of user-entered data:
//   - Multiple date formats (ISO, Indian DD/MM/YYYY, spreadsheet serials)
//   - Percent signs and thousand separators in numbers
//   - Excel formula prefixes (="value") and stray quotes
//
// Every parse function reports failure with ok=false rather than an error.
// Derived-field rules absorb such failures and leave their targets alone.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical format for dates stored in rows.
const DateLayout = "2006-01-02"

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
// Day-first layouts precede month-first ones: registers are kept in India.
var (
	twoDigitYearLayouts = []string{
		"2/1/06", "02/01/06", "2-1-06", "02-01-06", "2.1.06", "02.01.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05",
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
		"2 Jan 2006", "02-Jan-2006", "Jan 2, 2006",
		"20060102",
	}
)

// excelEpoch is day zero of the 1900 date system as spreadsheets count it.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseNumber parses a numeric cell. A trailing percent sign, surrounding
// whitespace and thousands separators are ignored.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatNumber formats a number without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseDate parses a date cell in any supported layout.
// Spreadsheet serial numbers (e.g. "45292") are accepted as well.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}

	currentYear := time.Now().Year()
	pivotYear := currentYear + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return dateOnly(t), true
		}
	}

	// Five-digit serials only, so a typed year such as "2023" is not read as 1905.
	if serial, err := strconv.Atoi(s); err == nil && serial >= 10000 && serial <= 99999 {
		return excelEpoch.AddDate(0, 0, serial), true
	}

	return time.Time{}, false
}

// FormatDate formats a date in the canonical row layout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// maxDurationYears bounds the durations addYears accepts.
const maxDurationYears = 1000

// addYears adds a possibly fractional number of years to t.
// Fractions are applied as whole months, rounded to the nearest month.
// It reports false for durations outside [0, maxDurationYears] and for
// results past year 9999, which no date layout can hold.
func addYears(t time.Time, years float64) (time.Time, bool) {
	if math.IsNaN(years) || years < 0 || years > maxDurationYears {
		return time.Time{}, false
	}
	whole := math.Trunc(years)
	months := int(math.Round((years - whole) * 12))
	end := t.AddDate(int(whole), months, 0)
	if end.Year() > 9999 {
		return time.Time{}, false
	}
	return end, true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// normalizeHeader lowercases a header and collapses internal whitespace so
// "Date of  Placing " matches "date of placing".
func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(CleanCell(h)), " "))
}
