package core

import (
	"math"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		// Valid
		{name: "positive integer", input: "123", wantValid: true, wantValue: 123},
		{name: "zero", input: "0", wantValid: true, wantValue: 0},
		{name: "negative integer", input: "-456", wantValid: true, wantValue: -456},
		{name: "decimal number", input: "123.45", wantValid: true, wantValue: 123.45},
		{name: "leading decimal point", input: ".5", wantValid: true, wantValue: 0.5},
		{name: "trailing decimal point", input: "99.", wantValid: true, wantValue: 99},
		{name: "thousands separators", input: "1,234,567.5", wantValid: true, wantValue: 1234567.5},
		{name: "percent sign", input: "12.5%", wantValid: true, wantValue: 12.5},
		{name: "surrounding whitespace", input: "  42  ", wantValid: true, wantValue: 42},
		{name: "scientific notation", input: "1e3", wantValid: true, wantValue: 1000},

		// Invalid
		{name: "empty string", input: "", wantValid: false},
		{name: "whitespace only", input: "   ", wantValid: false},
		{name: "text", input: "abc", wantValid: false},
		{name: "unit suffix", input: "12 kg", wantValid: false},
		{name: "currency symbol", input: "$5", wantValid: false},
		{name: "two decimal points", input: "1.2.3", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && got != tt.wantValue {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.wantValue)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{3, "3"},
		{10.5, "10.5"},
		{0.01, "0.01"},
		{-2.25, "-2.25"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.input); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantDate  string // Expected date in YYYY-MM-DD format
	}{
		// ISO
		{name: "ISO date", input: "2024-04-01", wantValid: true, wantDate: "2024-04-01"},
		{name: "ISO with slashes", input: "2024/04/01", wantValid: true, wantDate: "2024-04-01"},
		{name: "ISO timestamp", input: "2024-04-01T10:30:00Z", wantValid: true, wantDate: "2024-04-01"},
		{name: "compact", input: "20240401", wantValid: true, wantDate: "2024-04-01"},

		// Day first
		{name: "DD/MM/YYYY", input: "01/04/2024", wantValid: true, wantDate: "2024-04-01"},
		{name: "D/M/YYYY", input: "1/4/2024", wantValid: true, wantDate: "2024-04-01"},
		{name: "DD-MM-YYYY", input: "15-08-2023", wantValid: true, wantDate: "2023-08-15"},
		{name: "DD.MM.YYYY", input: "15.08.2023", wantValid: true, wantDate: "2023-08-15"},
		{name: "two digit year", input: "01/04/24", wantValid: true, wantDate: "2024-04-01"},

		// Month names
		{name: "day month name", input: "15 Aug 2023", wantValid: true, wantDate: "2023-08-15"},
		{name: "month name first", input: "Aug 15, 2023", wantValid: true, wantDate: "2023-08-15"},

		// Spreadsheet serials
		{name: "serial number", input: "45292", wantValid: true, wantDate: "2024-01-01"},
		{name: "serial with whitespace", input: " 45383 ", wantValid: true, wantDate: "2024-04-01"},

		// Invalid
		{name: "empty", input: "", wantValid: false},
		{name: "bare year is not a serial", input: "2023", wantValid: false},
		{name: "impossible month", input: "31/31/2024", wantValid: false},
		{name: "text", input: "next week", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantValid {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantValid)
			}
			if ok && FormatDate(got) != tt.wantDate {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, FormatDate(got), tt.wantDate)
			}
		})
	}
}

func TestAddYears(t *testing.T) {
	base := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		years float64
		want  string
	}{
		{10, "2034-01-15"},
		{0.5, "2024-07-15"},
		{0.25, "2024-04-15"},
		{2.5, "2026-07-15"},
		{0, "2024-01-15"},
		{1000, "3024-01-15"},
	}

	for _, tt := range tests {
		got, ok := addYears(base, tt.years)
		if !ok {
			t.Errorf("addYears(%v) rejected", tt.years)
			continue
		}
		if FormatDate(got) != tt.want {
			t.Errorf("addYears(%v) = %s, want %s", tt.years, FormatDate(got), tt.want)
		}
	}
}

func TestAddYears_OutOfRange(t *testing.T) {
	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(9500, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		start time.Time
		years float64
	}{
		{base, -1},
		{base, 1000.5},
		{base, 1e9},
		{base, 1e19},
		{base, math.Inf(1)},
		{base, math.NaN()},
		{late, 600},
	}

	for _, tt := range tests {
		if got, ok := addYears(tt.start, tt.years); ok {
			t.Errorf("addYears(%v, %v) = %s, want rejection", FormatDate(tt.start), tt.years, FormatDate(got))
		}
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain value", input: "hello", want: "hello"},
		{name: "whitespace trimmed", input: "  hello  ", want: "hello"},
		{name: "excel text formula", input: `="00123"`, want: "00123"},
		{name: "formula prefix", input: "=5", want: "5"},
		{name: "double quotes", input: `"quoted"`, want: "quoted"},
		{name: "single quotes", input: "'quoted'", want: "quoted"},
		{name: "empty", input: "", want: ""},
		{name: "inner quotes kept", input: `say "hi" now`, want: `say "hi" now`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Date of Placing", "date of placing"},
		{"  Date of   Placing ", "date of placing"},
		{"EEE CODE", "eee code"},
		{`="Quantity"`, "quantity"},
	}

	for _, tt := range tests {
		if got := normalizeHeader(tt.input); got != tt.want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
