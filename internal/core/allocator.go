package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// CodeSuffixWidth is the zero-padded width of the numeric code suffix.
const CodeSuffixWidth = 4

// PartSource identifies where a code prefix segment comes from.
type PartSource int

const (
	PartOwner   PartSource = iota // Owner.Name
	PartLiteral                   // CodePart.Literal
	PartField                     // the row's CodePart.Field value
	PartPeriod                    // Owner.Period
)

// CodePart is one segment of a composite code prefix.
type CodePart struct {
	Source  PartSource
	Literal string
	Field   string
	Width   int // Leading characters kept; 0 keeps the whole value
}

// CodeScheme describes how a register builds its sequential codes.
type CodeScheme struct {
	Field string // Row field holding the code
	Parts []CodePart
}

// CodeInput carries the values a prefix is built from.
type CodeInput struct {
	Owner Owner
	Row   Row
}

// Prefix builds the composite prefix, e.g. "Acme/EEE/ITEW/".
// It returns false when any segment is empty.
func (s CodeScheme) Prefix(in CodeInput) (string, bool) {
	segments := make([]string, 0, len(s.Parts))
	for _, p := range s.Parts {
		var v string
		switch p.Source {
		case PartOwner:
			v = in.Owner.Name
		case PartLiteral:
			v = p.Literal
		case PartField:
			v = in.Row.String(p.Field)
		case PartPeriod:
			v = in.Owner.Period
		}
		v = leading(strings.TrimSpace(v), p.Width)
		if v == "" {
			return "", false
		}
		segments = append(segments, v)
	}
	return strings.Join(segments, "/") + "/", true
}

// leading returns the first n runes of s, or s when n is 0 or s is shorter.
func leading(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// NextCode returns the next unused code under the scheme's prefix.
//
// Rows whose code starts with the exact prefix are scanned and the largest
// all-digit suffix is incremented. The row keyed excludeKey is skipped so a
// row regenerating its own code after a reclassification does not count
// itself. Only rows present in rows are considered: a deleted row's number
// can be issued again.
func NextCode(rows []Row, scheme CodeScheme, in CodeInput, excludeKey string) (string, bool) {
	prefix, ok := scheme.Prefix(in)
	if !ok {
		return "", false
	}
	return nextWithPrefix(rows, scheme.Field, prefix, excludeKey), true
}

func nextWithPrefix(rows []Row, field, prefix, excludeKey string) string {
	max := 0
	for _, r := range rows {
		if excludeKey != "" && r.Key == excludeKey {
			continue
		}
		code := r.String(field)
		if !strings.HasPrefix(code, prefix) {
			continue
		}
		suffix := code[strings.LastIndex(code, "/")+1:]
		if !allDigits(suffix) {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, CodeSuffixWidth, max+1)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
