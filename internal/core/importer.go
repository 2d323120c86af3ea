package core

// importer.go converts parsed spreadsheet records into register rows.
//
// Each record is a header -> cell map tagged with its source line. Headers are matched against the
// register's header dictionary (field header, aliases and wire name),
// ignoring case, spacing and spreadsheet artefacts. Every value is entered
// through the derived-field engine exactly as a user would type it, so codes,
// lookups and date arithmetic come out the same as for manual entry.
//
// A single bad cell fails the whole import: callers append the result with
// Store.Append, so either every record lands or none does.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRecognizedHeaders is returned when no column of the file matches the register.
	ErrNoRecognizedHeaders = errors.New("no recognized column headers")

	// ErrEmptyImport is returned when the file has headers but no data rows.
	ErrEmptyImport = errors.New("file contains no data rows")

	// ErrTooManyRows is returned when the file exceeds the import row limit.
	ErrTooManyRows = errors.New("too many rows in import")
)

// Record is one data row of an uploaded file.
type Record struct {
	Line  int // row number in the source file; 0 when unknown
	Cells map[string]string
}

// ImportError describes the cell that stopped an import.
type ImportError struct {
	Line   int // source row number, or 1-based record position when unknown
	Header string
	Value  string
	Reason string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s (value %q)", e.Line, e.Header, e.Reason, e.Value)
}

// Importer converts tabular records into rows.
type Importer struct {
	MaxRows int // 0 means unlimited
}

// FromRecords maps records onto def's fields and returns the new rows, in
// record order, each with a fresh key. rc.Rows is the existing collection;
// codes are allocated against it plus the rows imported before.
// Records whose recognized cells are all empty are skipped.
func (im Importer) FromRecords(records []Record, def Definition, rc RuleContext) ([]Row, error) {
	dict := headerDictionary(def)
	if !anyRecognized(records, dict) {
		return nil, ErrNoRecognizedHeaders
	}

	engine := def.Engine()
	order := def.FieldNames()
	existing := rc.Rows

	var imported []Row
	for i, rec := range records {
		line := rec.Line
		if line <= 0 {
			line = i + 1
		}
		values, err := recordValues(rec.Cells, def, dict, line)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			continue
		}
		if im.MaxRows > 0 && len(imported) >= im.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, im.MaxRows)
		}

		scope := RuleContext{Owner: rc.Owner, Rows: concatRows(existing, imported)}
		row := engine.Enter(NewRow(nil), values, order, scope)
		if def.Code != nil && row.String(def.Code.Field) == "" {
			if code, ok := NextCode(scope.Rows, *def.Code, CodeInput{Owner: rc.Owner, Row: row}, row.Key); ok {
				row = row.With(def.Code.Field, code)
			}
		}
		imported = append(imported, row)
	}

	if len(imported) == 0 {
		return nil, ErrEmptyImport
	}
	return imported, nil
}

// headerDictionary maps normalized headers to field names. Derived and
// transient fields are left out: their values are recomputed, not imported.
func headerDictionary(def Definition) map[string]string {
	dict := make(map[string]string)
	for _, f := range def.Fields {
		if f.Derived || f.Transient {
			continue
		}
		dict[normalizeHeader(f.Name)] = f.Name
		dict[normalizeHeader(f.Header)] = f.Name
		for _, a := range f.Aliases {
			dict[normalizeHeader(a)] = f.Name
		}
	}
	return dict
}

func anyRecognized(records []Record, dict map[string]string) bool {
	for _, rec := range records {
		for h := range rec.Cells {
			if _, ok := dict[normalizeHeader(h)]; ok {
				return true
			}
		}
	}
	return false
}

// recordValues converts one record into typed field values.
func recordValues(rec map[string]string, def Definition, dict map[string]string, line int) (map[string]any, error) {
	values := make(map[string]any, len(rec))
	for header, raw := range rec {
		name, ok := dict[normalizeHeader(header)]
		if !ok {
			continue
		}
		cell := CleanCell(raw)
		if cell == "" {
			continue
		}
		spec, _ := def.Field(name)

		switch spec.Type {
		case FieldDate:
			t, ok := ParseDate(cell)
			if !ok {
				return nil, &ImportError{Line: line, Header: header, Value: cell, Reason: "invalid date"}
			}
			values[name] = FormatDate(t)
		case FieldNumeric:
			if _, ok := ParseNumber(cell); !ok {
				return nil, &ImportError{Line: line, Header: header, Value: cell, Reason: "invalid number"}
			}
			values[name] = strings.ReplaceAll(cell, ",", "")
		case FieldEnum:
			values[name] = canonicalEnum(spec, cell)
		default:
			values[name] = cell
		}
	}
	return values, nil
}

// canonicalEnum returns the declared spelling of an enum value, or v when
// it is not declared. Unknown values are caught by validation before save.
func canonicalEnum(spec FieldSpec, v string) string {
	for _, ev := range spec.EnumValues {
		if strings.EqualFold(ev, v) {
			return ev
		}
	}
	return v
}

func concatRows(a, b []Row) []Row {
	out := make([]Row, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
