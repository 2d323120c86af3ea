// Package sheet reads and writes register spreadsheets (.xlsx).
//
// ReadRecords turns the first worksheet of an uploaded workbook into
// header -> cell records for the core importer. Template and Export write a
// single formatted worksheet: bold header row, frozen below the header, and
// a drop-down list on every enumerated column.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/eprregister/internal/core"
	"github.com/xuri/excelize/v2"
)

// ErrNotSpreadsheet is returned when an upload cannot be opened as a workbook.
var ErrNotSpreadsheet = errors.New("file is not a spreadsheet")

// ErrNoHeader is returned when the first worksheet has no non-empty row.
var ErrNoHeader = errors.New("spreadsheet has no header row")

// ContentType is the MIME type of the workbooks written by this package.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// validationRows is how far down enum drop-downs extend.
const validationRows = 1000

// ReadRecords reads the first worksheet. The first non-empty row is the
// header; each following non-blank row becomes a record keyed by header
// text and tagged with its worksheet row number. Cells are read raw, so
// dates arrive as serial numbers or as typed.
func ReadRecords(r io.Reader) ([]core.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSpreadsheet, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrNotSpreadsheet)
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	start := -1
	for i, row := range rows {
		if !blank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	header := rows[start]
	records := make([]core.Record, 0, len(rows)-start-1)
	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		rec := make(map[string]string, len(header))
		for col, h := range header {
			h = strings.TrimSpace(h)
			if h == "" || col >= len(row) {
				continue
			}
			rec[h] = row[col]
		}
		records = append(records, core.Record{Line: i + 1, Cells: rec})
	}
	return records, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Template writes an import template for def: the header row followed by
// the register's reference rows, with derived columns filled in as the
// register would compute them.
func Template(def core.Definition) ([]byte, error) {
	owner := core.Owner{ID: "sample", Name: "Sample", Period: core.FinancialYear(time.Now())}
	engine := def.Engine()

	var rows []core.Row
	for _, values := range def.Samples {
		rc := core.RuleContext{Owner: owner, Rows: rows}
		row := engine.Enter(core.NewRow(nil), values, def.FieldNames(), rc)
		if def.Code != nil && row.String(def.Code.Field) == "" {
			if code, ok := core.NextCode(rows, *def.Code, core.CodeInput{Owner: owner, Row: row}, row.Key); ok {
				row = row.With(def.Code.Field, code)
			}
		}
		rows = append(rows, row)
	}
	return Export(def, rows)
}

// Export writes rows as a workbook with def's columns.
func Export(def core.Definition, rows []core.Row) ([]byte, error) {
	var fields []core.FieldSpec
	for _, spec := range def.Fields {
		if !spec.Transient {
			fields = append(fields, spec)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := sheetTitle(def.Info.Label)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(index)

	if err := writeHeader(f, sheetName, fields); err != nil {
		return nil, err
	}

	for i, row := range rows {
		for col, spec := range fields {
			v := cellValue(spec, row.Get(spec.Name))
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	if err := addDropDowns(f, sheetName, fields); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheetName string, fields []core.FieldSpec) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, spec := range fields {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, spec.Header); err != nil {
			return fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, style); err != nil {
			return fmt.Errorf("set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, name, name, columnWidth(spec)); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// addDropDowns attaches a list validation to enumerated columns. Lists too
// long for a spreadsheet drop-down are left without one.
func addDropDowns(f *excelize.File, sheetName string, fields []core.FieldSpec) error {
	for col, spec := range fields {
		if spec.Type != core.FieldEnum || spec.Derived || len(spec.EnumValues) == 0 {
			continue
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("convert column number: %w", err)
		}
		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s%d", name, name, validationRows)
		if err := dv.SetDropList(spec.EnumValues); err != nil {
			continue
		}
		if err := f.AddDataValidation(sheetName, dv); err != nil {
			return fmt.Errorf("add validation to %s: %w", spec.Header, err)
		}
	}
	return nil
}

// cellValue converts a row value for writing. Numeric fields are written as
// numbers so spreadsheet formulas work on them.
func cellValue(spec core.FieldSpec, v any) any {
	s := strings.TrimSpace(core.ValueString(v))
	if s == "" {
		return nil
	}
	if spec.Type == core.FieldNumeric {
		if n, ok := core.ParseNumber(s); ok {
			return n
		}
	}
	return s
}

func columnWidth(spec core.FieldSpec) float64 {
	switch spec.Type {
	case core.FieldDate:
		return 14
	case core.FieldNumeric:
		return 12
	case core.FieldAttachment:
		return 40
	}
	if w := float64(len(spec.Header)) + 4; w > 18 {
		return w
	}
	return 18
}

// sheetTitle trims a label to the 31 characters a worksheet name allows.
func sheetTitle(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "Sheet1"
	}
	if r := []rune(label); len(r) > 31 {
		return string(r[:31])
	}
	return label
}
