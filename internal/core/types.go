package core

import (
	"fmt"
	"time"
)

// FieldType represents the expected data type for a register field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldAttachment
)

// FieldSpec describes one column of a register.
type FieldSpec struct {
	Name       string    // Row field name used on the wire: "dateOfPlacing"
	Header     string    // Spreadsheet header: "Date of Placing on Market"
	Aliases    []string  // Additional headers accepted on import
	Type       FieldType // Expected data type
	Required   bool      // Must be non-empty before save
	Derived    bool      // Computed by a rule; import values are recomputed
	EnumValues []string  // Valid values for FieldEnum; nil means free text
	Transient  bool      // Never persisted and never compared for dirtiness
}

// RegisterInfo contains display information about a register.
type RegisterInfo struct {
	Kind  string // Unique identifier: "categories"
	Label string // Display name: "EEE Categories"
	Group string // Waste stream: "E-Waste", "Plastic"
}

// Definition contains everything needed to operate one register kind.
type Definition struct {
	Info     RegisterInfo
	Fields   []FieldSpec
	Rules    []Rule
	Code     *CodeScheme      // nil when rows carry no sequential code
	Defaults map[string]any   // Values applied to every new row
	Samples  []map[string]any // Reference rows written into the import template

	engine *Engine
}

// Field returns the spec for the named field.
func (d Definition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the field names in declaration order.
func (d Definition) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// Headers returns the spreadsheet headers in field order.
func (d Definition) Headers() []string {
	headers := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Transient {
			continue
		}
		headers = append(headers, f.Header)
	}
	return headers
}

// Owner identifies the client a register belongs to.
type Owner struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Period string `json:"period,omitempty"` // Financial year, e.g. "2024-25"
}

// FinancialYear returns the April-March financial year containing t, e.g. "2024-25".
func FinancialYear(t time.Time) string {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	return fmt.Sprintf("%d-%02d", start, (start+1)%100)
}

// RowView is a row as presented to clients, with its dirty flag.
type RowView struct {
	Row     Row  `json:"row"`
	Dirty   bool `json:"dirty"`
	Editing bool `json:"isEditing"`
}

// RegisterView is a full register as presented to clients.
type RegisterView struct {
	Kind       string    `json:"kind"`
	Owner      Owner     `json:"owner"`
	Rows       []RowView `json:"rows"`
	DirtyCount int       `json:"dirtyCount"`
	HasChanges bool      `json:"hasChanges"` // includes unsaved local deletes
	Saving     bool      `json:"saving"`
	LoadedAt   time.Time `json:"loadedAt"`
	SavedAt    time.Time `json:"savedAt,omitempty"`
}
