package core

// row.go defines the register row, its attachment values and the helpers
// used for snapshots and dirty comparison.
//
// A Row is a mapping from field name to value. Values are strings, float64
// numbers (as decoded from the persistence service) or Attachment. Two
// fields are structural and live outside the map: Key, the row identity, and
// IsEditing, which is UI state and never persisted.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Row is one line of a register.
type Row struct {
	Key       string
	IsEditing bool
	Values    map[string]any
}

// PendingFile is an in-memory file waiting to be uploaded. It is never
// modified after creation.
type PendingFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Attachment references an uploaded document. Exactly one of URL and File
// is set: URL once the file is stored, File while the upload is pending.
type Attachment struct {
	URL  string
	File *PendingFile
}

// Pending reports whether the attachment still needs to be uploaded.
func (a Attachment) Pending() bool {
	return a.File != nil
}

// MarshalJSON writes the persisted reference. Pending files are written as
// null; they must be uploaded before a save.
func (a Attachment) MarshalJSON() ([]byte, error) {
	if a.File != nil {
		return []byte("null"), nil
	}
	return json.Marshal(a.URL)
}

// NewKey returns a fresh client-side row key.
func NewKey() string {
	return "new-" + uuid.NewString()
}

// NewRow returns a row with a fresh key and the given values.
func NewRow(values map[string]any) Row {
	r := Row{Key: NewKey(), Values: make(map[string]any, len(values))}
	for k, v := range values {
		r.Values[k] = cloneValue(v)
	}
	return r
}

// Get returns the value of a field, or nil.
func (r Row) Get(field string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[field]
}

// String returns the textual form of a field, or "" when unset.
func (r Row) String(field string) string {
	return ValueString(r.Get(field))
}

// With returns a copy of r with field set to v. The receiver is not modified.
func (r Row) With(field string, v any) Row {
	out := r.Clone()
	if v == nil {
		delete(out.Values, field)
		return out
	}
	out.Values[field] = cloneValue(v)
	return out
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := Row{Key: r.Key, IsEditing: r.IsEditing, Values: make(map[string]any, len(r.Values))}
	for k, v := range r.Values {
		out.Values[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies a field value. Pending files are immutable once attached
// and are shared between copies, so identity checks on File stay valid.
func cloneValue(v any) any {
	if a, ok := v.(*Attachment); ok {
		if a == nil {
			return nil
		}
		return *a
	}
	return v
}

// ValueString converts a row value to its textual form.
// Numbers are formatted without trailing zeros; attachments yield their URL
// or the pending file name.
func ValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case Attachment:
		if t.File != nil {
			return t.File.Name
		}
		return t.URL
	default:
		return fmt.Sprint(t)
	}
}

// valuesEqual compares two field values for dirty tracking.
func valuesEqual(a, b any) bool {
	aa, aIsAtt := a.(Attachment)
	ba, bIsAtt := b.(Attachment)
	if aIsAtt || bIsAtt {
		if aIsAtt && bIsAtt {
			if aa.File != nil || ba.File != nil {
				return aa.File == ba.File
			}
			return aa.URL == ba.URL
		}
		// A stored attachment and its bare URL string are the same value.
		if aIsAtt && aa.File == nil {
			return aa.URL == ValueString(b)
		}
		if bIsAtt && ba.File == nil {
			return ba.URL == ValueString(a)
		}
		return false
	}
	return strings.TrimSpace(ValueString(a)) == strings.TrimSpace(ValueString(b))
}

// rowsEqual reports whether two rows hold the same persisted values.
// Keys in skip (transient fields) are ignored.
func rowsEqual(a, b Row, skip map[string]bool) bool {
	seen := make(map[string]bool, len(a.Values))
	for k, av := range a.Values {
		if skip[k] {
			continue
		}
		seen[k] = true
		if !valuesEqual(av, b.Values[k]) {
			return false
		}
	}
	for k, bv := range b.Values {
		if skip[k] || seen[k] {
			continue
		}
		if !valuesEqual(nil, bv) {
			return false
		}
	}
	return true
}

// cloneRows deep-copies a slice of rows.
func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// MarshalJSON writes the row as a flat object of persisted values plus "key".
// IsEditing is UI state and is never written.
func (r Row) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(r.Values))
	for k := range r.Values {
		if k == "key" {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	keyJSON, _ := json.Marshal(r.Key)
	buf.WriteString(`"key":`)
	buf.Write(keyJSON)
	for _, name := range names {
		nameJSON, _ := json.Marshal(name)
		valJSON, err := json.Marshal(r.Values[name])
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", name, err)
		}
		buf.WriteByte(',')
		buf.Write(nameJSON)
		buf.WriteByte(':')
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat row object. The identity is taken from "key",
// falling back to the server's "_id" or "id". None of the identity fields
// are kept as values; the row is written back with "key" only.
func (r *Row) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Values = make(map[string]any, len(raw))
	r.Key = ""
	r.IsEditing = false
	for _, idField := range []string{"key", "_id", "id"} {
		if v, ok := raw[idField]; ok && r.Key == "" {
			r.Key = ValueString(v)
		}
	}
	for k, v := range raw {
		switch k {
		case "key", "_id", "id", "isEditing":
			continue
		}
		if v == nil {
			continue
		}
		r.Values[k] = v
	}
	return nil
}
