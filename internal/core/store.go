package core

// store.go implements the register store: the ordered row collection for one
// register and one owner, plus the snapshot taken at the last successful load
// or save. Dirty state is never stored; it is always computed by comparing a
// row against its snapshot counterpart.

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrRowNotFound is returned when no row has the requested key.
	ErrRowNotFound = errors.New("row not found")

	// ErrUnknownField is returned when an edit names a field the register does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrDuplicateKey is returned when appended rows collide with existing keys.
	ErrDuplicateKey = errors.New("duplicate row key")
)

// Removal records a deleted row and where it stood, for rollback.
type Removal struct {
	Row   Row
	Index int
}

// Store owns a register's rows and snapshot.
type Store struct {
	mu sync.Mutex

	def       Definition
	engine    *Engine
	owner     Owner
	transient map[string]bool
	gate      *SaveGate

	rows     []Row
	snapshot map[string]Row
	order    []string // snapshot keys in collection order

	loadedAt time.Time
	savedAt  time.Time
}

// NewStore creates an empty store for one register and owner.
func NewStore(def Definition, owner Owner) *Store {
	transient := make(map[string]bool)
	for _, f := range def.Fields {
		if f.Transient {
			transient[f.Name] = true
		}
	}
	return &Store{
		def:       def,
		engine:    def.Engine(),
		owner:     owner,
		transient: transient,
		gate:      NewSaveGate(),
		snapshot:  make(map[string]Row),
	}
}

// Definition returns the register definition the store was created with.
func (s *Store) Definition() Definition {
	return s.def
}

// Owner returns the owning client.
func (s *Store) Owner() Owner {
	return s.owner
}

// Load replaces rows and snapshot with the given rows. All rows are clean
// afterwards. Rows without a key, or repeating an earlier key, get a fresh one.
func (s *Store) Load(rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(rows))
	loaded := make([]Row, 0, len(rows))
	for _, r := range rows {
		r = s.hydrate(r.Clone())
		if r.Key == "" || seen[r.Key] {
			r.Key = NewKey()
		}
		r.IsEditing = false
		seen[r.Key] = true
		loaded = append(loaded, r)
	}

	s.rows = loaded
	s.takeSnapshot(loaded)
	s.loadedAt = time.Now()
}

// hydrate turns persisted attachment paths into Attachment values.
func (s *Store) hydrate(r Row) Row {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	for _, f := range s.def.Fields {
		if f.Type != FieldAttachment {
			continue
		}
		if v, ok := r.Values[f.Name].(string); ok {
			if v == "" {
				delete(r.Values, f.Name)
				continue
			}
			r.Values[f.Name] = Attachment{URL: v}
		}
	}
	return r
}

func (s *Store) takeSnapshot(rows []Row) {
	s.snapshot = make(map[string]Row, len(rows))
	s.order = make([]string, 0, len(rows))
	for _, r := range rows {
		s.snapshot[r.Key] = r.Clone()
		s.order = append(s.order, r.Key)
	}
}

// AddRow appends a new row built from the register defaults and the given
// values. Derived fields are computed and, where the register has a code
// scheme, a code is allocated. The row is dirty until saved.
func (s *Store) AddRow(values map[string]any) Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make(map[string]any, len(s.def.Defaults)+len(values))
	for k, v := range s.def.Defaults {
		merged[k] = v
	}
	for k, v := range values {
		if v = emptyToNil(v); v != nil {
			merged[k] = v
		}
	}

	row := NewRow(nil)
	row.IsEditing = true
	row = s.engine.Populate(row, merged, s.def.FieldNames(), s.ruleContext())
	row = s.allocateCode(row)

	s.rows = append(s.rows, row)
	return row.Clone()
}

// allocateCode fills an empty code field when the scheme's prefix is complete.
func (s *Store) allocateCode(row Row) Row {
	if s.def.Code == nil || row.String(s.def.Code.Field) != "" {
		return row
	}
	code, ok := NextCode(s.rows, *s.def.Code, CodeInput{Owner: s.owner, Row: row}, row.Key)
	if !ok {
		return row
	}
	return row.With(s.def.Code.Field, code)
}

// EditField sets one field of the row identified by key and recomputes the
// fields derived from it. The row is replaced, never mutated in place.
func (s *Store) EditField(key, field string, value any) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.def.Field(field); !ok {
		return Row{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	i := s.indexOf(key)
	if i < 0 {
		return Row{}, fmt.Errorf("%w: %s", ErrRowNotFound, key)
	}

	updated := s.engine.Apply(s.rows[i], field, value, s.ruleContext())
	s.rows[i] = updated
	return updated.Clone(), nil
}

// BlurField runs the on-blur normalisation for field, e.g. rescaling a
// percentage typed without its decimal point.
func (s *Store) BlurField(key, field string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.def.Field(field); !ok {
		return Row{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	i := s.indexOf(key)
	if i < 0 {
		return Row{}, fmt.Errorf("%w: %s", ErrRowNotFound, key)
	}

	updated := s.engine.Blur(s.rows[i], field, s.ruleContext())
	s.rows[i] = updated
	return updated.Clone(), nil
}

// ResolveAttachment replaces a pending file with its uploaded URL. The
// replacement only happens if the field still holds that same pending file;
// a newer selection made during the upload is kept.
func (s *Store) ResolveAttachment(key, field string, file *PendingFile, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return false
	}
	current, ok := s.rows[i].Get(field).(Attachment)
	if !ok || current.File != file {
		return false
	}
	s.rows[i] = s.rows[i].With(field, Attachment{URL: url})
	return true
}

// ToggleEdit flips the row's IsEditing flag. Persisted state is unaffected.
func (s *Store) ToggleEdit(key string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return Row{}, fmt.Errorf("%w: %s", ErrRowNotFound, key)
	}
	r := s.rows[i].Clone()
	r.IsEditing = !r.IsEditing
	s.rows[i] = r
	return r.Clone(), nil
}

// IsDirty reports whether r differs from its snapshot counterpart, or has none.
func (s *Store) IsDirty(r Row) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isDirty(r)
}

func (s *Store) isDirty(r Row) bool {
	snap, ok := s.snapshot[r.Key]
	if !ok {
		return true
	}
	return !rowsEqual(r, snap, s.transient)
}

// DirtyKeys returns the keys of all dirty rows in collection order.
func (s *Store) DirtyKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for _, r := range s.rows {
		if s.isDirty(r) {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

// HasChanges reports whether the collection differs from the snapshot,
// including rows deleted locally but not yet saved.
func (s *Store) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasChanges()
}

func (s *Store) hasChanges() bool {
	if len(s.rows) != len(s.snapshot) {
		return true
	}
	for _, r := range s.rows {
		if s.isDirty(r) {
			return true
		}
	}
	return false
}

// Revert restores the row to its snapshot values. A row with no snapshot
// counterpart (never saved) is left as it is; reverting does not delete it.
func (s *Store) Revert(key string) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return Row{}, fmt.Errorf("%w: %s", ErrRowNotFound, key)
	}
	snap, ok := s.snapshot[key]
	if !ok {
		return s.rows[i].Clone(), nil
	}
	restored := snap.Clone()
	restored.IsEditing = false
	s.rows[i] = restored
	return restored.Clone(), nil
}

// DeleteRow removes the row and returns it with its index for rollback.
func (s *Store) DeleteRow(key string) (Removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return Removal{}, fmt.Errorf("%w: %s", ErrRowNotFound, key)
	}
	removed := s.rows[i]
	s.rows = append(s.rows[:i:i], s.rows[i+1:]...)
	return Removal{Row: removed, Index: i}, nil
}

// Restore re-inserts a removed row at its original index. If the collection
// shrank in the meantime the row goes to the end. Restoring a key that is
// already present is a no-op.
func (s *Store) Restore(rem Removal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rem.Row.Key) >= 0 {
		return
	}
	i := rem.Index
	if i < 0 || i > len(s.rows) {
		i = len(s.rows)
	}
	rows := make([]Row, 0, len(s.rows)+1)
	rows = append(rows, s.rows[:i]...)
	rows = append(rows, rem.Row)
	rows = append(rows, s.rows[i:]...)
	s.rows = rows
}

// Append adds rows to the end of the collection. Either every row is added
// or, if any key is empty or already present, none is.
func (s *Store) Append(rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.rows)+len(rows))
	for _, r := range s.rows {
		seen[r.Key] = true
	}
	for _, r := range rows {
		if r.Key == "" || seen[r.Key] {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, r.Key)
		}
		seen[r.Key] = true
	}
	for _, r := range rows {
		s.rows = append(s.rows, s.hydrate(r.Clone()))
	}
	return nil
}

// Commit replaces the snapshot with a deep copy of rows, the collection
// the persistence service has just confirmed.
func (s *Store) Commit(rows []Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.takeSnapshot(rows)
	s.savedAt = time.Now()
}

// Rows returns a deep copy of the current collection.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.rows)
}

// Row returns a copy of the row identified by key.
func (s *Store) Row(key string) (Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return Row{}, false
	}
	return s.rows[i].Clone(), true
}

// Snapshot returns a deep copy of the last confirmed collection.
func (s *Store) Snapshot() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Row, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.snapshot[k].Clone())
	}
	return out
}

// Len returns the number of rows in the collection.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// View returns the rows with their dirty flags.
func (s *Store) View() RegisterView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := RegisterView{
		Kind:       s.def.Info.Kind,
		Owner:      s.owner,
		Rows:       make([]RowView, 0, len(s.rows)),
		HasChanges: s.hasChanges(),
		Saving:     s.gate.Busy(),
		LoadedAt:   s.loadedAt,
		SavedAt:    s.savedAt,
	}
	for _, r := range s.rows {
		dirty := s.isDirty(r)
		if dirty {
			view.DirtyCount++
		}
		view.Rows = append(view.Rows, RowView{Row: r.Clone(), Dirty: dirty, Editing: r.IsEditing})
	}
	return view
}

// RuleContext returns a copy of the context rules run with for this store.
func (s *Store) RuleContext() RuleContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RuleContext{Owner: s.owner, Rows: cloneRows(s.rows)}
}

func (s *Store) ruleContext() RuleContext {
	return RuleContext{Owner: s.owner, Rows: s.rows}
}

func (s *Store) indexOf(key string) int {
	for i, r := range s.rows {
		if r.Key == key {
			return i
		}
	}
	return -1
}
