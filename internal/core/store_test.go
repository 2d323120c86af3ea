package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedStore(t *testing.T, rows ...Row) *Store {
	t.Helper()
	s := NewStore(assetsDefinition(), testOwner)
	s.Load(rows)
	return s
}

func savedRow(key string, values map[string]any) Row {
	r := NewRow(values)
	r.Key = key
	return r
}

func TestStore_LoadIsClean(t *testing.T) {
	s := loadedStore(t,
		savedRow("a", map[string]any{"category": "IT", "item": "Laptop", "life": 5.0}),
		savedRow("b", map[string]any{"category": "CE", "item": "Fridge"}),
	)

	assert.Equal(t, 2, s.Len())
	assert.Empty(t, s.DirtyKeys())
	assert.False(t, s.HasChanges())

	view := s.View()
	assert.Equal(t, 0, view.DirtyCount)
	assert.False(t, view.LoadedAt.IsZero())
}

func TestStore_LoadAssignsMissingAndDuplicateKeys(t *testing.T) {
	s := loadedStore(t,
		savedRow("", map[string]any{"item": "one"}),
		savedRow("dup", map[string]any{"item": "two"}),
		savedRow("dup", map[string]any{"item": "three"}),
	)

	rows := s.Rows()
	require.Len(t, rows, 3)
	seen := map[string]bool{}
	for _, r := range rows {
		assert.NotEmpty(t, r.Key)
		assert.False(t, seen[r.Key], "key %s repeated", r.Key)
		seen[r.Key] = true
	}
	assert.Equal(t, "dup", rows[1].Key)
}

func TestStore_LoadHydratesAttachments(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"doc": "https://files.example.com/a.pdf"}))

	r, ok := s.Row("a")
	require.True(t, ok)
	att, ok := r.Get("doc").(Attachment)
	require.True(t, ok)
	assert.Equal(t, "https://files.example.com/a.pdf", att.URL)
	assert.False(t, att.Pending())
	assert.False(t, s.IsDirty(r))
}

func TestStore_DirtyIsComputed(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"category": "IT", "item": "Laptop", "life": 5.0}))

	r, err := s.EditField("a", "item", "Phone")
	require.NoError(t, err)
	assert.True(t, s.IsDirty(r))
	assert.Equal(t, []string{"a"}, s.DirtyKeys())

	r, err = s.EditField("a", "item", "Laptop")
	require.NoError(t, err)
	assert.False(t, s.IsDirty(r), "editing back to the saved value clears the flag")
	assert.Equal(t, "5", r.String("life"), "lookup result equals the stored number")
}

func TestStore_TransientAndEditStateDoNotDirty(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"item": "Laptop"}))

	r, err := s.EditField("a", "scratch", "working note")
	require.NoError(t, err)
	assert.False(t, s.IsDirty(r))

	r, err = s.ToggleEdit("a")
	require.NoError(t, err)
	assert.True(t, r.IsEditing)
	assert.False(t, s.IsDirty(r))
}

func TestStore_AddRow(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"category": "IT", "code": "Acme/EEE/IT/0001", "item": "Laptop"}))

	r := s.AddRow(validRow("IT", "Phone"))

	assert.True(t, r.IsEditing)
	assert.True(t, s.IsDirty(r))
	assert.Equal(t, "Acme/EEE/IT/0002", r.String("code"))
	assert.Equal(t, "Phone", r.String("item"), "the category reset runs before the item is entered")
	assert.Equal(t, "7", r.String("life"))
	assert.Equal(t, "2031-04-15", r.String("endOfLife"))

	next := s.AddRow(validRow("IT", "Laptop"))
	assert.Equal(t, "Acme/EEE/IT/0003", next.String("code"))
	assert.Equal(t, 3, s.Len())
}

func TestStore_AddRowWithoutPrefixHasNoCode(t *testing.T) {
	s := loadedStore(t)

	r := s.AddRow(nil)

	assert.Empty(t, r.String("code"))
	assert.True(t, s.IsDirty(r))
}

func TestStore_AddRowAppliesDefaults(t *testing.T) {
	def := assetsDefinition()
	def.Defaults = map[string]any{"life": "2"}
	s := NewStore(def, testOwner)
	s.Load(nil)

	r := s.AddRow(map[string]any{"category": "IT", "placed": "2024-04-15"})
	assert.Equal(t, "2", r.String("life"))
	assert.Equal(t, "2026-04-15", r.String("endOfLife"))

	r = s.AddRow(map[string]any{"life": "3"})
	assert.Equal(t, "3", r.String("life"), "supplied values win over defaults")
}

func TestStore_Errors(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"item": "Laptop"}))

	_, err := s.EditField("missing", "item", "x")
	assert.ErrorIs(t, err, ErrRowNotFound)

	_, err = s.EditField("a", "colour", "red")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = s.BlurField("a", "colour")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = s.DeleteRow("missing")
	assert.ErrorIs(t, err, ErrRowNotFound)

	_, err = s.Revert("missing")
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestStore_Revert(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"category": "IT", "item": "Laptop"}))

	_, err := s.EditField("a", "category", "CE")
	require.NoError(t, err)
	_, err = s.ToggleEdit("a")
	require.NoError(t, err)

	r, err := s.Revert("a")
	require.NoError(t, err)
	assert.Equal(t, "IT", r.String("category"))
	assert.Equal(t, "Laptop", r.String("item"))
	assert.False(t, r.IsEditing)
	assert.False(t, s.HasChanges())

	added := s.AddRow(validRow("CE", "Fridge"))
	r, err = s.Revert(added.Key)
	require.NoError(t, err)
	assert.Equal(t, "Fridge", r.String("item"), "unsaved rows have nothing to revert to")
	assert.Equal(t, 2, s.Len())
}

func TestStore_DeleteAndRestore(t *testing.T) {
	s := loadedStore(t,
		savedRow("a", map[string]any{"item": "one"}),
		savedRow("b", map[string]any{"item": "two"}),
		savedRow("c", map[string]any{"item": "three"}),
	)

	rem, err := s.DeleteRow("b")
	require.NoError(t, err)
	assert.Equal(t, 1, rem.Index)
	assert.Equal(t, "two", rem.Row.String("item"))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.HasChanges(), "a local delete is a change")
	view := s.View()
	assert.True(t, view.HasChanges)
	assert.Equal(t, 0, view.DirtyCount, "no remaining row is dirty")
	assert.Len(t, s.Snapshot(), 3, "the snapshot keeps the row until saved")

	s.Restore(rem)
	rows := s.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{rows[0].Key, rows[1].Key, rows[2].Key})
	assert.False(t, s.HasChanges())

	s.Restore(rem)
	assert.Equal(t, 3, s.Len(), "restoring a present row is a no-op")
}

func TestStore_RestoreAfterShrinkAppends(t *testing.T) {
	s := loadedStore(t,
		savedRow("a", map[string]any{"item": "one"}),
		savedRow("b", map[string]any{"item": "two"}),
	)

	rem, err := s.DeleteRow("b")
	require.NoError(t, err)
	_, err = s.DeleteRow("a")
	require.NoError(t, err)

	s.Restore(rem)
	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].Key)
}

func TestStore_AppendIsAllOrNothing(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"item": "one"}))

	err := s.Append([]Row{
		savedRow("x", map[string]any{"item": "new"}),
		savedRow("a", map[string]any{"item": "clash"}),
	})
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 1, s.Len())

	err = s.Append([]Row{
		savedRow("x", map[string]any{"item": "new"}),
		savedRow("y", map[string]any{"item": "newer"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"x", "y"}, s.DirtyKeys())
}

func TestStore_CommitClearsDirty(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"item": "one"}))
	s.AddRow(validRow("IT", "Laptop"))
	_, err := s.EditField("a", "item", "uno")
	require.NoError(t, err)
	require.Len(t, s.DirtyKeys(), 2)

	s.Commit(s.Rows())

	assert.Empty(t, s.DirtyKeys())
	assert.Len(t, s.Snapshot(), 2)
	assert.False(t, s.View().SavedAt.IsZero())
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"item": "one"}))

	snap := s.Snapshot()
	snap[0].Values["item"] = "mutated"
	rows := s.Rows()
	rows[0].Values["item"] = "mutated"

	r, _ := s.Row("a")
	assert.Equal(t, "one", r.String("item"))
	assert.Equal(t, "one", s.Snapshot()[0].String("item"))
}

func TestStore_ResolveAttachment(t *testing.T) {
	s := loadedStore(t, savedRow("a", map[string]any{"item": "one"}))
	file := &PendingFile{Name: "cert.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}

	_, err := s.EditField("a", "doc", Attachment{File: file})
	require.NoError(t, err)

	other := &PendingFile{Name: "old.pdf"}
	assert.False(t, s.ResolveAttachment("a", "doc", other, "https://files.example.com/old.pdf"),
		"a superseded upload does not overwrite the newer file")

	assert.True(t, s.ResolveAttachment("a", "doc", file, "https://files.example.com/cert.pdf"))
	r, _ := s.Row("a")
	att := r.Get("doc").(Attachment)
	assert.Equal(t, "https://files.example.com/cert.pdf", att.URL)
	assert.False(t, att.Pending())
}
