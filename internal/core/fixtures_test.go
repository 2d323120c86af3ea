package core

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// assetsKind is the register kind used by package tests.
const assetsKind = "test-assets"

var (
	assetsCode = CodeScheme{
		Field: "code",
		Parts: []CodePart{
			{Source: PartOwner, Width: 4},
			{Source: PartLiteral, Literal: "EEE"},
			{Source: PartField, Field: "category"},
		},
	}

	assetsLife = map[string]map[string]string{
		"IT": {"Laptop": "5", "Phone": "7"},
		"CE": {"Fridge": "10"},
	}
)

// assetsDefinition is a small register exercising every rule kind.
func assetsDefinition() Definition {
	code := assetsCode
	return Definition{
		Info: RegisterInfo{Kind: assetsKind, Label: "Test Assets", Group: "Test"},
		Fields: []FieldSpec{
			{Name: "category", Header: "Category", Type: FieldEnum, Required: true, EnumValues: []string{"IT", "CE"}},
			{Name: "code", Header: "Code", Type: FieldText, Required: true, Derived: true},
			{Name: "item", Header: "Item", Aliases: []string{"Item Description"}, Type: FieldText, Required: true},
			{Name: "life", Header: "Average Life", Type: FieldNumeric},
			{Name: "placed", Header: "Date of Placing", Aliases: []string{"Placed On"}, Type: FieldDate, Required: true},
			{Name: "endOfLife", Header: "End of Life", Type: FieldDate, Derived: true},
			{Name: "limit", Header: "Limit", Type: FieldNumeric},
			{Name: "actual", Header: "Actual", Type: FieldNumeric},
			{Name: "compliant", Header: "Compliant", Type: FieldEnum, Derived: true, EnumValues: []string{Compliant, NonCompliant}},
			{Name: "doc", Header: "Document", Type: FieldAttachment},
			{Name: "scratch", Header: "Scratch", Type: FieldText, Transient: true},
		},
		Rules: []Rule{
			ResetRule{Trigger: "category", Clear: []string{"item", "life", "endOfLife"}},
			CodeRule{Scheme: code},
			LookupRule{Select: "item", Scope: "category", Target: "life", Table: assetsLife},
			DateAddRule{Start: "placed", Years: "life", End: "endOfLife"},
			ThresholdRule{Max: "limit", Actual: "actual", Target: "compliant"},
			PercentRule{Field: "actual"},
		},
		Code: &code,
	}
}

var registerAssetsOnce sync.Once

// registerAssets adds the test register to the global registry once.
func registerAssets(t *testing.T) Definition {
	t.Helper()
	registerAssetsOnce.Do(func() {
		if _, ok := Get(assetsKind); !ok {
			Register(assetsDefinition())
		}
	})
	def, ok := Get(assetsKind)
	if !ok {
		t.Fatalf("register %s not registered", assetsKind)
	}
	return def
}

var testOwner = Owner{ID: "c-1", Name: "Acme Electronics", Period: "2024-25"}

// validRow returns values that pass validation for the test register.
func validRow(category, item string) map[string]any {
	return map[string]any{"category": category, "item": item, "placed": "2024-04-15"}
}

// fakeStorage records saves and can be told to fail.
type fakeStorage struct {
	mu       sync.Mutex
	rows     map[string][]Row
	saves    [][]Row
	saveErr  error
	fetchErr error

	// block, when set, is received from inside Save so tests can hold a save open.
	block chan struct{}
	// entered is signalled when Save starts.
	entered chan struct{}
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{rows: make(map[string][]Row)}
}

func (f *fakeStorage) Fetch(ctx context.Context, kind, ownerID string) ([]Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return cloneRows(f.rows[kind+"/"+ownerID]), nil
}

func (f *fakeStorage) Save(ctx context.Context, kind, ownerID string, rows []Row) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, cloneRows(rows))
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[kind+"/"+ownerID] = cloneRows(rows)
	return nil
}

func (f *fakeStorage) lastSave() []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

func (f *fakeStorage) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

// fakeUploader returns a URL per uploaded file name.
type fakeUploader struct {
	mu      sync.Mutex
	uploads []string
	err     error
}

var errUploadRefused = errors.New("upload refused")

func (u *fakeUploader) Upload(ctx context.Context, file PendingFile, rowIndex int) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, file.Name)
	return "https://files.example.com/" + file.Name, nil
}

// recordsOf wraps cell maps as records with no known source line.
func recordsOf(cells []map[string]string) []Record {
	out := make([]Record, len(cells))
	for i, c := range cells {
		out[i] = Record{Cells: c}
	}
	return out
}
