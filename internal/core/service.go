package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnknownRegister is returned for a register kind that is not registered.
	ErrUnknownRegister = errors.New("unknown register")

	// ErrRegisterNotOpen is returned when a register has not been opened for the owner.
	ErrRegisterNotOpen = errors.New("register not open")

	// ErrNotAttachment is returned when a file is attached to a non-attachment field.
	ErrNotAttachment = errors.New("field does not accept attachments")
)

// ServiceConfig holds the tunables of a Service.
type ServiceConfig struct {
	FetchTimeout  time.Duration // Limit for loading a register from the persistence service
	SaveTimeout   time.Duration // Limit for one save or delete, uploads included
	MaxImportRows int           // 0 means unlimited
}

// DefaultServiceConfig returns the configuration used when none is supplied.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		FetchTimeout:  30 * time.Second,
		SaveTimeout:   2 * time.Minute,
		MaxImportRows: 5000,
	}
}

// Service keeps the open registers, one store per register kind and owner,
// and routes every operation through the store and the coordinator.
type Service struct {
	coord    *Coordinator
	importer Importer
	cfg      ServiceConfig
	now      func() time.Time

	mu     sync.RWMutex
	stores map[string]*Store
}

// NewService creates a service persisting through storage. uploader may be nil.
func NewService(storage Storage, uploader Uploader, cfg ServiceConfig) *Service {
	return &Service{
		coord:    NewCoordinator(storage, uploader),
		importer: Importer{MaxRows: cfg.MaxImportRows},
		cfg:      cfg,
		now:      time.Now,
		stores:   make(map[string]*Store),
	}
}

func storeKey(kind, ownerID string) string {
	return kind + "/" + ownerID
}

// Definitions returns display information for every registered register.
func (s *Service) Definitions() []RegisterInfo {
	defs := All()
	infos := make([]RegisterInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Definition returns the definition for kind.
func (s *Service) Definition(kind string) (Definition, error) {
	def, ok := Get(kind)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownRegister, kind)
	}
	return def, nil
}

// Open loads a register for owner from the persistence service, replacing
// any workspace already open for the same register and owner. The owner's
// period defaults to the current financial year. On failure the previous
// workspace, if any, is kept.
func (s *Service) Open(ctx context.Context, kind string, owner Owner) (RegisterView, error) {
	def, err := s.Definition(kind)
	if err != nil {
		return RegisterView{}, err
	}
	owner.ID = strings.TrimSpace(owner.ID)
	if owner.ID == "" {
		return RegisterView{}, fmt.Errorf("open %s: owner id is required", kind)
	}
	if strings.TrimSpace(owner.Name) == "" {
		owner.Name = owner.ID
	}
	if owner.Period == "" {
		owner.Period = FinancialYear(s.now())
	}

	store := NewStore(def, owner)

	loadCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	if err := s.coord.Load(loadCtx, store); err != nil {
		return RegisterView{}, err
	}

	s.mu.Lock()
	s.stores[storeKey(kind, owner.ID)] = store
	s.mu.Unlock()

	return store.View(), nil
}

// Close discards the workspace for a register and owner, unsaved changes included.
func (s *Service) Close(kind, ownerID string) {
	s.mu.Lock()
	delete(s.stores, storeKey(kind, ownerID))
	s.mu.Unlock()
}

// Store returns the open store for a register and owner.
func (s *Service) Store(kind, ownerID string) (*Store, error) {
	if _, err := s.Definition(kind); err != nil {
		return nil, err
	}
	s.mu.RLock()
	store, ok := s.stores[storeKey(kind, ownerID)]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrRegisterNotOpen, kind, ownerID)
	}
	return store, nil
}

// OpenCount returns the number of open workspaces.
func (s *Service) OpenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stores)
}

// View returns the rows of an open register with their dirty flags.
func (s *Service) View(kind, ownerID string) (RegisterView, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return RegisterView{}, err
	}
	return store.View(), nil
}

// AddRow appends a new row with the given initial values.
func (s *Service) AddRow(kind, ownerID string, values map[string]any) (RowView, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return RowView{}, err
	}
	for field := range values {
		if _, ok := store.def.Field(field); !ok {
			return RowView{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return rowView(store, store.AddRow(values)), nil
}

// EditField sets one field and recomputes its dependents.
func (s *Service) EditField(kind, ownerID, key, field string, value any) (RowView, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return RowView{}, err
	}
	row, err := store.EditField(key, field, value)
	if err != nil {
		return RowView{}, err
	}
	return rowView(store, row), nil
}

// BlurField runs the on-blur normalisation for field.
func (s *Service) BlurField(kind, ownerID, key, field string) (RowView, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return RowView{}, err
	}
	row, err := store.BlurField(key, field)
	if err != nil {
		return RowView{}, err
	}
	return rowView(store, row), nil
}

// ToggleEdit flips a row between view and edit mode.
func (s *Service) ToggleEdit(kind, ownerID, key string) (RowView, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return RowView{}, err
	}
	row, err := store.ToggleEdit(key)
	if err != nil {
		return RowView{}, err
	}
	return rowView(store, row), nil
}

// Revert restores a row to its last saved values.
func (s *Service) Revert(kind, ownerID, key string) (RowView, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return RowView{}, err
	}
	row, err := store.Revert(key)
	if err != nil {
		return RowView{}, err
	}
	return rowView(store, row), nil
}

// SetAttachment attaches a file to a row. The file stays pending, and the
// row dirty, until the next save uploads it.
func (s *Service) SetAttachment(kind, ownerID, key, field string, file PendingFile) (RowView, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return RowView{}, err
	}
	spec, ok := store.def.Field(field)
	if !ok {
		return RowView{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if spec.Type != FieldAttachment {
		return RowView{}, fmt.Errorf("%w: %s", ErrNotAttachment, field)
	}
	row, err := store.EditField(key, field, Attachment{File: &file})
	if err != nil {
		return RowView{}, err
	}
	return rowView(store, row), nil
}

// SaveAll persists the whole register.
func (s *Service) SaveAll(ctx context.Context, kind, ownerID string) (Result, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return Result{}, err
	}
	saveCtx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()
	return s.coord.SaveAll(saveCtx, store), nil
}

// SaveRow confirms one row. The whole register is committed with it.
func (s *Service) SaveRow(ctx context.Context, kind, ownerID, key string) (Result, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return Result{}, err
	}
	saveCtx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()
	return s.coord.SaveRow(saveCtx, store, key), nil
}

// DeleteRow removes a row and persists the reduced register, restoring the
// row if the persistence service does not confirm.
func (s *Service) DeleteRow(ctx context.Context, kind, ownerID, key string) (Result, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return Result{}, err
	}
	saveCtx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
	defer cancel()
	return s.coord.DeleteRow(saveCtx, store, key), nil
}

// ImportResult reports the rows appended by an import.
type ImportResult struct {
	Imported int       `json:"imported"`
	Keys     []string  `json:"keys"`
	Rows     []RowView `json:"rows"`
}

// Import converts parsed spreadsheet records into rows and appends them.
// Either every record is appended or none is.
func (s *Service) Import(ctx context.Context, kind, ownerID string, records []Record) (ImportResult, error) {
	store, err := s.Store(kind, ownerID)
	if err != nil {
		return ImportResult{}, err
	}

	rows, err := s.importer.FromRecords(records, store.def, store.RuleContext())
	if err != nil {
		opLogger(ctx, store).Info("import rejected", "records", len(records), "error", err)
		return ImportResult{}, fmt.Errorf("import %s: %w", kind, err)
	}
	if err := store.Append(rows); err != nil {
		return ImportResult{}, fmt.Errorf("import %s: %w", kind, err)
	}

	res := ImportResult{Imported: len(rows), Keys: make([]string, len(rows)), Rows: make([]RowView, len(rows))}
	for i, r := range rows {
		res.Keys[i] = r.Key
		res.Rows[i] = RowView{Row: r, Dirty: true}
	}
	opLogger(ctx, store).Info("rows imported", "rows", len(rows))
	return res, nil
}

// ActiveSaves returns the number of saves and deletes in progress.
func (s *Service) ActiveSaves() int {
	return s.coord.ActiveSaves()
}

// WaitForSaves blocks until in-progress saves finish or ctx is done.
func (s *Service) WaitForSaves(ctx context.Context) error {
	return s.coord.WaitForSaves(ctx)
}

func rowView(store *Store, r Row) RowView {
	return RowView{Row: r, Dirty: store.IsDirty(r), Editing: r.IsEditing}
}
