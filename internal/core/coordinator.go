package core

// coordinator.go sequences calls to the external persistence service.
//
// The service is array-granular: it accepts and returns whole collections.
// Every write therefore sends the complete current collection, and a
// confirmed write replaces the store's snapshot with exactly what was sent.
//
// Deletes are optimistic. The row leaves the collection before the remote
// call; persist reports the outcome as a Result and DeleteRow applies the
// inverse (re-inserting the row at its index) when the call failed.
// Nothing is retried automatically.

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Storage is the external persistence service for register collections.
type Storage interface {
	// Fetch returns the stored collection for one register and owner.
	Fetch(ctx context.Context, kind, ownerID string) ([]Row, error)
	// Save replaces the stored collection wholesale.
	Save(ctx context.Context, kind, ownerID string, rows []Row) error
}

// Uploader stores attachment files and returns their persisted reference.
type Uploader interface {
	Upload(ctx context.Context, file PendingFile, rowIndex int) (string, error)
}

// ErrNoUploader is returned when a row holds a pending file but no uploader is configured.
var ErrNoUploader = errors.New("attachment upload is not configured")

// Status discriminates the outcome of a persistence operation.
type Status int

const (
	StatusCommitted  Status = iota // remote confirmed; snapshot replaced
	StatusRejected                 // refused before any remote call
	StatusFailed                   // remote or transport failure; rows left dirty
	StatusRolledBack               // delete failed remotely and was undone
	StatusBusy                     // another save is running for the collection
)

func (s Status) String() string {
	switch s {
	case StatusCommitted:
		return "committed"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	case StatusRolledBack:
		return "rolled_back"
	case StatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// MarshalText lets Status appear as its name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of SaveAll, SaveRow or DeleteRow.
type Result struct {
	Status    Status        `json:"status"`
	Key       string        `json:"key,omitempty"` // Row the operation targeted, if any
	Committed int           `json:"committed"`     // Rows in the confirmed collection
	Uploaded  int           `json:"uploaded"`      // Attachments uploaded before the save
	Removal   *Removal      `json:"-"`
	Duration  time.Duration `json:"-"`
	Err       error         `json:"-"`
}

// OK reports whether the remote service confirmed the write.
func (r Result) OK() bool {
	return r.Status == StatusCommitted
}

// Coordinator applies saves and deletes against the external Storage.
type Coordinator struct {
	storage  Storage
	uploader Uploader
	inflight InFlight
}

// NewCoordinator creates a coordinator. uploader may be nil when no register
// uses attachments.
func NewCoordinator(storage Storage, uploader Uploader) *Coordinator {
	return &Coordinator{storage: storage, uploader: uploader}
}

// Load fetches the stored collection and loads it into the store, taking a
// fresh snapshot. On error the store is left unchanged.
func (c *Coordinator) Load(ctx context.Context, s *Store) error {
	rows, err := c.storage.Fetch(ctx, s.def.Info.Kind, s.owner.ID)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", s.def.Info.Kind, err)
	}
	s.Load(rows)
	opLogger(ctx, s).Debug("register loaded", "rows", len(rows))
	return nil
}

// SaveAll sends the entire collection. On success the snapshot becomes a
// deep copy of what was sent and every row is clean; on failure the rows are
// left as they were, still dirty.
func (c *Coordinator) SaveAll(ctx context.Context, s *Store) Result {
	return c.save(ctx, s, "")
}

// SaveRow confirms the row identified by key. The backing API has no row
// granularity, so this commits the whole collection, including every other
// dirty row; Result.Committed reports the full count.
func (c *Coordinator) SaveRow(ctx context.Context, s *Store, key string) Result {
	if _, ok := s.Row(key); !ok {
		return Result{Status: StatusRejected, Key: key, Err: fmt.Errorf("%w: %s", ErrRowNotFound, key)}
	}
	return c.save(ctx, s, key)
}

func (c *Coordinator) save(ctx context.Context, s *Store, key string) Result {
	if !s.gate.TryAcquire() {
		return Result{Status: StatusBusy, Key: key, Err: ErrSaveInProgress}
	}
	defer s.gate.Release()
	c.inflight.begin()
	defer c.inflight.end()

	start := time.Now()
	logger := opLogger(ctx, s)

	rows := s.Rows()
	if err := ValidateRows(s.def, rows); err != nil {
		logger.Info("save rejected", "error", err)
		return Result{Status: StatusRejected, Key: key, Err: err}
	}

	rows, uploaded, err := c.uploadPending(ctx, s, rows)
	if err != nil {
		logger.Warn("attachment upload failed", "error", err, "uploaded", uploaded)
		return Result{Status: StatusFailed, Key: key, Uploaded: uploaded, Err: err}
	}

	res := c.persist(ctx, s, rows)
	res.Key = key
	res.Uploaded = uploaded
	res.Duration = time.Since(start)

	if res.OK() {
		logger.Info("register saved", "rows", res.Committed, "row_key", key, "duration_ms", res.Duration.Milliseconds())
	} else {
		logger.Warn("register save failed", "error", res.Err, "row_key", key)
	}
	return res
}

// DeleteRow removes the row optimistically and sends the reduced collection.
// On success the snapshot becomes the reduced collection. On failure the row
// is re-inserted at its original index, the snapshot is untouched and the
// result status is StatusRolledBack.
func (c *Coordinator) DeleteRow(ctx context.Context, s *Store, key string) Result {
	if !s.gate.TryAcquire() {
		return Result{Status: StatusBusy, Key: key, Err: ErrSaveInProgress}
	}
	defer s.gate.Release()
	c.inflight.begin()
	defer c.inflight.end()

	start := time.Now()
	logger := opLogger(ctx, s)

	removal, err := s.DeleteRow(key)
	if err != nil {
		return Result{Status: StatusRejected, Key: key, Err: err}
	}

	rows, uploaded, err := c.uploadPending(ctx, s, s.Rows())
	res := Result{Status: StatusFailed, Err: err}
	if err == nil {
		res = c.persist(ctx, s, rows)
	}
	res.Key = key
	res.Uploaded = uploaded
	res.Duration = time.Since(start)

	if !res.OK() {
		s.Restore(removal)
		res.Status = StatusRolledBack
		res.Removal = &removal
		logger.Warn("row delete rolled back", "row_key", key, "index", removal.Index, "error", res.Err)
		return res
	}

	res.Removal = &removal
	logger.Info("row deleted", "row_key", key, "index", removal.Index, "rows", res.Committed)
	return res
}

// persist performs the single remote write. It commits the snapshot on
// success and otherwise leaves the store alone; callers undo their own
// optimistic changes based on the returned status.
func (c *Coordinator) persist(ctx context.Context, s *Store, rows []Row) Result {
	if err := c.storage.Save(ctx, s.def.Info.Kind, s.owner.ID, rows); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}
	s.Commit(rows)
	return Result{Status: StatusCommitted, Committed: len(rows)}
}

// maxParallelUploads bounds concurrent attachment uploads within one save.
const maxParallelUploads = 4

// uploadPending uploads every pending attachment in rows and substitutes the
// returned reference, both in rows and in the store. Rows upload in
// parallel; the first failure cancels the rest, and references already
// obtained are kept so a retry does not send them again.
func (c *Coordinator) uploadPending(ctx context.Context, s *Store, rows []Row) ([]Row, int, error) {
	var uploaded atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)

	for i := range rows {
		fields := s.pendingFields(rows[i])
		if len(fields) == 0 {
			continue
		}
		if c.uploader == nil {
			_ = g.Wait()
			return rows, int(uploaded.Load()), ErrNoUploader
		}
		g.Go(func() error {
			r := rows[i]
			for _, field := range fields {
				att := r.Get(field).(Attachment)
				url, err := c.uploader.Upload(gctx, *att.File, i)
				if err != nil {
					return fmt.Errorf("upload %s for row %d: %w", field, i+1, err)
				}
				s.ResolveAttachment(r.Key, field, att.File, url)
				r = r.With(field, Attachment{URL: url})
				uploaded.Add(1)
			}
			rows[i] = r
			return nil
		})
	}

	err := g.Wait()
	return rows, int(uploaded.Load()), err
}

// pendingFields returns the attachment fields of r holding a file not yet uploaded.
func (s *Store) pendingFields(r Row) []string {
	var fields []string
	for _, f := range s.def.Fields {
		if f.Type != FieldAttachment {
			continue
		}
		if att, ok := r.Get(f.Name).(Attachment); ok && att.Pending() {
			fields = append(fields, f.Name)
		}
	}
	return fields
}

// ActiveSaves returns the number of persistence calls in progress.
func (c *Coordinator) ActiveSaves() int {
	return c.inflight.ActiveCount()
}

// WaitForSaves blocks until in-progress saves finish or ctx is done.
func (c *Coordinator) WaitForSaves(ctx context.Context) error {
	return c.inflight.WaitForDrain(ctx)
}
