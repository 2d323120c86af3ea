package core

// save_gate.go serialises persistence calls per collection.
//
// The backing API replaces a register wholesale, so two overlapping saves of
// the same collection race and the last response silently wins. Each store
// therefore carries a gate with a single slot: a save or delete that finds
// the slot taken is rejected with ErrSaveInProgress instead of queuing.
//
// InFlight counts calls across all collections so shutdown can wait for
// outstanding saves via WaitForDrain.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSaveInProgress is returned when a save or delete is already running for
// the same register collection. Clients should retry once it completes.
var ErrSaveInProgress = errors.New("save already in progress for this register")

// SaveGate admits one persistence call at a time for a collection.
type SaveGate struct {
	slot chan struct{}
}

// NewSaveGate creates an open gate.
func NewSaveGate() *SaveGate {
	return &SaveGate{slot: make(chan struct{}, 1)}
}

// TryAcquire takes the slot without blocking.
// Returns true if the slot was acquired, false otherwise.
func (g *SaveGate) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release frees the slot. Must be called exactly once for each successful TryAcquire.
func (g *SaveGate) Release() {
	<-g.slot
}

// Busy reports whether a call currently holds the slot.
func (g *SaveGate) Busy() bool {
	return len(g.slot) > 0
}

// InFlight counts persistence calls in progress across all collections.
type InFlight struct {
	mu     sync.RWMutex
	active int
}

func (f *InFlight) begin() {
	f.mu.Lock()
	f.active++
	f.mu.Unlock()
}

func (f *InFlight) end() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}

// ActiveCount returns the number of calls in progress.
func (f *InFlight) ActiveCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

// WaitForDrain blocks until no call is in progress or ctx is done.
// Used for graceful shutdown so confirmed saves update their snapshots.
func (f *InFlight) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if f.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
