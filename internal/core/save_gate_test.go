package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSaveGate_SingleSlot(t *testing.T) {
	gate := NewSaveGate()

	if gate.Busy() {
		t.Error("new gate should not be busy")
	}
	if !gate.TryAcquire() {
		t.Fatal("first TryAcquire failed")
	}
	if !gate.Busy() {
		t.Error("gate should be busy after TryAcquire")
	}
	if gate.TryAcquire() {
		t.Error("second TryAcquire should fail while the slot is held")
	}

	gate.Release()

	if gate.Busy() {
		t.Error("gate should not be busy after Release")
	}
	if !gate.TryAcquire() {
		t.Error("TryAcquire should succeed after Release")
	}
	gate.Release()
}

func TestSaveGate_ConcurrentAcquire(t *testing.T) {
	gate := NewSaveGate()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
	)
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if gate.TryAcquire() {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	if acquired != 1 {
		t.Errorf("acquired = %d, want exactly 1", acquired)
	}
}

func TestInFlight_WaitForDrain(t *testing.T) {
	var f InFlight

	f.begin()
	f.begin()
	if got := f.ActiveCount(); got != 2 {
		t.Fatalf("ActiveCount = %d, want 2", got)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.end()
		f.end()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.WaitForDrain(ctx); err != nil {
		t.Fatalf("WaitForDrain() error = %v", err)
	}
	if got := f.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after drain = %d, want 0", got)
	}
}

func TestInFlight_WaitForDrainTimeout(t *testing.T) {
	var f InFlight
	f.begin()
	defer f.end()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := f.WaitForDrain(ctx); err != context.DeadlineExceeded {
		t.Errorf("WaitForDrain() error = %v, want %v", err, context.DeadlineExceeded)
	}
}
