// mimd.go - Cross-core synchronization primitives (barrier, lock, atomic)

package v5core

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ------------------------------------------------------------------------------
// Barrier
// ------------------------------------------------------------------------------

// Barrier is a reusable rendezvous point for a fixed participant count.
// The Nth arrival resets the counter to zero and releases every waiter;
// the object is reused across repeated rendezvous points, never destroyed.
// A wait with fewer than the configured participants blocks indefinitely;
// cancellation is not modeled.
type Barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	count      int
	total      int
	generation uint64
}

// NewBarrier creates a barrier for total participants.
func NewBarrier(total int) (*Barrier, error) {
	if total <= 0 {
		return nil, fmt.Errorf("barrier participants %d: %w", total, ErrResource)
	}
	b := &Barrier{total: total}
	b.cond = sync.NewCond(&b.mu)
	return b, nil
}

// Wait increments the shared counter. When the counter reaches the
// participant count it resets and all waiters are released together; no
// waiter observes release before all participants have arrived. The
// generation counter keeps a released waiter from racing back into the
// same rendezvous.
func (b *Barrier) Wait() {
	b.mu.Lock()
	gen := b.generation
	b.count++
	if b.count == b.total {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// ------------------------------------------------------------------------------
// SyncUnit
// ------------------------------------------------------------------------------

// SyncUnit provides the M-type mutual-exclusion primitives shared by all
// cores of a system. LOCK/UNLOCK/ATOMIC behave like one global mutex: no
// two cores can interleave a protected read-modify-write. The lock is a
// one-token semaphore rather than a sync.Mutex so an UNLOCK with no held
// lock is reportable as an instruction error instead of a runtime fatal.
type SyncUnit struct {
	barrier *Barrier
	lockCh  chan struct{}
	counter atomic.Int64
}

// NewSyncUnit builds the shared unit for the given participant count.
func NewSyncUnit(participants int) (*SyncUnit, error) {
	barrier, err := NewBarrier(participants)
	if err != nil {
		return nil, err
	}
	return &SyncUnit{
		barrier: barrier,
		lockCh:  make(chan struct{}, 1),
	}, nil
}

// Barrier exposes the shared barrier object.
func (s *SyncUnit) Barrier() *Barrier { return s.barrier }

// Counter reads the shared atomic cell.
func (s *SyncUnit) Counter() int64 { return s.counter.Load() }

// Execute dispatches one decoded M-type operation. The calling goroutine
// suspends inside BARRIER until all participants arrive and inside LOCK
// until the lock is free. UNLOCK with no held lock is an instruction
// error, never a crash.
func (s *SyncUnit) Execute(op Op) error {
	switch op {
	case OpBARRIER:
		s.barrier.Wait()
	case OpLOCK:
		s.lockCh <- struct{}{}
	case OpUNLOCK:
		select {
		case <-s.lockCh:
		default:
			return fmt.Errorf("UNLOCK with no held lock: %w", ErrInvalidOperation)
		}
	case OpATOMIC:
		// Indivisible read-modify-write increment on the shared cell.
		s.counter.Add(1)
	default:
		return fmt.Errorf("sync unit cannot execute %v: %w", op, ErrUnknownOperation)
	}
	return nil
}
