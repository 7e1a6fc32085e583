// Package handoff provides a single-slot, latest-wins mailbox between one
// producer goroutine and one consumer goroutine.
package handoff

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Slot holds at most one value. Publishing over an unconsumed value replaces
// it, so the consumer always sees the newest item and never a backlog.
//
// The mutex only guards the drain-then-send swap so that two publishers can
// not interleave; consumers read straight from the channel.
type Slot[T any] struct {
	mu sync.Mutex
	ch chan T

	published atomic.Uint64
	consumed  atomic.Uint64
	drops     atomic.Uint64
}

// Stats is a point-in-time view of slot traffic.
type Stats struct {
	Published uint64 `json:"published"`
	Consumed  uint64 `json:"consumed"`
	Drops     uint64 `json:"drops"` // values overwritten before anyone took them
}

func New[T any]() *Slot[T] {
	return &Slot[T]{ch: make(chan T, 1)}
}

// Publish stores v, evicting any value still waiting. It never blocks.
func (s *Slot[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ch:
		s.drops.Add(1)
	default:
	}
	s.ch <- v
	s.published.Add(1)
}

// TryTake returns the waiting value, if any, without blocking.
func (s *Slot[T]) TryTake() (T, bool) {
	select {
	case v := <-s.ch:
		s.consumed.Add(1)
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Take waits up to timeout for a value. A timeout of zero or less polls once.
// It returns false on timeout or when ctx is done.
func (s *Slot[T]) Take(ctx context.Context, timeout time.Duration) (T, bool) {
	if timeout <= 0 {
		return s.TryTake()
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case v := <-s.ch:
		s.consumed.Add(1)
		return v, true
	case <-t.C:
	case <-ctx.Done():
	}
	var zero T
	return zero, false
}

// Reset drops any waiting value without counting it as a drop.
func (s *Slot[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ch:
	default:
	}
}

func (s *Slot[T]) Stats() Stats {
	return Stats{
		Published: s.published.Load(),
		Consumed:  s.consumed.Load(),
		Drops:     s.drops.Load(),
	}
}
