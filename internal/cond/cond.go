// Package cond provides a condition variable whose Wait can be abandoned
// through a context.
package cond

import (
	"context"
	"sync"
)

// Cond is a broadcast-only condition variable bound to a Locker.
//
// Concurrency notes:
//   - Every Wait and Broadcast must be called with L held.
//   - Waiters of one generation share a channel; Broadcast closes it and
//     starts a new generation, so all current waiters wake and recheck their
//     predicate under L.
//   - A waiter that gives up on ctx does not consume a wake-up: there is no
//     Signal, only Broadcast, so abandoning a wait never strands another
//     waiter.
//
// The zero value is ready to use once L is set.
type Cond struct {
	L sync.Locker

	ch chan struct{} // current generation; nil when nobody waits
}

// New returns a Cond bound to l.
func New(l sync.Locker) *Cond { return &Cond{L: l} }

// Wait atomically unlocks c.L and suspends the calling goroutine until
// Broadcast is called or ctx is done. c.L is locked again before Wait
// returns, on both paths.
//
// On cancellation Wait returns ctx.Err(). Like sync.Cond, a nil error does
// not mean the caller's predicate holds: callers wait in a loop.
func (c *Cond) Wait(ctx context.Context) error {
	if c.ch == nil {
		c.ch = make(chan struct{})
	}
	ch := c.ch
	c.L.Unlock()

	var err error
	select {
	case <-ch:
	case <-ctx.Done():
		err = ctx.Err()
	}

	c.L.Lock()
	return err
}

// Broadcast wakes all goroutines waiting on c. It is a no-op when nobody
// waits.
func (c *Cond) Broadcast() {
	if c.ch != nil {
		close(c.ch)
		c.ch = nil
	}
}
