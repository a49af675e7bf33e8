package searchlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IvanBrykalov/searchlist/internal/cond"
	"github.com/IvanBrykalov/searchlist/policy"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// controller admits searchers, inserters and removers to one chain.
//
// Invariant, whenever mu is free:
//
//	numSearch >= 0 && numWaitingRemove >= 0 &&
//	numInsert in {0,1} && numRemove in {0,1} &&
//	!(numInsert == 1 && numRemove == 1) &&
//	!(numRemove == 1 && numSearch > 0)
//
// A remover registers in numWaitingRemove before it waits; while that count
// is non-zero no new searcher is admitted, so a steady stream of searches
// cannot starve removers.
type controller struct {
	// ---- guarded by mu ----
	mu               sync.Mutex
	numSearch        int
	numInsert        int
	numRemove        int
	numWaitingRemove int

	searchCond *cond.Cond // numWaitingRemove == 0 && numRemove == 0
	insertCond *cond.Cond // numInsert == 0 && numRemove == 0
	removeCond *cond.Cond // numSearch == 0 && numInsert == 0 && numRemove == 0

	pol     policy.Policy
	metrics Metrics
	log     *zap.Logger
	clock   clockwork.Clock
	check   bool
}

func newController(pol policy.Policy, m Metrics, log *zap.Logger, clock clockwork.Clock, check bool) *controller {
	c := &controller{
		pol:     pol,
		metrics: m,
		log:     log,
		clock:   clock,
		check:   check,
	}
	c.searchCond = cond.New(&c.mu)
	c.insertCond = cond.New(&c.mu)
	c.removeCond = cond.New(&c.mu)
	return c
}

// beginInsert blocks until no inserter or remover is admitted.
func (c *controller) beginInsert(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return c.abandon(RoleInsert, err)
	}
	start := c.clock.Now()

	c.mu.Lock()
	for c.numInsert != 0 || c.numRemove != 0 {
		if err := c.insertCond.Wait(ctx); err != nil {
			c.mu.Unlock()
			return c.abandon(RoleInsert, err)
		}
	}
	c.numInsert++
	st := c.stateLocked()
	c.mu.Unlock()

	c.admitted(RoleInsert, st, c.clock.Since(start))
	return nil
}

func (c *controller) endInsert() {
	c.mu.Lock()
	c.numInsert--
	st := c.stateLocked()
	c.wakeLocked(c.pol.EndInsert(st))
	c.mu.Unlock()

	c.released(RoleInsert, st)
}

// beginSearch blocks while any remover is registered or admitted. Waiting
// on the registered ones alone is not enough: the last queued remover
// withdraws its intent at admission, and searchers woken then must still
// keep out until it finishes.
func (c *controller) beginSearch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return c.abandon(RoleSearch, err)
	}
	start := c.clock.Now()

	c.mu.Lock()
	for c.numWaitingRemove != 0 || c.numRemove != 0 {
		if err := c.searchCond.Wait(ctx); err != nil {
			c.mu.Unlock()
			return c.abandon(RoleSearch, err)
		}
	}
	c.numSearch++
	st := c.stateLocked()
	c.mu.Unlock()

	c.admitted(RoleSearch, st, c.clock.Since(start))
	return nil
}

func (c *controller) endSearch() {
	c.mu.Lock()
	c.numSearch--
	st := c.stateLocked()
	c.wakeLocked(c.pol.EndSearch(st))
	c.mu.Unlock()

	c.released(RoleSearch, st)
}

// beginRemove registers intent, then blocks until nothing is admitted.
// The intent is withdrawn on every exit: by admission, or by rollback when
// ctx ends first.
func (c *controller) beginRemove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return c.abandon(RoleRemove, err)
	}
	start := c.clock.Now()

	c.mu.Lock()
	c.numWaitingRemove++
	c.metrics.Waiting(c.numWaitingRemove)
	for c.numSearch != 0 || c.numInsert != 0 || c.numRemove != 0 {
		if err := c.removeCond.Wait(ctx); err != nil {
			c.numWaitingRemove--
			c.metrics.Waiting(c.numWaitingRemove)
			st := c.stateLocked()
			c.wakeLocked(c.pol.AbandonRemove(st))
			c.mu.Unlock()
			return c.abandon(RoleRemove, err)
		}
	}
	c.numRemove++
	c.numWaitingRemove--
	c.metrics.Waiting(c.numWaitingRemove)
	st := c.stateLocked()
	c.wakeLocked(c.pol.AdmitRemove(st))
	c.mu.Unlock()

	c.admitted(RoleRemove, st, c.clock.Since(start))
	return nil
}

func (c *controller) endRemove() {
	c.mu.Lock()
	c.numRemove--
	st := c.stateLocked()
	c.wakeLocked(c.pol.EndRemove(st))
	c.mu.Unlock()

	c.released(RoleRemove, st)
}

// snapshot returns the counters as seen with mu held.
func (c *controller) snapshot() policy.State {
	c.mu.Lock()
	st := c.stateLocked()
	c.mu.Unlock()
	return st
}

// -------------------- internals (mu held) --------------------

// stateLocked reads the counters. With check set, a violated invariant
// releases mu and panics, so callers must not unlock it by defer.
func (c *controller) stateLocked() policy.State {
	st := policy.State{
		Search:        c.numSearch,
		Insert:        c.numInsert,
		Remove:        c.numRemove,
		WaitingRemove: c.numWaitingRemove,
	}
	if c.check {
		if err := checkInvariant(st); err != nil {
			// Waiters for mu must not stay blocked behind the panic.
			c.mu.Unlock()
			c.log.Error("controller invariant violated", stateFields(st, zap.Error(err))...)
			panic(err)
		}
	}
	return st
}

func (c *controller) wakeLocked(w policy.Wake) {
	if w.Has(policy.WakeSearch) {
		c.searchCond.Broadcast()
	}
	if w.Has(policy.WakeInsert) {
		c.insertCond.Broadcast()
	}
	if w.Has(policy.WakeRemove) {
		c.removeCond.Broadcast()
	}
}

// -------------------- reporting (mu free) --------------------

func (c *controller) admitted(r Role, st policy.State, waited time.Duration) {
	c.metrics.Admit(r, waited)
	if ce := c.log.Check(zapcore.DebugLevel, "admitted"); ce != nil {
		ce.Write(stateFields(st, zap.Stringer("role", r), zap.Duration("waited", waited))...)
	}
}

func (c *controller) released(r Role, st policy.State) {
	c.metrics.Release(r)
	if ce := c.log.Check(zapcore.DebugLevel, "released"); ce != nil {
		ce.Write(stateFields(st, zap.Stringer("role", r))...)
	}
}

func (c *controller) abandon(r Role, cause error) error {
	c.metrics.Cancel(r)
	if ce := c.log.Check(zapcore.DebugLevel, "admission canceled"); ce != nil {
		ce.Write(zap.Stringer("role", r), zap.Error(cause))
	}
	return canceled(r, cause)
}

func stateFields(st policy.State, extra ...zap.Field) []zap.Field {
	return append(extra,
		zap.Int("search", st.Search),
		zap.Int("insert", st.Insert),
		zap.Int("remove", st.Remove),
		zap.Int("waiting_remove", st.WaitingRemove),
	)
}

// checkInvariant reports the first clause of the controller invariant that
// st violates.
func checkInvariant(st policy.State) error {
	switch {
	case st.Search < 0:
		return fmt.Errorf("searchlist: negative search count %d", st.Search)
	case st.WaitingRemove < 0:
		return fmt.Errorf("searchlist: negative waiting remover count %d", st.WaitingRemove)
	case st.Insert != 0 && st.Insert != 1:
		return fmt.Errorf("searchlist: insert count %d outside {0,1}", st.Insert)
	case st.Remove != 0 && st.Remove != 1:
		return fmt.Errorf("searchlist: remove count %d outside {0,1}", st.Remove)
	case st.Insert == 1 && st.Remove == 1:
		return fmt.Errorf("searchlist: insert and remove admitted together")
	case st.Remove == 1 && st.Search > 0:
		return fmt.Errorf("searchlist: remove admitted with %d searchers", st.Search)
	}
	return nil
}
