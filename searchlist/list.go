package searchlist

import (
	"context"

	"github.com/IvanBrykalov/searchlist/internal/util"
	"github.com/IvanBrykalov/searchlist/policy/strict"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// list composes the controller with the chain it guards.
type list[T comparable] struct {
	ctrl    *controller
	items   chain[T]
	metrics Metrics

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_        util.CacheLinePad
	searches util.PaddedAtomicInt64
	found    util.PaddedAtomicInt64
	inserts  util.PaddedAtomicInt64
	removes  util.PaddedAtomicInt64
	removed  util.PaddedAtomicInt64
	canceled util.PaddedAtomicInt64
}

// New constructs an empty list with the provided Options.
// Defaults:
//   - nil Policy   -> strict
//   - nil Equal    -> ==
//   - nil Metrics  -> NoopMetrics
//   - nil Logger   -> zap.NewNop()
//   - nil Clock    -> clockwork.NewRealClock()
func New[T comparable](opt Options[T]) List[T] {
	if opt.Policy == nil {
		opt.Policy = strict.New()
	}
	if opt.Equal == nil {
		opt.Equal = func(a, b T) bool { return a == b }
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Clock == nil {
		opt.Clock = clockwork.NewRealClock()
	}

	l := &list[T]{
		ctrl:    newController(opt.Policy, opt.Metrics, opt.Logger, opt.Clock, opt.CheckInvariant),
		metrics: opt.Metrics,
	}
	l.items.equal = opt.Equal
	return l
}

// Insert prepends item once no other insert or remove is admitted.
func (l *list[T]) Insert(ctx context.Context, item T) error {
	mustItem("Insert", item)
	if err := l.ctrl.beginInsert(ctx); err != nil {
		l.canceled.Add(1)
		return err
	}
	defer l.ctrl.endInsert()

	l.items.prepend(item)
	l.inserts.Add(1)
	l.metrics.Size(l.items.len())
	return nil
}

// Search scans for item once no remover is queued or running.
func (l *list[T]) Search(ctx context.Context, item T) (bool, error) {
	mustItem("Search", item)
	if err := l.ctrl.beginSearch(ctx); err != nil {
		l.canceled.Add(1)
		return false, err
	}
	defer l.ctrl.endSearch()

	ok := l.items.contains(item)
	l.searches.Add(1)
	if ok {
		l.found.Add(1)
	}
	l.metrics.Outcome(RoleSearch, ok)
	return ok, nil
}

// Remove unlinks the first occurrence of item once nothing else is admitted.
func (l *list[T]) Remove(ctx context.Context, item T) (bool, error) {
	mustItem("Remove", item)
	if err := l.ctrl.beginRemove(ctx); err != nil {
		l.canceled.Add(1)
		return false, err
	}
	defer l.ctrl.endRemove()

	ok := l.items.unlink(item)
	l.removes.Add(1)
	if ok {
		l.removed.Add(1)
		l.metrics.Size(l.items.len())
	}
	l.metrics.Outcome(RoleRemove, ok)
	return ok, nil
}

// Len returns the number of resident items without taking admission.
func (l *list[T]) Len() int { return l.items.len() }

// Stats returns the controller counters and cumulative totals.
func (l *list[T]) Stats() Stats {
	return Stats{
		State:    l.ctrl.snapshot(),
		Len:      l.items.len(),
		Searches: l.searches.Load(),
		Found:    l.found.Load(),
		Inserts:  l.inserts.Load(),
		Removes:  l.removes.Load(),
		Removed:  l.removed.Load(),
		Canceled: l.canceled.Load(),
	}
}
