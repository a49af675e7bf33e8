package searchlist

import (
	"time"

	"github.com/IvanBrykalov/searchlist/policy"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Role is the kind of access an operation asks the controller for.
type Role uint8

const (
	// RoleSearch: read-only traversal; any number may run together.
	RoleSearch Role = iota
	// RoleInsert: prepend; at most one, alongside any number of searchers.
	RoleInsert
	// RoleRemove: unlink anywhere; excludes every other role.
	RoleRemove
)

// String returns a stable lower-case name, usable as a metric label.
func (r Role) String() string {
	switch r {
	case RoleSearch:
		return "search"
	case RoleInsert:
		return "insert"
	case RoleRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Metrics exposes controller-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
//
// Waiting is called with the controller lock held; the other hooks are
// called after it is released. Implementations must not block and must not
// call back into the list.
type Metrics interface {
	// Admit reports a role admitted after waiting for waited.
	Admit(role Role, waited time.Duration)
	// Release reports a role leaving the list.
	Release(role Role)
	// Cancel reports an admission wait abandoned through its context.
	Cancel(role Role)
	// Outcome reports whether a search found, or a remove removed, its item.
	Outcome(role Role, ok bool)
	// Waiting reports the number of removers that registered intent.
	Waiting(removers int)
	// Size reports the number of resident items after an insert or remove.
	Size(items int)
}

// Stats is a point-in-time view of a list. The embedded State is read under
// the controller lock; the totals are cumulative since New.
type Stats struct {
	policy.State

	Len int // resident items

	Searches int64 // completed searches
	Found    int64 // searches that found their item
	Inserts  int64 // completed inserts
	Removes  int64 // completed removes
	Removed  int64 // removes that unlinked an item
	Canceled int64 // operations that gave up waiting for admission
}

// Options configures a list. Zero values are safe;
// defaults are applied in New():
//   - nil Policy   => strict wake-ups
//   - nil Equal    => ==
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => zap.NewNop()
//   - nil Clock    => real clock
type Options[T comparable] struct {
	// Policy picks which waiters are woken on each transition.
	// legacy.New() reproduces the classic signaling; see package policy.
	Policy policy.Policy

	// Equal matches a searched or removed item against a resident one.
	// It runs while the caller is admitted, never under the controller lock.
	Equal func(a, b T) bool

	// Observability
	Metrics Metrics
	// Logger receives Debug entries for admissions, releases and
	// cancellations. Entries are written outside the controller lock.
	Logger *zap.Logger

	// Clock times admission waits (tests may pass a fake clock).
	Clock clockwork.Clock

	// CheckInvariant verifies the counter invariant on every transition and
	// panics on violation. Meant for tests and debugging.
	CheckInvariant bool
}
