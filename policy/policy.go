// Package policy defines which admission conditions a list controller wakes
// after each state transition.
//
// The controller owns the counters and the waiting; a Policy only maps the
// post-transition counters to a set of conditions to broadcast on. Waking a
// condition whose waiters cannot make progress is harmless (they recheck and
// wait again); failing to wake one whose waiters can is a liveness bug.
package policy

// State is a snapshot of the controller counters, taken under its lock.
type State struct {
	Search        int // admitted searchers
	Insert        int // admitted inserters (0 or 1)
	Remove        int // admitted removers (0 or 1)
	WaitingRemove int // removers that registered intent but are not admitted
}

// Wake is a set of admission conditions to broadcast on.
type Wake uint8

const (
	// WakeSearch wakes goroutines blocked in search admission.
	WakeSearch Wake = 1 << iota
	// WakeInsert wakes goroutines blocked in insert admission.
	WakeInsert
	// WakeRemove wakes goroutines blocked in remove admission.
	WakeRemove
)

// Has reports whether w includes every condition in o.
func (w Wake) Has(o Wake) bool { return w&o == o }

// Policy decides the wake-ups for each transition. Every method receives the
// counters after the transition was applied and is called under the
// controller lock, so implementations must not block.
type Policy interface {
	// EndInsert runs after an inserter released admission.
	EndInsert(State) Wake
	// EndSearch runs after a searcher released admission.
	EndSearch(State) Wake
	// AdmitRemove runs after a waiting remover was admitted.
	AdmitRemove(State) Wake
	// EndRemove runs after a remover released admission.
	EndRemove(State) Wake
	// AbandonRemove runs after a waiting remover gave up (its intent was
	// already withdrawn from WaitingRemove).
	AbandonRemove(State) Wake
}

// Idle reports whether no role is admitted.
func (s State) Idle() bool { return s.Search == 0 && s.Insert == 0 && s.Remove == 0 }
