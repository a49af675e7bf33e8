// Package legacy implements the narrower wake-up rules of the classic
// three-condition searcher list, kept for behavioral parity tests.
//
// The one difference from strict: EndInsert wakes inserters only. A remover
// that waits solely because an insert was running stays blocked until some
// searcher finishes while nothing else is admitted (or another remover
// finishes). Remover cancellation still rolls its intent back; only the
// wake-ups are the classic ones.
package legacy

import "github.com/IvanBrykalov/searchlist/policy"

type legacy struct{}

// New returns the legacy policy.
func New() policy.Policy { return legacy{} }

func (legacy) EndInsert(policy.State) policy.Wake { return policy.WakeInsert }

func (legacy) EndSearch(s policy.State) policy.Wake {
	if s.Idle() {
		return policy.WakeRemove
	}
	return 0
}

func (legacy) AdmitRemove(s policy.State) policy.Wake {
	if s.WaitingRemove == 0 {
		return policy.WakeSearch
	}
	return 0
}

func (legacy) EndRemove(s policy.State) policy.Wake {
	var w policy.Wake
	if s.Insert == 0 {
		w |= policy.WakeInsert
		if s.Search == 0 {
			w |= policy.WakeRemove
		}
	}
	if s.WaitingRemove == 0 {
		w |= policy.WakeSearch
	}
	return w
}

// AbandonRemove has no classic counterpart, since waiting there could
// not be abandoned; searchers are released the same way an admission would.
func (legacy) AbandonRemove(s policy.State) policy.Wake {
	if s.WaitingRemove == 0 {
		return policy.WakeSearch
	}
	return 0
}
