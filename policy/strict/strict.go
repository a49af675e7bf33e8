// Package strict implements the default wake-up policy: every release wakes
// each role whose admission it could have unblocked.
package strict

import "github.com/IvanBrykalov/searchlist/policy"

type strict struct{}

// New returns the strict policy.
func New() policy.Policy { return strict{} }

// EndInsert wakes the next inserter and, once nothing else is admitted, the
// waiting removers. Legacy signaling wakes inserters only, which could
// leave a remover blocked behind a finished insert.
func (strict) EndInsert(s policy.State) policy.Wake {
	w := policy.WakeInsert
	if s.Idle() {
		w |= policy.WakeRemove
	}
	return w
}

// EndSearch wakes removers when the last admitted role left.
func (strict) EndSearch(s policy.State) policy.Wake {
	if s.Idle() {
		return policy.WakeRemove
	}
	return 0
}

// AdmitRemove lets new searchers in once no remover is queued anymore.
func (strict) AdmitRemove(s policy.State) policy.Wake {
	if s.WaitingRemove == 0 {
		return policy.WakeSearch
	}
	return 0
}

// EndRemove wakes inserters, removers as well when nothing is admitted, and
// searchers held back by the finished remover unless another one is queued.
func (strict) EndRemove(s policy.State) policy.Wake {
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

// AbandonRemove releases searchers held back only by the withdrawn intent.
func (strict) AbandonRemove(s policy.State) policy.Wake {
	if s.WaitingRemove == 0 {
		return policy.WakeSearch
	}
	return 0
}
