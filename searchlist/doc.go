// Package searchlist provides a generic singly-linked list shared by three
// kinds of concurrent operations with tiered admission: searches, inserts
// and removes.
//
// Design
//
//   - Roles: searches only read and run concurrently with each other.
//     Inserts prepend; one insert may run alongside any number of searches,
//     but never alongside another insert or a remove. Removes unlink from
//     anywhere and run alone.
//
//   - Admission: a controller keeps four counters (admitted searchers,
//     inserters, removers, and removers waiting for admission) behind one
//     mutex, with a separate condition per role. Only admission and release
//     take the mutex; the list itself is traversed and mutated outside it,
//     so searches never serialize against each other.
//
//   - Starvation avoidance: a remover registers intent before it waits.
//     While any remover is registered, new searches wait, so the searches
//     already running drain and the remover gets in. Removers have no such
//     priority over inserts.
//
//   - Cancellation: every operation takes a context. If it ends while the
//     operation waits for admission, the operation returns an error wrapping
//     ErrCanceled and the counters are exactly as if it never tried; a
//     remover's registered intent is withdrawn and held-back searches resume.
//
//   - Wake-ups: which waiters each transition wakes is a policy
//     (package policy). The default, strict, wakes removers when an insert
//     finishes with nothing else admitted; legacy keeps the narrower rule of
//     the classic formulation, under which such a remover waits for an
//     unrelated search to finish.
//
//   - Metrics: Options.Metrics receives Admit/Release/Cancel/Outcome/
//     Waiting/Size signals. By default NoopMetrics is used; plug the
//     Prometheus adapter from metrics/prom to export them.
//
// Basic usage
//
//	l := searchlist.New[int](searchlist.Options[int]{})
//	_ = l.Insert(ctx, 5)
//	found, err := l.Search(ctx, 5) // true, nil
//	removed, err := l.Remove(ctx, 5) // true, nil
//
// With a deadline
//
//	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
//	defer cancel()
//	if _, err := l.Remove(ctx, 5); errors.Is(err, searchlist.ErrCanceled) {
//	    // not admitted in time; the list is untouched
//	}
//
// # Items
//
// T must be comparable; items match with == unless Options.Equal is set.
// A nil pointer, channel or interface item is a programming error and
// panics with ErrNilItem.
package searchlist
