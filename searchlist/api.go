package searchlist

import "context"

// List is a singly-linked collection shared by three roles: searchers,
// inserters and removers. All methods are safe for concurrent use by
// multiple goroutines.
//
// Any number of searches run together, one insert may run alongside them,
// and a remove runs alone. A waiting remove holds back searches that have
// not been admitted yet.
type List[T comparable] interface {
	// Insert prepends item. O(1) once admitted.
	// Returns an error wrapping ErrCanceled if ctx ends before admission;
	// the list is unchanged then.
	Insert(ctx context.Context, item T) error

	// Search reports whether item is resident. O(n) once admitted.
	// Cancellation is reported as in Insert, never as "not found".
	Search(ctx context.Context, item T) (bool, error)

	// Remove unlinks the first resident occurrence of item and reports
	// whether there was one. O(n) once admitted.
	// Cancellation is reported as in Insert, never as "not removed".
	Remove(ctx context.Context, item T) (bool, error)

	// Len returns the number of resident items. It takes no admission and
	// is meant for observability; the value may be stale by the time it
	// is used.
	Len() int

	// Stats returns the current admission counters and operation totals.
	Stats() Stats
}
