package searchlist

import "sync/atomic"

// chain is the shared singly-linked collection. It performs no
// synchronization of its own: every method assumes the caller was admitted
// by the controller for the matching role.
//
// head is published atomically because an inserter stores it while
// searchers load it. next fields are plain: a new node's next is written
// before the publishing store, and existing links are rewritten only by a
// remover, which is ordered against every other role through the
// controller lock.
type chain[T comparable] struct {
	head  atomic.Pointer[node[T]]
	size  atomic.Int64 // read by Len without admission
	equal func(a, b T) bool
}

// prepend publishes a new node in front of the current head. O(1).
// Requires insert admission.
func (c *chain[T]) prepend(item T) {
	n := &node[T]{item: item, next: c.head.Load()}
	c.head.Store(n)
	c.size.Add(1)
}

// contains reports whether any resident item matches. O(n).
// Requires search admission.
func (c *chain[T]) contains(item T) bool {
	for n := c.head.Load(); n != nil; n = n.next {
		if c.equal(item, n.item) {
			return true
		}
	}
	return false
}

// unlink removes the first matching node and reports whether one was found.
// The removed node is detached so nothing keeps the rest of the chain alive
// through it. O(n). Requires remove admission.
func (c *chain[T]) unlink(item T) bool {
	first := c.head.Load()
	if first == nil {
		return false
	}
	if c.equal(item, first.item) {
		c.head.Store(first.next)
		first.next = nil
		c.size.Add(-1)
		return true
	}
	for prev := first; prev.next != nil; prev = prev.next {
		if victim := prev.next; c.equal(item, victim.item) {
			prev.next = victim.next
			victim.next = nil
			c.size.Add(-1)
			return true
		}
	}
	return false
}

func (c *chain[T]) len() int { return int(c.size.Load()) }
