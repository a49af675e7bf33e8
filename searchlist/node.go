package searchlist

// node is one link of the chain. item never changes after construction;
// next is owned by the node and rewritten only by an admitted remover.
type node[T comparable] struct {
	item T
	next *node[T]
}
