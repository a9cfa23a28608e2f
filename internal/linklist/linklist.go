// Package linklist implements an intrusive doubly linked list with
// auto-unlink semantics.
//
// Nodes are embedded in the values that participate in the list, so
// membership costs no allocation. A node removes itself from whatever
// list it is in using only its own prev/next pointers; the list is
// never searched and the owner is never dereferenced during removal.
// That property is what lets an observer deregister itself during its
// own teardown without knowing whether the owning list still exists.
//
// Not safe for concurrent use. Every list in this module is owned by
// exactly one goroutine.
package linklist

// Node is one intrusive link. Embed it in the participating value and
// set Value to point back at that value before linking.
//
// The zero Node is unlinked.
type Node[T any] struct {
	prev, next *Node[T]

	// Value is the payload reached when the owner walks the list.
	Value T
}

// Linked reports whether the node is currently in a list.
func (n *Node[T]) Linked() bool { return n.next != nil }

// Unlink removes the node from the list it is in, if any. Depends only
// on the node's own pointers, so it is valid no matter what has
// happened to the owning List since insertion. No-op when unlinked.
func (n *Node[T]) Unlink() {
	if n.next == nil {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

// List is a ring of nodes around an embedded sentinel. The zero List
// is empty and ready to use.
type List[T any] struct {
	root Node[T]
}

func (l *List[T]) lazyInit() {
	if l.root.next == nil {
		l.root.prev = &l.root
		l.root.next = &l.root
	}
}

// Empty reports whether the list holds no nodes.
func (l *List[T]) Empty() bool {
	return l.root.next == nil || l.root.next == &l.root
}

// PushFront links n at the head of the list. O(1). The node must not
// already be in a list.
func (l *List[T]) PushFront(n *Node[T]) {
	if n.next != nil {
		panic("linklist: PushFront of linked node")
	}
	l.lazyInit()
	n.prev = &l.root
	n.next = l.root.next
	n.prev.next = n
	n.next.prev = n
}

// Drain unlinks every node, calling f with each node's Value. Used by
// owners for their single invalidation walk at teardown; after Drain
// the list is empty and leaving it behind is safe because no node
// points into it anymore.
func (l *List[T]) Drain(f func(T)) {
	if l.root.next == nil {
		return
	}
	for l.root.next != &l.root {
		n := l.root.next
		n.Unlink()
		f(n.Value)
	}
}
