package threadlocal

import "github.com/atulkulk/folly/internal/linklist"

// wrapper owns one goroutine's live value together with the list of
// fast-path slots currently pointing at it. Exactly one wrapper is
// alive per goroutine per (type, tag).
type wrapper[T any] struct {
	value T

	// caches is the intrusive back-reference list. Only membership
	// matters: O(1) insert on bind, O(1) self-unlink on slot teardown,
	// one walk at destroy. Never searched.
	caches linklist.List[*slot[T]]
}

// newWrapper constructs the value under the registered policy. A
// panicking constructor propagates before the wrapper is published, so
// a failed construction leaves nothing behind.
func newWrapper[T any](st *state[T]) *wrapper[T] {
	w := &wrapper[T]{}
	switch {
	case st.constructInPlace != nil:
		st.constructInPlace(&w.value)
	case st.construct != nil:
		w.value = st.construct()
	}
	return w
}

// destroy tears the wrapper down: every linked slot is invalidated
// first, then the finalizer runs. The ordering is the core safety
// property — no slot may be left pointing at a value whose teardown
// has started.
func (w *wrapper[T]) destroy(st *state[T]) {
	w.caches.Drain(func(s *slot[T]) { s.invalidate() })
	if st.finalize != nil {
		st.finalize(&w.value)
	}
}

// slot is one goroutine's fast-path record for one singleton: a cached
// wrapper pointer, a staleness flag, and the intrusive node that
// registers the slot in the wrapper's back-reference list.
//
// Slot states: uninitialized (cache nil, not stale), valid (cache
// non-nil), invalidated (cache nil, stale). valid → invalidated only
// through wrapper teardown; invalidated → valid through the slow
// path's rebind.
type slot[T any] struct {
	cache *wrapper[T]
	stale bool
	node  linklist.Node[*slot[T]]
}

func newSlot[T any]() *slot[T] {
	s := &slot[T]{}
	s.node.Value = s
	return s
}

// bind points the slot at w and registers it in w's back-reference
// list, moving the node out of any previous list first.
func (s *slot[T]) bind(w *wrapper[T]) {
	s.node.Unlink()
	w.caches.PushFront(&s.node)
	s.cache = w
	s.stale = false
}

// invalidate clears the fast path. Called by the owning wrapper's
// destroy walk; the node has already been unlinked by the walk.
func (s *slot[T]) invalidate() {
	s.cache = nil
	s.stale = true
}

// teardown is the slot's own destructor. It must be correct whether or
// not the wrapper is already gone: the unlink touches only the node's
// own pointers, never the wrapper.
func (s *slot[T]) teardown() {
	s.node.Unlink()
	s.invalidate()
}
