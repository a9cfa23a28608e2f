package threadlocal

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/atulkulk/folly/internal/gls"
	"github.com/atulkulk/folly/internal/goid"
	"github.com/atulkulk/folly/internal/registry"
)

// Get returns the calling goroutine's instance, constructing it on
// first access. The returned pointer stays valid and identity-stable
// for the goroutine's remaining lifetime; it must not be handed to
// another goroutine.
//
// Fast path: one goroutine-ID read and one slot load. Slow path (first
// access per goroutine, or access after teardown invalidated the
// slot): canonical lookup through the per-goroutine container, which
// runs the constructor if this goroutine has no instance yet.
func (s *Singleton[T]) Get() *T {
	st := s.st
	gid := goid.ID()
	if v, ok := st.slots.Load(gid); ok {
		sl := v.(*slot[T])
		if sl.cache != nil {
			return &sl.cache.value
		}
		return st.getSlow(gid, sl)
	}
	return st.getSlow(gid, st.slots.Acquire(gid).(*slot[T]))
}

// getSlow re-validates or re-establishes the fast path.
func (st *state[T]) getSlow(gid int64, sl *slot[T]) *T {
	if gls.GuardEnabled() {
		if err := registry.Guard(st.key, gid, uintptr(unsafe.Pointer(sl))); err != nil {
			guardFail(st.key, err)
		}
	}

	// Second tier: an existing, non-stale slot that still points at a
	// live wrapper serves directly without a canonical lookup.
	if !sl.stale && sl.cache != nil {
		return &sl.cache.value
	}

	// Canonical per-goroutine lookup; constructs the wrapper if this
	// goroutine has none. Rebinds the existing slot, so an access
	// landing in a teardown window gets a fresh wrapper on the same
	// slot rather than a destroyed value.
	w := st.cells.Acquire(gid).(*wrapper[T])
	sl.bind(w)
	return &w.value
}

// guardFail reports a forked fast-path slot and aborts. A fork means
// two independent registration paths both believe they own this
// (type, tag) pair — most often a second vendored copy of this package
// — and cached references can no longer be trusted. Not recoverable.
func guardFail(key registry.Key, err error) {
	fmt.Fprintf(os.Stderr, "==================\n")
	fmt.Fprintf(os.Stderr, "FATAL: SINGLETON SLOT FORK\n")
	fmt.Fprintf(os.Stderr, "Singleton: %s\n", key)
	fmt.Fprintf(os.Stderr, "Detail: %v\n", err)
	fmt.Fprintf(os.Stderr, "Duplicated registration state for one singleton, e.g. two\n")
	fmt.Fprintf(os.Stderr, "vendored copies of the threadlocal package in one binary.\n")
	fmt.Fprintf(os.Stderr, "==================\n")
	panic("threadlocal: " + err.Error())
}
