// Package threadlocal provides leaky per-goroutine singletons.
//
// A singleton of this package holds exactly one lazily constructed
// value per goroutine per (value type, tag type) pair. The value is
// built on the goroutine's first access and destroyed only after the
// goroutine has exited — "leaky" in the sense that nothing is
// reclaimed early, which is what makes the value safe to touch from
// init functions, from code running after main returns, and in
// programs that churn through many short-lived goroutines.
//
// # Quick start
//
// Declare the singleton once, call Get from anywhere:
//
//	type requestScratch struct {
//		buf []byte
//	}
//
//	var scratch = threadlocal.New[threadlocal.DefaultTag](func() requestScratch {
//		return requestScratch{buf: make([]byte, 0, 4096)}
//	})
//
//	func handle() {
//		s := scratch.Get() // this goroutine's instance, built on first use
//		s.buf = s.buf[:0]
//	}
//
// The canonical use-case is state that is expensive to construct and
// unsafe (or slow) to share: random generators seeded once per
// goroutine, scratch buffers, per-goroutine statistics.
//
// # Identity
//
// Two [New] calls with the same value type and tag type resolve to the
// same process-wide singleton, no matter which package makes the call:
// identity lives in a registry keyed by the (type, tag) pair, not in
// the returned handle. The first registration's construction policy
// wins; later ones are ignored. Distinct tag types make otherwise
// identical value types independent singletons.
//
// # Sharing
//
// The reference returned by Get is owned by the calling goroutine.
// Nothing in the access path locks or synchronizes, because nothing is
// shared: handing the reference to another goroutine is a data race by
// construction. The cmd/localvet analyzer flags the common ways this
// happens by accident.
//
// # Lifecycle
//
// Go has no at-goroutine-exit hook, so destruction is carried out by a
// sweeper that periodically reaps state belonging to goroutines that
// have exited (see [Reap]). Before a value's finalizer runs, every
// cached fast-path reference to it is invalidated — a later access on
// a still-running teardown path rebuilds state instead of touching a
// destroyed value.
package threadlocal
