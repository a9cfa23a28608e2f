package threadlocal

import (
	"github.com/atulkulk/folly/internal/gls"
	"github.com/atulkulk/folly/internal/registry"
)

// DefaultTag is the tag for value types that need no disambiguation.
type DefaultTag struct{}

// Singleton is a handle to one logical per-goroutine singleton of
// value type T. Handles are cheap and interchangeable: every handle
// for the same (T, tag) pair reaches the same process-wide state.
type Singleton[T any] struct {
	st *state[T]
}

// state is the canonical descriptor for one (T, tag) pair. Exactly one
// exists per pair for the lifetime of the process, held by the
// registry.
type state[T any] struct {
	key registry.Key

	// Exactly one of construct/constructInPlace is set; the zero-value
	// policy leaves both nil.
	construct        func() T
	constructInPlace func(*T)
	finalize         func(*T)

	// cells holds each goroutine's wrapper; slots holds each
	// goroutine's fast-path record. Two independent per-goroutine
	// storages, torn down in unspecified relative order — the access
	// protocol is safe under both orders.
	cells *gls.Container
	slots *gls.Container
}

// Option configures a singleton at registration. Options from any
// registration after the first are ignored, like the rest of the
// construction policy.
type Option[T any] func(*state[T])

// WithFinalizer installs fin, run for each goroutine's value after the
// goroutine has exited. By the time fin runs every cached reference to
// the value has been invalidated; fin must not retain the pointer.
func WithFinalizer[T any](fin func(*T)) Option[T] {
	return func(st *state[T]) { st.finalize = fin }
}

// New registers (or resolves) the singleton for value type T and tag
// type Tag and returns a handle to it.
//
// construct runs at most once per goroutine, on that goroutine's first
// Get, and its result becomes the goroutine's instance. A nil
// construct means the zero value. If construct needs to build the
// value in place instead of returning it, use [NewInPlace].
//
// If construct panics, the panic propagates to the caller whose Get
// triggered it, no instance is recorded, and the next Get on that
// goroutine runs construct again.
func New[Tag, T any](construct func() T, opts ...Option[T]) *Singleton[T] {
	return register[Tag](construct, nil, opts)
}

// NewInPlace is New for value types that must not be moved once
// constructed — values embedding sync primitives handed out during
// construction, or self-referential values. construct receives a
// pointer to zeroed storage at the value's final address.
func NewInPlace[Tag, T any](construct func(*T), opts ...Option[T]) *Singleton[T] {
	if construct == nil {
		panic("threadlocal: NewInPlace with nil constructor")
	}
	return register[Tag](nil, construct, opts)
}

func register[Tag, T any](construct func() T, inPlace func(*T), opts []Option[T]) *Singleton[T] {
	key := registry.KeyFor[T, Tag]()
	d := registry.Lookup(key, func() any {
		st := &state[T]{
			key:              key,
			construct:        construct,
			constructInPlace: inPlace,
		}
		for _, opt := range opts {
			opt(st)
		}
		// Registration order decides teardown order for a dead
		// goroutine: wrappers before slots here, but nothing below
		// depends on it.
		st.cells = gls.NewContainer(key.String()+"/cells",
			func() any { return newWrapper(st) },
			func(v any) { v.(*wrapper[T]).destroy(st) },
		)
		st.slots = gls.NewContainer(key.String()+"/slots",
			func() any { return newSlot[T]() },
			func(v any) { v.(*slot[T]).teardown() },
		)
		return st
	})
	return &Singleton[T]{st: d.(*state[T])}
}

// Reap synchronously destroys singleton state belonging to goroutines
// that have exited. The sweeper also runs automatically; Reap exists
// for programs that want reclamation at a point of their choosing
// (between request batches, in tests). Live goroutines are never
// touched.
func Reap() {
	gls.Reap()
}

func init() {
	// Guard records are per-goroutine; retire them with the rest of a
	// dead goroutine's state.
	gls.RegisterSweepHook(registry.DropGuards)
}
