// Package gls implements goroutine-local storage with
// destruction-after-exit semantics.
//
// A Container holds at most one lazily constructed instance per live
// goroutine, keyed by goroutine ID. Go offers no hook that runs when a
// goroutine exits, so teardown is driven by a process-wide sweeper:
// every SweepInterval constructions (and on every explicit Reap) the
// set of live goroutine IDs is captured and instances belonging to
// dead goroutines are destroyed.
//
// Goroutine IDs are never reused by the runtime, so a swept ID can
// never be resurrected: a later goroutine always gets a fresh ID and
// therefore a fresh construction.
//
// Ordering: within one instance, the Container's destroy callback runs
// to completion before the entry is released. Across Containers the
// relative teardown order for one dead goroutine is registration
// order, which callers must not depend on — exactly the discipline
// independent thread-local mechanisms impose at thread exit.
package gls

import "sync"

// Container holds one lazily constructed instance per live goroutine.
//
// Access discipline: a goroutine may call Acquire only for its own ID.
// That rule is what makes the construct path lock-free — no two
// goroutines ever race to construct the same entry. Load and the
// sweeper may touch any ID.
type Container struct {
	name      string
	construct func() any
	destroy   func(any)
	entries   sync.Map // int64 (goroutine ID) -> any
}

// NewContainer creates a Container and registers it with the sweeper.
// construct runs on first Acquire per goroutine; destroy runs once per
// instance when its goroutine is found dead. destroy may be nil.
func NewContainer(name string, construct func() any, destroy func(any)) *Container {
	c := &Container{name: name, construct: construct, destroy: destroy}
	defaultSweeper.register(c)
	return c
}

// Load returns the instance for gid without constructing one.
func (c *Container) Load(gid int64) (any, bool) {
	return c.entries.Load(gid)
}

// Acquire returns gid's instance, constructing it on first use. gid
// must be the calling goroutine's own ID.
//
// If construct panics nothing is stored: the panic propagates to the
// caller and the next Acquire on the same goroutine constructs again.
func (c *Container) Acquire(gid int64) any {
	if v, ok := c.entries.Load(gid); ok {
		return v
	}
	v := c.construct()
	c.entries.Store(gid, v)
	defaultSweeper.constructed()
	return v
}

// Drop destroys and removes gid's instance, if present. The sweeper
// calls it for dead goroutines; it must not be called for a goroutine
// that may still touch the instance.
func (c *Container) Drop(gid int64) {
	if v, ok := c.entries.LoadAndDelete(gid); ok && c.destroy != nil {
		c.destroy(v)
	}
}
