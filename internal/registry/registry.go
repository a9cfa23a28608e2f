// Package registry provides the process-wide descriptor registry for
// logical singletons.
//
// A logical singleton is identified by a (value type, tag type) pair.
// The registry guarantees exactly one canonical descriptor per pair for
// the lifetime of the process, no matter how many call sites register
// it or in what order. It has no init-order dependence: the backing map
// is a package-level sync.Map, so lookups are safe from init functions,
// from TestMain, and during interleaved package teardown.
//
// The registry also keeps the consistency-guard ledger: a record of the
// fast-path slot identity serviced for each (pair, goroutine). A pair
// whose slot identity forks on one goroutine means two independent
// registration paths both believe they own the pair — typically a
// second vendored copy of the consuming package — and caching is no
// longer safe.
package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Key identifies one logical singleton: the value type plus an
// uninterpreted tag type used only to distinguish otherwise-identical
// value types.
type Key struct {
	Value reflect.Type
	Tag   reflect.Type
}

// KeyFor builds the Key for value type T and tag type Tag.
func KeyFor[T, Tag any]() Key {
	return Key{
		Value: reflect.TypeOf((*T)(nil)).Elem(),
		Tag:   reflect.TypeOf((*Tag)(nil)).Elem(),
	}
}

func (k Key) String() string {
	return k.Value.String() + "#" + k.Tag.String()
}

// descriptors maps Key to the canonical descriptor (any). Entries are
// never removed: one descriptor per pair for the process lifetime.
var descriptors sync.Map

// Lookup returns the canonical descriptor for key, creating it with
// create on first registration. Idempotent: repeated lookups return
// the same descriptor, and when registrations race the first stored
// one wins and the loser's descriptor is discarded before anyone can
// observe it.
func Lookup(key Key, create func() any) any {
	if d, ok := descriptors.Load(key); ok {
		return d
	}
	d, _ := descriptors.LoadOrStore(key, create())
	return d
}

// guardKey scopes a guard record to one goroutine's view of one pair.
type guardKey struct {
	key Key
	gid int64
}

// guards maps guardKey to the slot identity (uintptr) recorded on the
// first slow-path access. Entries are dropped when the goroutine dies.
var guards sync.Map

// Guard records the identity of the fast-path slot being serviced for
// key on goroutine gid, and reports an error if a different identity
// was recorded earlier. Called on the slow path only.
func Guard(key Key, gid int64, slot uintptr) error {
	gk := guardKey{key: key, gid: gid}
	prev, loaded := guards.LoadOrStore(gk, slot)
	if loaded && prev.(uintptr) != slot {
		return fmt.Errorf("fast-path slot for %s forked on goroutine %d: recorded 0x%x, now 0x%x",
			key, gid, prev, slot)
	}
	return nil
}

// DropGuards removes every guard record belonging to gid. Called by
// the sweeper once a goroutine is known dead, so the ledger does not
// grow without bound in programs that churn goroutines.
func DropGuards(gid int64) {
	guards.Range(func(k, _ any) bool {
		if k.(guardKey).gid == gid {
			guards.Delete(k)
		}
		return true
	})
}
