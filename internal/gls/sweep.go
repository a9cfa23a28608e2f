package gls

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/atulkulk/folly/internal/goid"
)

// sweeper reaps per-goroutine state once its goroutine has exited.
//
// The expensive part of a sweep is the live-goroutine snapshot (about
// 1ms per 1000 goroutines), so automatic sweeps are amortized: one
// background sweep per SweepInterval constructions across all
// Containers.
type sweeper struct {
	mu         sync.Mutex
	containers []*Container
	hooks      []func(gid int64)

	// sweepMu serializes sweeps. Sweeping is idempotent, but a forced
	// Reap must observe a completed pass, not skip because a
	// background sweep happens to be in flight.
	sweepMu sync.Mutex

	allocs atomic.Uint32
}

var defaultSweeper sweeper

func (s *sweeper) register(c *Container) {
	s.mu.Lock()
	s.containers = append(s.containers, c)
	s.mu.Unlock()
}

// RegisterSweepHook adds fn, called once per reaped goroutine after
// all of that goroutine's instances have been destroyed.
func RegisterSweepHook(fn func(gid int64)) {
	defaultSweeper.mu.Lock()
	defaultSweeper.hooks = append(defaultSweeper.hooks, fn)
	defaultSweeper.mu.Unlock()
}

// constructed accounts for one lazy construction and triggers an
// amortized background sweep.
func (s *sweeper) constructed() {
	interval := loadConfig().SweepInterval
	if interval == 0 {
		return
	}
	if s.allocs.Add(1)%interval == 0 {
		go s.sweep()
	}
}

// Reap synchronously destroys all state belonging to goroutines that
// have exited. Live goroutines are never touched, so Reap cannot cause
// early destruction.
func Reap() {
	defaultSweeper.sweep()
}

func (s *sweeper) sweep() {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	s.mu.Lock()
	containers := slices.Clone(s.containers)
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()

	// Collect candidates BEFORE snapshotting liveness. A candidate
	// absent from the later snapshot stored its entry and then exited,
	// so it is provably dead. The reverse order is unsound: a
	// goroutine born after the snapshot could store its entry before
	// the scan reaches it and be reaped while still running.
	candidates := make([][]int64, len(containers))
	for i, c := range containers {
		c.entries.Range(func(k, _ any) bool {
			candidates[i] = append(candidates[i], k.(int64))
			return true
		})
	}

	live := goid.Live()

	dead := make(map[int64]struct{})
	for i, c := range containers {
		for _, gid := range candidates[i] {
			if _, ok := live[gid]; !ok {
				c.Drop(gid)
				dead[gid] = struct{}{}
			}
		}
	}
	for gid := range dead {
		for _, h := range hooks {
			h(gid)
		}
	}
}
