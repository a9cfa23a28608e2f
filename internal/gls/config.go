package gls

import (
	"sync"

	"github.com/caarlos0/env/v11"
)

// Config tunes the storage runtime. Loaded from the environment once,
// on first use, so it can take effect even for singletons touched
// before main runs.
type Config struct {
	// SweepInterval is the number of lazy constructions between
	// automatic sweeps for dead goroutines. 0 disables automatic
	// sweeping; Reap still works.
	SweepInterval uint32 `env:"THREADLOCAL_SWEEP_INTERVAL" envDefault:"1000"`

	// Guard enables the slow-path slot-identity consistency check.
	Guard bool `env:"THREADLOCAL_GUARD" envDefault:"true"`
}

func defaultConfig() Config {
	return Config{SweepInterval: 1000, Guard: true}
}

var (
	configOnce sync.Once
	config     Config
)

func loadConfig() Config {
	configOnce.Do(func() {
		config = defaultConfig()
		if err := env.Parse(&config); err != nil {
			// A malformed environment must not make the first Get of
			// the program fail; run with defaults instead.
			config = defaultConfig()
		}
	})
	return config
}

// GuardEnabled reports whether the consistency guard should run.
func GuardEnabled() bool {
	return loadConfig().Guard
}
