package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// cache keeps one parsed value per configuration type so every
	// component asking for the same Config sees the same snapshot,
	// regardless of environment changes after the first parse.
	cache   = make(map[string]any)
	cacheMu sync.Mutex

	dotenvOnce sync.Once
)

// Load parses environment variables into the configuration struct based on
// its `env` field tags. The default .env file is loaded once, silently,
// before the first parse; a missing file is not an error. Each
// configuration type is parsed exactly once per process and cached.
//
// Example:
//
//	type EngineConfig struct {
//		MasterURL string `env:"MASTER_DB_URL,required"`
//		PoolSize  int    `env:"TENANT_POOL_MAX_CONNS" envDefault:"10"`
//	}
//
//	var cfg EngineConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]().String()

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}

	// Parse failures are not cached; a corrected environment on the next
	// call (tests, mostly) gets a fresh parse.
	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	cache[key] = *v
	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
