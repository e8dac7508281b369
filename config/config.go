// Package config loads router settings from the environment. Every field has
// a working default so a zero-configuration process still routes; environment
// variables override per deployment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Completion configures the LLM fallback classifier.
type Completion struct {
	// Provider selects the completion backend, "anthropic" or "openai".
	// Empty disables the fallback entirely.
	Provider string `env:"ROUTECORE_COMPLETION_PROVIDER"`

	APIKey    string        `env:"ROUTECORE_COMPLETION_API_KEY"`
	Model     string        `env:"ROUTECORE_COMPLETION_MODEL"`
	MaxTokens int           `env:"ROUTECORE_COMPLETION_MAX_TOKENS" envDefault:"512"`
	Timeout   time.Duration `env:"ROUTECORE_COMPLETION_TIMEOUT" envDefault:"10s"`
}

// Cache configures the two-tier route cache.
type Cache struct {
	LocalCapacity        int           `env:"ROUTECORE_CACHE_LOCAL_CAPACITY" envDefault:"1000"`
	MinConfidenceToCache float64       `env:"ROUTECORE_CACHE_MIN_CONFIDENCE" envDefault:"0.6"`
	SharedTTL            time.Duration `env:"ROUTECORE_CACHE_SHARED_TTL" envDefault:"300s"`

	// RedisAddr enables the shared tier when non-empty.
	RedisAddr     string `env:"ROUTECORE_CACHE_REDIS_ADDR"`
	RedisPassword string `env:"ROUTECORE_CACHE_REDIS_PASSWORD"`
	RedisDB       int    `env:"ROUTECORE_CACHE_REDIS_DB" envDefault:"0"`
}

// Config is the full environment-driven configuration.
type Config struct {
	Completion Completion
	Cache      Cache

	// FallbackThreshold is the pattern confidence below which the completion
	// fallback is consulted.
	FallbackThreshold float64 `env:"ROUTECORE_FALLBACK_THRESHOLD" envDefault:"0.7"`

	// AmbiguityThreshold is the score at or above which a request is flagged
	// as needing clarification.
	AmbiguityThreshold float64 `env:"ROUTECORE_AMBIGUITY_THRESHOLD" envDefault:"0.6"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"ROUTECORE_LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the environment on top of the defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the router cannot run with.
func (c *Config) Validate() error {
	if c.FallbackThreshold < 0 || c.FallbackThreshold > 1 {
		return fmt.Errorf("config: fallback threshold %v outside [0, 1]", c.FallbackThreshold)
	}
	if c.AmbiguityThreshold < 0 || c.AmbiguityThreshold > 1 {
		return fmt.Errorf("config: ambiguity threshold %v outside [0, 1]", c.AmbiguityThreshold)
	}
	if c.Cache.LocalCapacity <= 0 {
		return fmt.Errorf("config: local cache capacity must be positive, got %d", c.Cache.LocalCapacity)
	}
	if c.Cache.MinConfidenceToCache < 0 || c.Cache.MinConfidenceToCache > 1 {
		return fmt.Errorf("config: min confidence to cache %v outside [0, 1]", c.Cache.MinConfidenceToCache)
	}
	switch c.Completion.Provider {
	case "", "anthropic", "openai":
	default:
		return fmt.Errorf("config: unknown completion provider %q", c.Completion.Provider)
	}
	return nil
}
