// Package config provides centralized configuration management for
// bandradar. Defaults, an optional YAML config file, and BANDRADAR_*
// environment variables are layered via viper, then decoded into the
// typed Config with mapstructure hooks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all configuration environment variables.
const EnvPrefix = "BANDRADAR"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// Load reads configuration from defaults, the given config file (or the
// default search paths when empty), and the environment. Safe to call
// more than once; the last successful load wins.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "bandradar"))
		}
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults and env carry the load.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	decode := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, decode); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	configMu.Lock()
	appConfig = cfg
	configMu.Unlock()

	return cfg, nil
}

// Get returns the currently loaded configuration, or nil before Load.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// Validate rejects configurations that would violate engine invariants.
func Validate(cfg *Config) error {
	if cfg.Verifier.MaxConcurrent < 1 {
		return fmt.Errorf("verifier.max_concurrent must be at least 1")
	}
	if cfg.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("breaker.failure_threshold must be at least 1")
	}
	if cfg.Breaker.SuccessThreshold < 1 {
		return fmt.Errorf("breaker.success_threshold must be at least 1")
	}
	if cfg.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be at least 1")
	}
	// TTL ordering: taken > available > uncertain >= 0.
	if cfg.Cache.TakenTTL <= cfg.Cache.AvailableTTL {
		return fmt.Errorf("cache.taken_ttl must exceed cache.available_ttl")
	}
	if cfg.Cache.AvailableTTL <= cfg.Cache.UncertainTTL {
		return fmt.Errorf("cache.available_ttl must exceed cache.uncertain_ttl")
	}
	if cfg.Cache.UncertainTTL < 0 {
		return fmt.Errorf("cache.uncertain_ttl must not be negative")
	}
	if cfg.RateLimitMargin < 0 || cfg.RateLimitMargin > 1 {
		return fmt.Errorf("rate_limit_margin must be within [0,1]")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Store defaults
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	// Result cache defaults; ordering is validated on load.
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.sweep_interval", "1m")
	v.SetDefault("cache.available_ttl", "1h")
	v.SetDefault("cache.similar_ttl", "2h")
	v.SetDefault("cache.taken_ttl", "24h")
	v.SetDefault("cache.uncertain_ttl", "2m")
	v.SetDefault("cache.famous_ttl", "168h")

	// Dedup defaults
	v.SetDefault("dedup.window", "5s")
	v.SetDefault("dedup.max_entries", 1000)

	// Verifier defaults
	v.SetDefault("verifier.max_concurrent", 3)
	v.SetDefault("verifier.request_timeout", "30s")
	v.SetDefault("verifier.fail_open", true)

	// Circuit breaker defaults
	v.SetDefault("breaker.failure_threshold", 4)
	v.SetDefault("breaker.failure_window", "60s")
	v.SetDefault("breaker.recovery_timeout", "45s")
	v.SetDefault("breaker.success_threshold", 2)

	// Source defaults
	v.SetDefault("sources.spotify.enabled", true)
	v.SetDefault("sources.spotify.timeout", "8s")
	v.SetDefault("sources.spotify.reliability", 1.0)
	v.SetDefault("sources.itunes.enabled", true)
	v.SetDefault("sources.itunes.timeout", "10s")
	v.SetDefault("sources.itunes.reliability", 0.9)
	v.SetDefault("sources.musicbrainz.enabled", true)
	v.SetDefault("sources.musicbrainz.timeout", "15s")
	v.SetDefault("sources.musicbrainz.reliability", 0.85)
	v.SetDefault("sources.domain.enabled", false)
	v.SetDefault("sources.domain.timeout", "10s")
	v.SetDefault("sources.domain.reliability", 0.6)

	// Rate limit overrides (optional)
	v.SetDefault("rate_limits", map[string]int{})
	v.SetDefault("rate_limit_margin", 0.9)

	// Health check defaults
	v.SetDefault("health.enabled", true)
}

// DefaultStorePath returns the default on-disk location of the store.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bandradar.db"
	}
	return filepath.Join(home, ".local", "share", "bandradar", "bandradar.db")
}
