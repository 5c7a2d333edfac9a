package config

import "time"

// Config represents the complete application configuration, loaded via
// viper with defaults, optional YAML file, and BANDRADAR_* environment
// variables layered in that order.
type Config struct {
	Server   ServerConfig            `mapstructure:"server"`
	Store    StoreConfig             `mapstructure:"store"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Dedup    DedupConfig             `mapstructure:"dedup"`
	Verifier VerifierConfig          `mapstructure:"verifier"`
	Breaker  BreakerConfig           `mapstructure:"breaker"`
	Sources  map[string]SourceConfig `mapstructure:"sources"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Health   HealthConfig            `mapstructure:"health"`

	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// CacheConfig contains the outcome-dependent result cache settings.
// TTLs must preserve taken > available > uncertain >= 0; famous-artist
// hits cache longest because they essentially never change.
type CacheConfig struct {
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	AvailableTTL  time.Duration `mapstructure:"available_ttl"`
	SimilarTTL    time.Duration `mapstructure:"similar_ttl"`
	TakenTTL      time.Duration `mapstructure:"taken_ttl"`
	UncertainTTL  time.Duration `mapstructure:"uncertain_ttl"`
	FamousTTL     time.Duration `mapstructure:"famous_ttl"`
}

// DedupConfig controls in-flight request collapsing and the short-lived
// burst cache that absorbs identical requests arriving within seconds.
type DedupConfig struct {
	Window     time.Duration `mapstructure:"window"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// VerifierConfig contains coordinator-level settings.
type VerifierConfig struct {
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// FailOpen keeps the original product behavior: when every source
	// fails, degrade to a low-confidence "available" instead of
	// "uncertain". Named explicitly so operators can turn it off.
	FailOpen bool `mapstructure:"fail_open"`
}

// BreakerConfig contains per-source circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	FailureWindow    time.Duration `mapstructure:"failure_window"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
}

// SourceConfig tunes one external catalog adapter.
type SourceConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Reliability float64       `mapstructure:"reliability"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level (SIMPLE, STRUCTURED).
	Profile string `mapstructure:"profile"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
