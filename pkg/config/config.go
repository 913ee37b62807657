// Package config loads the harvester configuration from defaults, an
// optional harvest.yaml file and HARVEST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/bibharvest/pkg/ratelimit"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "HARVEST"

// Config holds the complete harvester configuration.
type Config struct {
	// Institution is the affiliation name searched with AFFIL(...).
	Institution string `mapstructure:"institution"`
	// PageSize is the number of entries requested per page (default: 25).
	PageSize int `mapstructure:"page_size"`
	// Start is the offset of the first page (default: 0).
	Start int `mapstructure:"start"`
	// MaxRecords caps the run; 0 means unlimited.
	MaxRecords int `mapstructure:"max_records"`
	// OutputPath receives the JSON array of records.
	OutputPath string `mapstructure:"output_path"`
	// DiagnosticPath receives the raw entries of the latest citation lookup.
	// Empty disables the file.
	DiagnosticPath string `mapstructure:"diagnostic_path"`
	// UserAgent is sent with every API request.
	UserAgent string `mapstructure:"user_agent"`
	// RequestInterval is the minimum spacing between Scopus requests.
	RequestInterval time.Duration `mapstructure:"request_interval"`
	// ReferenceTimeout bounds each Crossref lookup.
	ReferenceTimeout time.Duration `mapstructure:"reference_timeout"`

	Enrich   EnrichConfig   `mapstructure:"enrich"`
	Scopus   ScopusConfig   `mapstructure:"scopus"`
	Crossref CrossrefConfig `mapstructure:"crossref"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// EnrichConfig toggles the per-record enrichment steps.
type EnrichConfig struct {
	References bool `mapstructure:"references"`
	Citations  bool `mapstructure:"citations"`
}

// ScopusConfig holds Scopus Search API settings.
type ScopusConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// APIKey is loaded from HARVEST_SCOPUS_API_KEY only.
	APIKey string `mapstructure:"-"`
}

// CrossrefConfig holds Crossref REST API settings.
type CrossrefConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Mailto joins the Crossref polite pool when set.
	Mailto string `mapstructure:"mailto"`
}

// RedisConfig enables the response cache when Addr is set.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
	// Password is loaded from HARVEST_REDIS_PASSWORD only.
	Password string `mapstructure:"-"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads the configuration. A missing harvest.yaml is not an error.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("harvest")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Scopus.APIKey = os.Getenv(EnvPrefix + "_SCOPUS_API_KEY")
	cfg.Redis.Password = os.Getenv(EnvPrefix + "_REDIS_PASSWORD")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("institution", "University of West Bohemia")
	v.SetDefault("page_size", 25)
	v.SetDefault("start", 0)
	v.SetDefault("max_records", 0)
	v.SetDefault("output_path", "all_articles_by_institution.json")
	v.SetDefault("diagnostic_path", "raw_citing_articles.json")
	v.SetDefault("user_agent", "bibharvest/0.1.0")
	v.SetDefault("request_interval", "1s")
	v.SetDefault("reference_timeout", "10s")

	v.SetDefault("enrich.references", true)
	v.SetDefault("enrich.citations", true)

	v.SetDefault("scopus.base_url", "https://api.elsevier.com/content/search/scopus")
	v.SetDefault("crossref.base_url", "https://api.crossref.org")
	v.SetDefault("crossref.mailto", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("metrics.addr", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
}

// Validate checks the configuration for missing or out-of-range values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Institution) == "" {
		return fmt.Errorf("institution is required")
	}
	if c.PageSize <= 0 || c.PageSize > 200 {
		return fmt.Errorf("page_size must be between 1 and 200 (got %d)", c.PageSize)
	}
	if c.Start < 0 {
		return fmt.Errorf("start must not be negative (got %d)", c.Start)
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("max_records must not be negative (got %d)", c.MaxRecords)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output_path is required")
	}
	if c.RequestInterval < ratelimit.DefaultInterval {
		return fmt.Errorf("request_interval must be at least %s (got %s)", ratelimit.DefaultInterval, c.RequestInterval)
	}
	if c.ReferenceTimeout <= 0 {
		return fmt.Errorf("reference_timeout must be positive (got %s)", c.ReferenceTimeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative (got %s)", c.Cache.TTL)
	}
	if c.Scopus.BaseURL == "" {
		return fmt.Errorf("scopus.base_url is required")
	}
	if c.Crossref.BaseURL == "" {
		return fmt.Errorf("crossref.base_url is required")
	}
	if c.Scopus.APIKey == "" {
		return fmt.Errorf("%s_SCOPUS_API_KEY is required", EnvPrefix)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	return nil
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}
