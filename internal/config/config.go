package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverCouchbase = "couchbase"
	DriverRedis     = "redis"
)

type Config struct {
	APIPort               string        `mapstructure:"API_PORT"`
	LogLevel              string        `mapstructure:"LOG_LEVEL"`
	ElasticsearchURL      string        `mapstructure:"ELASTICSEARCH_URL"`
	StoreDriver           string        `mapstructure:"STORE_DRIVER"`
	CouchbaseURL          string        `mapstructure:"COUCHBASE_URL"`
	CouchbaseUsername     string        `mapstructure:"COUCHBASE_USERNAME"`
	CouchbasePassword     string        `mapstructure:"COUCHBASE_PASSWORD"`
	CouchbaseBucket       string        `mapstructure:"COUCHBASE_BUCKET"`
	CouchbaseScope        string        `mapstructure:"COUCHBASE_SCOPE"`
	RedisAddr             string        `mapstructure:"REDIS_ADDR"`
	RedisPassword         string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB               int           `mapstructure:"REDIS_DB"`
	CORSOrigins           []string      `mapstructure:"-"`
	OrdinalLockWait       time.Duration `mapstructure:"ORDINAL_LOCK_WAIT"`
	EnableBusinessMetrics bool          `mapstructure:"ENABLE_BUSINESS_METRICS"`
	EnableSystemMetrics   bool          `mapstructure:"ENABLE_SYSTEM_METRICS"`
	ShutdownTimeout       time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var keys = []string{
	"API_PORT",
	"LOG_LEVEL",
	"ELASTICSEARCH_URL",
	"STORE_DRIVER",
	"COUCHBASE_URL",
	"COUCHBASE_USERNAME",
	"COUCHBASE_PASSWORD",
	"COUCHBASE_BUCKET",
	"COUCHBASE_SCOPE",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
	"CORS_ORIGINS",
	"ORDINAL_LOCK_WAIT",
	"ENABLE_BUSINESS_METRICS",
	"ENABLE_SYSTEM_METRICS",
	"SHUTDOWN_TIMEOUT",
}

// LoadDotEnv loads ../.env, falling back to .env. Missing files are not an error.
func LoadDotEnv() {
	if err := godotenv.Load("../.env"); err != nil {
		log.Info().Msg("Not found .env file in parent directory, trying current directory")
		if err := godotenv.Load(".env"); err != nil {
			log.Info().Msg("Not found .env file in current directory, assuming environment variables are set")
		}
	}
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("API_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("STORE_DRIVER", DriverCouchbase)
	v.SetDefault("COUCHBASE_URL", "couchbase://localhost")
	v.SetDefault("COUCHBASE_USERNAME", "clinic_user")
	v.SetDefault("COUCHBASE_PASSWORD", "password")
	v.SetDefault("COUCHBASE_BUCKET", "clinic")
	v.SetDefault("COUCHBASE_SCOPE", "_default")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("ORDINAL_LOCK_WAIT", "2s")
	v.SetDefault("ENABLE_BUSINESS_METRICS", false)
	v.SetDefault("ENABLE_SYSTEM_METRICS", false)
	v.SetDefault("SHUTDOWN_TIMEOUT", "30s")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	for _, origin := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have a closed set of values.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverCouchbase, DriverRedis:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverCouchbase, DriverRedis, c.StoreDriver)
	}
	if c.APIPort == "" {
		return fmt.Errorf("API_PORT is required")
	}
	if c.OrdinalLockWait < 0 {
		return fmt.Errorf("ORDINAL_LOCK_WAIT must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
