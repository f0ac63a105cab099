// Package config loads server configuration from flags, TRIVIA_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every flag name to form its environment variable
const EnvPrefix = "TRIVIA"

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds the server configuration
type Config struct {
	Bind        string
	Port        int
	LogLevel    string
	Storage     string
	DatabaseURL string
	RedisURL    string
	SessionTTL  time.Duration
	StaticDir   string
	Metrics     bool
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Bind:       "0.0.0.0",
		Port:       8080,
		LogLevel:   "info",
		Storage:    StorageMemory,
		SessionTTL: 24 * time.Hour,
		Metrics:    true,
	}
}

// RegisterFlags adds the server flags to fs, with defaults from c
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&c.Bind, "bind", "b", c.Bind, "address to bind to (env: TRIVIA_BIND)")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "port to listen on (env: TRIVIA_PORT)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error (env: TRIVIA_LOG_LEVEL)")
	fs.StringVar(&c.Storage, "storage", c.Storage, "storage backend: memory, redis or postgres (env: TRIVIA_STORAGE)")
	fs.StringVar(&c.DatabaseURL, "database-url", c.DatabaseURL, "postgres connection URL (env: TRIVIA_DATABASE_URL)")
	fs.StringVar(&c.RedisURL, "redis-url", c.RedisURL, "redis connection URL (env: TRIVIA_REDIS_URL)")
	fs.DurationVar(&c.SessionTTL, "session-ttl", c.SessionTTL, "admin session lifetime (env: TRIVIA_SESSION_TTL)")
	fs.StringVar(&c.StaticDir, "static-dir", c.StaticDir, "serve static assets from this directory instead of the embedded copy (env: TRIVIA_STATIC_DIR)")
	fs.BoolVar(&c.Metrics, "metrics", c.Metrics, "expose prometheus metrics on /metrics (env: TRIVIA_METRICS)")
}

// ApplyEnv overrides every flag that was not set on the command line with
// its TRIVIA_* environment variable, if present
func ApplyEnv(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("%s_%s: %w", EnvPrefix, envName(f.Name), err))
			}
		}
	})
	return errors.Join(errs...)
}

func envName(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required when --storage=redis")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("--database-url is required when --storage=postgres")
		}
	default:
		return fmt.Errorf("invalid storage %q: must be memory, redis or postgres", c.Storage)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("invalid session ttl: %s", c.SessionTTL)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
