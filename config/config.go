// Package config loads relay settings from YAML.
package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"partywire/directory"
	"partywire/middleware"
	"partywire/session"
)

type Config struct {
	Session   SessionConfig   `yaml:"session"`
	Directory DirectoryConfig `yaml:"directory"`
	Log       LogConfig       `yaml:"log"`
}

type SessionConfig struct {
	PushInterval   time.Duration `yaml:"push_interval" env:"PARTYWIRE_PUSH_INTERVAL"`
	MaxControllers int           `yaml:"max_controllers" env:"PARTYWIRE_MAX_CONTROLLERS"`
	// RateLimit is frames per second per controller. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" env:"PARTYWIRE_RATE_LIMIT"`
	Burst     int     `yaml:"burst" env:"PARTYWIRE_BURST"`
}

// DirectoryConfig selects where session statistics are published. Without
// endpoints an in-memory directory is used.
type DirectoryConfig struct {
	Endpoints   []string      `yaml:"endpoints" env:"PARTYWIRE_ETCD_ENDPOINTS" envSeparator:","`
	Prefix      string        `yaml:"prefix" env:"PARTYWIRE_DIRECTORY_PREFIX"`
	TTL         time.Duration `yaml:"ttl" env:"PARTYWIRE_DIRECTORY_TTL"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"PARTYWIRE_DIAL_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"PARTYWIRE_LOG_LEVEL"`
	Format string `yaml:"format" env:"PARTYWIRE_LOG_FORMAT"`
}

func Default() *Config {
	return &Config{
		Session: SessionConfig{
			PushInterval: session.DefaultOptions().PushInterval,
			RateLimit:    60,
			Burst:        10,
		},
		Directory: DirectoryConfig{
			Prefix:      directory.DefaultPrefix,
			TTL:         10 * time.Second,
			DialTimeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, then applies PARTYWIRE_* environment
// variables over both. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Session.PushInterval < 0 || c.Session.PushInterval.Milliseconds() > math.MaxUint32 {
		return fmt.Errorf("session.push_interval %s out of range", c.Session.PushInterval)
	}
	if c.Session.MaxControllers < 0 || c.Session.MaxControllers > math.MaxUint16+1 {
		return fmt.Errorf("session.max_controllers %d out of range", c.Session.MaxControllers)
	}
	if c.Session.RateLimit < 0 {
		return fmt.Errorf("session.rate_limit must not be negative")
	}
	if c.Session.RateLimit > 0 && c.Session.Burst <= 0 {
		return fmt.Errorf("session.burst must be positive when rate_limit is set")
	}
	if len(c.Directory.Endpoints) > 0 && c.Directory.TTL < time.Second {
		return fmt.Errorf("directory.ttl must be at least 1s")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	return nil
}

// SessionOptions converts the session section.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		PushInterval:   c.Session.PushInterval,
		MaxControllers: c.Session.MaxControllers,
	}
}

// Middlewares builds the controller frame chain: logging first, then
// metrics when m is not nil, then the rate limit when one is configured.
// The returned limiter is nil without a rate limit.
func (c *Config) Middlewares(logger *slog.Logger, m *middleware.Metrics) ([]middleware.Middleware, *middleware.RateLimiter) {
	mws := []middleware.Middleware{middleware.LoggingMiddleware(logger)}
	if m != nil {
		mws = append(mws, middleware.MetricsMiddleware(m))
	}
	var rl *middleware.RateLimiter
	if c.Session.RateLimit > 0 {
		rl = middleware.NewRateLimiter(c.Session.RateLimit, c.Session.Burst)
		mws = append(mws, rl.Middleware())
	}
	return mws, rl
}

// NewSession creates a session with the configured options and frame chain.
// An empty id picks a random one. Rate limit buckets are dropped when their
// controller leaves.
func (c *Config) NewSession(id string, logger *slog.Logger, m *middleware.Metrics) (*session.Session, error) {
	mws, rl := c.Middlewares(logger, m)
	var (
		s   *session.Session
		err error
	)
	if id != "" {
		s, err = session.New(id, c.SessionOptions(), logger, mws...)
	} else {
		s, err = session.NewRandom(c.SessionOptions(), logger, mws...)
	}
	if err != nil {
		return nil, err
	}
	if rl != nil {
		s.OnLeave(rl.Forget)
	}
	return s, nil
}

// EtcdOptions converts the directory section.
func (c *Config) EtcdOptions(logger *slog.Logger) directory.EtcdOptions {
	return directory.EtcdOptions{
		Endpoints:   c.Directory.Endpoints,
		DialTimeout: c.Directory.DialTimeout,
		TTL:         c.Directory.TTL,
		Prefix:      c.Directory.Prefix,
		Logger:      logger,
	}
}

// OpenDirectory returns an etcd directory when endpoints are configured and
// an in-memory one otherwise.
func (c *Config) OpenDirectory(logger *slog.Logger) (directory.Directory, error) {
	if len(c.Directory.Endpoints) == 0 {
		return directory.NewMemoryDirectory(), nil
	}
	return directory.NewEtcdDirectory(c.EtcdOptions(logger))
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
