package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"partywire/directory"
	"partywire/middleware"
)

// clearEnv unsets a variable for the duration of the test.
func clearEnv(t *testing.T, key string) {
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	clearEnv(t, "PARTYWIRE_ETCD_ENDPOINTS")
	clearEnv(t, "PARTYWIRE_LOG_LEVEL")
	path := filepath.Join(t.TempDir(), "partywire.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
session:
  push_interval: 100ms
  max_controllers: 8
directory:
  endpoints: ["localhost:2379"]
  ttl: 30s
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.PushInterval != 100*time.Millisecond {
		t.Errorf("push_interval: got %s", cfg.Session.PushInterval)
	}
	if cfg.Session.MaxControllers != 8 {
		t.Errorf("max_controllers: got %d", cfg.Session.MaxControllers)
	}
	if cfg.Directory.TTL != 30*time.Second || len(cfg.Directory.Endpoints) != 1 {
		t.Errorf("directory: got %+v", cfg.Directory)
	}
	// unset keys keep their defaults
	if cfg.Session.Burst != 10 || cfg.Directory.Prefix != directory.DefaultPrefix || cfg.Log.Format != "text" {
		t.Errorf("expect defaults kept, got %+v", cfg)
	}

	opts := cfg.SessionOptions()
	if opts.PushInterval != 100*time.Millisecond || opts.MaxControllers != 8 {
		t.Errorf("session options: got %+v", opts)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	clearEnv(t, "PARTYWIRE_ETCD_ENDPOINTS")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expect defaults to validate, got %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	path := writeConfig(t, "session:\n  push_interval: 100ms\nlog:\n  level: debug\n")
	t.Setenv("PARTYWIRE_LOG_LEVEL", "warn")
	t.Setenv("PARTYWIRE_ETCD_ENDPOINTS", "a:2379,b:2379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expect env to override file, got level %q", cfg.Log.Level)
	}
	if cfg.Session.PushInterval != 100*time.Millisecond {
		t.Errorf("expect file value kept, got %s", cfg.Session.PushInterval)
	}
	if got := cfg.Directory.Endpoints; len(got) != 2 || got[1] != "b:2379" {
		t.Errorf("endpoints: got %v", got)
	}
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("PARTYWIRE_MAX_CONTROLLERS", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expect error for unparsable env value")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expect error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative push interval", func(c *Config) { c.Session.PushInterval = -time.Second }},
		{"too many controllers", func(c *Config) { c.Session.MaxControllers = 1 << 20 }},
		{"negative rate", func(c *Config) { c.Session.RateLimit = -1 }},
		{"rate without burst", func(c *Config) { c.Session.Burst = 0 }},
		{"short ttl", func(c *Config) {
			c.Directory.Endpoints = []string{"localhost:2379"}
			c.Directory.TTL = time.Millisecond
		}},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expect validation error")
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "log:\n  level: loud\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expect error for invalid level")
	}
}

func TestMiddlewares(t *testing.T) {
	cfg := Default()
	mws, rl := cfg.Middlewares(slog.Default(), nil)
	if len(mws) != 2 || rl == nil {
		t.Fatalf("expect logging and rate limit, got %d middlewares", len(mws))
	}
	cfg.Session.RateLimit = 0
	mws, rl = cfg.Middlewares(slog.Default(), nil)
	if len(mws) != 1 || rl != nil {
		t.Fatalf("expect logging only, got %d middlewares", len(mws))
	}
}

func TestNewSessionForgetsRateLimitOnLeave(t *testing.T) {
	cfg := Default()
	cfg.Session.RateLimit = 1
	cfg.Session.Burst = 1
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := cfg.NewSession("room", logger, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID() != "room" {
		t.Fatalf("expect id room, got %s", s.ID())
	}
	ctx := context.Background()

	id, _, _, err := s.Join()
	if err != nil {
		t.Fatal(err)
	}
	s.HandleController(ctx, id, []byte{0})
	if _, err := s.HandleController(ctx, id, []byte{0}); !errors.Is(err, middleware.ErrRateLimited) {
		t.Fatalf("expect ErrRateLimited, got %v", err)
	}
	if _, err := s.Leave(id); err != nil {
		t.Fatal(err)
	}
	if id, _, _, err = s.Join(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.HandleController(ctx, id, []byte{0}); err != nil {
		t.Fatalf("expect a fresh bucket after re-join, got %v", err)
	}

	random, err := cfg.NewSession("", logger, nil)
	if err != nil {
		t.Fatal(err)
	}
	if random.ID() == "" {
		t.Fatal("expect a random id")
	}
}

func TestOpenDirectory(t *testing.T) {
	dir, err := Default().OpenDirectory(slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dir.(*directory.MemoryDirectory); !ok {
		t.Fatalf("expect memory directory without endpoints, got %T", dir)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}
