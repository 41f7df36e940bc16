package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"xiangqi/internal/engine"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Levels) != 5 {
		t.Fatalf("levels = %d, want 5", len(cfg.Levels))
	}
	if cfg.ZerologLevel() != zerolog.InfoLevel {
		t.Fatalf("level = %v", cfg.ZerologLevel())
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"addr": ":9000", "log_level": "debug", "max_sessions": 5}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.MaxSessions != 5 || cfg.ZerologLevel() != zerolog.DebugLevel {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// 没写的字段保持默认
	if cfg.SessionTimeoutSec != 3600 || len(cfg.Levels) != 5 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil || cfg.Addr != Default().Addr {
		t.Fatalf("Load(\"\") = %+v, %v", cfg, err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("missing file should fail")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatalf("bad JSON should fail")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero timeout", func(c *Config) { c.SessionTimeoutSec = 0 }},
		{"zero sessions", func(c *Config) { c.MaxSessions = 0 }},
		{"zero undo", func(c *Config) { c.UndoSteps = 0 }},
		{"no levels", func(c *Config) { c.Levels = nil }},
		{"duplicate level", func(c *Config) { c.Levels = append(c.Levels, c.Levels[0]) }},
		{"unknown level", func(c *Config) { c.Levels[0].Level = "grandmaster" }},
		{"negative depth", func(c *Config) { c.Levels[2].Depth = -1 }},
		{"missing default", func(c *Config) { c.DefaultLevel = "grandmaster" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}

	cfg := Default()
	cfg.DefaultLevel = "grandmaster"
	if err := cfg.Validate(); !errors.Is(err, engine.ErrUnknownLevel) {
		t.Fatalf("err = %v, want ErrUnknownLevel", err)
	}
}
