package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Streak.MinTasks != 2 || !cfg.Streak.RequireFocus {
		t.Errorf("unexpected streak defaults: %+v", cfg.Streak)
	}
	if cfg.Sweep.Time != "00:05" {
		t.Errorf("unexpected sweep time: %s", cfg.Sweep.Time)
	}
	if strings.HasPrefix(cfg.Storage.DSN, "~") {
		t.Errorf("storage path was not expanded: %s", cfg.Storage.DSN)
	}
	if cfg.Addr() != "localhost:3000" {
		t.Errorf("Addr() = %s", cfg.Addr())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  dsn: /tmp/daybuddy-test.db
  timeout: 2s
streak:
  min_tasks: 3
  require_focus: false
sweep:
  time: "01:30"
  timezone: UTC
  run_on_start: true
server:
  port: 8080
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.DSN != "/tmp/daybuddy-test.db" || cfg.Storage.Timeout != 2*time.Second {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Streak.MinTasks != 3 || cfg.Streak.RequireFocus {
		t.Errorf("unexpected streak config: %+v", cfg.Streak)
	}
	if cfg.Sweep.Time != "01:30" || !cfg.Sweep.RunOnStart {
		t.Errorf("unexpected sweep config: %+v", cfg.Sweep)
	}
	// Keys absent from the file keep their defaults
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}

	engine := cfg.StreakEngine()
	if engine.MinTasks != 3 || engine.Timeout != 2*time.Second {
		t.Errorf("unexpected engine config: %+v", engine)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
streak:
  min_tasks: 3
server:
  port: 8080
`)
	t.Setenv("DAYBUDDY_STREAK_MIN_TASKS", "4")
	t.Setenv("DAYBUDDY_SWEEP_RUN_ON_START", "true")
	t.Setenv("DAYBUDDY_STORAGE_DSN", "/tmp/env.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Streak.MinTasks != 4 {
		t.Errorf("min_tasks = %d, want 4", cfg.Streak.MinTasks)
	}
	if !cfg.Sweep.RunOnStart {
		t.Error("run_on_start should be set from the environment")
	}
	if cfg.Storage.DSN != "/tmp/env.db" {
		t.Errorf("dsn = %s", cfg.Storage.DSN)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080 from file", cfg.Server.Port)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "empty dsn", mutate: func(c *Config) { c.Storage.DSN = "" }},
		{name: "zero timeout", mutate: func(c *Config) { c.Storage.Timeout = 0 }},
		{name: "zero min tasks", mutate: func(c *Config) { c.Streak.MinTasks = 0 }},
		{name: "bad sweep time", mutate: func(c *Config) { c.Sweep.Time = "midnight" }},
		{name: "bad timezone", mutate: func(c *Config) { c.Sweep.Timezone = "Nowhere/Land" }},
		{name: "negative rate", mutate: func(c *Config) { c.Sweep.Rate = -1 }},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }},
	}

	base := Default()
	if err := base.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
