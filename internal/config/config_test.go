package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if cfg.ServerURL != "http://localhost:7890" {
		t.Errorf("ServerURL = %q, want %q", cfg.ServerURL, "http://localhost:7890")
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want 15s", cfg.RequestTimeout)
	}
	if !cfg.Diagnostics.Enabled {
		t.Error("Diagnostics.Enabled should be true by default")
	}
	if cfg.Diagnostics.RecordDiscarded {
		t.Error("Diagnostics.RecordDiscarded should be false by default")
	}
	if cfg.Diagnostics.MaxAge != 30*24*time.Hour || cfg.Diagnostics.MaxRows != 1000 {
		t.Errorf("Diagnostics retention = %v / %d", cfg.Diagnostics.MaxAge, cfg.Diagnostics.MaxRows)
	}
	if cfg.Server.TokenTTL != time.Hour {
		t.Errorf("Server.TokenTTL = %v, want 1h", cfg.Server.TokenTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME set", func(t *testing.T) {
		tmpDir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmpDir)

		path := ConfigPath()
		expected := filepath.Join(tmpDir, "loginchallenge", "config.yaml")
		if path != expected {
			t.Errorf("ConfigPath() = %q, want %q", path, expected)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")

		path := ConfigPath()
		if filepath.Base(path) != "config.yaml" {
			t.Errorf("ConfigPath() should end with config.yaml, got %q", path)
		}
	})
}

func TestDataDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)

	if got, want := DataDir(), filepath.Join(home, "data"); got != want {
		t.Errorf("DataDir() = %q, want %q", got, want)
	}
	if got, want := DefaultConfig().DiagnosticsPath(), filepath.Join(home, "data", "diagnostics.db"); got != want {
		t.Errorf("DiagnosticsPath() = %q, want %q", got, want)
	}
}

func TestLoadNonExistent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvServerURL, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.ServerURL != DefaultConfig().ServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
}

func TestLoadValidConfig(t *testing.T) {
	t.Setenv(EnvServerURL, "")
	path := filepath.Join(t.TempDir(), "config.yaml")

	data := []byte(`server_url: https://auth.example.com
request_timeout: 3s
diagnostics:
  enabled: false
  path: /tmp/diag.db
  record_discarded: true
  max_age: 48h
  max_rows: 50
ui:
  no_color: true
  reduced_motion: true
server:
  listen: 0.0.0.0:9000
  token_ttl: 30m
  rate_limit: 2.5
  burst: 1
  redis_addr: localhost:6379
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.ServerURL != "https://auth.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %v, want 3s", cfg.RequestTimeout)
	}
	if cfg.Diagnostics.Enabled || !cfg.Diagnostics.RecordDiscarded {
		t.Errorf("Diagnostics = %+v", cfg.Diagnostics)
	}
	if cfg.Diagnostics.MaxAge != 48*time.Hour || cfg.Diagnostics.MaxRows != 50 {
		t.Errorf("Diagnostics retention = %v / %d", cfg.Diagnostics.MaxAge, cfg.Diagnostics.MaxRows)
	}
	if cfg.DiagnosticsPath() != "/tmp/diag.db" {
		t.Errorf("DiagnosticsPath() = %q", cfg.DiagnosticsPath())
	}
	if !cfg.UI.NoColor || !cfg.UI.ReducedMotion {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if cfg.Server.Listen != "0.0.0.0:9000" || cfg.Server.TokenTTL != 30*time.Minute {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.RateLimit != 2.5 || cfg.Server.Burst != 1 {
		t.Errorf("Server rate = %v/%d", cfg.Server.RateLimit, cfg.Server.Burst)
	}
	if cfg.Server.RedisAddr != "localhost:6379" {
		t.Errorf("Server.RedisAddr = %q", cfg.Server.RedisAddr)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(EnvServerURL, "http://10.0.0.1:8080")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.ServerURL != "http://10.0.0.1:8080" {
		t.Errorf("ServerURL = %q, want env override", cfg.ServerURL)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server_url: [unclosed"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom() should return error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.ServerURL = "ftp://x" }},
		{"no host", func(c *Config) { c.ServerURL = "http://" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero ttl", func(c *Config) { c.Server.TokenTTL = 0 }},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }},
		{"negative burst", func(c *Config) { c.Server.Burst = -1 }},
		{"negative max age", func(c *Config) { c.Diagnostics.MaxAge = -time.Hour }},
		{"negative max rows", func(c *Config) { c.Diagnostics.MaxRows = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv(EnvServerURL, "")

	cfg := DefaultConfig()
	cfg.ServerURL = "http://127.0.0.1:9999"
	cfg.RequestTimeout = 2 * time.Second
	cfg.Diagnostics.RecordDiscarded = true

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, "loginchallenge", "config.yaml")
	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("Config file permissions = %o, want %o", mode, 0600)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if loaded.ServerURL != "http://127.0.0.1:9999" {
		t.Errorf("Loaded ServerURL = %q", loaded.ServerURL)
	}
	if loaded.RequestTimeout != 2*time.Second {
		t.Errorf("Loaded RequestTimeout = %v", loaded.RequestTimeout)
	}
	if !loaded.Diagnostics.RecordDiscarded {
		t.Error("Loaded Diagnostics.RecordDiscarded should be true")
	}
	if loaded.Diagnostics.MaxAge != cfg.Diagnostics.MaxAge {
		t.Errorf("Loaded Diagnostics.MaxAge = %v", loaded.Diagnostics.MaxAge)
	}
}
