// Package config manages loginchallenge configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	// ServerURL is the authentication service the client talks to.
	ServerURL string `yaml:"server_url"`

	// RequestTimeout bounds each authentication request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	UI          UIConfig          `yaml:"ui"`
	Server      ServerConfig      `yaml:"server"`
}

// DiagnosticsConfig controls where failed attempts are recorded.
type DiagnosticsConfig struct {
	// Enabled turns on the SQLite failure log in addition to the logger.
	Enabled bool `yaml:"enabled"`

	// Path of the SQLite database. Empty means diagnostics.db in DataDir.
	Path string `yaml:"path,omitempty"`

	// MaxAge and MaxRows bound the failure log; zero keeps everything.
	MaxAge  time.Duration `yaml:"max_age"`
	MaxRows int           `yaml:"max_rows"`

	// RecordDiscarded also records failures that complete after the login
	// screen was torn down.
	RecordDiscarded bool `yaml:"record_discarded"`
}

// UIConfig holds terminal rendering preferences.
type UIConfig struct {
	NoColor       bool `yaml:"no_color"`
	ReducedMotion bool `yaml:"reduced_motion"`
}

// ServerConfig configures the bundled demo authentication service.
type ServerConfig struct {
	Listen     string        `yaml:"listen"`
	UsersFile  string        `yaml:"users_file,omitempty"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	SigningKey string        `yaml:"signing_key,omitempty"`

	// RateLimit is the sustained login attempts per minute per identifier.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`

	// RedisAddr selects the Redis session store when set.
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

// Environment variables that override file values.
const (
	EnvServerURL = "LOGINCHALLENGE_SERVER_URL"
	EnvHome      = "LOGINCHALLENGE_HOME"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      "http://localhost:7890",
		RequestTimeout: 15 * time.Second,
		Diagnostics: DiagnosticsConfig{
			Enabled: true,
			MaxAge:  30 * 24 * time.Hour,
			MaxRows: 1000,
		},
		Server: ServerConfig{
			Listen:    "127.0.0.1:7890",
			TokenTTL:  time.Hour,
			RateLimit: 10,
			Burst:     5,
		},
	}
}

// ConfigPath returns the config file location, honoring XDG_CONFIG_HOME.
func ConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "loginchallenge", "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "loginchallenge", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "loginchallenge", "config.yaml")
}

// DataDir returns the directory for logs and the diagnostics database.
func DataDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "data")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".loginchallenge", "data")
	}
	return filepath.Join(homeDir, ".loginchallenge", "data")
}

// Load reads the config from ConfigPath. A missing file yields defaults.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, applies environment overrides, and
// validates the result. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvServerURL)); v != "" {
		c.ServerURL = v
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server_url %q", c.ServerURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.Diagnostics.MaxAge < 0 || c.Diagnostics.MaxRows < 0 {
		return fmt.Errorf("diagnostics retention must not be negative")
	}
	if c.Server.TokenTTL <= 0 {
		return fmt.Errorf("server.token_ttl must be positive, got %s", c.Server.TokenTTL)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	if c.Server.Burst < 0 {
		return fmt.Errorf("server.burst must not be negative")
	}
	return nil
}

// DiagnosticsPath resolves the diagnostics database path.
func (c *Config) DiagnosticsPath() string {
	if c.Diagnostics.Path != "" {
		return c.Diagnostics.Path
	}
	return filepath.Join(DataDir(), "diagnostics.db")
}

// Save writes the config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to path atomically with 0600 permissions.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
