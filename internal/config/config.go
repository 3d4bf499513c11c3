// Package config provides configuration loading for the aada client.
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

// DefaultAPIURL is the production backend.
const DefaultAPIURL = "https://aada-backend-app12345.azurewebsites.net"

// DefaultSiteURL hosts the public pages (terms, privacy).
const DefaultSiteURL = "https://aada.edu"

// Environment overrides, applied after the config file.
const (
	EnvAPIURL         = "AADA_API_URL"
	EnvSiteURL        = "AADA_SITE_URL"
	EnvSessionBackend = "AADA_SESSION_BACKEND"
	EnvLogLevel       = "AADA_LOG_LEVEL"
)

// Config represents the complete client configuration
type Config struct {
	// APIURL is the backend origin, without a trailing slash
	APIURL string `yaml:"api_url"`
	// SiteURL is the public website, used for the legal pages
	SiteURL string `yaml:"site_url"`
	// RequestTimeout bounds every HTTP attempt
	RequestTimeout time.Duration   `yaml:"request_timeout"`
	Session        SessionConfig   `yaml:"session"`
	Log            LogConfig       `yaml:"log"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	// MetricsAddr serves Prometheus metrics when non-empty (e.g. "127.0.0.1:9464")
	MetricsAddr string `yaml:"metrics_addr"`
}

// SessionConfig configures where the login session is persisted
type SessionConfig struct {
	// Backend is one of file, sqlite, memory
	Backend string `yaml:"backend"`
	// Path overrides the default file location for the chosen backend
	Path string `yaml:"path"`
}

// LogConfig configures the log file
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// RateLimitConfig throttles outgoing requests (RPS 0 = unlimited)
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Dir is the per-user state directory, ~/.aada.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aada"
	}
	return filepath.Join(home, ".aada")
}

// DefaultPath is where Load looks when no file is named.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		SiteURL:        DefaultSiteURL,
		RequestTimeout: 30 * time.Second,
		Session: SessionConfig{
			Backend: "file",
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(Dir(), "aada.log"),
		},
		RateLimit: RateLimitConfig{
			RPS:   10,
			Burst: 20,
		},
	}
}

// SessionPath resolves the session location for the configured backend.
func (c *Config) SessionPath() string {
	if c.Session.Path != "" {
		return c.Session.Path
	}
	if c.Session.Backend == "sqlite" {
		return filepath.Join(Dir(), "session.db")
	}
	return filepath.Join(Dir(), "session.json")
}

// LegalURL returns the address of a public page such as "terms" or "privacy".
func (c *Config) LegalURL(page string) string {
	return strings.TrimRight(c.SiteURL, "/") + "/" + page
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	if u, err := url.Parse(c.SiteURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("site_url must be an http(s) URL, got %q", c.SiteURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	switch c.Session.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("session.backend must be file, sqlite or memory, got %q", c.Session.Backend)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.RateLimit.RPS < 0 {
		return fmt.Errorf("rate_limit.rps must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate_limit.burst must be at least 1")
	}
	return nil
}

// Load reads the YAML file at path over the defaults, then applies the
// environment. With path empty, DefaultPath is used and may be absent.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return cfg, nil
}

// ApplyEnv overlays the AADA_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getenv(EnvSiteURL); v != "" {
		c.SiteURL = v
	}
	if v := getenv(EnvSessionBackend); v != "" {
		c.Session.Backend = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
