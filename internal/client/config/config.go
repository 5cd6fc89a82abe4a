package config

import (
	"errors"
	"net/url"
	"time"
)

// Config holds runtime settings for the pixelstudio CLI.
//
// Fields:
//   - ServerURL: root of the pixelstudio API, scheme included.
//   - CookieDB: SQLite file keeping the session cookies between runs.
//   - RequestTimeout: bound on every HTTP round-trip.
//   - LogLevel: diagnostics written to stderr.
type Config struct {
	ServerURL      string
	CookieDB       string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:3000"
	c.CookieDB = "pixelstudio.db"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "warn"
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("server url must be an absolute http(s) url")
	}
	if c.CookieDB == "" {
		return errors.New("cookie db path is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
