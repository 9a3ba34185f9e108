// Package config loads process configuration for the bridge.
package config

import (
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/opentrade-labs/mobridge/pkg/errors"
)

// Config contains process-wide settings for the broker bridge.
type Config struct {
	// BaseURL is the broker API endpoint.
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// SourceID identifies the calling application to the broker.
	SourceID string `yaml:"source_id"`
	// Browser and BrowserVersion are identification headers required by the broker.
	Browser        string `yaml:"browser"`
	BrowserVersion string `yaml:"browser_version"`
	// ClientsDir is the directory holding per-account JSON records.
	ClientsDir string `yaml:"clients_dir" validate:"required"`
	// SymbolsDB is the path to the sqlite symbol reference database.
	SymbolsDB string `yaml:"symbols_db"`
	// MaxConcurrency bounds the number of simultaneous broker calls per batch.
	// Zero or negative falls back to GOMAXPROCS.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// Defaults mirror the broker's documented desktop integration values.
const (
	defaultBaseURL        = "https://openapi.motilaloswal.com"
	defaultSourceID       = "Desktop"
	defaultBrowser        = "chrome"
	defaultBrowserVersion = "104"
)

// Load reads a YAML config file, applies defaults and environment overrides,
// and validates the result. Environment variables MO_BASE_URL, MO_SOURCE_ID,
// MO_BROWSER and MO_BROWSER_VER take precedence over file values.
func Load(path string) (*Config, error) {
	cfg := &Config{
		BaseURL:        defaultBaseURL,
		SourceID:       defaultSourceID,
		Browser:        defaultBrowser,
		BrowserVersion: defaultBrowserVersion,
		ClientsDir:     "",
		SymbolsDB:      "",
		MaxConcurrency: 0,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// Concurrency returns the effective fan-out bound.
func (c *Config) Concurrency() int {
	if c.MaxConcurrency <= 0 {
		return runtime.GOMAXPROCS(0)
	}

	return c.MaxConcurrency
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MO_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}

	if v := os.Getenv("MO_SOURCE_ID"); v != "" {
		cfg.SourceID = v
	}

	if v := os.Getenv("MO_BROWSER"); v != "" {
		cfg.Browser = v
	}

	if v := os.Getenv("MO_BROWSER_VER"); v != "" {
		cfg.BrowserVersion = v
	}
}
