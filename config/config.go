package config

import (
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"slices"
	"time"

	units "github.com/docker/go-units"
	coretypes "github.com/projecteru2/core/types"

	"github.com/projecteru2/docup/synth"
	"github.com/projecteru2/docup/validate"
)

// Config holds global docup configuration.
type Config struct {
	// Endpoint is the service root; uploads go to {Endpoint}/upload.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	// Timeout bounds one upload including server-side processing.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	// Locale selects status labels and messages (BCP-47, "en" or "de").
	Locale string `json:"locale" mapstructure:"locale"`
	// RootDir is the base directory for persistent data (upload history).
	RootDir string `json:"root_dir" mapstructure:"root_dir"`
	// HistoryLimit caps the number of kept history records; 0 keeps all.
	HistoryLimit int `json:"history_limit" mapstructure:"history_limit"`
	// MaxFileSize is the client-side size limit, e.g. "10MB".
	MaxFileSize string `json:"max_file_size" mapstructure:"max_file_size"`
	// AllowedTypes are the accepted MIME types.
	AllowedTypes []string `json:"allowed_types" mapstructure:"allowed_types"`
	// ReportInterval is the number of bytes between upload progress events.
	ReportInterval int64 `json:"report_interval" mapstructure:"report_interval"`
	// Chunked sends request bodies without Content-Length.
	Chunked bool `json:"chunked" mapstructure:"chunked"`
	// PoolSize is the goroutine pool size for concurrent validation.
	// Defaults to runtime.NumCPU() if zero.
	PoolSize int `json:"pool_size" mapstructure:"pool_size"`
	// Bands is the progress banding policy.
	Bands synth.Bands `json:"bands" mapstructure:"bands"`
	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:       "http://localhost:3000/api",
		Timeout:        5 * time.Minute, //nolint:mnd
		Locale:         "en",
		RootDir:        "~/.docup",
		HistoryLimit:   200, //nolint:mnd
		MaxFileSize:    "10MB",
		AllowedTypes:   slices.Clone(validate.DefaultAllowedTypes),
		ReportInterval: 64 << 10, //nolint:mnd
		PoolSize:       runtime.NumCPU(),
		Bands:          synth.DefaultBands(),
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.Endpoint)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("endpoint %q: %w", c.Endpoint, err))
	case u.Scheme != "http" && u.Scheme != "https", u.Host == "":
		errs = append(errs, fmt.Errorf("endpoint %q: must be an absolute http(s) URL", c.Endpoint))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit))
	}
	if _, err := c.ValidationRules(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Bands.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bands: %w", err))
	}
	return errors.Join(errs...)
}

// ValidationRules converts the size and type limits into validate.Rules.
func (c *Config) ValidationRules() (validate.Rules, error) {
	rules := validate.DefaultRules()
	if c.MaxFileSize != "" {
		n, err := units.RAMInBytes(c.MaxFileSize)
		if err != nil {
			return rules, fmt.Errorf("invalid max_file_size %q: %w", c.MaxFileSize, err)
		}
		rules.MaxSize = n
	}
	if len(c.AllowedTypes) > 0 {
		rules.AllowedTypes = slices.Clone(c.AllowedTypes)
	}
	return rules, nil
}
