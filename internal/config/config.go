// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the strakerverify CLI configuration from YAML and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/strakerverify/internal/log"
	"github.com/tombee/strakerverify/internal/operation/transport"
	"github.com/tombee/strakerverify/internal/tracing"
	verrors "github.com/tombee/strakerverify/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

const (
	// DefaultBaseURL is the production Verify API.
	DefaultBaseURL = "https://api-verify.straker.ai"

	// DefaultEnvironment is sent as ?environment= when nothing else is set.
	DefaultEnvironment = "production"
)

// Config represents the complete strakerverify configuration.
type Config struct {
	// BaseURL is the API root.
	// Environment: STRAKER_VERIFY_BASE_URL
	BaseURL string `yaml:"base_url"`

	// Environment is production or sandbox.
	// Environment: STRAKER_VERIFY_ENVIRONMENT
	Environment string `yaml:"environment"`

	// APIKey is read from the file only. Prefer the keychain.
	APIKey string `yaml:"api_key,omitempty"`

	// Timeout bounds each HTTP request.
	// Environment: STRAKER_VERIFY_TIMEOUT
	Timeout time.Duration `yaml:"timeout"`

	Retry     RetryConfig     `yaml:"retry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// RetryConfig configures retries of idempotent requests.
type RetryConfig struct {
	// MaxAttempts includes the first attempt.
	// Environment: STRAKER_VERIFY_MAX_ATTEMPTS
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

// RateLimitConfig configures the client-side request limiter.
type RateLimitConfig struct {
	// RequestsPerSecond of zero disables limiting.
	// Environment: STRAKER_VERIFY_RATE_LIMIT
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Default: warn
	Level string `yaml:"level"`

	// Format sets the output format (json, text).
	// Default: text
	Format string `yaml:"format"`
}

// TracingConfig configures export of request spans.
type TracingConfig struct {
	// Exporter is none, console or otlp.
	// Environment: STRAKER_VERIFY_TRACE_EXPORTER
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP/HTTP collector host:port.
	// Environment: STRAKER_VERIFY_TRACE_ENDPOINT
	Endpoint string `yaml:"endpoint,omitempty"`

	Insecure bool `yaml:"insecure,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Environment: DefaultEnvironment,
		Timeout:     30 * time.Second,
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     30 * time.Second,
		},
		RateLimit: RateLimitConfig{Burst: 1},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Tracing: TracingConfig{Exporter: tracing.ExporterNone},
	}
}

// Load loads configuration from a YAML file and the environment.
// Environment variables take precedence over the file. An empty configPath
// uses the default path if that file exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		if p, err := ConfigPath(); err == nil {
			configPath = p
		}
	}

	if configPath != "" {
		err := cfg.loadFromFile(configPath)
		switch {
		case err == nil:
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return nil, &verrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &verrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// applyDefaults fills zero values so minimal files work.
func (c *Config) applyDefaults() {
	d := Default()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Environment == "" {
		c.Environment = d.Environment
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = d.Retry.InitialBackoff
	}
	if c.Retry.MaxBackoff == 0 {
		c.Retry.MaxBackoff = d.Retry.MaxBackoff
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = d.RateLimit.Burst
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = d.Tracing.Exporter
	}
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// loadFromEnv applies STRAKER_VERIFY_* overrides. Unparseable values are
// ignored.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("STRAKER_VERIFY_BASE_URL"); val != "" {
		c.BaseURL = val
	}
	if val := os.Getenv("STRAKER_VERIFY_ENVIRONMENT"); val != "" {
		c.Environment = strings.ToLower(val)
	}
	if val := os.Getenv("STRAKER_VERIFY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Timeout = d
		}
	}
	if val := os.Getenv("STRAKER_VERIFY_MAX_ATTEMPTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Retry.MaxAttempts = n
		}
	}
	if val := os.Getenv("STRAKER_VERIFY_RATE_LIMIT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			c.RateLimit.RequestsPerSecond = f
		}
	}
	if val := os.Getenv("STRAKER_VERIFY_TRACE_EXPORTER"); val != "" {
		c.Tracing.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("STRAKER_VERIFY_TRACE_ENDPOINT"); val != "" {
		c.Tracing.Endpoint = val
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, fmt.Sprintf("base_url must start with http:// or https://, got %q", c.BaseURL))
	}
	if c.Environment != "production" && c.Environment != "sandbox" {
		errs = append(errs, fmt.Sprintf("environment must be one of [production, sandbox], got %q", c.Environment))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("timeout must be positive, got %v", c.Timeout))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		errs = append(errs, "retry.max_backoff must not be less than retry.initial_backoff")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Sprintf("rate_limit.requests_per_second must not be negative, got %v", c.RateLimit.RequestsPerSecond))
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of [trace, debug, info, warn, error], got %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Sprintf("log.format must be one of [json, text], got %q", c.Log.Format))
	}
	if !tracing.ValidExporter(c.Tracing.Exporter) {
		errs = append(errs, fmt.Sprintf("tracing.exporter must be one of [none, console, otlp], got %q", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// TransportRetry converts the retry section for the HTTP transport.
func (c *Config) TransportRetry() *transport.RetryConfig {
	rc := transport.DefaultRetryConfig()
	rc.MaxAttempts = c.Retry.MaxAttempts
	rc.InitialBackoff = c.Retry.InitialBackoff
	rc.MaxBackoff = c.Retry.MaxBackoff
	return rc
}

// LoggerConfig returns the logger configuration. Environment log settings
// handled by the log package win over the file.
func (c *Config) LoggerConfig() *log.Config {
	cfg := log.FromEnv()
	if os.Getenv("STRAKER_VERIFY_DEBUG") == "" && os.Getenv("STRAKER_VERIFY_LOG_LEVEL") == "" && os.Getenv("LOG_LEVEL") == "" {
		cfg.Level = strings.ToLower(c.Log.Level)
	}
	if os.Getenv("LOG_FORMAT") == "" {
		cfg.Format = log.Format(c.Log.Format)
	}
	return cfg
}

// TracerConfig returns the span export settings.
func (c *Config) TracerConfig(version string) tracing.Config {
	return tracing.Config{
		Exporter:       c.Tracing.Exporter,
		Endpoint:       c.Tracing.Endpoint,
		Insecure:       c.Tracing.Insecure,
		ServiceVersion: version,
	}
}
