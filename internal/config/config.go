// Package config turns process environment into the explicit configuration
// the Gamma client, the MCP server and the binaries are built from.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultHTTPAddr    = ":8090"
	DefaultServiceName = "gamma-mcp"
)

// ErrMissingAPIKey is returned when GAMMA_API_KEY is unset.
var ErrMissingAPIKey = errors.New("GAMMA_API_KEY environment variable is required")

// Env is the raw environment. Numbers and enums are kept as strings so that a
// malformed override falls back to its default instead of failing startup.
type Env struct {
	APIKey          string `env:"GAMMA_API_KEY"`
	BaseURL         string `env:"GAMMA_BASE_URL"`
	TimeoutMS       string `env:"GAMMA_TIMEOUT_MS"`
	MaxRetries      string `env:"GAMMA_MAX_RETRIES"`
	PollMaxAttempts string `env:"GAMMA_POLL_MAX_ATTEMPTS"`

	DefaultNumCards       string `env:"DEFAULT_NUM_CARDS"`
	DefaultTextMode       string `env:"DEFAULT_TEXT_MODE"`
	DefaultFormat         string `env:"DEFAULT_FORMAT"`
	DefaultCardSplit      string `env:"DEFAULT_CARD_SPLIT"`
	DefaultTextAmount     string `env:"DEFAULT_TEXT_AMOUNT"`
	DefaultImageSource    string `env:"DEFAULT_IMAGE_SOURCE"`
	DefaultCardDimensions string `env:"DEFAULT_CARD_DIMENSIONS"`
	DefaultExportAs       string `env:"DEFAULT_EXPORT_AS"`

	MCPTransport string `env:"GAMMA_MCP_TRANSPORT" envDefault:"stdio"`
	MCPHTTPAddr  string `env:"GAMMA_MCP_HTTP_ADDR" envDefault:":8090"`
	MetricsAddr  string `env:"GAMMA_METRICS_ADDR"`
	OTelEndpoint string `env:"GAMMA_OTEL_ENDPOINT"`
	OTelEnabled  string `env:"GAMMA_OTEL_ENABLED"`
}

// MCP configures the tool server transport.
type MCP struct {
	Transport string
	HTTPAddr  string
}

// OTel configures trace export.
type OTel struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// Config is the resolved configuration.
type Config struct {
	Gamma       gamma.Options
	MCP         MCP
	MetricsAddr string
	OTel        OTel

	// Warnings lists overrides that were ignored in favor of a default.
	Warnings []string
}

// Load reads the environment. A nil environ reads the process environment.
func Load(environ map[string]string) (Config, error) {
	cfg, err := LoadShared(environ)
	if err != nil {
		return Config{}, err
	}
	if cfg.Gamma.APIKey == "" {
		return Config{}, ErrMissingAPIKey
	}
	return cfg, nil
}

// LoadShared reads the environment without requiring GAMMA_API_KEY. The
// operator uses it since every resource names its own key.
func LoadShared(environ map[string]string) (Config, error) {
	var raw Env
	if err := env.ParseWithOptions(&raw, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return Resolve(raw), nil
}

// Resolve validates raw values, substituting defaults for anything malformed.
func Resolve(raw Env) Config {
	apiKey := strings.TrimSpace(raw.APIKey)
	r := &resolver{}
	cfg := Config{
		Gamma: gamma.Options{
			APIKey:       apiKey,
			BaseURL:      strings.TrimSpace(raw.BaseURL),
			Timeout:      time.Duration(r.positive("GAMMA_TIMEOUT_MS", raw.TimeoutMS, int(gamma.DefaultTimeout/time.Millisecond))) * time.Millisecond,
			MaxRetries:   r.nonNegative("GAMMA_MAX_RETRIES", raw.MaxRetries, gamma.DefaultMaxRetries),
			PollAttempts: r.positive("GAMMA_POLL_MAX_ATTEMPTS", raw.PollMaxAttempts, gamma.DefaultPollAttempts),
			Defaults: gamma.Defaults{
				NumCards:      r.positive("DEFAULT_NUM_CARDS", raw.DefaultNumCards, gamma.DefaultNumCards),
				TextMode:      enum(r, "DEFAULT_TEXT_MODE", raw.DefaultTextMode, gamma.TextModes),
				Format:        enum(r, "DEFAULT_FORMAT", raw.DefaultFormat, gamma.Formats),
				CardSplit:     enum(r, "DEFAULT_CARD_SPLIT", raw.DefaultCardSplit, gamma.CardSplits),
				TextAmount:    enum(r, "DEFAULT_TEXT_AMOUNT", raw.DefaultTextAmount, gamma.TextAmounts),
				ImageSource:   enum(r, "DEFAULT_IMAGE_SOURCE", raw.DefaultImageSource, gamma.ImageSources),
				CardDimension: enum(r, "DEFAULT_CARD_DIMENSIONS", raw.DefaultCardDimensions, gamma.CardDimensions),
				ExportAs:      exports(r, raw.DefaultExportAs),
			},
		},
		MCP: MCP{
			Transport: enum(r, "GAMMA_MCP_TRANSPORT", strings.ToLower(raw.MCPTransport), []string{TransportStdio, TransportHTTP}),
			HTTPAddr:  strings.TrimSpace(raw.MCPHTTPAddr),
		},
		MetricsAddr: strings.TrimSpace(raw.MetricsAddr),
		OTel: OTel{
			Enabled:     r.boolean("GAMMA_OTEL_ENABLED", raw.OTelEnabled),
			Endpoint:    strings.TrimSpace(raw.OTelEndpoint),
			ServiceName: DefaultServiceName,
		},
	}
	if cfg.MCP.Transport == "" {
		cfg.MCP.Transport = TransportStdio
	}
	if cfg.MCP.HTTPAddr == "" {
		cfg.MCP.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.OTel.Endpoint != "" && raw.OTelEnabled == "" {
		cfg.OTel.Enabled = true
	}
	cfg.Warnings = r.warnings
	return cfg
}

type resolver struct {
	warnings []string
}

func (r *resolver) warn(name, value, reason string) {
	r.warnings = append(r.warnings, fmt.Sprintf("ignoring %s=%q: %s", name, value, reason))
}

func (r *resolver) positive(name, value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		r.warn(name, value, "expected a positive integer")
		return fallback
	}
	return n
}

func (r *resolver) nonNegative(name, value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		r.warn(name, value, "expected a non-negative integer")
		return fallback
	}
	return n
}

func (r *resolver) boolean(name, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.warn(name, value, "expected a boolean")
		return false
	}
	return b
}

// enum returns the zero value, which selects the built-in default, for empty
// or unknown values.
func enum[T ~string](r *resolver, name, value string, allowed []T) T {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if v := T(value); slices.Contains(allowed, v) {
		return v
	}
	r.warn(name, value, "unsupported value")
	return ""
}

// exports parses a comma-separated list, keeping the recognized entries.
func exports(r *resolver, value string) []gamma.ExportType {
	var out []gamma.ExportType
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		e := gamma.ExportType(part)
		if !slices.Contains(gamma.ExportTypes, e) {
			r.warn("DEFAULT_EXPORT_AS", part, "unsupported export type")
			continue
		}
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}
