// Package config loads server configuration from defaults and TABLEGATE_*
// environment variables via koanf.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TABLEGATE_"

// Config holds the resolved server configuration.
type Config struct {
	GatewayURL    string `koanf:"gateway_url"`
	GatewayAPIKey string `koanf:"gateway_api_key"`

	ServerName    string `koanf:"server_name"`
	ServerVersion string `koanf:"server_version"`

	HTTPAddr    string `koanf:"http_addr"`
	CORSOrigins string `koanf:"cors_origins"`

	LogLevel string `koanf:"log_level"`

	MaxConcurrentRequests int           `koanf:"max_concurrent_requests"`
	GatewayTimeout        time.Duration `koanf:"gateway_timeout"`
	OperationTimeout      time.Duration `koanf:"operation_timeout"`

	// EnableWrites exposes mutating tools (create/update/delete/batch/sync)
	// in discovery. Off by default: LLM callers get a read-only surface
	// unless the operator opts in.
	EnableWrites bool `koanf:"enable_writes"`

	// DisableSanitizer turns off the formula-safety layer. Handlers will then
	// refuse any user-supplied filter or search text outright; this never
	// forwards unsanitized formulas to the gateway.
	DisableSanitizer bool `koanf:"disable_sanitizer"`
}

// Load resolves configuration: built-in defaults first, then TABLEGATE_*
// environment variables (TABLEGATE_GATEWAY_URL -> gateway_url).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"gateway_url":             DefaultGatewayURL,
		"server_name":             DefaultServerName,
		"server_version":          "1.0.0",
		"http_addr":               DefaultHTTPAddr,
		"cors_origins":            "http://localhost:3000,http://localhost:8000",
		"log_level":               "info",
		"max_concurrent_requests": DefaultMaxConcurrentRequests,
		"gateway_timeout":         DefaultGatewayTimeout,
		"operation_timeout":       DefaultOperationTimeout,
		"enable_writes":           false,
		"disable_sanitizer":       false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if strings.TrimSpace(cfg.GatewayAPIKey) == "" {
		return nil, fmt.Errorf("config: TABLEGATE_GATEWAY_API_KEY is required")
	}
	cfg.GatewayURL = strings.TrimRight(cfg.GatewayURL, "/")

	return &cfg, nil
}

// CORSOriginList splits the configured origins into a slice.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
