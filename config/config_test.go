package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("TABLEGATE_GATEWAY_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TABLEGATE_GATEWAY_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TABLEGATE_GATEWAY_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.GatewayAPIKey)
	assert.Equal(t, DefaultGatewayURL, cfg.GatewayURL)
	assert.Equal(t, DefaultServerName, cfg.ServerName)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultMaxConcurrentRequests, cfg.MaxConcurrentRequests)
	assert.Equal(t, DefaultGatewayTimeout, cfg.GatewayTimeout)
	assert.Equal(t, DefaultOperationTimeout, cfg.OperationTimeout)
	assert.False(t, cfg.EnableWrites)
	assert.False(t, cfg.DisableSanitizer)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TABLEGATE_GATEWAY_API_KEY", "secret")
	t.Setenv("TABLEGATE_GATEWAY_URL", "https://gateway.internal:9000/")
	t.Setenv("TABLEGATE_LOG_LEVEL", "debug")
	t.Setenv("TABLEGATE_ENABLE_WRITES", "true")
	t.Setenv("TABLEGATE_GATEWAY_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gateway.internal:9000", cfg.GatewayURL, "trailing slash is trimmed")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.EnableWrites)
	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout)
}

func TestCORSOriginList(t *testing.T) {
	cfg := Config{CORSOrigins: "http://a.example, http://b.example ,,"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOriginList())

	cfg = Config{CORSOrigins: ""}
	assert.Empty(t, cfg.CORSOriginList())
}
