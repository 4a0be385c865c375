package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", "/nonexistent/.env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.USBCapture)
	assert.Equal(t, ":9300", cfg.MetricsAddr)
	assert.Zero(t, cfg.ExtDisplayController)
	assert.Zero(t, cfg.ExtDisplayStream)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENV_FILE", "/nonexistent/.env")
	t.Setenv("VOICEHAL_LOG_LEVEL", "debug")
	t.Setenv("VOICEHAL_USB_CAPTURE", "true")
	t.Setenv("VOICEHAL_METRICS_ADDR", "127.0.0.1:9400")
	t.Setenv("VOICEHAL_EXT_DISPLAY_CONTROLLER", "2")
	t.Setenv("VOICEHAL_EXT_DISPLAY_STREAM", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.USBCapture)
	assert.Equal(t, "127.0.0.1:9400", cfg.MetricsAddr)
	assert.Equal(t, 2, cfg.ExtDisplayController)
	assert.Equal(t, 1, cfg.ExtDisplayStream)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("ENV_FILE", "/nonexistent/.env")
	t.Setenv("VOICEHAL_EXT_DISPLAY_CONTROLLER", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}
