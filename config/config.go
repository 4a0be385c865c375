// Package config loads the voice layer's runtime configuration from the
// environment.
package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the environment-driven configuration of the voice layer and the
// voicesim binary.
type Config struct {
	// LogLevel is a logrus level name (trace, debug, info, warn, error).
	LogLevel string `env:"VOICEHAL_LOG_LEVEL" envDefault:"info"`

	// USBCapture enables the USB capture path for route matching.
	USBCapture bool `env:"VOICEHAL_USB_CAPTURE" envDefault:"false"`

	// MetricsAddr is the listen address of the Prometheus endpoint served
	// by voicesim. Empty disables the endpoint.
	MetricsAddr string `env:"VOICEHAL_METRICS_ADDR" envDefault:":9300"`

	// ExtDisplayController and ExtDisplayStream select the external
	// display path used for digital output resolution.
	ExtDisplayController int `env:"VOICEHAL_EXT_DISPLAY_CONTROLLER" envDefault:"0"`
	ExtDisplayStream     int `env:"VOICEHAL_EXT_DISPLAY_STREAM" envDefault:"0"`
}

// Load reads the optional env file and parses the configuration from the
// environment. A missing env file is not an error.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFile loads ENV_FILE when set, otherwise the default .env if one
// exists. Both are best-effort.
func loadEnvFile() {
	if envfile := os.Getenv("ENV_FILE"); envfile != "" {
		_ = godotenv.Load(envfile)
		return
	}
	_ = godotenv.Load()
}
