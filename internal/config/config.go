// Package config loads the service configuration once at startup. Secrets
// are injected through the resulting value, never read from ambient state
// elsewhere in the process.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full service configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	SMS    SMSConfig    `toml:"sms"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	DevMode bool   `toml:"dev_mode"`
}

// SMSConfig holds the relay shared secret and the outbound gateway
// credential. APIKey gates inbound requests; GatewayKey authenticates
// against the Semaphore gateway and is never exposed to clients.
type SMSConfig struct {
	APIKey     string `toml:"api_key"`
	GatewayKey string `toml:"gateway_key"`
	GatewayURL string `toml:"gateway_url"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:    ":8000",
			DevMode: false,
		},
	}
}

// Load reads the TOML configuration at path, falling back to defaults when
// the file does not exist, then applies environment overrides. Environment
// variables win so deployments can keep secrets out of the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config %s, %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults plus environment
	default:
		return nil, fmt.Errorf("unable to read config %s, %w", path, err)
	}

	if v := os.Getenv("FORECAST_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SMS_API_KEY"); v != "" {
		cfg.SMS.APIKey = v
	}
	if v := os.Getenv("SMS_SEMAPHORE_API_KEY"); v != "" {
		cfg.SMS.GatewayKey = v
	}
	if v := os.Getenv("SMS_GATEWAY_URL"); v != "" {
		cfg.SMS.GatewayURL = v
	}
	return cfg, nil
}
