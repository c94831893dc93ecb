package config

import (
	"fmt"
	"time"
)

// Default endpoints used when nothing is configured.
const (
	DefaultCatalogURL = "https://so-gov.directus.app/items/agents"
	DefaultBackendURL = "http://127.0.0.1:8000"
	DefaultSubmitPath = "/api/input_task"
	DefaultHealthPath = "/health"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Catalog: CatalogConfig{
			URL:            DefaultCatalogURL,
			TimeoutSeconds: 15,
		},
		Backend: BackendConfig{
			SubmitPath:     DefaultSubmitPath,
			HealthPath:     DefaultHealthPath,
			TimeoutSeconds: 60,
		},
		Gateway: GatewayConfig{
			Port: 3000,
			Bind: "loopback",
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

// Timeout converts the catalog timeout to a duration.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout converts the backend timeout to a duration.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}
