package config

// Config is the root configuration for somc.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog,omitempty"`
	Backend BackendConfig `yaml:"backend,omitempty"`
	Gateway GatewayConfig `yaml:"gateway,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// CatalogConfig points at the agent catalog source.
type CatalogConfig struct {
	URL            string `yaml:"url,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// BackendConfig describes the analysis backend.
type BackendConfig struct {
	URL            string   `yaml:"url,omitempty"`       // base address; empty = resolve via ConfigURL
	ConfigURL      string   `yaml:"configUrl,omitempty"` // indirection endpoint returning {"API_URL": ...}
	SubmitPath     string   `yaml:"submitPath,omitempty"`
	HealthPath     string   `yaml:"healthPath,omitempty"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"`
	Candidates     []string `yaml:"candidates,omitempty"` // extra base URLs probed by `somc status`
}

// GatewayConfig controls the HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
	File         string `yaml:"file,omitempty"`
}
