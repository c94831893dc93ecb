package config

import (
	"fmt"
	"net/url"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	// Endpoints
	issues = appendURLIssue(issues, "catalog.url", cfg.Catalog.URL, true)
	issues = appendURLIssue(issues, "backend.url", cfg.Backend.URL, false)
	issues = appendURLIssue(issues, "backend.configUrl", cfg.Backend.ConfigURL, false)
	for i, c := range cfg.Backend.Candidates {
		issues = appendURLIssue(issues, fmt.Sprintf("backend.candidates[%d]", i), c, true)
	}

	if cfg.Catalog.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "catalog.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Catalog.TimeoutSeconds),
		})
	}
	if cfg.Backend.TimeoutSeconds < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "backend.timeoutSeconds",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Backend.TimeoutSeconds),
		})
	}
	if p := cfg.Backend.SubmitPath; p != "" && p[0] != '/' {
		issues = append(issues, ValidationIssue{
			Path:    "backend.submitPath",
			Message: fmt.Sprintf("must start with /, got %q", p),
		})
	}

	// Gateway validation
	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"auto", "lan", "loopback", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	// Logging validation
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	validConsoleStyles := []string{"pretty", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}

// appendURLIssue reports a non-http(s) or unparsable URL. Empty values are
// only reported when required.
func appendURLIssue(issues []ValidationIssue, path, raw string, required bool) []ValidationIssue {
	if raw == "" {
		if required {
			issues = append(issues, ValidationIssue{Path: path, Message: "is required"})
		}
		return issues
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    path,
			Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", raw),
		})
	}
	return issues
}
