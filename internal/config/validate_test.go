package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Port(t *testing.T) {
	tests := []struct {
		port  int
		valid bool
	}{
		{0, true},
		{8080, true},
		{65535, true},
		{-1, false},
		{70000, false},
	}
	for _, tt := range tests {
		cfg := Defaults()
		cfg.Gateway.Port = tt.port
		issues := Validate(&cfg)
		if tt.valid {
			assert.Empty(t, issues, "port %d", tt.port)
		} else {
			if assert.Len(t, issues, 1, "port %d", tt.port) {
				assert.Equal(t, "gateway.port", issues[0].Path)
			}
		}
	}
}

func TestValidate_Bind(t *testing.T) {
	for _, bind := range []string{"", "auto", "lan", "loopback", "custom"} {
		cfg := Defaults()
		cfg.Gateway.Bind = bind
		assert.Empty(t, Validate(&cfg), "bind %q", bind)
	}

	cfg := Defaults()
	cfg.Gateway.Bind = "everywhere"
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "gateway.bind", issues[0].Path)
}

func TestValidate_LogLevel(t *testing.T) {
	for _, level := range []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"} {
		cfg := Defaults()
		cfg.Logging.Level = level
		assert.Empty(t, Validate(&cfg), "level %q", level)
	}

	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "logging.level", issues[0].Path)
}

func TestValidate_ConsoleStyle(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.ConsoleStyle = "fancy"
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "logging.consoleStyle", issues[0].Path)
}

func TestValidate_URLs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"missing catalog url", func(c *Config) { c.Catalog.URL = "" }, "catalog.url"},
		{"relative catalog url", func(c *Config) { c.Catalog.URL = "/items/agents" }, "catalog.url"},
		{"ftp backend", func(c *Config) { c.Backend.URL = "ftp://host/" }, "backend.url"},
		{"schemeless config url", func(c *Config) { c.Backend.ConfigURL = "frontend:3000/config" }, "backend.configUrl"},
		{"bad candidate", func(c *Config) { c.Backend.Candidates = []string{"http://ok:8000", "nope"} }, "backend.candidates[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			issues := Validate(&cfg)
			if assert.Len(t, issues, 1) {
				assert.Equal(t, tt.path, issues[0].Path)
			}
		})
	}
}

func TestValidate_OptionalBackendURL(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.URL = ""
	cfg.Backend.ConfigURL = ""
	assert.Empty(t, Validate(&cfg))

	cfg.Backend.URL = "https://analysis.example.org"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_TimeoutsAndSubmitPath(t *testing.T) {
	cfg := Defaults()
	cfg.Catalog.TimeoutSeconds = -1
	cfg.Backend.TimeoutSeconds = -5
	cfg.Backend.SubmitPath = "api/input_task"
	issues := Validate(&cfg)
	assert.Len(t, issues, 3)

	paths := make([]string, 0, len(issues))
	for _, iss := range issues {
		paths = append(paths, iss.Path)
	}
	assert.ElementsMatch(t, []string{"catalog.timeoutSeconds", "backend.timeoutSeconds", "backend.submitPath"}, paths)
}

func TestValidate_MultipleIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Gateway.Port = -1
	cfg.Gateway.Bind = "bogus"
	cfg.Logging.Level = "bogus"
	assert.Len(t, Validate(&cfg), 3)
}

func TestValidationIssue_String(t *testing.T) {
	issue := ValidationIssue{Path: "gateway.port", Message: "out of range"}
	assert.Equal(t, "gateway.port: out of range", issue.String())
}
