// Package config handles Parley configuration loading.
//
// Configuration comes from three layers, later layers winning:
// built-in defaults, an optional YAML file, and the OPENAI_* environment
// variables. The binary runs fine with no file at all, which is how the
// typical install works (export OPENAI_API_KEY and go).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for the OpenAI-compatible endpoint.
const (
	DefaultModel   = "gpt-3.5-turbo"
	DefaultBaseURL = "https://api.openai.com/v1"
)

// Config holds all Parley configuration.
type Config struct {
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Logging LoggingConfig `yaml:"logging"`
}

// OpenAIConfig defines the remote chat-completion endpoint settings.
type OpenAIConfig struct {
	// APIKey is the bearer credential. Empty means remote mode is
	// unavailable and the assistant answers locally.
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig defines log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			Model:   DefaultModel,
			BaseURL: DefaultBaseURL,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./parley.yaml, ~/.config/parley/config.yaml, /etc/parley/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"parley.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "parley", "config.yaml"))
	}

	paths = append(paths, "/etc/parley/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Load reads configuration from a YAML file. Environment variables in the
// file (${VAR} or $VAR) are expanded before parsing, so secrets can stay
// out of the file itself. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overlays the OPENAI_API_KEY and OPENAI_MODEL environment
// variables onto cfg. A set variable wins over the file value.
func (c *Config) ApplyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.OpenAI.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.OpenAI.Model = model
	}
}
