package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/drewdunne/pullboard/internal/gh"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	GitHub    GitHubConfig    `yaml:"github"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	RequestTimeoutSeconds  int    `yaml:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// GitHubConfig holds GitHub API settings. Token is the fallback credential
// used when a request carries no Authorization header.
type GitHubConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// DashboardConfig holds default dashboard settings.
type DashboardConfig struct {
	Repositories []string `yaml:"repositories"`
	PerPage      int      `yaml:"per_page"`
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   8080,
			RequestTimeoutSeconds:  30,
			ShutdownTimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Dashboard: DashboardConfig{
			PerPage: 50,
		},
	}
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Substitute environment variables
	data = envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})

	// Start with defaults
	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if _, err := cfg.Refs(); err != nil {
		return nil, fmt.Errorf("validating repositories: %w", err)
	}

	return cfg, nil
}

// Refs parses the configured repository list. Malformed refs fail here
// rather than being dispatched as guaranteed-to-fail remote calls.
func (c *Config) Refs() ([]gh.Ref, error) {
	return gh.ParseRefs(c.Dashboard.Repositories)
}
