package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Console ConsoleConfig `yaml:"console"`
	Stats   StatsConfig   `yaml:"stats"`
	Render  RenderConfig  `yaml:"render"`
	Metrics MetricsConfig `yaml:"metrics"`

	ShutdownTimeout Duration `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// ServerConfig contains dashboard backend connection settings
type ServerConfig struct {
	Address string   `yaml:"address"` // Base URL of the receiver, e.g. http://pi.local:8000
	Timeout Duration `yaml:"timeout"` // HTTP timeout for REST requests

	// Event stream reconnect settings. The stream reconnects forever with a
	// fixed delay between attempts; there is no backoff growth and no retry
	// cap. The receiver lives on a trusted local network.
	ReconnectDelay Duration `yaml:"reconnect_delay"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// ConsoleConfig contains activity console settings
type ConsoleConfig struct {
	Capacity int  `yaml:"capacity"` // Max retained entries, oldest evicted first
	Follow   bool `yaml:"follow"`   // Keep the newest entries in view
}

// StatsConfig contains stats refresh settings (logwatch view)
type StatsConfig struct {
	RefreshInterval Duration `yaml:"refresh_interval"` // Interval for /stats polling (0 = disabled)
}

// RenderConfig contains terminal rendering settings
type RenderConfig struct {
	Interval Duration `yaml:"interval"` // Frame/relative-time refresh tick
	Colors   bool     `yaml:"colors"`
}

// MetricsConfig contains metrics/health server settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// GetShutdownTimeout returns the shutdown timeout with default
func (c *Config) GetShutdownTimeout() time.Duration {
	if c.ShutdownTimeout == 0 {
		return 5 * time.Second
	}
	return c.ShutdownTimeout.Duration()
}

// Load reads and parses the configuration file.
// The defaultCapacity argument sets the console capacity when the file does
// not override it; the two views ship different defaults (100 and 500).
func Load(path string, defaultCapacity int) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults(defaultCapacity)
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, for running
// without a config file.
func Default(defaultCapacity int) *Config {
	cfg := &Config{}
	cfg.applyDefaults(defaultCapacity)
	return cfg
}

func (c *Config) applyDefaults(defaultCapacity int) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	// Server defaults
	if c.Server.Address == "" {
		c.Server.Address = "http://127.0.0.1:8000"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = Duration(10 * time.Second)
	}
	if c.Server.ReconnectDelay == 0 {
		c.Server.ReconnectDelay = Duration(5 * time.Second)
	}

	// Console defaults
	if c.Console.Capacity <= 0 {
		c.Console.Capacity = defaultCapacity
	}

	// Stats defaults
	if c.Stats.RefreshInterval == 0 {
		c.Stats.RefreshInterval = Duration(30 * time.Second)
	}

	// Render defaults
	if c.Render.Interval == 0 {
		c.Render.Interval = Duration(1 * time.Second)
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}
	if c.Metrics.Host == "" {
		c.Metrics.Host = "0.0.0.0"
	}

	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
