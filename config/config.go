// Package config loads the process configuration for the streaming server
// and its orchestration core. Precedence is defaults, then the YAML file,
// then environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the websocket streaming server.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" env:"SUPPLYMESH_ADDR"`

	// ReadTimeout bounds how long a client may stay silent before the
	// connection is considered dead.
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SUPPLYMESH_READ_TIMEOUT"`

	// WriteTimeout bounds a single event push to a client.
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SUPPLYMESH_WRITE_TIMEOUT"`

	// FeedInterval is the tick rate of the synthetic order feed. Zero
	// disables the feed.
	FeedInterval time.Duration `yaml:"feed_interval" env:"SUPPLYMESH_FEED_INTERVAL"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"SUPPLYMESH_LOG_LEVEL"`

	// Format is "text" or "json".
	Format string `yaml:"format" env:"SUPPLYMESH_LOG_FORMAT"`
}

// SynthConfig selects the recommendation synthesizer.
type SynthConfig struct {
	// Provider is "template", "anthropic" or "openai".
	Provider string `yaml:"provider" env:"SUPPLYMESH_SYNTH_PROVIDER"`

	// Model overrides the provider's default model id.
	Model string `yaml:"model" env:"SUPPLYMESH_SYNTH_MODEL"`

	// APIKey authenticates against the provider. Falls back to the
	// provider SDK's own environment variables when empty.
	APIKey string `yaml:"api_key" env:"SUPPLYMESH_SYNTH_API_KEY"`
}

// Config is the root configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Synth  SynthConfig  `yaml:"synth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8765",
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			FeedInterval: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Synth: SynthConfig{
			Provider: "template",
		},
	}
}

// Load builds the configuration: defaults, overlaid by the YAML file at path
// (skipped when path is empty or the file does not exist), overlaid by
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults plus environment only.
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum fields.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	switch c.Synth.Provider {
	case "template", "anthropic", "openai":
	default:
		return fmt.Errorf("invalid synth provider %q", c.Synth.Provider)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	return nil
}
