// Package config loads and validates the devplanet client configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"devplanet/internal/paths"
)

// Config is the complete devplanet client configuration.
type Config struct {
	// Server holds backend endpoint configuration.
	Server ServerConfig `json:"server" yaml:"server" mapstructure:"server"`

	// Stream holds live-connection tuning.
	Stream StreamConfig `json:"stream" yaml:"stream" mapstructure:"stream"`

	// Analysis holds metric and cache tuning.
	Analysis AnalysisConfig `json:"analysis" yaml:"analysis" mapstructure:"analysis"`

	// Logging holds log output configuration.
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// ServerConfig identifies the Dev/Planet backend.
type ServerConfig struct {
	// BaseURL is the HTTP endpoint, e.g. https://api.devplanet.example
	BaseURL string `json:"baseUrl" yaml:"baseUrl" mapstructure:"baseUrl"`

	// WSBaseURL is the websocket endpoint. Derived from BaseURL when empty.
	WSBaseURL string `json:"wsBaseUrl" yaml:"wsBaseUrl" mapstructure:"wsBaseUrl"`

	// RequestTimeoutMs bounds individual HTTP requests.
	RequestTimeoutMs int `json:"requestTimeoutMs" yaml:"requestTimeoutMs" mapstructure:"requestTimeoutMs"`
}

// StreamConfig tunes the live analysis connection.
type StreamConfig struct {
	// HeartbeatSeconds is the heartbeat period once connected.
	HeartbeatSeconds int `json:"heartbeatSeconds" yaml:"heartbeatSeconds" mapstructure:"heartbeatSeconds"`

	// MaxReconnectAttempts caps consecutive failed reconnects.
	MaxReconnectAttempts int `json:"maxReconnectAttempts" yaml:"maxReconnectAttempts" mapstructure:"maxReconnectAttempts"`

	// ReconnectBaseSeconds is the base of the exponential backoff.
	ReconnectBaseSeconds int `json:"reconnectBaseSeconds" yaml:"reconnectBaseSeconds" mapstructure:"reconnectBaseSeconds"`
}

// AnalysisConfig tunes local metric computation and caching.
type AnalysisConfig struct {
	// DebounceMs is the quiescent window before a code change is submitted.
	DebounceMs int `json:"debounceMs" yaml:"debounceMs" mapstructure:"debounceMs"`

	// AchievementBuffer is the capacity of the recent-achievement ring.
	AchievementBuffer int `json:"achievementBuffer" yaml:"achievementBuffer" mapstructure:"achievementBuffer"`

	// ComplexityScaling divides code length to approximate complexity.
	ComplexityScaling int `json:"complexityScaling" yaml:"complexityScaling" mapstructure:"complexityScaling"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	File  string `json:"file" yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:          "http://localhost:8000",
			RequestTimeoutMs: 10000,
		},
		Stream: StreamConfig{
			HeartbeatSeconds:     30,
			MaxReconnectAttempts: 5,
			ReconnectBaseSeconds: 1,
		},
		Analysis: AnalysisConfig{
			DebounceMs:        500,
			AchievementBuffer: 10,
			ComplexityScaling: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration with precedence: env (DEVPLANET_*) > config file > defaults.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("server.baseUrl", def.Server.BaseURL)
	v.SetDefault("server.wsBaseUrl", def.Server.WSBaseURL)
	v.SetDefault("server.requestTimeoutMs", def.Server.RequestTimeoutMs)
	v.SetDefault("stream.heartbeatSeconds", def.Stream.HeartbeatSeconds)
	v.SetDefault("stream.maxReconnectAttempts", def.Stream.MaxReconnectAttempts)
	v.SetDefault("stream.reconnectBaseSeconds", def.Stream.ReconnectBaseSeconds)
	v.SetDefault("analysis.debounceMs", def.Analysis.DebounceMs)
	v.SetDefault("analysis.achievementBuffer", def.Analysis.AchievementBuffer)
	v.SetDefault("analysis.complexityScaling", def.Analysis.ComplexityScaling)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)

	v.SetEnvPrefix("DEVPLANET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	home, err := paths.Home()
	if err != nil {
		return nil, err
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to the devplanet home directory.
func (c *Config) Save() error {
	dir, err := paths.EnsureHome()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return &ConfigError{Field: "server.baseUrl", Message: "server base URL is required"}
	}
	if c.Stream.HeartbeatSeconds <= 0 {
		return &ConfigError{Field: "stream.heartbeatSeconds", Message: "heartbeat period must be positive"}
	}
	if c.Stream.MaxReconnectAttempts < 0 {
		return &ConfigError{Field: "stream.maxReconnectAttempts", Message: "reconnect attempt cap cannot be negative"}
	}
	if c.Analysis.AchievementBuffer <= 0 {
		return &ConfigError{Field: "analysis.achievementBuffer", Message: "achievement buffer capacity must be positive"}
	}
	if c.Analysis.ComplexityScaling <= 0 {
		return &ConfigError{Field: "analysis.complexityScaling", Message: "complexity scaling factor must be positive"}
	}
	if c.Analysis.DebounceMs < 0 {
		return &ConfigError{Field: "analysis.debounceMs", Message: "debounce window cannot be negative"}
	}
	return nil
}

// Heartbeat returns the heartbeat period as a duration.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.Stream.HeartbeatSeconds) * time.Second
}

// Debounce returns the debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Analysis.DebounceMs) * time.Millisecond
}

// RequestTimeout returns the HTTP request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutMs) * time.Millisecond
}

// WSURL returns the websocket base URL, deriving it from the HTTP base
// URL when not set explicitly.
func (c *Config) WSURL() string {
	if c.Server.WSBaseURL != "" {
		return c.Server.WSBaseURL
	}
	u := c.Server.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
