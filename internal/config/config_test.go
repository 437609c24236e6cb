package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"devplanet/internal/paths"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.BaseURL == "" {
		t.Error("Server.BaseURL should have a default")
	}
	if cfg.Stream.HeartbeatSeconds != 30 {
		t.Errorf("HeartbeatSeconds = %d, want 30", cfg.Stream.HeartbeatSeconds)
	}
	if cfg.Stream.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", cfg.Stream.MaxReconnectAttempts)
	}
	if cfg.Analysis.AchievementBuffer != 10 {
		t.Errorf("AchievementBuffer = %d, want 10", cfg.Analysis.AchievementBuffer)
	}
	if cfg.Analysis.DebounceMs != 500 {
		t.Errorf("DebounceMs = %d, want 500", cfg.Analysis.DebounceMs)
	}
	if cfg.Analysis.ComplexityScaling <= 0 {
		t.Error("ComplexityScaling should be positive")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing base URL", func(c *Config) { c.Server.BaseURL = "" }, "server.baseUrl"},
		{"zero heartbeat", func(c *Config) { c.Stream.HeartbeatSeconds = 0 }, "stream.heartbeatSeconds"},
		{"negative reconnects", func(c *Config) { c.Stream.MaxReconnectAttempts = -1 }, "stream.maxReconnectAttempts"},
		{"zero buffer", func(c *Config) { c.Analysis.AchievementBuffer = 0 }, "analysis.achievementBuffer"},
		{"zero scaling", func(c *Config) { c.Analysis.ComplexityScaling = 0 }, "analysis.complexityScaling"},
		{"negative debounce", func(c *Config) { c.Analysis.DebounceMs = -1 }, "analysis.debounceMs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	tmp := t.TempDir()
	originalEnv := os.Getenv(paths.HomeEnv)
	t.Cleanup(func() { _ = os.Setenv(paths.HomeEnv, originalEnv) })
	_ = os.Setenv(paths.HomeEnv, tmp)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Stream.HeartbeatSeconds != 30 {
		t.Errorf("HeartbeatSeconds = %d, want default 30", cfg.Stream.HeartbeatSeconds)
	}
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	tmp := t.TempDir()
	originalEnv := os.Getenv(paths.HomeEnv)
	t.Cleanup(func() { _ = os.Setenv(paths.HomeEnv, originalEnv) })
	_ = os.Setenv(paths.HomeEnv, tmp)

	content := []byte("server:\n  baseUrl: https://forge.example\nanalysis:\n  debounceMs: 250\n")
	if err := os.WriteFile(filepath.Join(tmp, "config.yaml"), content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.BaseURL != "https://forge.example" {
		t.Errorf("BaseURL = %q, want https://forge.example", cfg.Server.BaseURL)
	}
	if cfg.Analysis.DebounceMs != 250 {
		t.Errorf("DebounceMs = %d, want 250", cfg.Analysis.DebounceMs)
	}
	// Unset fields keep defaults
	if cfg.Stream.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want default 5", cfg.Stream.MaxReconnectAttempts)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	originalEnv := os.Getenv(paths.HomeEnv)
	t.Cleanup(func() { _ = os.Setenv(paths.HomeEnv, originalEnv) })
	_ = os.Setenv(paths.HomeEnv, tmp)

	cfg := DefaultConfig()
	cfg.Server.BaseURL = "https://forge.example"
	cfg.Analysis.AchievementBuffer = 7

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.BaseURL != "https://forge.example" {
		t.Errorf("BaseURL = %q after round trip", loaded.Server.BaseURL)
	}
	if loaded.Analysis.AchievementBuffer != 7 {
		t.Errorf("AchievementBuffer = %d, want 7", loaded.Analysis.AchievementBuffer)
	}
}

func TestWSURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wsBase  string
		want    string
	}{
		{"derive from https", "https://forge.example", "", "wss://forge.example"},
		{"derive from http", "http://localhost:8000", "", "ws://localhost:8000"},
		{"explicit override", "https://forge.example", "wss://stream.forge.example", "wss://stream.forge.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.BaseURL = tt.baseURL
			cfg.Server.WSBaseURL = tt.wsBase
			if got := cfg.WSURL(); got != tt.want {
				t.Errorf("WSURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Heartbeat() != 30*time.Second {
		t.Errorf("Heartbeat() = %v, want 30s", cfg.Heartbeat())
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Errorf("Debounce() = %v, want 500ms", cfg.Debounce())
	}
	if cfg.RequestTimeout() != 10*time.Second {
		t.Errorf("RequestTimeout() = %v, want 10s", cfg.RequestTimeout())
	}
}
