// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8085 {
		t.Errorf("Server.Port = %d, want 8085", cfg.Server.Port)
	}
	if cfg.Engine.UpdateInterval != 3*time.Second {
		t.Errorf("Engine.UpdateInterval = %v, want 3s", cfg.Engine.UpdateInterval)
	}
	if cfg.Engine.LogCapacity != 10 {
		t.Errorf("Engine.LogCapacity = %d, want 10", cfg.Engine.LogCapacity)
	}
	if cfg.Engine.Thresholds.FightingVelocity != 35 {
		t.Errorf("FightingVelocity = %v, want 35", cfg.Engine.Thresholds.FightingVelocity)
	}
	if cfg.Engine.Thresholds.TheftDuration != 2*time.Second {
		t.Errorf("TheftDuration = %v, want 2s", cfg.Engine.Thresholds.TheftDuration)
	}
	if cfg.Notifications.Cooldown != 5*time.Minute {
		t.Errorf("Notifications.Cooldown = %v, want 5m", cfg.Notifications.Cooldown)
	}
	if cfg.EventBus.Backend != "gochannel" {
		t.Errorf("EventBus.Backend = %q, want gochannel", cfg.EventBus.Backend)
	}
	if cfg.EventBus.FramesTopic != "activity.frames" {
		t.Errorf("EventBus.FramesTopic = %q, want activity.frames", cfg.EventBus.FramesTopic)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"FIGHTING_VELOCITY", "engine.thresholds.fighting_velocity"},
		{"THEFT_DURATION", "engine.thresholds.theft_duration"},
		{"DISCORD_WEBHOOK_URL", "notifications.discord.webhook_url"},
		{"NATS_URL", "eventbus.nats_url"},
		{"NATS_EMBEDDED", "eventbus.embedded"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"PATH", ""},
		{"HOME", ""},
		{"RANDOM_UNMAPPED_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8085 {
		t.Errorf("Server.Port = %d, want 8085", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("ENGINE_UPDATE_INTERVAL", "500ms")
	t.Setenv("FIGHTING_VELOCITY", "42.5")
	t.Setenv("THEFT_DURATION", "4s")
	t.Setenv("DISCORD_ENABLED", "true")
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.example.com/api/webhooks/1/abc")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Engine.UpdateInterval != 500*time.Millisecond {
		t.Errorf("UpdateInterval = %v, want 500ms", cfg.Engine.UpdateInterval)
	}
	if cfg.Engine.Thresholds.FightingVelocity != 42.5 {
		t.Errorf("FightingVelocity = %v, want 42.5", cfg.Engine.Thresholds.FightingVelocity)
	}
	if cfg.Engine.Thresholds.TheftDuration != 4*time.Second {
		t.Errorf("TheftDuration = %v, want 4s", cfg.Engine.Thresholds.TheftDuration)
	}
	if cfg.Engine.Thresholds.FightingAcceleration != 800 {
		t.Errorf("FightingAcceleration = %v, want default 800", cfg.Engine.Thresholds.FightingAcceleration)
	}
	if !cfg.Notifications.Discord.Enabled {
		t.Error("Discord.Enabled should be true")
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7000
engine:
  update_interval: 1s
  log_capacity: 25
  thresholds:
    fire_min_confidence: 0.8
notifications:
  min_severity: high
eventbus:
  backend: nats
  nats_url: nats://nats.internal:4222
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("env should override file: Server.Port = %d, want 7001", cfg.Server.Port)
	}
	if cfg.Engine.UpdateInterval != time.Second {
		t.Errorf("UpdateInterval = %v, want 1s", cfg.Engine.UpdateInterval)
	}
	if cfg.Engine.LogCapacity != 25 {
		t.Errorf("LogCapacity = %d, want 25", cfg.Engine.LogCapacity)
	}
	if cfg.Engine.Thresholds.FireMinConfidence != 0.8 {
		t.Errorf("FireMinConfidence = %v, want 0.8", cfg.Engine.Thresholds.FireMinConfidence)
	}
	if cfg.Engine.Thresholds.TheftMinConfidence != 0.6 {
		t.Errorf("TheftMinConfidence = %v, want default 0.6", cfg.Engine.Thresholds.TheftMinConfidence)
	}
	if cfg.Notifications.MinSeverity != "high" {
		t.Errorf("MinSeverity = %q, want high", cfg.Notifications.MinSeverity)
	}
	if cfg.EventBus.Backend != "nats" {
		t.Errorf("EventBus.Backend = %q, want nats", cfg.EventBus.Backend)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("EVENTBUS_BACKEND", "kafka")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "EVENTBUS_BACKEND") {
		t.Errorf("error = %v, want mention of EVENTBUS_BACKEND", err)
	}
}
