// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/watchpost/internal/activity"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/watchpost/config.yaml",
	"/etc/watchpost/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8085,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Engine: EngineConfig{
			AutoStart:          false,
			UpdateInterval:     activity.DefaultUpdateInterval,
			LogCapacity:        activity.DefaultLogCapacity,
			MaxObjectsPerFrame: 100,
			Thresholds:         activity.DefaultThresholds(),
		},
		Notifications: NotificationsConfig{
			MinSeverity: "medium",
			Cooldown:    5 * time.Minute,
			Timeout:     10 * time.Second,
			Webhook: WebhookConfig{
				Headers: map[string]string{},
			},
			Discord: DiscordConfig{
				Username: "Watchpost",
			},
		},
		Store: StoreConfig{
			Enabled:   true,
			Path:      "/data/detections",
			Retention: 30 * 24 * time.Hour,
		},
		EventBus: EventBusConfig{
			Enabled:         true,
			Backend:         "gochannel",
			NATSURL:         "nats://127.0.0.1:4222",
			QueueGroup:      "watchpost",
			MaxReconnects:   -1,
			ReconnectWait:   2 * time.Second,
			EmbeddedHost:    "127.0.0.1",
			EmbeddedPort:    4222,
			FramesTopic:     "activity.frames",
			DetectionsTopic: "activity.detections",
			AlertsTopic:     "activity.alerts",
			OutputBuffer:    256,
			CloseTimeout:    10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:   600,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any mapped setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "" if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to config paths.
var envMappings = map[string]string{
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"engine_auto_start":            "engine.auto_start",
	"engine_update_interval":       "engine.update_interval",
	"engine_log_capacity":          "engine.log_capacity",
	"engine_max_objects_per_frame": "engine.max_objects_per_frame",
	"fighting_velocity":            "engine.thresholds.fighting_velocity",
	"fighting_acceleration":        "engine.thresholds.fighting_acceleration",
	"fighting_min_confidence":      "engine.thresholds.fighting_min_confidence",
	"theft_velocity":               "engine.thresholds.theft_velocity",
	"theft_proximity":              "engine.thresholds.theft_proximity",
	"theft_min_confidence":         "engine.thresholds.theft_min_confidence",
	"theft_duration":               "engine.thresholds.theft_duration",
	"fire_min_confidence":          "engine.thresholds.fire_min_confidence",
	"suspicious_velocity":          "engine.thresholds.suspicious_velocity",

	"notify_min_severity": "notifications.min_severity",
	"notify_cooldown":     "notifications.cooldown",
	"notify_timeout":      "notifications.timeout",
	"webhook_enabled":     "notifications.webhook.enabled",
	"webhook_url":         "notifications.webhook.url",
	"discord_enabled":     "notifications.discord.enabled",
	"discord_webhook_url": "notifications.discord.webhook_url",
	"discord_username":    "notifications.discord.username",

	"store_enabled":   "store.enabled",
	"store_path":      "store.path",
	"store_in_memory": "store.in_memory",
	"store_retention": "store.retention",

	"eventbus_enabled":          "eventbus.enabled",
	"eventbus_backend":          "eventbus.backend",
	"nats_url":                  "eventbus.nats_url",
	"nats_queue_group":          "eventbus.queue_group",
	"nats_embedded":             "eventbus.embedded",
	"nats_embedded_host":        "eventbus.embedded_host",
	"nats_embedded_port":        "eventbus.embedded_port",
	"eventbus_frames_topic":     "eventbus.frames_topic",
	"eventbus_detections_topic": "eventbus.detections_topic",
	"eventbus_alerts_topic":     "eventbus.alerts_topic",

	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped keys return "" so they are skipped.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - FIGHTING_VELOCITY -> engine.thresholds.fighting_velocity
//   - DISCORD_WEBHOOK_URL -> notifications.discord.webhook_url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
