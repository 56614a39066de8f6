// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package config

import (
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Engine        EngineConfig        `koanf:"engine"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Store         StoreConfig         `koanf:"store"`
	EventBus      EventBusConfig      `koanf:"eventbus"`
	Security      SecurityConfig      `koanf:"security"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// EngineConfig configures the activity classification engine.
type EngineConfig struct {
	// AutoStart begins a detection session at startup.
	AutoStart bool `koanf:"auto_start"`

	// UpdateInterval is the minimum time between logged detections.
	UpdateInterval time.Duration `koanf:"update_interval"`

	// LogCapacity is how many detections the in-memory log keeps.
	LogCapacity int `koanf:"log_capacity"`

	// MaxObjectsPerFrame bounds the object list accepted per frame.
	MaxObjectsPerFrame int `koanf:"max_objects_per_frame"`

	Thresholds activity.Thresholds `koanf:"thresholds"`
}

// NotificationsConfig configures outbound detection notifications.
type NotificationsConfig struct {
	// MinSeverity is the lowest severity that is notified (low, medium, high).
	MinSeverity string `koanf:"min_severity"`

	// Cooldown is the minimum time between notifications per notifier.
	Cooldown time.Duration `koanf:"cooldown"`

	// Timeout bounds a single delivery.
	Timeout time.Duration `koanf:"timeout"`

	Webhook WebhookConfig `koanf:"webhook"`
	Discord DiscordConfig `koanf:"discord"`
}

// WebhookConfig configures the generic JSON webhook notifier.
type WebhookConfig struct {
	Enabled bool              `koanf:"enabled"`
	URL     string            `koanf:"url"`
	Headers map[string]string `koanf:"headers"`
}

// DiscordConfig configures the Discord webhook notifier.
type DiscordConfig struct {
	Enabled    bool   `koanf:"enabled"`
	WebhookURL string `koanf:"webhook_url"`
	Username   string `koanf:"username"`
}

// StoreConfig configures the Badger detection archive.
type StoreConfig struct {
	Enabled bool `koanf:"enabled"`

	// Path is the Badger directory. Ignored when InMemory is set.
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`

	// Retention is how long archived detections are kept. Zero keeps them forever.
	Retention time.Duration `koanf:"retention"`
}

// EventBusConfig configures the Watermill event bus.
type EventBusConfig struct {
	Enabled bool `koanf:"enabled"`

	// Backend is "gochannel" (in-process) or "nats".
	Backend string `koanf:"backend"`

	NATSURL       string        `koanf:"nats_url"`
	QueueGroup    string        `koanf:"queue_group"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`

	// Embedded runs a NATS server in-process; NATSURL is then ignored.
	Embedded     bool   `koanf:"embedded"`
	EmbeddedHost string `koanf:"embedded_host"`
	EmbeddedPort int    `koanf:"embedded_port"`

	FramesTopic     string `koanf:"frames_topic"`
	DetectionsTopic string `koanf:"detections_topic"`
	AlertsTopic     string `koanf:"alerts_topic"`

	// OutputBuffer is the gochannel subscriber buffer size.
	OutputBuffer int64 `koanf:"output_buffer"`

	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// SecurityConfig holds HTTP protection settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds zerolog configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
