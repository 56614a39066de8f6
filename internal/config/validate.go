// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
)

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEventBus(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.UpdateInterval < 0 {
		return fmt.Errorf("ENGINE_UPDATE_INTERVAL must not be negative, got %v", c.Engine.UpdateInterval)
	}
	if c.Engine.LogCapacity < 1 {
		return fmt.Errorf("ENGINE_LOG_CAPACITY must be at least 1, got %d", c.Engine.LogCapacity)
	}
	if c.Engine.MaxObjectsPerFrame < 0 {
		return fmt.Errorf("ENGINE_MAX_OBJECTS_PER_FRAME must not be negative, got %d", c.Engine.MaxObjectsPerFrame)
	}
	if err := c.Engine.Thresholds.Validate(); err != nil {
		return fmt.Errorf("engine thresholds: %w", err)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	sev, err := activity.ParseSeverity(n.MinSeverity)
	if err != nil || sev == activity.SeverityNone {
		return fmt.Errorf("NOTIFY_MIN_SEVERITY must be one of low, medium, high, got %q", n.MinSeverity)
	}
	if n.Cooldown < 0 {
		return fmt.Errorf("NOTIFY_COOLDOWN must not be negative, got %v", n.Cooldown)
	}
	if n.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive, got %v", n.Timeout)
	}
	if n.Webhook.Enabled {
		if err := validateHTTPURL("WEBHOOK_URL", n.Webhook.URL); err != nil {
			return err
		}
	}
	if n.Discord.Enabled {
		if err := validateHTTPURL("DISCORD_WEBHOOK_URL", n.Discord.WebhookURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.Enabled {
		return nil
	}
	if !c.Store.InMemory && strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("STORE_PATH is required when the store is enabled")
	}
	if c.Store.Retention < 0 {
		return fmt.Errorf("STORE_RETENTION must not be negative, got %v", c.Store.Retention)
	}
	return nil
}

func (c *Config) validateEventBus() error {
	b := c.EventBus
	if !b.Enabled {
		return nil
	}
	switch b.Backend {
	case "gochannel":
	case "nats":
		if b.Embedded {
			if b.EmbeddedPort < -1 || b.EmbeddedPort > 65535 {
				return fmt.Errorf("NATS_EMBEDDED_PORT must be -1 or between 0 and 65535, got %d", b.EmbeddedPort)
			}
			break
		}
		if !strings.HasPrefix(b.NATSURL, "nats://") && !strings.HasPrefix(b.NATSURL, "tls://") {
			return fmt.Errorf("NATS_URL must start with nats:// or tls://, got %q", b.NATSURL)
		}
	default:
		return fmt.Errorf("EVENTBUS_BACKEND must be gochannel or nats, got %q", b.Backend)
	}
	if b.FramesTopic == "" || b.DetectionsTopic == "" || b.AlertsTopic == "" {
		return fmt.Errorf("event bus topics must not be empty")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
