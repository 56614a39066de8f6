// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

// Package notify delivers logged detections to external services.
//
// Two notifiers are provided:
//   - Webhook: generic JSON POST of the detection
//   - Discord: Discord webhook message with a severity-colored embed
//
// The Dispatcher is an activity.DetectionSink. It filters detections by
// minimum severity, queues them, and delivers them from its own goroutine so
// the engine's frame path never waits on the network. Each notifier has its
// own cooldown limiter and circuit breaker.
//
// Security:
//   - Webhook URLs are never logged in full
//   - Response bodies are read with a size cap
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
)

// Notifier sends a single detection to an external service.
type Notifier interface {
	// Name returns the notifier identifier used in logs and metrics.
	Name() string

	// Send delivers the detection. Implementations must honor ctx.
	Send(ctx context.Context, d activity.Detection) error

	// Enabled reports whether the notifier is configured to deliver.
	Enabled() bool
}

// DeliveryError describes a failed delivery attempt.
type DeliveryError struct {
	Notifier   string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s delivery failed with status %d: %v", e.Notifier, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery failed: %v", e.Notifier, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a delivery error that may succeed on retry.
func IsTransient(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Transient
	}
	return false
}

// maxResponseBody caps how much of an error response is read.
const maxResponseBody = 4096

// defaultHTTPTimeout is used when no timeout is configured.
const defaultHTTPTimeout = 10 * time.Second

// ValidateWebhookURL validates a webhook URL.
func ValidateWebhookURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("webhook URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return fmt.Errorf("webhook URL must have a host")
	}
	return nil
}

// redactURL keeps only scheme and host so tokens embedded in paths stay out of logs.
func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "invalid"
	}
	return parsed.Scheme + "://" + parsed.Host
}

// isTransientStatus reports whether an HTTP status is worth retrying.
func isTransientStatus(code int) bool {
	return code == 429 || code >= 500
}
