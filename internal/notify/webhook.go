// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
)

// WebhookNotifier POSTs detections as JSON to a generic endpoint.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// WebhookPayload is the body sent by WebhookNotifier.
type WebhookPayload struct {
	Event     string             `json:"event"`
	Timestamp time.Time          `json:"timestamp"`
	Detection activity.Detection `json:"detection"`
	Severity  string             `json:"severity"`
	Color     string             `json:"color"`
}

// NewWebhookNotifier creates a webhook notifier. Headers are added to every request.
func NewWebhookNotifier(url string, headers map[string]string, timeout time.Duration) (*WebhookNotifier, error) {
	if err := ValidateWebhookURL(url); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &WebhookNotifier{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the notifier identifier.
func (n *WebhookNotifier) Name() string { return "webhook" }

// Enabled reports whether a target URL is set.
func (n *WebhookNotifier) Enabled() bool { return n.url != "" }

// Send posts the detection.
func (n *WebhookNotifier) Send(ctx context.Context, d activity.Detection) error {
	payload := WebhookPayload{
		Event:     "detection",
		Timestamp: d.Timestamp,
		Detection: d,
		Severity:  d.Severity.String(),
		Color:     d.Severity.Color(),
	}
	return postJSON(ctx, n.client, n.Name(), n.url, n.headers, payload)
}
