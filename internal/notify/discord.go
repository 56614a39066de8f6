// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
)

// discordDescriptionLimit is Discord's embed description limit.
const discordDescriptionLimit = 4096

// DiscordNotifier posts detections to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	username   string
	client     *http.Client
}

// DiscordWebhookPayload represents the Discord webhook message structure.
type DiscordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents a Discord embed object.
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

// DiscordEmbedField represents a field in a Discord embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// NewDiscordNotifier creates a Discord notifier.
func NewDiscordNotifier(webhookURL, username string, timeout time.Duration) (*DiscordNotifier, error) {
	if err := ValidateWebhookURL(webhookURL); err != nil {
		return nil, fmt.Errorf("invalid Discord webhook URL: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   username,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the notifier identifier.
func (n *DiscordNotifier) Name() string { return "discord" }

// Enabled reports whether a webhook URL is set.
func (n *DiscordNotifier) Enabled() bool { return n.webhookURL != "" }

// Send posts the detection as an embed.
func (n *DiscordNotifier) Send(ctx context.Context, d activity.Detection) error {
	return postJSON(ctx, n.client, n.Name(), n.webhookURL, nil, n.buildPayload(d))
}

func (n *DiscordNotifier) buildPayload(d activity.Detection) DiscordWebhookPayload {
	return DiscordWebhookPayload{
		Username: n.username,
		Embeds: []DiscordEmbed{{
			Title:       fmt.Sprintf("%s detected", d.Type),
			Description: truncate(d.Details, discordDescriptionLimit),
			Color:       hexColor(d.Severity.Color()),
			Timestamp:   d.Timestamp.UTC().Format(time.RFC3339),
			Fields: []DiscordEmbedField{
				{Name: "Severity", Value: strings.ToUpper(d.Severity.String()), Inline: true},
				{Name: "Confidence", Value: fmt.Sprintf("%.0f%%", d.Confidence*100), Inline: true},
			},
			Footer: &DiscordEmbedFooter{Text: "Detection " + d.ID},
		}},
	}
}

// hexColor converts "#rrggbb" to Discord's integer color.
func hexColor(s string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
