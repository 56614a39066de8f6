// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// postJSON marshals payload and POSTs it to target. Non-2xx responses become
// DeliveryErrors carrying a truncated body.
func postJSON(ctx context.Context, client *http.Client, name, target string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Notifier: name, Err: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Notifier: name, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Watchpost/1.0")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		// url.Error embeds the full URL, which may carry a webhook token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return &DeliveryError{Notifier: name, Transient: true, Err: fmt.Errorf("post %s: %w", redactURL(target), err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return &DeliveryError{
		Notifier:   name,
		StatusCode: resp.StatusCode,
		Transient:  isTransientStatus(resp.StatusCode),
		Err:        fmt.Errorf("%s", strings.TrimSpace(string(respBody))),
	}
}
