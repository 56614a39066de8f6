// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordFrame tests frame classification metric recording
func TestRecordFrame(t *testing.T) {
	before := testutil.ToFloat64(FramesProcessed)
	fightingBefore := testutil.ToFloat64(Classifications.WithLabelValues("fighting"))

	RecordFrame("fighting", 200*time.Microsecond)
	RecordFrame("normal", 50*time.Microsecond)

	if got := testutil.ToFloat64(FramesProcessed) - before; got != 2 {
		t.Errorf("frames processed delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(Classifications.WithLabelValues("fighting")) - fightingBefore; got != 1 {
		t.Errorf("fighting classifications delta = %v, want 1", got)
	}
}

func TestRecordDetection(t *testing.T) {
	c := DetectionsLogged.WithLabelValues("theft", "medium")
	before := testutil.ToFloat64(c)

	RecordDetection("theft", "medium")

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("detections delta = %v, want 1", got)
	}
}

func TestRecordAlert(t *testing.T) {
	RecordAlert(true, 3)
	if got := testutil.ToFloat64(AlertActive); got != 1 {
		t.Errorf("alert active = %v, want 1", got)
	}
	if got := testutil.ToFloat64(AlertLevel); got != 3 {
		t.Errorf("alert level = %v, want 3", got)
	}

	RecordAlert(false, 0)
	if got := testutil.ToFloat64(AlertActive); got != 0 {
		t.Errorf("alert active = %v, want 0", got)
	}
}

func TestResultLabels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "success"},
		{"non-nil error", errors.New("boom"), "failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ArchiveWrites.WithLabelValues(tt.want)
			before := testutil.ToFloat64(c)
			RecordArchiveWrite(tt.err)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("archive writes{%s} delta = %v, want 1", tt.want, got)
			}
		})
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	tests := []struct {
		to   string
		want float64
	}{
		{"open", 2},
		{"half-open", 1},
		{"closed", 0},
	}
	for _, tt := range tests {
		RecordCircuitBreakerTransition("webhook", "closed", tt.to)
		if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("webhook")); got != tt.want {
			t.Errorf("state after transition to %s = %v, want %v", tt.to, got, tt.want)
		}
	}
}

func TestRecordAPIRequest(t *testing.T) {
	c := APIRequestsTotal.WithLabelValues("POST", "/api/v1/frames", "200")
	before := testutil.ToFloat64(c)

	RecordAPIRequest("POST", "/api/v1/frames", "200", 3*time.Millisecond)

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("api requests delta = %v, want 1", got)
	}
}
