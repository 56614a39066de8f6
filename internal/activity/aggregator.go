// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultUpdateInterval is the minimum time between logged detections.
	DefaultUpdateInterval = 3 * time.Second

	// DefaultLogCapacity is the number of detections kept in the log.
	DefaultLogCapacity = 10
)

// Aggregator throttles per-frame classifications into the detection log and
// statistics, and latches the live alert state.
type Aggregator struct {
	interval time.Duration
	capacity int
	newID    func() string

	lastEmit time.Time
	log      []Detection
	stats    Stats
	alert    AlertState
}

// NewAggregator creates an aggregator. Non-positive arguments select the defaults.
func NewAggregator(interval time.Duration, capacity int) *Aggregator {
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Aggregator{
		interval: interval,
		capacity: capacity,
		newID:    uuid.NewString,
		log:      make([]Detection, 0, capacity),
	}
}

// Observe records one frame's analysis. The alert state always follows the
// analysis; a Detection is returned only when the throttle interval has
// elapsed and the frame is not normal. The throttle clock restarts at every
// elapsed interval, including on normal frames.
func (a *Aggregator) Observe(analysis ActivityAnalysis, now time.Time) (*Detection, AlertState) {
	a.alert = AlertState{
		Active: analysis.Type != ActivityNormal,
		Level:  analysis.Severity,
	}

	if !a.lastEmit.IsZero() && now.Sub(a.lastEmit) < a.interval {
		return nil, a.alert
	}
	a.lastEmit = now

	if analysis.Type == ActivityNormal {
		return nil, a.alert
	}

	d := Detection{
		ID:         a.newID(),
		Timestamp:  now,
		Type:       analysis.Type.DisplayName(),
		Activity:   analysis.Type,
		Confidence: analysis.Confidence,
		Details:    analysis.Details,
		Severity:   analysis.Severity,
	}
	a.stats.increment(analysis.Type)

	if len(a.log) < a.capacity {
		a.log = append(a.log, Detection{})
	}
	copy(a.log[1:], a.log[:len(a.log)-1])
	a.log[0] = d

	return &d, a.alert
}

// Log returns a copy of the detection log, newest first.
func (a *Aggregator) Log() []Detection {
	out := make([]Detection, len(a.log))
	copy(out, a.log)
	return out
}

// Stats returns the counters.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Alert returns the latched alert state.
func (a *Aggregator) Alert() AlertState {
	return a.alert
}

// ResetSession clears the log, the alert latch and the throttle clock.
// Stats are kept.
func (a *Aggregator) ResetSession() {
	a.lastEmit = time.Time{}
	a.log = a.log[:0]
	a.alert = AlertState{}
}

// ResetAll clears everything including Stats.
func (a *Aggregator) ResetAll() {
	a.ResetSession()
	a.stats = Stats{}
}
