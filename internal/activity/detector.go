// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"math"
	"time"
)

// Observation is everything a detector may inspect for one frame.
type Observation struct {
	Current  *Pose
	Previous *Pose
	Objects  []DetectedObject
	Now      time.Time

	// Velocity is the engine's single velocity state. Detectors that write
	// to it make their values visible to detectors running later in the frame.
	Velocity *VelocityState
}

// Detector judges whether one activity category is present in a frame.
type Detector interface {
	// Type returns the category this detector reports.
	Type() ActivityType

	// Check evaluates the observation. It must never return a non-finite
	// confidence.
	Check(obs *Observation) Judgment
}

// Resetter is implemented by detectors that carry state across frames.
type Resetter interface {
	Reset()
}

// finite replaces NaN and infinities with 0 so they never reach the resolver.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
