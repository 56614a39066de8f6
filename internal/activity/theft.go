// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"fmt"
	"math"
	"time"
)

// TheftDetector flags hands interacting with suspicious objects near the
// person. It keeps one interaction timer for the whole scene: the timer
// latches the first frame of an episode and clears on any placed-person frame
// without an interaction, so timing is not tracked per object. Frames too
// sparse to place a person leave the timer untouched.
type TheftDetector struct {
	thresholds Thresholds
	since      time.Time
}

// NewTheftDetector creates a theft detector with a cleared timer.
func NewTheftDetector(t Thresholds) *TheftDetector {
	return &TheftDetector{thresholds: t}
}

// Type implements Detector.
func (d *TheftDetector) Type() ActivityType {
	return ActivityTheft
}

// Reset clears the interaction timer.
func (d *TheftDetector) Reset() {
	d.since = time.Time{}
}

// Since returns the start of the current interaction episode, or the zero
// time when none is ongoing.
func (d *TheftDetector) Since() time.Time {
	return d.since
}

// Check implements Detector. The nose velocity is read from the shared state
// but not written back.
func (d *TheftDetector) Check(obs *Observation) Judgment {
	person, ok := PersonBoundingBox(obs.Current)
	if !ok {
		// A sparse frame says nothing about the interaction, so the timer is kept.
		return Judgment{Details: "Insufficient pose data"}
	}

	proximity := d.thresholds.TheftProximity
	torso := obs.Velocity.JointMotion(JointNose, obs.Current, obs.Previous).Velocity

	suspicious, interactions := 0, 0
	for _, obj := range obs.Objects {
		if !IsNear(person, obj.BBox, proximity) || !IsSuspiciousObject(obj) {
			continue
		}
		suspicious++
		cx, cy := obj.BBox.Center()
		for _, j := range wristJoints {
			hand := obs.Current.At(j)
			if hand.Valid() && Distance(hand.X, hand.Y, cx, cy) < proximity {
				interactions++
			}
		}
	}

	if interactions > 0 {
		if d.since.IsZero() {
			d.since = obs.Now
		}
	} else {
		d.since = time.Time{}
	}

	var elapsed time.Duration
	if !d.since.IsZero() {
		// client timestamps may arrive out of order
		elapsed = max(obs.Now.Sub(d.since), 0)
	}
	durationFactor := math.Min(1, float64(elapsed)/float64(d.thresholds.TheftDuration))

	var objectFactor float64
	if suspicious > 0 {
		objectFactor = 1
	}

	confidence := finite(math.Min(0.95,
		0.3*torso/d.thresholds.TheftVelocity+
			0.3*objectFactor+
			0.2*float64(interactions)/2+
			0.2*durationFactor))

	return Judgment{
		Triggered:  confidence > d.thresholds.TheftMinConfidence,
		Confidence: confidence,
		Details: fmt.Sprintf("Suspicious objects: %d, Interactions: %d, Duration: %.1fs",
			suspicious, interactions, elapsed.Seconds()),
	}
}
