// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import "time"

// Classifier turns consecutive frames into per-frame ActivityAnalysis. It
// owns the velocity state, the theft timer and the previous pose. It is not
// safe for concurrent use.
type Classifier struct {
	velocity VelocityState
	previous Pose
	hasPrev  bool

	fighting   *FightingDetector
	fire       *FireDetector
	theft      *TheftDetector
	suspicious *SuspiciousDetector
}

// NewClassifier creates a classifier with fresh state.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{
		fighting:   NewFightingDetector(t),
		fire:       NewFireDetector(t),
		theft:      NewTheftDetector(t),
		suspicious: NewSuspiciousDetector(t),
	}
}

// Classify analyzes one frame and remembers the pose for the next call.
// The first frame after a reset is always normal with zero confidence.
func (c *Classifier) Classify(pose Pose, objects []DetectedObject, now time.Time) ActivityAnalysis {
	defer func() {
		c.previous = pose
		c.hasPrev = true
	}()

	if !c.hasPrev || c.previous.Empty() || pose.Empty() {
		return InitialAnalysis()
	}

	obs := &Observation{
		Current:  &pose,
		Previous: &c.previous,
		Objects:  objects,
		Now:      now,
		Velocity: &c.velocity,
	}

	// All three run every frame so the theft timer and the fighting
	// velocities advance even when a higher-priority category wins.
	ranked := []Verdict{
		{Type: ActivityFighting, Judgment: c.fighting.Check(obs)},
		{Type: ActivityFire, Judgment: c.fire.Check(obs)},
		{Type: ActivityTheft, Judgment: c.theft.Check(obs)},
	}
	return Resolve(ranked, func() Judgment { return c.suspicious.Check(obs) })
}

// Reset clears velocities, the theft timer and the previous pose.
func (c *Classifier) Reset() {
	c.velocity.Reset()
	c.theft.Reset()
	c.previous = Pose{}
	c.hasPrev = false
}

// Velocity returns a copy of the velocity state.
func (c *Classifier) Velocity() VelocityState {
	return c.velocity
}

// TheftSince returns the start of the ongoing theft interaction episode.
func (c *Classifier) TheftSince() time.Time {
	return c.theft.Since()
}
