// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"fmt"
	"math"
)

// FightingDetector flags fast, accelerating limb movement combined with an
// aggressive posture.
type FightingDetector struct {
	thresholds Thresholds
}

// NewFightingDetector creates a fighting detector.
func NewFightingDetector(t Thresholds) *FightingDetector {
	return &FightingDetector{thresholds: t}
}

// Type implements Detector.
func (d *FightingDetector) Type() ActivityType {
	return ActivityFighting
}

// Check implements Detector. Velocities of the tracked limbs are written back
// to the shared velocity state.
func (d *FightingDetector) Check(obs *Observation) Judgment {
	var (
		maxVelocity float64
		violent     int
		valid       int
	)

	aggression := PoseAggressionScore(obs.Current)

	for _, j := range fightingJoints {
		cur, prev := obs.Current.At(j), obs.Previous.At(j)
		if !cur.Valid() || !prev.Valid() {
			continue
		}
		m := KeypointMotion(cur, prev, obs.Velocity[j])
		obs.Velocity[j] = m.Velocity

		maxVelocity = math.Max(maxVelocity, m.Velocity)
		if m.Velocity > d.thresholds.FightingVelocity && m.Acceleration > d.thresholds.FightingAcceleration {
			violent++
		}
		valid++
	}

	var confidence float64
	if valid > 0 {
		confidence = math.Min(0.95,
			0.4*float64(violent)/float64(valid)+
				0.3*maxVelocity/d.thresholds.FightingVelocity+
				0.3*aggression)
	}
	confidence = finite(confidence)

	return Judgment{
		Triggered:  confidence > d.thresholds.FightingMinConfidence,
		Confidence: confidence,
		Details: fmt.Sprintf("Violent movements: %d, Aggression score: %.1f%%, %s",
			violent, aggression*100, DescribePosture(obs.Current)),
	}
}
