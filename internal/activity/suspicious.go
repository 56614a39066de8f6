// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

const suspiciousConfidence = 0.7

// SuspiciousDetector is the fallback that flags any fast-moving joint. The
// resolver only consults it when no other category triggered.
type SuspiciousDetector struct {
	thresholds Thresholds
}

// NewSuspiciousDetector creates the suspicious-motion fallback.
func NewSuspiciousDetector(t Thresholds) *SuspiciousDetector {
	return &SuspiciousDetector{thresholds: t}
}

// Type implements Detector.
func (d *SuspiciousDetector) Type() ActivityType {
	return ActivitySuspicious
}

// Check implements Detector. Velocities are not written back.
func (d *SuspiciousDetector) Check(obs *Observation) Judgment {
	for j := Joint(0); j < NumJoints; j++ {
		if !obs.Current.Has(j) || !obs.Previous.Has(j) {
			continue
		}
		if obs.Velocity.JointMotion(j, obs.Current, obs.Previous).Velocity > d.thresholds.SuspiciousVelocity {
			return Judgment{
				Triggered:  true,
				Confidence: suspiciousConfidence,
				Details:    "Unusual movement patterns detected",
			}
		}
	}
	return Judgment{}
}
