// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"math"
	"strings"
)

const (
	bentArmAngle       = 90.0
	torsoLeanAngle     = 30.0
	forwardLeanOffset  = 100.0
	bentArmWeight      = 0.3
	torsoLeanWeight    = 0.4
	normalPostureLabel = "Normal posture"
)

// BodyAngle returns the angle in degrees at j2 between the rays to j1 and j3.
// It returns 0 when any keypoint is invalid or a ray has zero length.
func BodyAngle(j1, j2, j3 Keypoint) float64 {
	if !j1.Valid() || !j2.Valid() || !j3.Valid() {
		return 0
	}
	ax, ay := j1.X-j2.X, j1.Y-j2.Y
	bx, by := j3.X-j2.X, j3.Y-j2.Y
	mag := math.Hypot(ax, ay) * math.Hypot(bx, by)
	if mag == 0 {
		return 0
	}
	cos := (ax*bx + ay*by) / mag
	// rounding can push the ratio just outside the acos domain
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// PoseAggressionScore scores how aggressive a stance looks, in [0, 1].
// Bent arms (angle below 90 degrees) and a leaning torso (nose-neck-hip
// angle above 30 degrees) contribute; the sum is averaged over the number of
// measurements that could be taken.
func PoseAggressionScore(p *Pose) float64 {
	var score float64
	measurements := 0

	for _, chain := range armChains {
		shoulder, elbow, wrist := p.At(chain[0]), p.At(chain[1]), p.At(chain[2])
		if !shoulder.Valid() || !elbow.Valid() || !wrist.Valid() {
			continue
		}
		if BodyAngle(shoulder, elbow, wrist) < bentArmAngle {
			score += bentArmWeight
		}
		measurements++
	}

	nose, neck, hip := p.At(JointNose), p.At(JointNeck), p.At(JointHip)
	if nose.Valid() && neck.Valid() && hip.Valid() {
		if BodyAngle(nose, neck, hip) > torsoLeanAngle {
			score += torsoLeanWeight
		}
		measurements++
	}

	if measurements == 0 {
		return 0
	}
	return score / float64(measurements)
}

// DescribePosture lists human-readable posture indicators for a pose.
func DescribePosture(p *Pose) string {
	var indicators []string

	for _, chain := range armChains {
		shoulder, wrist := p.At(chain[0]), p.At(chain[2])
		if shoulder.Valid() && wrist.Valid() && wrist.Y < shoulder.Y {
			indicators = append(indicators, "Raised arms")
		}
	}

	nose, hip := p.At(JointNose), p.At(JointHip)
	if nose.Valid() && hip.Valid() && math.Abs(nose.X-hip.X) > forwardLeanOffset {
		indicators = append(indicators, "Forward lean")
	}

	if len(indicators) == 0 {
		return normalPostureLabel
	}
	return "Posture indicators: " + strings.Join(indicators, ", ")
}
