// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import "math"

// FrameInterval is the assumed time between consecutive frames in seconds.
// Frames are treated as a constant 30 fps source regardless of wall-clock
// arrival, so velocities are pixels per assumed frame scaled to seconds.
const FrameInterval = 1.0 / 30.0

// Motion is the instantaneous kinematics of one joint.
type Motion struct {
	Velocity     float64
	Acceleration float64
}

// VelocityState holds the last computed velocity per joint. Unseen joints
// read as zero.
type VelocityState [NumJoints]float64

// Reset zeroes every joint.
func (v *VelocityState) Reset() {
	*v = VelocityState{}
}

// Distance returns the Euclidean distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// KeypointMotion computes velocity and acceleration of a joint between two
// frames. It returns the zero Motion when either keypoint is invalid; the
// caller decides whether to store the new velocity.
func KeypointMotion(cur, prev Keypoint, prevVelocity float64) Motion {
	if !cur.Valid() || !prev.Valid() {
		return Motion{}
	}
	velocity := Distance(cur.X, cur.Y, prev.X, prev.Y) / FrameInterval
	return Motion{
		Velocity:     velocity,
		Acceleration: (velocity - prevVelocity) / FrameInterval,
	}
}

// JointMotion computes the motion of joint j between two poses using the
// stored velocity as the previous value. State is not modified.
func (v *VelocityState) JointMotion(j Joint, cur, prev *Pose) Motion {
	return KeypointMotion(cur.At(j), prev.At(j), v[j])
}
