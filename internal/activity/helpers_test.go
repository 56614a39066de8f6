// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"math"
	"testing"
	"time"
)

// baseJoints is a standing person whose keypoint box is centered on (100, 170).
var baseJoints = map[Joint][2]float64{
	JointNose:          {100, 50},
	JointLeftShoulder:  {80, 100},
	JointRightShoulder: {120, 100},
	JointLeftElbow:     {70, 140},
	JointRightElbow:    {130, 140},
	JointLeftWrist:     {95, 120},
	JointRightWrist:    {105, 120},
	JointLeftHip:       {85, 200},
	JointRightHip:      {115, 200},
	JointLeftKnee:      {85, 250},
	JointRightKnee:     {115, 250},
	JointLeftAnkle:     {85, 290},
	JointRightAnkle:    {115, 290},
}

// personPose builds the base pose with every keypoint shifted by (dx, dy).
func personPose(dx, dy float64) Pose {
	var p Pose
	for j, xy := range baseJoints {
		p.Set(j, Keypoint{X: xy[0] + dx, Y: xy[1] + dy, Score: 0.9})
	}
	return p
}

// withJoint returns a copy of p with one joint replaced.
func withJoint(p Pose, j Joint, kp Keypoint) Pose {
	p.Set(j, kp)
	return p
}

// knifeInHands is a suspicious object centered between the base wrists.
var knifeInHands = DetectedObject{
	Class: "knife",
	Score: 0.8,
	BBox:  BoundingBox{X: 90, Y: 110, Width: 20, Height: 20},
}

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertFinite(t *testing.T, name string, v float64) {
	t.Helper()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		t.Fatalf("%s is not finite: %v", name, v)
	}
}
