// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import "strings"

// Joint identifies a skeletal landmark. The set is closed: pose estimators
// that emit other names have those keypoints ignored.
type Joint uint8

const (
	JointNose Joint = iota
	JointLeftEye
	JointRightEye
	JointLeftEar
	JointRightEar
	JointLeftShoulder
	JointRightShoulder
	JointLeftElbow
	JointRightElbow
	JointLeftWrist
	JointRightWrist
	JointLeftHip
	JointRightHip
	JointLeftKnee
	JointRightKnee
	JointLeftAnkle
	JointRightAnkle
	// JointNeck and JointHip are emitted by some models as single midline points.
	JointNeck
	JointHip

	// NumJoints is the number of known joints.
	NumJoints
)

var jointNames = [NumJoints]string{
	JointNose:          "nose",
	JointLeftEye:       "left_eye",
	JointRightEye:      "right_eye",
	JointLeftEar:       "left_ear",
	JointRightEar:      "right_ear",
	JointLeftShoulder:  "left_shoulder",
	JointRightShoulder: "right_shoulder",
	JointLeftElbow:     "left_elbow",
	JointRightElbow:    "right_elbow",
	JointLeftWrist:     "left_wrist",
	JointRightWrist:    "right_wrist",
	JointLeftHip:       "left_hip",
	JointRightHip:      "right_hip",
	JointLeftKnee:      "left_knee",
	JointRightKnee:     "right_knee",
	JointLeftAnkle:     "left_ankle",
	JointRightAnkle:    "right_ankle",
	JointNeck:          "neck",
	JointHip:           "hip",
}

var jointsByName = func() map[string]Joint {
	m := make(map[string]Joint, NumJoints)
	for j, name := range jointNames {
		m[name] = Joint(j)
	}
	return m
}()

// String returns the wire name of the joint, e.g. "left_wrist".
func (j Joint) String() string {
	if j >= NumJoints {
		return "unknown"
	}
	return jointNames[j]
}

// ParseJoint resolves a wire name to a Joint. Matching is case-insensitive.
func ParseJoint(name string) (Joint, bool) {
	j, ok := jointsByName[strings.ToLower(strings.TrimSpace(name))]
	return j, ok
}

// JointNames returns the wire names of all known joints in enum order.
func JointNames() []string {
	names := make([]string, NumJoints)
	copy(names, jointNames[:])
	return names
}

// armChains are the (shoulder, elbow, wrist) triples per side.
var armChains = [2][3]Joint{
	{JointLeftShoulder, JointLeftElbow, JointLeftWrist},
	{JointRightShoulder, JointRightElbow, JointRightWrist},
}

// fightingJoints are the limbs whose motion feeds the fighting detector.
var fightingJoints = [...]Joint{
	JointLeftWrist, JointRightWrist,
	JointLeftElbow, JointRightElbow,
	JointLeftKnee, JointRightKnee,
}

var wristJoints = [...]Joint{JointLeftWrist, JointRightWrist}
