// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"fmt"
	"strings"
	"time"
)

// MinKeypointScore is the confidence a keypoint must exceed to be used.
const MinKeypointScore = 0.5

// Keypoint is a 2-D landmark with detection confidence. A missing keypoint
// is the zero value and is never valid.
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Valid reports whether the keypoint is confident enough to use.
func (k Keypoint) Valid() bool {
	return k.Score > MinKeypointScore
}

// NamedKeypoint is the wire form of a keypoint as produced by pose estimators.
type NamedKeypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Pose holds the keypoints of one person, indexed by Joint.
type Pose struct {
	points  [NumJoints]Keypoint
	present uint32
}

// NewPose builds a Pose from named keypoints. Unknown joint names are
// dropped; a repeated name keeps the last value.
func NewPose(kps []NamedKeypoint) Pose {
	var p Pose
	for _, kp := range kps {
		j, ok := ParseJoint(kp.Name)
		if !ok {
			continue
		}
		p.Set(j, Keypoint{X: kp.X, Y: kp.Y, Score: kp.Score})
	}
	return p
}

// Set stores the keypoint for a joint.
func (p *Pose) Set(j Joint, kp Keypoint) {
	if j >= NumJoints {
		return
	}
	p.points[j] = kp
	p.present |= 1 << j
}

// At returns the keypoint for a joint, or the zero Keypoint when absent.
func (p *Pose) At(j Joint) Keypoint {
	if j >= NumJoints {
		return Keypoint{}
	}
	return p.points[j]
}

// Has reports whether the estimator reported the joint at all.
func (p *Pose) Has(j Joint) bool {
	return j < NumJoints && p.present&(1<<j) != 0
}

// Empty reports whether the pose carries no keypoints at all.
func (p *Pose) Empty() bool {
	return p.present == 0
}

// ValidCount returns the number of valid keypoints.
func (p *Pose) ValidCount() int {
	n := 0
	for _, kp := range p.points {
		if kp.Valid() {
			n++
		}
	}
	return n
}

// BoundingBox is an axis-aligned rectangle in image pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (x, y float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// DetectedObject is one object-detector result.
type DetectedObject struct {
	Class string      `json:"class"`
	Score float64     `json:"score"`
	BBox  BoundingBox `json:"bbox"`
}

// ActivityType is the category a frame is classified into.
type ActivityType string

const (
	ActivityNormal     ActivityType = "normal"
	ActivityFighting   ActivityType = "fighting"
	ActivityTheft      ActivityType = "theft"
	ActivityFire       ActivityType = "fire"
	ActivitySuspicious ActivityType = "suspicious"
)

// DisplayName returns the capitalized name used in logged detections.
func (t ActivityType) DisplayName() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Severity is the display tier of a classification. The zero value is
// SeverityNone and tiers compare with the usual integer operators.
type Severity uint8

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

var severityNames = [...]string{"none", "low", "medium", "high"}

var severityColors = [...]string{"#22c55e", "#eab308", "#f97316", "#ef4444"}

// String returns the lowercase severity name.
func (s Severity) String() string {
	if int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
	return severityNames[s]
}

// Color returns the dashboard color for the tier.
func (s Severity) Color() string {
	if int(s) >= len(severityColors) {
		return severityColors[SeverityNone]
	}
	return severityColors[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if int(s) >= len(severityNames) {
		return nil, fmt.Errorf("invalid severity %d", uint8(s))
	}
	return []byte(severityNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity parses a severity name.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(name, n) {
			return Severity(i), nil
		}
	}
	return SeverityNone, fmt.Errorf("unknown severity %q", name)
}

// ActivityAnalysis is the per-frame classification result.
type ActivityAnalysis struct {
	Type       ActivityType `json:"type"`
	Confidence float64      `json:"confidence"`
	Details    string       `json:"details"`
	Severity   Severity     `json:"severity"`
}

// Detection is a throttled, logged classification.
type Detection struct {
	ID         string       `json:"id"`
	Timestamp  time.Time    `json:"timestamp"`
	Type       string       `json:"type"`
	Activity   ActivityType `json:"activity"`
	Confidence float64      `json:"confidence"`
	Details    string       `json:"details"`
	Severity   Severity     `json:"severity"`
}

// Stats counts logged detections per category.
type Stats struct {
	Fighting   uint64 `json:"fighting"`
	Theft      uint64 `json:"theft"`
	Fire       uint64 `json:"fire"`
	Suspicious uint64 `json:"suspicious"`
}

// Total returns the sum of all counters.
func (s Stats) Total() uint64 {
	return s.Fighting + s.Theft + s.Fire + s.Suspicious
}

func (s *Stats) increment(t ActivityType) {
	switch t {
	case ActivityFighting:
		s.Fighting++
	case ActivityTheft:
		s.Theft++
	case ActivityFire:
		s.Fire++
	case ActivitySuspicious:
		s.Suspicious++
	}
}

// AlertState is the live indicator. It follows the latest frame and is
// not throttled.
type AlertState struct {
	Active bool     `json:"active"`
	Level  Severity `json:"level"`
}

// Judgment is the output of a single category detector.
type Judgment struct {
	Triggered  bool
	Confidence float64
	Details    string
}
