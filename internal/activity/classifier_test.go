// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"testing"
	"time"
)

func TestClassifierInitialFrame(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())
	got := c.Classify(personPose(50, 0), []DetectedObject{{Class: "oven", Score: 0.99}}, t0)
	want := InitialAnalysis()
	if got != want {
		t.Errorf("first frame = %+v, want %+v", got, want)
	}
	if got.Confidence != 0 || got.Severity != SeverityNone || got.Details != "Initializing detection..." {
		t.Errorf("unexpected initial analysis %+v", got)
	}
}

func TestClassifierNormal(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())
	c.Classify(personPose(0, 0), nil, t0)
	got := c.Classify(personPose(0, 0), nil, t0.Add(time.Second))
	if got.Type != ActivityNormal || got.Confidence != 0.9 || got.Details != "No suspicious activity detected" {
		t.Errorf("analysis = %+v", got)
	}
}

func TestClassifierFightingBeatsTheft(t *testing.T) {
	t.Parallel()

	prev, cur := personPose(0, 0), personPose(10, 0)
	objs := []DetectedObject{knifeInHands}

	// both conditions hold on their own for this frame
	if j := NewFightingDetector(DefaultThresholds()).Check(observe(cur, prev, objs, t0, nil)); !j.Triggered {
		t.Fatalf("fighting precondition failed: %+v", j)
	}
	if j := NewTheftDetector(DefaultThresholds()).Check(observe(cur, prev, objs, t0, nil)); !j.Triggered {
		t.Fatalf("theft precondition failed: %+v", j)
	}

	c := NewClassifier(DefaultThresholds())
	c.Classify(prev, objs, t0)
	got := c.Classify(cur, objs, t0.Add(time.Second/30))
	if got.Type != ActivityFighting {
		t.Errorf("type = %s, want fighting", got.Type)
	}
	if got.Severity != SeverityHigh {
		t.Errorf("severity = %s, want high", got.Severity)
	}
	if c.TheftSince().IsZero() {
		t.Error("theft timer should advance even when fighting wins")
	}
}

func TestClassifierFireBeatsTheft(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())
	still := personPose(0, 0)
	objs := []DetectedObject{knifeInHands, {Class: "microwave", Score: 0.99}}
	c.Classify(still, objs, t0)
	c.Classify(still, objs, t0.Add(time.Second))

	// 2.5s of hand interaction would be theft on its own
	now := t0.Add(3500 * time.Millisecond)
	theft := NewTheftDetector(DefaultThresholds())
	theft.since = c.TheftSince()
	if j := theft.Check(observe(still, still, objs, now, nil)); !j.Triggered {
		t.Fatalf("theft precondition failed: %+v", j)
	}

	got := c.Classify(still, objs, now)
	if got.Type != ActivityFire {
		t.Errorf("type = %s, want fire", got.Type)
	}
}

func TestClassifierSuspiciousFallback(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())
	c.Classify(personPose(0, 0), nil, t0)
	moved := withJoint(personPose(0, 0), JointRightAnkle, Keypoint{X: 117, Y: 290, Score: 0.9})
	got := c.Classify(moved, nil, t0.Add(time.Second))
	want := ActivityAnalysis{
		Type:       ActivitySuspicious,
		Confidence: 0.7,
		Details:    "Unusual movement patterns detected",
		Severity:   SeverityLow,
	}
	if got != want {
		t.Errorf("analysis = %+v, want %+v", got, want)
	}
}

func TestClassifierReset(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())
	objs := []DetectedObject{knifeInHands}
	c.Classify(personPose(0, 0), objs, t0)
	c.Classify(personPose(10, 0), objs, t0.Add(time.Second))

	if c.Velocity()[JointLeftWrist] == 0 || c.TheftSince().IsZero() {
		t.Fatal("expected state before reset")
	}

	c.Reset()
	if c.Velocity() != (VelocityState{}) {
		t.Error("velocity state not cleared")
	}
	if !c.TheftSince().IsZero() {
		t.Error("theft timer not cleared")
	}
	if got := c.Classify(personPose(20, 0), objs, t0.Add(2*time.Second)); got != InitialAnalysis() {
		t.Errorf("first frame after reset = %+v", got)
	}
}

func TestNoNonFiniteConfidence(t *testing.T) {
	t.Parallel()

	// coincident keypoints and zero-size boxes exercise every division
	var degenerate Pose
	for j := Joint(0); j < NumJoints; j++ {
		degenerate.Set(j, Keypoint{X: 0, Y: 0, Score: 1})
	}
	objs := []DetectedObject{{Class: "knife", Score: 1}, {Class: "oven", Score: 1}}

	c := NewClassifier(DefaultThresholds())
	for i := 0; i < 3; i++ {
		a := c.Classify(degenerate, objs, t0.Add(time.Duration(i)*time.Second))
		assertFinite(t, "confidence", a.Confidence)
	}
}

func TestSeverityFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  ActivityType
		conf float64
		want Severity
	}{
		{ActivityNormal, 0.9, SeverityNone},
		{ActivitySuspicious, 0.99, SeverityLow},
		{ActivityTheft, 0.8, SeverityMedium},
		{ActivityTheft, 0.81, SeverityHigh},
		{ActivityFighting, 0.56, SeverityMedium},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.typ, tt.conf); got != tt.want {
			t.Errorf("SeverityFor(%s, %v) = %s, want %s", tt.typ, tt.conf, got, tt.want)
		}
	}
}

func TestResolveSkipsFallbackWhenRankedTriggers(t *testing.T) {
	t.Parallel()

	called := false
	fallback := func() Judgment { called = true; return Judgment{Triggered: true} }
	a := Resolve([]Verdict{
		{Type: ActivityFighting, Judgment: Judgment{}},
		{Type: ActivityTheft, Judgment: Judgment{Triggered: true, Confidence: 0.7}},
	}, fallback)

	if a.Type != ActivityTheft {
		t.Errorf("type = %s, want theft", a.Type)
	}
	if called {
		t.Error("fallback evaluated despite a triggered verdict")
	}
}

func TestSeverityText(t *testing.T) {
	t.Parallel()

	for _, s := range []Severity{SeverityNone, SeverityLow, SeverityMedium, SeverityHigh} {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%s): %v", s, err)
		}
		var back Severity
		if err := back.UnmarshalText(b); err != nil || back != s {
			t.Errorf("round trip %s: got %s, err %v", s, back, err)
		}
	}
	if _, err := ParseSeverity("extreme"); err == nil {
		t.Error("expected error for unknown severity")
	}
	if SeverityHigh.Color() != "#ef4444" || SeverityNone.Color() != "#22c55e" {
		t.Error("unexpected severity colors")
	}
	if !(SeverityNone < SeverityLow && SeverityLow < SeverityMedium && SeverityMedium < SeverityHigh) {
		t.Error("severity tiers out of order")
	}
	if ActivityFighting.DisplayName() != "Fighting" {
		t.Errorf("DisplayName = %q", ActivityFighting.DisplayName())
	}
}
