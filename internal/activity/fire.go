// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"math"
	"strings"
)

var (
	thermalClasses = map[string]struct{}{
		"oven": {}, "tv": {}, "laptop": {}, "cell phone": {}, "microwave": {},
	}
	smokeClasses = map[string]struct{}{
		"bottle": {}, "cup": {}, "wine glass": {},
	}
)

const (
	thermalWeight = 0.7
	smokeWeight   = 0.5
)

// FireDetector infers fire risk from heat-producing appliances and smoke-like
// objects. It ignores the pose entirely.
type FireDetector struct {
	thresholds Thresholds
}

// NewFireDetector creates a fire detector.
func NewFireDetector(t Thresholds) *FireDetector {
	return &FireDetector{thresholds: t}
}

// Type implements Detector.
func (d *FireDetector) Type() ActivityType {
	return ActivityFire
}

// Check implements Detector.
func (d *FireDetector) Check(obs *Observation) Judgment {
	var (
		thermal, smoke       []string
		maxThermal, maxSmoke float64
	)
	for _, obj := range obs.Objects {
		if obj.Score <= d.thresholds.FireMinConfidence {
			continue
		}
		class := strings.ToLower(obj.Class)
		if _, ok := thermalClasses[class]; ok {
			thermal = append(thermal, obj.Class)
			maxThermal = math.Max(maxThermal, obj.Score)
		}
		if _, ok := smokeClasses[class]; ok {
			smoke = append(smoke, obj.Class)
			maxSmoke = math.Max(maxSmoke, obj.Score)
		}
	}

	confidence := finite(math.Max(maxThermal*thermalWeight, maxSmoke*smokeWeight))

	var parts []string
	if len(thermal) > 0 {
		parts = append(parts, "Thermal sources: "+strings.Join(thermal, ", "))
	}
	if len(smoke) > 0 {
		parts = append(parts, "Smoke indicators: "+strings.Join(smoke, ", "))
	}
	details := strings.Join(parts, ", ")
	if details == "" {
		details = "No fire indicators detected"
	}

	return Judgment{
		Triggered:  confidence > d.thresholds.FireMinConfidence,
		Confidence: confidence,
		Details:    details,
	}
}
