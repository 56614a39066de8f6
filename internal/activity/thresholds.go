// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"fmt"
	"time"
)

// Thresholds configures the category detectors.
type Thresholds struct {
	// FightingVelocity is the joint speed (px/s) above which a limb may be violent.
	FightingVelocity float64 `koanf:"fighting_velocity" json:"fighting_velocity"`

	// FightingAcceleration must also be exceeded for a violent movement.
	FightingAcceleration float64 `koanf:"fighting_acceleration" json:"fighting_acceleration"`

	// FightingMinConfidence is the exclusive trigger bound for fighting.
	FightingMinConfidence float64 `koanf:"fighting_min_confidence" json:"fighting_min_confidence"`

	// TheftVelocity normalizes the nose speed used as whole-body motion.
	TheftVelocity float64 `koanf:"theft_velocity" json:"theft_velocity"`

	// TheftProximity is the distance (px) for person-object and hand-object nearness.
	TheftProximity float64 `koanf:"theft_proximity" json:"theft_proximity"`

	// TheftMinConfidence is the exclusive trigger bound for theft.
	TheftMinConfidence float64 `koanf:"theft_min_confidence" json:"theft_min_confidence"`

	// TheftDuration is how long an interaction must last to reach full weight.
	TheftDuration time.Duration `koanf:"theft_duration" json:"theft_duration"`

	// FireMinConfidence filters objects and is the exclusive trigger bound for fire.
	FireMinConfidence float64 `koanf:"fire_min_confidence" json:"fire_min_confidence"`

	// SuspiciousVelocity is the joint speed for the suspicious-motion fallback.
	SuspiciousVelocity float64 `koanf:"suspicious_velocity" json:"suspicious_velocity"`
}

// DefaultThresholds returns the tuned detector thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FightingVelocity:      35,
		FightingAcceleration:  800,
		FightingMinConfidence: 0.55,
		TheftVelocity:         30,
		TheftProximity:        80,
		TheftMinConfidence:    0.6,
		TheftDuration:         2 * time.Second,
		FireMinConfidence:     0.65,
		SuspiciousVelocity:    25,
	}
}

// Validate checks that every threshold is usable as a divisor or bound.
func (t Thresholds) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"fighting_velocity", t.FightingVelocity},
		{"fighting_acceleration", t.FightingAcceleration},
		{"theft_velocity", t.TheftVelocity},
		{"theft_proximity", t.TheftProximity},
		{"suspicious_velocity", t.SuspiciousVelocity},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, p.value)
		}
	}
	confidences := []struct {
		name  string
		value float64
	}{
		{"fighting_min_confidence", t.FightingMinConfidence},
		{"theft_min_confidence", t.TheftMinConfidence},
		{"fire_min_confidence", t.FireMinConfidence},
	}
	for _, c := range confidences {
		if c.value < 0 || c.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", c.name, c.value)
		}
	}
	if t.TheftDuration <= 0 {
		return fmt.Errorf("theft_duration must be positive, got %v", t.TheftDuration)
	}
	return nil
}
