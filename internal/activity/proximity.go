// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"math"
	"strings"
)

// DefaultProximity is the center distance under which two boxes are near.
const DefaultProximity = 100.0

// MinPersonKeypoints is the number of valid keypoints needed to place a person.
const MinPersonKeypoints = 5

var suspiciousObjects = map[string]struct{}{
	"knife":        {},
	"scissors":     {},
	"bottle":       {},
	"cell phone":   {},
	"laptop":       {},
	"backpack":     {},
	"suitcase":     {},
	"handbag":      {},
	"sports ball":  {},
	"baseball bat": {},
	"umbrella":     {},
}

// PersonBoundingBox returns the bounds of all valid keypoints. ok is false
// when fewer than MinPersonKeypoints are valid.
func PersonBoundingBox(p *Pose) (box BoundingBox, ok bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0
	for _, kp := range p.points {
		if !kp.Valid() {
			continue
		}
		minX, maxX = math.Min(minX, kp.X), math.Max(maxX, kp.X)
		minY, maxY = math.Min(minY, kp.Y), math.Max(maxY, kp.Y)
		n++
	}
	if n < MinPersonKeypoints {
		return BoundingBox{}, false
	}
	return BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// IsNear reports whether the centers of a and b are closer than threshold.
func IsNear(a, b BoundingBox, threshold float64) bool {
	ax, ay := a.Center()
	bx, by := b.Center()
	return Distance(ax, ay, bx, by) < threshold
}

// IsSuspiciousObject reports whether the object's class is one commonly
// involved in theft or assault.
func IsSuspiciousObject(obj DetectedObject) bool {
	_, ok := suspiciousObjects[strings.ToLower(obj.Class)]
	return ok
}
