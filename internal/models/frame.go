// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package models

import (
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
)

// FrameRequest is one video frame submitted over HTTP or the event bus.
//
// Either Poses or the single-pose shorthand Keypoints may be used. Only the
// first pose is classified.
//
//	{
//	  "timestamp": "2026-03-01T12:00:00.033Z",
//	  "keypoints": [{"name": "nose", "x": 100, "y": 50, "score": 0.9}, ...],
//	  "objects": [{"class": "knife", "score": 0.8, "bbox": {"x": 90, "y": 110, "width": 20, "height": 20}}]
//	}
type FrameRequest struct {
	Timestamp *time.Time          `json:"timestamp,omitempty"`
	Poses     [][]KeypointRequest `json:"poses,omitempty" validate:"max=16,dive,max=32,dive"`
	Keypoints []KeypointRequest   `json:"keypoints,omitempty" validate:"max=32,dive"`
	Objects   []ObjectRequest     `json:"objects,omitempty" validate:"max=100,dive"`
}

// KeypointRequest is a single named landmark.
type KeypointRequest struct {
	Name  string  `json:"name" validate:"required,joint"`
	X     float64 `json:"x" validate:"finite"`
	Y     float64 `json:"y" validate:"finite"`
	Score float64 `json:"score" validate:"gte=0,lte=1"`
}

// ObjectRequest is one object-detector output.
type ObjectRequest struct {
	Class string             `json:"class" validate:"required,max=64"`
	Score float64            `json:"score" validate:"gte=0,lte=1"`
	BBox  BoundingBoxRequest `json:"bbox"`
}

// BoundingBoxRequest is an axis-aligned box in pixels.
type BoundingBoxRequest struct {
	X      float64 `json:"x" validate:"finite"`
	Y      float64 `json:"y" validate:"finite"`
	Width  float64 `json:"width" validate:"gte=0,finite"`
	Height float64 `json:"height" validate:"gte=0,finite"`
}

// ToFrame converts the request to an engine frame. A missing timestamp is
// left zero so the engine uses its own clock.
func (r FrameRequest) ToFrame() activity.Frame {
	f := activity.Frame{}
	if r.Timestamp != nil {
		f.Timestamp = *r.Timestamp
	}

	poses := r.Poses
	if len(r.Keypoints) > 0 {
		poses = append([][]KeypointRequest{r.Keypoints}, poses...)
	}
	for _, kps := range poses {
		named := make([]activity.NamedKeypoint, len(kps))
		for i, kp := range kps {
			named[i] = activity.NamedKeypoint{Name: kp.Name, X: kp.X, Y: kp.Y, Score: kp.Score}
		}
		f.Poses = append(f.Poses, activity.NewPose(named))
	}

	if len(r.Objects) > 0 {
		f.Objects = make([]activity.DetectedObject, len(r.Objects))
		for i, o := range r.Objects {
			f.Objects[i] = activity.DetectedObject{
				Class: o.Class,
				Score: o.Score,
				BBox: activity.BoundingBox{
					X:      o.BBox.X,
					Y:      o.BBox.Y,
					Width:  o.BBox.Width,
					Height: o.BBox.Height,
				},
			}
		}
	}
	return f
}

// PoseCount returns how many poses the request carries.
// ExceedsObjectLimit reports whether the frame carries more than limit
// objects. A non-positive limit disables the check.
func (r FrameRequest) ExceedsObjectLimit(limit int) bool {
	return limit > 0 && len(r.Objects) > limit
}

func (r FrameRequest) PoseCount() int {
	n := len(r.Poses)
	if len(r.Keypoints) > 0 {
		n++
	}
	return n
}
