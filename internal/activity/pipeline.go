// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import "time"

// Pipeline is the synchronous per-frame path: classification followed by
// aggregation. It is not safe for concurrent use; Engine adds locking and the
// session lifecycle on top of it.
type Pipeline struct {
	classifier *Classifier
	aggregator *Aggregator
}

// NewPipeline creates a pipeline from its parts.
func NewPipeline(c *Classifier, a *Aggregator) *Pipeline {
	return &Pipeline{classifier: c, aggregator: a}
}

// Step classifies one frame and feeds the result to the aggregator. The
// returned Detection is non-nil only when a new log entry was created.
func (p *Pipeline) Step(pose Pose, objects []DetectedObject, now time.Time) (ActivityAnalysis, *Detection, AlertState) {
	analysis := p.classifier.Classify(pose, objects, now)
	det, alert := p.aggregator.Observe(analysis, now)
	return analysis, det, alert
}

// ResetSession clears per-session state and keeps Stats.
func (p *Pipeline) ResetSession() {
	p.classifier.Reset()
	p.aggregator.ResetSession()
}

// ResetAll clears all state including Stats.
func (p *Pipeline) ResetAll() {
	p.classifier.Reset()
	p.aggregator.ResetAll()
}
