// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import "context"

// DetectionSink receives every logged Detection. Sinks are called
// synchronously after the frame's state update, outside the engine lock and
// one frame at a time in state-update order, so they must not block for long;
// slow delivery belongs in the sink's own goroutine.
type DetectionSink interface {
	Name() string
	HandleDetection(ctx context.Context, d Detection) error
}

// AlertSink is implemented by sinks that also want AlertState changes. It is
// called only when the latch differs from the previous frame.
type AlertSink interface {
	HandleAlert(ctx context.Context, a AlertState) error
}

// AnalysisSink is implemented by sinks that want every per-frame analysis,
// such as live overlays.
type AnalysisSink interface {
	HandleAnalysis(ctx context.Context, a ActivityAnalysis) error
}

// SessionSink is implemented by sinks that follow session lifecycle changes.
type SessionSink interface {
	HandleSession(ctx context.Context, s Snapshot) error
}
