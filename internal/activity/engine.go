// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/metrics"
)

var (
	// ErrNotDetecting is returned when frames arrive or Stop is called while idle.
	ErrNotDetecting = errors.New("activity: engine is not detecting")

	// ErrAlreadyDetecting is returned by Start while a session is running.
	ErrAlreadyDetecting = errors.New("activity: engine is already detecting")
)

// State is the session state of an Engine.
type State string

const (
	StateIdle      State = "idle"
	StateDetecting State = "detecting"
)

// Frame is one unit of input: the poses and objects detected in a video frame.
type Frame struct {
	// Timestamp is when the frame was captured. Zero means "now".
	Timestamp time.Time
	// Poses lists estimated poses; only the first is classified.
	Poses   []Pose
	Objects []DetectedObject
}

// FrameResult is what ProcessFrame reports for one frame.
type FrameResult struct {
	Analysis  ActivityAnalysis `json:"analysis"`
	Detection *Detection       `json:"detection,omitempty"`
	Alert     AlertState       `json:"alert"`
	// Skipped is set when the frame carried no pose and state was left untouched.
	Skipped bool `json:"skipped"`
}

// Snapshot is a consistent copy of the engine's observable state.
type Snapshot struct {
	State            State             `json:"state"`
	Stats            Stats             `json:"stats"`
	Alert            AlertState        `json:"alert"`
	Detections       []Detection       `json:"detections"`
	LastAnalysis     *ActivityAnalysis `json:"last_analysis,omitempty"`
	FramesProcessed  uint64            `json:"frames_processed"`
	SessionStartedAt *time.Time        `json:"session_started_at,omitempty"`
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	thresholds Thresholds
	interval   time.Duration
	capacity   int
	sinks      []DetectionSink
	clock      func() time.Time
}

// WithThresholds overrides the detector thresholds.
func WithThresholds(t Thresholds) Option {
	return func(o *engineOptions) { o.thresholds = t }
}

// WithUpdateInterval sets the detection log throttle interval.
func WithUpdateInterval(d time.Duration) Option {
	return func(o *engineOptions) { o.interval = d }
}

// WithLogCapacity sets how many detections the log keeps.
func WithLogCapacity(n int) Option {
	return func(o *engineOptions) { o.capacity = n }
}

// WithSinks registers detection sinks.
func WithSinks(sinks ...DetectionSink) Option {
	return func(o *engineOptions) { o.sinks = append(o.sinks, sinks...) }
}

// WithClock replaces time.Now for frames without a timestamp.
func WithClock(clock func() time.Time) Option {
	return func(o *engineOptions) { o.clock = clock }
}

// Engine is a caller-owned activity classification session. It serializes
// frame submissions and lifecycle calls with a single mutex.
type Engine struct {
	mu       sync.Mutex
	state    State
	pipeline *Pipeline
	agg      *Aggregator

	last      *ActivityAnalysis
	lastAlert AlertState
	frames    uint64
	startedAt time.Time

	sinksMu sync.RWMutex
	sinks   []DetectionSink
	order   *deliveryOrder
	now     func() time.Time
}

// New creates an idle engine.
func New(opts ...Option) *Engine {
	o := engineOptions{
		thresholds: DefaultThresholds(),
		interval:   DefaultUpdateInterval,
		capacity:   DefaultLogCapacity,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	agg := NewAggregator(o.interval, o.capacity)
	return &Engine{
		state:    StateIdle,
		pipeline: NewPipeline(NewClassifier(o.thresholds), agg),
		agg:      agg,
		sinks:    o.sinks,
		order:    newDeliveryOrder(),
		now:      o.clock,
	}
}

// AddSink registers a sink after construction.
func (e *Engine) AddSink(s DetectionSink) {
	e.sinksMu.Lock()
	defer e.sinksMu.Unlock()
	e.sinks = append(e.sinks, s)
	logging.Info().Str("sink", s.Name()).Msg("registered detection sink")
}

// Start begins a detection session with fresh per-session state.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateDetecting {
		e.mu.Unlock()
		return ErrAlreadyDetecting
	}
	e.resetSessionLocked()
	e.state = StateDetecting
	e.startedAt = e.now()
	snap := e.snapshotLocked()
	turn := e.order.ticket()
	e.mu.Unlock()

	metrics.RecordSessionState(true)
	metrics.RecordAlert(false, int(SeverityNone))
	logging.Ctx(ctx).Info().Msg("detection session started")
	e.order.run(turn, func() { e.publishSession(ctx, snap) })
	return nil
}

// Stop ends the session. Per-session state is cleared; Stats are kept.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateDetecting {
		e.mu.Unlock()
		return ErrNotDetecting
	}
	e.resetSessionLocked()
	e.state = StateIdle
	e.startedAt = time.Time{}
	snap := e.snapshotLocked()
	turn := e.order.ticket()
	e.mu.Unlock()

	metrics.RecordSessionState(false)
	metrics.RecordAlert(false, int(SeverityNone))
	logging.Ctx(ctx).Info().
		Uint64("fighting", snap.Stats.Fighting).
		Uint64("theft", snap.Stats.Theft).
		Uint64("fire", snap.Stats.Fire).
		Uint64("suspicious", snap.Stats.Suspicious).
		Msg("detection session stopped")
	e.order.run(turn, func() { e.publishSession(ctx, snap) })
	return nil
}

// Reset clears all state including Stats. The session state is unchanged.
func (e *Engine) Reset(ctx context.Context) {
	e.mu.Lock()
	e.pipeline.ResetAll()
	e.last = nil
	e.lastAlert = AlertState{}
	e.frames = 0
	snap := e.snapshotLocked()
	turn := e.order.ticket()
	e.mu.Unlock()

	metrics.RecordAlert(false, int(SeverityNone))
	logging.Ctx(ctx).Info().Msg("detection state reset")
	e.order.run(turn, func() { e.publishSession(ctx, snap) })
}

func (e *Engine) resetSessionLocked() {
	e.pipeline.ResetSession()
	e.last = nil
	e.lastAlert = AlertState{}
}

// ProcessFrame classifies one frame. It returns ErrNotDetecting while idle.
// A frame without any pose is skipped and leaves all state untouched.
func (e *Engine) ProcessFrame(ctx context.Context, f Frame) (FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return FrameResult{}, fmt.Errorf("process frame: %w", err)
	}

	e.mu.Lock()
	if e.state != StateDetecting {
		e.mu.Unlock()
		metrics.RecordFrameSkipped("not_detecting")
		return FrameResult{}, ErrNotDetecting
	}
	if len(f.Poses) == 0 || f.Poses[0].Empty() {
		e.mu.Unlock()
		metrics.RecordFrameSkipped("no_pose")
		return FrameResult{Alert: e.Alert(), Skipped: true}, nil
	}

	now := f.Timestamp
	if now.IsZero() {
		now = e.now()
	}

	start := time.Now()
	analysis, det, alert := e.pipeline.Step(f.Poses[0], f.Objects, now)
	elapsed := time.Since(start)

	e.frames++
	e.last = &analysis
	alertChanged := alert != e.lastAlert
	e.lastAlert = alert
	turn := e.order.ticket()
	e.mu.Unlock()

	metrics.RecordFrame(string(analysis.Type), elapsed)
	if alertChanged {
		metrics.RecordAlert(alert.Active, int(alert.Level))
	}
	if det != nil {
		metrics.RecordDetection(string(det.Activity), det.Severity.String())
		logging.Ctx(ctx).Info().
			Str("activity", string(det.Activity)).
			Str("severity", det.Severity.String()).
			Float64("confidence", det.Confidence).
			Str("details", det.Details).
			Msg("detection logged")
	}

	e.order.run(turn, func() { e.deliver(ctx, analysis, det, alert, alertChanged) })

	return FrameResult{Analysis: analysis, Detection: det, Alert: alert}, nil
}

// deliver fans the frame outcome out to sinks in frame order. Sink errors are
// logged and counted but never fail the frame.
func (e *Engine) deliver(ctx context.Context, analysis ActivityAnalysis, det *Detection, alert AlertState, alertChanged bool) {
	e.sinksMu.RLock()
	sinks := make([]DetectionSink, len(e.sinks))
	copy(sinks, e.sinks)
	e.sinksMu.RUnlock()

	for _, s := range sinks {
		if as, ok := s.(AnalysisSink); ok {
			e.report(ctx, s, as.HandleAnalysis(ctx, analysis))
		}
		if alertChanged {
			if as, ok := s.(AlertSink); ok {
				e.report(ctx, s, as.HandleAlert(ctx, alert))
			}
		}
		if det != nil {
			e.report(ctx, s, s.HandleDetection(ctx, *det))
		}
	}
}

func (e *Engine) publishSession(ctx context.Context, snap Snapshot) {
	e.sinksMu.RLock()
	defer e.sinksMu.RUnlock()
	for _, s := range e.sinks {
		if ss, ok := s.(SessionSink); ok {
			e.report(ctx, s, ss.HandleSession(ctx, snap))
		}
	}
}

func (e *Engine) report(ctx context.Context, s DetectionSink, err error) {
	metrics.RecordSinkDelivery(s.Name(), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("sink", s.Name()).Msg("sink delivery failed")
	}
}

// State returns the session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stats returns the detection counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agg.Stats()
}

// Detections returns the detection log, newest first.
func (e *Engine) Detections() []Detection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agg.Log()
}

// Alert returns the live alert state.
func (e *Engine) Alert() AlertState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agg.Alert()
}

// Snapshot returns a consistent copy of the observable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		State:           e.state,
		Stats:           e.agg.Stats(),
		Alert:           e.agg.Alert(),
		Detections:      e.agg.Log(),
		FramesProcessed: e.frames,
	}
	if e.last != nil {
		a := *e.last
		s.LastAnalysis = &a
	}
	if !e.startedAt.IsZero() {
		t := e.startedAt
		s.SessionStartedAt = &t
	}
	return s
}
