// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/models"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
		Persistent:          true,
	}, watermill.NopLogger{})
	b := NewWithPubSub(BackendGoChannel, DefaultTopics(), ps, ps, watermill.NopLogger{})
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

type eventEnvelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func TestNew_Backends(t *testing.T) {
	t.Parallel()

	b, err := New(Config{Backend: BackendGoChannel, Topics: DefaultTopics()}, nil)
	if err != nil {
		t.Fatalf("New(gochannel): %v", err)
	}
	if b.Backend() != BackendGoChannel {
		t.Errorf("Backend() = %q", b.Backend())
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if _, err := New(Config{Backend: "kafka"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestPublisher_HandleDetection(t *testing.T) {
	t.Parallel()
	b := newTestBus(t)
	msgs, err := b.Subscriber().Subscribe(context.Background(), b.Topics().Detections)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	p := NewPublisher(b)
	det := activity.Detection{
		ID:         "det-1",
		Type:       "Fighting",
		Activity:   activity.ActivityFighting,
		Confidence: 0.9,
		Severity:   activity.SeverityHigh,
	}
	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-123")
	if err := p.HandleDetection(ctx, det); err != nil {
		t.Fatalf("HandleDetection: %v", err)
	}

	msg := receive(t, msgs)
	if got := msg.Metadata.Get(MetadataEventType); got != models.EventDetection {
		t.Errorf("event_type = %q, want %q", got, models.EventDetection)
	}
	if got := msg.Metadata.Get(MetadataSeverity); got != "high" {
		t.Errorf("severity = %q, want high", got)
	}
	if got := middleware.MessageCorrelationID(msg); got != "corr-123" {
		t.Errorf("correlation id = %q, want corr-123", got)
	}

	var env eventEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var got activity.Detection
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if got.ID != "det-1" || got.Severity != activity.SeverityHigh {
		t.Errorf("detection = %+v", got)
	}
}

func TestPublisher_HandleAlert(t *testing.T) {
	t.Parallel()
	b := newTestBus(t)
	msgs, err := b.Subscriber().Subscribe(context.Background(), b.Topics().Alerts)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	p := NewPublisher(b)
	if err := p.HandleAlert(context.Background(), activity.AlertState{Active: true, Level: activity.SeverityMedium}); err != nil {
		t.Fatalf("HandleAlert: %v", err)
	}

	msg := receive(t, msgs)
	var env eventEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != models.EventAlertState {
		t.Errorf("Type = %q, want %q", env.Type, models.EventAlertState)
	}
	var alert activity.AlertState
	if err := json.Unmarshal(env.Data, &alert); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if !alert.Active || alert.Level != activity.SeverityMedium {
		t.Errorf("alert = %+v", alert)
	}
}

func TestPublisher_CircuitOpensOnFailures(t *testing.T) {
	t.Parallel()
	ps := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	b := NewWithPubSub(BackendGoChannel, DefaultTopics(), ps, ps, watermill.NopLogger{})
	if err := ps.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	p := NewPublisher(b)
	det := activity.Detection{ID: "x", Severity: activity.SeverityLow}
	for i := 0; i < 5; i++ {
		err := p.HandleDetection(context.Background(), det)
		if err == nil {
			t.Fatalf("attempt %d: expected publish error on closed pubsub", i)
		}
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("attempt %d: breaker opened too early", i)
		}
	}
	if err := p.HandleDetection(context.Background(), det); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
}

type fakeProcessor struct {
	mu     sync.Mutex
	frames []activity.Frame
	err    error
}

func (f *fakeProcessor) ProcessFrame(ctx context.Context, fr activity.Frame) (activity.FrameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return activity.FrameResult{}, f.err
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func frameMessage(t *testing.T, req models.FrameRequest) *message.Message {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func sampleFrame() models.FrameRequest {
	return models.FrameRequest{
		Keypoints: []models.KeypointRequest{
			{Name: "nose", X: 100, Y: 50, Score: 0.9},
			{Name: "left_wrist", X: 80, Y: 120, Score: 0.8},
		},
		Objects: []models.ObjectRequest{{Class: "oven", Score: 0.99}},
	}
}

const testMaxObjects = 4

func TestFrameConsumer_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		msg       func(t *testing.T) *message.Message
		procErr   error
		wantErr   bool
		wantCalls int
	}{
		{"valid frame", func(t *testing.T) *message.Message { return frameMessage(t, sampleFrame()) }, nil, false, 1},
		{"malformed json", func(t *testing.T) *message.Message {
			return message.NewMessage(watermill.NewUUID(), []byte("{not json"))
		}, nil, false, 0},
		{"invalid frame", func(t *testing.T) *message.Message {
			req := sampleFrame()
			req.Keypoints[0].Score = 3
			return frameMessage(t, req)
		}, nil, false, 0},
		{"engine idle", func(t *testing.T) *message.Message { return frameMessage(t, sampleFrame()) }, activity.ErrNotDetecting, false, 1},
		{"engine failure retried", func(t *testing.T) *message.Message { return frameMessage(t, sampleFrame()) }, errors.New("boom"), true, 1},
		{"too many objects", func(t *testing.T) *message.Message {
			req := sampleFrame()
			for len(req.Objects) <= testMaxObjects {
				req.Objects = append(req.Objects, models.ObjectRequest{Class: "cup", Score: 0.5})
			}
			return frameMessage(t, req)
		}, nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			proc := &fakeProcessor{err: tt.procErr}
			cfg := DefaultConsumerConfig()
			cfg.MaxObjects = testMaxObjects
			c := NewFrameConsumer(newTestBus(t), proc, cfg)
			err := c.handle(tt.msg(t))
			if (err != nil) != tt.wantErr {
				t.Errorf("handle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if proc.count() != tt.wantCalls {
				t.Errorf("ProcessFrame calls = %d, want %d", proc.count(), tt.wantCalls)
			}
		})
	}
}

func TestFrameConsumer_ServeEndToEnd(t *testing.T) {
	t.Parallel()
	b := newTestBus(t)
	engine := activity.New()
	if err := engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c := NewFrameConsumer(b, engine, DefaultConsumerConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	select {
	case <-c.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not start")
	}

	p := NewPublisher(b)
	for i := 0; i < 3; i++ {
		if err := p.PublishFrame(context.Background(), sampleFrame()); err != nil {
			t.Fatalf("PublishFrame: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for engine.Snapshot().FramesProcessed < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	snap := engine.Snapshot()
	if snap.FramesProcessed != 3 {
		t.Fatalf("FramesProcessed = %d, want 3", snap.FramesProcessed)
	}
	if snap.LastAnalysis == nil || snap.LastAnalysis.Type != activity.ActivityFire {
		t.Errorf("LastAnalysis = %+v, want fire", snap.LastAnalysis)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}
