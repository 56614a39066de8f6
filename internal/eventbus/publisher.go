// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/metrics"
	"github.com/tomtom215/watchpost/internal/models"
)

// Metadata keys set on published messages.
const (
	MetadataEventType = "event_type"
	MetadataSeverity  = "severity"
)

// ErrCircuitOpen is returned when publishing is suspended by the circuit breaker.
var ErrCircuitOpen = errors.New("event bus circuit breaker is open")

// Publisher publishes engine output to the bus. It implements
// activity.DetectionSink and activity.AlertSink.
type Publisher struct {
	bus     *Bus
	breaker *gobreaker.CircuitBreaker[struct{}]
	now     func() time.Time
}

// NewPublisher creates a publisher on the bus.
func NewPublisher(bus *Bus) *Publisher {
	return &Publisher{
		bus:     bus,
		breaker: newPublishBreaker("eventbus." + bus.Backend()),
		now:     time.Now,
	}
}

func newPublishBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Event bus circuit breaker state changed")
		},
	})
}

// Name implements activity.DetectionSink.
func (p *Publisher) Name() string { return "eventbus" }

// HandleDetection publishes a logged detection.
func (p *Publisher) HandleDetection(ctx context.Context, d activity.Detection) error {
	msg, err := p.newEventMessage(ctx, models.EventDetection, d)
	if err != nil {
		return err
	}
	msg.Metadata.Set(MetadataSeverity, d.Severity.String())
	return p.publish(ctx, p.bus.topics.Detections, msg)
}

// HandleAlert publishes an alert state change.
func (p *Publisher) HandleAlert(ctx context.Context, a activity.AlertState) error {
	msg, err := p.newEventMessage(ctx, models.EventAlertState, a)
	if err != nil {
		return err
	}
	msg.Metadata.Set(MetadataSeverity, a.Level.String())
	return p.publish(ctx, p.bus.topics.Alerts, msg)
}

// PublishFrame publishes a frame to the frames topic. Producers outside this
// process publish the same JSON.
func (p *Publisher) PublishFrame(ctx context.Context, req models.FrameRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	return p.publish(ctx, p.bus.topics.Frames, msg)
}

func (p *Publisher) newEventMessage(ctx context.Context, eventType string, data interface{}) (*message.Message, error) {
	payload, err := json.Marshal(models.Event{
		Type:      eventType,
		Timestamp: p.now().UTC(),
		Data:      data,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataEventType, eventType)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	return msg, nil
}

func (p *Publisher) publish(ctx context.Context, topic string, msg *message.Message) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.bus.pub.Publish(topic, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}
	metrics.RecordEventBusPublish(topic, err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
