// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/metrics"
	"github.com/tomtom215/watchpost/internal/models"
	"github.com/tomtom215/watchpost/internal/validation"
)

// FrameProcessor is the engine surface the consumer needs.
type FrameProcessor interface {
	ProcessFrame(ctx context.Context, f activity.Frame) (activity.FrameResult, error)
}

// ConsumerConfig configures the frame consumer router.
type ConsumerConfig struct {
	CloseTimeout         time.Duration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration

	// MaxObjects rejects frames with more detected objects. Zero disables
	// the limit.
	MaxObjects int
}

// DefaultConsumerConfig returns production defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 50 * time.Millisecond,
		RetryMaxInterval:     time.Second,
	}
}

// FrameConsumer feeds frames from the bus into the engine.
type FrameConsumer struct {
	bus    *Bus
	engine FrameProcessor
	cfg    ConsumerConfig

	running     chan struct{}
	runningOnce sync.Once
}

// NewFrameConsumer creates a consumer for the bus frames topic.
func NewFrameConsumer(bus *Bus, engine FrameProcessor, cfg ConsumerConfig) *FrameConsumer {
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = DefaultConsumerConfig().CloseTimeout
	}
	return &FrameConsumer{
		bus:     bus,
		engine:  engine,
		cfg:     cfg,
		running: make(chan struct{}),
	}
}

// Running is closed once the first router is subscribed and processing.
func (c *FrameConsumer) Running() <-chan struct{} {
	return c.running
}

// String implements fmt.Stringer for suture logging.
func (c *FrameConsumer) String() string { return "frame-consumer" }

// Serve runs a router until ctx is cancelled. A new router is built on every
// call so the supervisor can restart the consumer after a failure.
func (c *FrameConsumer) Serve(ctx context.Context) error {
	router, err := c.newRouter()
	if err != nil {
		return err
	}

	go func() {
		select {
		case <-router.Running():
			c.runningOnce.Do(func() { close(c.running) })
		case <-ctx.Done():
		}
	}()

	logging.Info().
		Str("backend", c.bus.Backend()).
		Str("topic", c.bus.topics.Frames).
		Msg("Frame consumer starting")

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("frame consumer router: %w", err)
	}
	return ctx.Err()
}

func (c *FrameConsumer) newRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: c.cfg.CloseTimeout,
	}, c.bus.logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	if c.cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      c.cfg.RetryMaxRetries,
			InitialInterval: c.cfg.RetryInitialInterval,
			MaxInterval:     c.cfg.RetryMaxInterval,
			Multiplier:      2.0,
			Logger:          c.bus.logger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	router.AddConsumerHandler(
		"activity_frames",
		c.bus.topics.Frames,
		c.bus.sub,
		c.handle,
	)
	return router, nil
}

// handle decodes and classifies one frame. Malformed and rejected frames are
// acked so they are not redelivered; only engine failures are retried.
func (c *FrameConsumer) handle(msg *message.Message) error {
	topic := c.bus.topics.Frames
	ctx := msg.Context()
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	}
	log := logging.Ctx(ctx)

	var req models.FrameRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		metrics.RecordEventBusConsume(topic, err)
		log.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable frame")
		return nil
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordEventBusConsume(topic, verr)
		log.Warn().Str("message_uuid", msg.UUID).Str("reason", verr.Error()).Msg("Dropping invalid frame")
		return nil
	}
	if req.ExceedsObjectLimit(c.cfg.MaxObjects) {
		err := fmt.Errorf("frame has %d objects, limit is %d", len(req.Objects), c.cfg.MaxObjects)
		metrics.RecordEventBusConsume(topic, err)
		log.Warn().Str("message_uuid", msg.UUID).Str("reason", err.Error()).Msg("Dropping invalid frame")
		return nil
	}

	_, err := c.engine.ProcessFrame(ctx, req.ToFrame())
	switch {
	case err == nil:
		metrics.RecordEventBusConsume(topic, nil)
		return nil
	case errors.Is(err, activity.ErrNotDetecting):
		// Frames arriving outside a session are expected.
		metrics.RecordEventBusConsume(topic, nil)
		return nil
	default:
		metrics.RecordEventBusConsume(topic, err)
		return err
	}
}
