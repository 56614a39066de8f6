// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

// Package eventbus connects the activity engine to a Watermill message bus.
//
// Two backends are supported:
//   - gochannel: in-process pub/sub, the default for single-node deployments
//   - nats: core NATS through watermill-nats (JetStream disabled), either
//     against an external server or an EmbeddedServer started by the bus
//
// Outbound, Publisher is an activity sink that publishes logged detections and
// alert changes as models.Event JSON. Inbound, FrameConsumer subscribes to the
// frames topic and feeds decoded models.FrameRequest payloads to the engine
// through a Watermill router with panic recovery and retry middleware.
package eventbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/watchpost/internal/logging"
)

// Backend names.
const (
	BackendGoChannel = "gochannel"
	BackendNATS      = "nats"
)

// Topics names the subjects used by the bus.
type Topics struct {
	Frames     string
	Detections string
	Alerts     string
}

// DefaultTopics returns the default topic names.
func DefaultTopics() Topics {
	return Topics{
		Frames:     "activity.frames",
		Detections: "activity.detections",
		Alerts:     "activity.alerts",
	}
}

// Config configures the bus.
type Config struct {
	Backend string
	Topics  Topics

	// NATS settings, used when Backend is "nats".
	NATSURL       string
	QueueGroup    string
	MaxReconnects int
	ReconnectWait time.Duration

	// Embedded starts an in-process NATS server and ignores NATSURL.
	Embedded       bool
	EmbeddedServer ServerConfig

	// OutputBuffer is the gochannel subscriber buffer.
	OutputBuffer int64

	CloseTimeout time.Duration
}

// Bus owns a Watermill publisher and subscriber pair.
type Bus struct {
	backend string
	topics  Topics
	pub     message.Publisher
	sub     message.Subscriber
	logger  watermill.LoggerAdapter
	url     string
	server  *EmbeddedServer

	closeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// New creates a bus for the configured backend.
func New(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 10 * time.Second
	}

	switch cfg.Backend {
	case "", BackendGoChannel:
		ps := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.OutputBuffer,
		}, logger)
		return NewWithPubSub(BackendGoChannel, cfg.Topics, ps, ps, logger), nil
	case BackendNATS:
		return newNATSBus(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown event bus backend %q", cfg.Backend)
	}
}

// NewWithPubSub wraps an existing publisher and subscriber.
func NewWithPubSub(backend string, topics Topics, pub message.Publisher, sub message.Subscriber, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = logging.NewWatermillLogger()
	}
	return &Bus{
		backend:      backend,
		topics:       topics,
		pub:          pub,
		sub:          sub,
		logger:       logger,
		closeTimeout: 10 * time.Second,
	}
}

func natsOptions(cfg Config, logger watermill.LoggerAdapter, role string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("watchpost-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"role": role,
				"url":  nc.ConnectedUrl(),
			})
		}),
	}
}

func newNATSBus(cfg Config, logger watermill.LoggerAdapter) (_ *Bus, err error) {
	var srv *EmbeddedServer
	if cfg.Embedded {
		srv, err = NewEmbeddedServer(cfg.EmbeddedServer)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err != nil {
				srv.Shutdown()
			}
		}()
		cfg.NATSURL = srv.ClientURL()
		logging.Info().Str("url", cfg.NATSURL).Msg("Embedded NATS server started")
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOptions(cfg, logger, "publisher"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOptions(cfg, logger, "subscriber"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}

	b := NewWithPubSub(BackendNATS, cfg.Topics, pub, sub, logger)
	b.closeTimeout = cfg.CloseTimeout
	b.url = cfg.NATSURL
	b.server = srv
	return b, nil
}

// Backend returns the backend name.
func (b *Bus) Backend() string { return b.backend }

// Topics returns the configured topic names.
func (b *Bus) Topics() Topics { return b.topics }

// Publisher returns the underlying Watermill publisher.
func (b *Bus) Publisher() message.Publisher { return b.pub }

// Subscriber returns the underlying Watermill subscriber.
func (b *Bus) Subscriber() message.Subscriber { return b.sub }

// URL returns the NATS URL in use, or "" for the gochannel backend.
func (b *Bus) URL() string { return b.url }

// Close closes the publisher and subscriber once, then the embedded server.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		done := make(chan error, 1)
		go func() {
			var errs []error
			if err := b.pub.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher: %w", err))
			}
			// gochannel uses one object for both sides.
			if any(b.sub) != any(b.pub) {
				if err := b.sub.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close subscriber: %w", err))
				}
			}
			done <- errors.Join(errs...)
		}()
		select {
		case b.closeErr = <-done:
		case <-time.After(b.closeTimeout):
			b.closeErr = fmt.Errorf("event bus close timeout after %v", b.closeTimeout)
		}
		if b.server != nil {
			b.server.Shutdown()
		}
		if b.closeErr == nil {
			logging.Info().Str("backend", b.backend).Msg("Event bus closed")
		}
	})
	return b.closeErr
}
