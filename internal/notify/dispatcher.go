// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/metrics"
)

// Notification outcomes used as metric labels.
const (
	ResultSent      = "sent"
	ResultFailed    = "failed"
	ResultThrottled = "throttled"
	ResultFiltered  = "filtered"
	ResultDropped   = "dropped"
	ResultOpen      = "circuit_open"
)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// MinSeverity is the lowest severity delivered.
	MinSeverity activity.Severity

	// Cooldown is the minimum gap between two deliveries on the same notifier.
	// Zero disables throttling.
	Cooldown time.Duration

	// Timeout bounds a single delivery.
	Timeout time.Duration

	// QueueSize is the number of detections buffered for delivery.
	QueueSize int
}

// DefaultDispatcherConfig returns production defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MinSeverity: activity.SeverityMedium,
		Cooldown:    5 * time.Minute,
		Timeout:     10 * time.Second,
		QueueSize:   64,
	}
}

type route struct {
	notifier Notifier
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

// Dispatcher fans detections out to notifiers.
type Dispatcher struct {
	cfg    DispatcherConfig
	routes []*route
	queue  chan activity.Detection

	mu      sync.Mutex
	serving bool
}

// NewDispatcher creates a dispatcher for the given notifiers.
func NewDispatcher(cfg DispatcherConfig, notifiers ...Notifier) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	d := &Dispatcher{
		cfg:   cfg,
		queue: make(chan activity.Detection, cfg.QueueSize),
	}
	for _, n := range notifiers {
		if n == nil || !n.Enabled() {
			continue
		}
		d.routes = append(d.routes, &route{
			notifier: n,
			limiter:  newCooldownLimiter(cfg.Cooldown),
			breaker:  newBreaker(n.Name()),
		})
	}
	return d
}

func newCooldownLimiter(cooldown time.Duration) *rate.Limiter {
	if cooldown <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(cooldown), 1)
}

func newBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "notify." + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			// Permanent rejections (bad URL, 4xx) are configuration problems,
			// not an unavailable endpoint.
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Notification circuit breaker state changed")
		},
	})
}

// Name implements activity.DetectionSink.
func (d *Dispatcher) Name() string { return "notify" }

// Notifiers returns the configured notifier names.
func (d *Dispatcher) Notifiers() []string {
	names := make([]string, 0, len(d.routes))
	for _, r := range d.routes {
		names = append(names, r.notifier.Name())
	}
	return names
}

// HandleDetection queues a detection for delivery. It never blocks: when the
// queue is full the detection is dropped and counted.
func (d *Dispatcher) HandleDetection(ctx context.Context, det activity.Detection) error {
	if len(d.routes) == 0 {
		return nil
	}
	if det.Severity < d.cfg.MinSeverity {
		metrics.RecordNotification(d.Name(), ResultFiltered)
		return nil
	}
	select {
	case d.queue <- det:
		return nil
	default:
		metrics.RecordNotification(d.Name(), ResultDropped)
		logging.Ctx(ctx).Warn().Str("detection_id", det.ID).Msg("Notification queue full, dropping detection")
		return nil
	}
}

// Serve drains the queue until ctx is cancelled. It implements suture.Service.
func (d *Dispatcher) Serve(ctx context.Context) error {
	d.mu.Lock()
	d.serving = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.serving = false
		d.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case det := <-d.queue:
			_ = d.Deliver(ctx, det)
		}
	}
}

// Serving reports whether the delivery loop is running.
func (d *Dispatcher) Serving() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.serving
}

// String implements fmt.Stringer for suture logging.
func (d *Dispatcher) String() string { return "notify-dispatcher" }

// Deliver sends det to every notifier synchronously and returns the joined
// delivery errors. Throttled and circuit-open notifiers are skipped without error.
func (d *Dispatcher) Deliver(ctx context.Context, det activity.Detection) error {
	var errs []error
	for _, r := range d.routes {
		if err := d.deliverOne(ctx, r, det); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliverOne(ctx context.Context, r *route, det activity.Detection) error {
	name := r.notifier.Name()
	log := logging.Ctx(ctx).With().Str("notifier", name).Str("detection_id", det.ID).Logger()

	if !r.limiter.Allow() {
		metrics.RecordNotification(name, ResultThrottled)
		log.Debug().Msg("Notification throttled by cooldown")
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	_, err := r.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, r.notifier.Send(sendCtx, det)
	})
	switch {
	case err == nil:
		metrics.RecordNotification(name, ResultSent)
		log.Info().Str("type", det.Type).Str("severity", det.Severity.String()).Msg("Notification sent")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordNotification(name, ResultOpen)
		log.Debug().Msg("Notification skipped, circuit open")
		return nil
	default:
		metrics.RecordNotification(name, ResultFailed)
		log.Error().Err(err).Msg("Notification failed")
		return err
	}
}
