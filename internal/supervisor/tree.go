// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for each service to stop.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's documented defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

// Layer names one tier of the tree. Layers start in declaration order and a
// failure in one is contained to it.
type Layer string

const (
	// LayerData holds the detection archive and notification delivery.
	LayerData Layer = "data"
	// LayerDetection holds the engine session.
	LayerDetection Layer = "detection"
	// LayerMessaging holds the websocket hub and event bus consumer.
	LayerMessaging Layer = "messaging"
	// LayerAPI holds the HTTP server.
	LayerAPI Layer = "api"
)

// layers is the start order. Frames can only arrive once the API or the
// consumer is up, so the session layer starts before them.
var layers = []Layer{LayerData, LayerDetection, LayerMessaging, LayerAPI}

// SupervisorTree supervises the Watchpost services in layers.
type SupervisorTree struct {
	root   *suture.Supervisor
	layers map[Layer]*suture.Supervisor
	counts map[Layer]int
	logger *slog.Logger
	config TreeConfig
}

// NewSupervisorTree creates a supervisor tree. Zero config fields take the
// DefaultTreeConfig values.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}

	spec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = handler.MustHook()

	t := &SupervisorTree{
		root:   suture.New("watchpost", rootSpec),
		layers: make(map[Layer]*suture.Supervisor, len(layers)),
		counts: make(map[Layer]int, len(layers)),
		logger: logger,
		config: config,
	}
	// Children inherit the root's EventHook when added.
	for _, l := range layers {
		sup := suture.New(string(l)+"-layer", spec)
		t.layers[l] = sup
		t.root.Add(sup)
	}
	return t, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// Add places a service in a layer. Unknown layers are rejected.
func (t *SupervisorTree) Add(layer Layer, svc suture.Service) (suture.ServiceToken, error) {
	sup, ok := t.layers[layer]
	if !ok {
		return suture.ServiceToken{}, fmt.Errorf("unknown supervisor layer %q", layer)
	}
	t.counts[layer]++
	t.logger.Debug("service added", "layer", string(layer), "service", fmt.Sprint(svc))
	return sup.Add(svc), nil
}

func (t *SupervisorTree) mustAdd(layer Layer, svc suture.Service) suture.ServiceToken {
	token, err := t.Add(layer, svc)
	if err != nil {
		panic(err)
	}
	return token
}

// AddDataService adds a service to the data layer (archive, notifications).
func (t *SupervisorTree) AddDataService(svc suture.Service) suture.ServiceToken {
	return t.mustAdd(LayerData, svc)
}

// AddDetectionService adds a service to the detection layer (engine session).
func (t *SupervisorTree) AddDetectionService(svc suture.Service) suture.ServiceToken {
	return t.mustAdd(LayerDetection, svc)
}

// AddMessagingService adds a service to the messaging layer (websocket hub,
// event bus consumer).
func (t *SupervisorTree) AddMessagingService(svc suture.Service) suture.ServiceToken {
	return t.mustAdd(LayerMessaging, svc)
}

// AddAPIService adds a service to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.mustAdd(LayerAPI, svc)
}

// ServiceCounts reports how many services each layer holds.
func (t *SupervisorTree) ServiceCounts() map[Layer]int {
	out := make(map[Layer]int, len(t.counts))
	for l, n := range t.counts {
		out[l] = n
	}
	return out
}

// Serve runs the tree until ctx is cancelled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives the
// result when the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
