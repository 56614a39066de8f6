// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/api"
	"github.com/tomtom215/watchpost/internal/config"
	"github.com/tomtom215/watchpost/internal/eventbus"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/notify"
	"github.com/tomtom215/watchpost/internal/store"
	"github.com/tomtom215/watchpost/internal/supervisor"
	"github.com/tomtom215/watchpost/internal/supervisor/services"
	ws "github.com/tomtom215/watchpost/internal/websocket"
)

// app holds every wired component.
type app struct {
	cfg        *config.Config
	engine     *activity.Engine
	archive    *store.DetectionStore
	dispatcher *notify.Dispatcher
	hub        *ws.Hub
	bus        *eventbus.Bus
	consumer   *eventbus.FrameConsumer
	router     http.Handler
}

// buildApp constructs the components in dependency order. On error every
// component opened so far is closed.
func buildApp(cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.engine = activity.New(
		activity.WithThresholds(cfg.Engine.Thresholds),
		activity.WithUpdateInterval(cfg.Engine.UpdateInterval),
		activity.WithLogCapacity(cfg.Engine.LogCapacity),
	)

	handler := api.NewHandler(a.engine, cfg.Security.CORSOrigins)
	handler.SetVersion(version)
	handler.SetMaxObjects(cfg.Engine.MaxObjectsPerFrame)

	if cfg.Store.Enabled {
		a.archive, err = store.Open(store.Config{
			Path:      cfg.Store.Path,
			InMemory:  cfg.Store.InMemory,
			Retention: cfg.Store.Retention,
		})
		if err != nil {
			return nil, fmt.Errorf("open detection store: %w", err)
		}
		a.engine.AddSink(a.archive)
		handler.SetArchive(a.archive)
	}

	notifiers, err := buildNotifiers(cfg.Notifications)
	if err != nil {
		return nil, err
	}
	if len(notifiers) > 0 {
		a.dispatcher = notify.NewDispatcher(dispatcherConfig(cfg.Notifications), notifiers...)
		a.engine.AddSink(a.dispatcher)
		handler.SetNotifiers(a.dispatcher.Notifiers())
	}

	a.hub = ws.NewHub()
	a.hub.SetSnapshotSource(a.engine.Snapshot)
	a.engine.AddSink(a.hub)
	handler.SetHub(a.hub)

	if cfg.EventBus.Enabled {
		a.bus, err = eventbus.New(busConfig(cfg.EventBus), logging.NewWatermillLogger())
		if err != nil {
			return nil, fmt.Errorf("create event bus: %w", err)
		}
		a.engine.AddSink(eventbus.NewPublisher(a.bus))
		consumerCfg := eventbus.DefaultConsumerConfig()
		consumerCfg.MaxObjects = cfg.Engine.MaxObjectsPerFrame
		a.consumer = eventbus.NewFrameConsumer(a.bus, a.engine, consumerCfg)
		handler.SetEventBus(a.bus.Backend())
	}

	a.router = api.NewRouter(handler, api.NewChiMiddleware(middlewareConfig(cfg.Security))).SetupChi()
	return a, nil
}

// register adds the long-running components to the supervisor tree.
func (a *app) register(tree *supervisor.SupervisorTree) {
	if a.archive != nil {
		tree.AddDataService(a.archive)
	}
	if a.dispatcher != nil {
		tree.AddDataService(a.dispatcher)
	}
	tree.AddMessagingService(a.hub)
	if a.consumer != nil {
		tree.AddMessagingService(a.consumer)
	}
	if a.cfg.Engine.AutoStart {
		tree.AddDetectionService(services.NewSessionService(a.engine))
	}
}

// Close releases the event bus and archive.
func (a *app) Close() {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Close())
	}
	if a.archive != nil {
		errs = append(errs, a.archive.Close())
	}
	if err := errors.Join(errs...); err != nil {
		logging.Error().Err(err).Msg("error closing components")
	}
}

// buildNotifiers creates the enabled notifiers.
func buildNotifiers(cfg config.NotificationsConfig) ([]notify.Notifier, error) {
	var notifiers []notify.Notifier

	if cfg.Webhook.Enabled {
		n, err := notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Headers, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("webhook notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}

	if cfg.Discord.Enabled {
		n, err := notify.NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Discord.Username, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("discord notifier: %w", err)
		}
		notifiers = append(notifiers, n)
	}

	return notifiers, nil
}

func dispatcherConfig(cfg config.NotificationsConfig) notify.DispatcherConfig {
	dc := notify.DefaultDispatcherConfig()
	// Validate has already checked the name.
	if sev, err := activity.ParseSeverity(cfg.MinSeverity); err == nil {
		dc.MinSeverity = sev
	}
	dc.Cooldown = cfg.Cooldown
	if cfg.Timeout > 0 {
		dc.Timeout = cfg.Timeout
	}
	return dc
}

func busConfig(cfg config.EventBusConfig) eventbus.Config {
	topics := eventbus.Topics{
		Frames:     cfg.FramesTopic,
		Detections: cfg.DetectionsTopic,
		Alerts:     cfg.AlertsTopic,
	}
	server := eventbus.ServerConfig{Host: cfg.EmbeddedHost, Port: cfg.EmbeddedPort}
	return eventbus.Config{
		Backend:        cfg.Backend,
		Topics:         topics,
		NATSURL:        cfg.NATSURL,
		QueueGroup:     cfg.QueueGroup,
		MaxReconnects:  cfg.MaxReconnects,
		ReconnectWait:  cfg.ReconnectWait,
		Embedded:       cfg.Embedded,
		EmbeddedServer: server,
		OutputBuffer:   cfg.OutputBuffer,
		CloseTimeout:   cfg.CloseTimeout,
	}
}

func middlewareConfig(cfg config.SecurityConfig) *api.ChiMiddlewareConfig {
	mc := api.DefaultChiMiddlewareConfig()
	mc.CORSAllowedOrigins = cfg.CORSOrigins
	mc.RateLimitRequests = cfg.RateLimitReqs
	mc.RateLimitWindow = cfg.RateLimitWindow
	mc.RateLimitDisabled = cfg.RateLimitDisabled
	return mc
}
