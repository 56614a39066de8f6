// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

// Package main is the entry point for the Watchpost server.
//
// Watchpost classifies the pose and object detections of a security camera
// feed into normal, fighting, theft, fire and suspicious activity, keeps a
// throttled detection log, and pushes detections to dashboards, webhooks,
// Discord, a Badger archive and an optional NATS event bus.
//
// # Startup order
//
//  1. Configuration: koanf v2 (defaults, config.yaml, environment)
//  2. Logging: zerolog
//  3. Detection archive: Badger (STORE_ENABLED)
//  4. Notifications: webhook and Discord behind a cooldown dispatcher
//  5. WebSocket hub
//  6. Event bus: gochannel or NATS (EVENTBUS_ENABLED)
//  7. Engine with every sink attached
//  8. HTTP API and the suture supervisor tree
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context. The supervisor drains the HTTP
// server (10s by default) and ends the detection session; the event bus and
// archive are closed last.
//
// # Example
//
//	export ENGINE_AUTO_START=true
//	export WEBHOOK_ENABLED=true
//	export WEBHOOK_URL=https://hooks.example.com/watchpost
//	./watchpost
//
// Frames are then submitted to POST /api/v1/frames or published as JSON on
// the activity.frames topic.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/watchpost/internal/config"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/metrics"
	"github.com/tomtom215/watchpost/internal/supervisor"
	"github.com/tomtom215/watchpost/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Str("addr", cfg.Server.Addr()).
		Bool("store_enabled", cfg.Store.Enabled).
		Bool("eventbus_enabled", cfg.EventBus.Enabled).
		Bool("auto_start", cfg.Engine.AutoStart).
		Msg("starting watchpost")

	app, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize components")
	}
	defer app.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}
	app.register(tree)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("serving HTTP API")
	errCh := tree.ServeBackground(ctx)

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree stopped with error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
	}

	logging.Info().Msg("watchpost stopped")
}
