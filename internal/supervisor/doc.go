// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package supervisor runs Watchpost's long-lived services under a suture v4
supervisor tree.

The tree has four layers for failure isolation, started in this order:

	RootSupervisor ("watchpost")
	├── LayerData ("data-layer")
	│   ├── DetectionStore (value log GC, if the archive is enabled)
	│   └── Dispatcher (notification delivery, if any notifier is enabled)
	├── LayerDetection ("detection-layer")
	│   └── SessionService (engine auto-start, if configured)
	├── LayerMessaging ("messaging-layer")
	│   ├── Hub (websocket broadcast)
	│   └── FrameConsumer (event bus frame ingestion, if enabled)
	└── LayerAPI ("api-layer")
	    └── HTTPServerService

A crashing event bus consumer is restarted with backoff while the HTTP API
keeps serving. Supervisor events are logged through sutureslog and the
zerolog-backed slog handler from the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	if err != nil {
	    return err
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err = tree.Serve(ctx)

Every service implements suture.Service (Serve(ctx) error) and fmt.Stringer
so log lines name it.
*/
package supervisor
