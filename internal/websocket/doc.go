// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package websocket pushes live engine output to dashboard clients using
gorilla/websocket.

The Hub owns the client set and runs as a supervised service. It implements
the engine sink interfaces, so wiring it into the engine is enough for clients
to receive:

  - detection: every logged Detection
  - alert_state: every AlertState change
  - analysis: the per-frame ActivityAnalysis
  - session: a Snapshot on Start, Stop and Reset, and on connect

Every message is a models.Event:

	{"type": "detection", "timestamp": "2026-03-01T12:00:00Z", "data": {...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}. Server pings
keep idle connections alive; a client that misses pongs for 60 seconds is
dropped. Slow clients whose send buffer fills are disconnected rather than
blocking the broadcast.
*/
package websocket
