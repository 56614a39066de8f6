// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

// Package services adapts components whose lifecycle does not already match
// suture.Service.
//
// HTTPServerService turns http.Server's ListenAndServe/Shutdown pair into a
// context-driven Serve. SessionService starts an engine detection session
// when the tree starts and stops it on shutdown.
package services
