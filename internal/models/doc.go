// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package models defines the wire structures shared by the HTTP API, the
websocket hub and the event bus.

Model Categories:

1. API Envelope:
  - APIResponse: Standard response wrapper
  - APIError: Error details
  - Metadata: Response metadata (timestamp, processing time)

2. Requests:
  - FrameRequest: One video frame of poses and detected objects
  - KeypointRequest, ObjectRequest, BoundingBoxRequest

3. Responses:
  - StatusResponse, DetectionsResponse, HealthResponse, SessionResponse

4. Push Messages:
  - Event: Typed envelope for websocket and event bus messages

Request types carry go-playground/validator tags; see internal/validation.
*/
package models
