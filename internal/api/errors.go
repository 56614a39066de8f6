// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import "errors"

var (
	// ErrStoreDisabled is returned when archive endpoints are hit without a store.
	ErrStoreDisabled = errors.New("detection archive is disabled")

	// ErrBodyTooLarge is returned when a request body exceeds maxBodyBytes.
	ErrBodyTooLarge = errors.New("request body too large")
)
