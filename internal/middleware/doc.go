// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

/*
Package middleware provides HTTP middleware shared by the API router.

Every middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: accepts or generates an X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: records request counts and latency keyed by the chi
    route pattern, so path parameters never explode label cardinality
  - AccessLog: one structured zerolog line per request

Typical stack:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
*/
package middleware
