// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/watchpost/internal/middleware"
	"github.com/tomtom215/watchpost/internal/models"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi builds the HTTP handler with every route registered.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to all routes, in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, models.ErrCodeValidation, "method not allowed", nil)
	})

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.With(router.chiMiddleware.RateLimitFrames()).Post("/frames", router.handler.SubmitFrame)

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Route("/session", func(r chi.Router) {
				r.Post("/start", router.handler.SessionStart)
				r.Post("/stop", router.handler.SessionStop)
				r.Post("/reset", router.handler.SessionReset)
			})

			r.Get("/status", router.handler.Status)
			r.Get("/detections", router.handler.Detections)
			r.Get("/detections/history", router.handler.DetectionHistory)
			r.Get("/stats", router.handler.Stats)
			r.Get("/ws", router.handler.WebSocket)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
