// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
)

// SessionEngine is the session subset of *activity.Engine.
type SessionEngine interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// SessionService starts a detection session when served and stops it when
// the context is cancelled, so an unattended camera begins classifying at
// boot.
type SessionService struct {
	engine      SessionEngine
	stopTimeout time.Duration
}

// NewSessionService creates the service.
func NewSessionService(engine SessionEngine) *SessionService {
	return &SessionService{engine: engine, stopTimeout: 5 * time.Second}
}

// Serve starts the session and blocks until ctx is done. A session already
// started through the API is adopted rather than treated as a failure.
func (s *SessionService) Serve(ctx context.Context) error {
	if err := s.engine.Start(ctx); err != nil && !errors.Is(err, activity.ErrAlreadyDetecting) {
		return fmt.Errorf("start detection session: %w", err)
	}
	logging.Info().Msg("detection session auto-started")

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()
	if err := s.engine.Stop(stopCtx); err != nil && !errors.Is(err, activity.ErrNotDetecting) {
		logging.Warn().Err(err).Msg("failed to stop detection session")
	}
	return ctx.Err()
}

// String implements fmt.Stringer for suture logging.
func (s *SessionService) String() string {
	return "engine-session"
}
