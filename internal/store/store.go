// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

// Package store archives logged detections in BadgerDB so history survives
// restarts and outlives the engine's bounded in-memory log.
//
// Keys are laid out so that lexical order is chronological order:
//
//	detection:<zero-padded unix nanos>:<id>  -> JSON detection
//	id:<id>                                  -> primary key
//
// Entries expire through Badger's native TTL when a retention is configured.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/metrics"
)

var (
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("detection store is closed")

	// ErrNotFound is returned when a detection ID is unknown.
	ErrNotFound = errors.New("detection not found")
)

const (
	prefixDetection = "detection:"
	prefixID        = "id:"
)

// Config configures the detection store.
type Config struct {
	// Path is the Badger directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps all data in memory. Used by tests and ephemeral deployments.
	InMemory bool

	// Retention is the TTL applied to every entry. Zero disables expiry.
	Retention time.Duration

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// GCInterval is how often Serve runs value log GC.
	GCInterval time.Duration
}

// ListOptions filters List results.
type ListOptions struct {
	// Limit caps the number of results. Zero means no limit.
	Limit int

	// Activity restricts results to one category when set.
	Activity activity.ActivityType

	// Since excludes detections older than this time when non-zero.
	Since time.Time
}

// DetectionStore is a Badger-backed detection archive.
type DetectionStore struct {
	db  *badger.DB
	cfg Config

	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the store.
func Open(cfg Config) (*DetectionStore, error) {
	if !cfg.InMemory && strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = 10 * time.Minute
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("retention", cfg.Retention).
		Msg("Detection store opened")

	return &DetectionStore{db: db, cfg: cfg}, nil
}

func (s *DetectionStore) checkNotClosed() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func detectionKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixDetection, ts.UnixNano(), id))
}

// Save persists a detection. A missing ID is filled with a new UUID, and the
// stored ID is returned.
func (s *DetectionStore) Save(ctx context.Context, d activity.Detection) (string, error) {
	if err := s.checkNotClosed(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}

	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal detection: %w", err)
	}

	key := detectionKey(d.Timestamp, d.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(key, data)
		idx := badger.NewEntry([]byte(prefixID+d.ID), key)
		if s.cfg.Retention > 0 {
			e = e.WithTTL(s.cfg.Retention)
			idx = idx.WithTTL(s.cfg.Retention)
		}
		if err := txn.SetEntry(e); err != nil {
			return err
		}
		return txn.SetEntry(idx)
	})
	if err != nil {
		return "", fmt.Errorf("write to BadgerDB: %w", err)
	}
	return d.ID, nil
}

// Get returns a single detection by ID.
func (s *DetectionStore) Get(ctx context.Context, id string) (activity.Detection, error) {
	var d activity.Detection
	if err := s.checkNotClosed(); err != nil {
		return d, err
	}
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get([]byte(prefixID + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &d)
		})
	})
	return d, err
}

// List returns detections newest first.
func (s *DetectionStore) List(ctx context.Context, opts ListOptions) ([]activity.Detection, error) {
	if err := s.checkNotClosed(); err != nil {
		return nil, err
	}

	var out []activity.Detection
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Reverse = true
		iterOpts.Prefix = []byte(prefixDetection)
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		prefix := []byte(prefixDetection)
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var d activity.Detection
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				return fmt.Errorf("decode detection: %w", err)
			}
			if !opts.Since.IsZero() && d.Timestamp.Before(opts.Since) {
				// Reverse order: everything after this is older.
				return nil
			}
			if opts.Activity != "" && d.Activity != opts.Activity {
				continue
			}
			out = append(out, d)
			if opts.Limit > 0 && len(out) >= opts.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of archived detections.
func (s *DetectionStore) Count(ctx context.Context) (int, error) {
	if err := s.checkNotClosed(); err != nil {
		return 0, err
	}
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixDetection)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// Stats counts archived detections per category.
func (s *DetectionStore) Stats(ctx context.Context) (activity.Stats, error) {
	var stats activity.Stats
	all, err := s.List(ctx, ListOptions{})
	if err != nil {
		return stats, err
	}
	for _, d := range all {
		switch d.Activity {
		case activity.ActivityFighting:
			stats.Fighting++
		case activity.ActivityTheft:
			stats.Theft++
		case activity.ActivityFire:
			stats.Fire++
		case activity.ActivitySuspicious:
			stats.Suspicious++
		}
	}
	return stats, nil
}

// RunGC triggers BadgerDB value log garbage collection.
func (s *DetectionStore) RunGC() error {
	if err := s.checkNotClosed(); err != nil {
		return err
	}
	if s.cfg.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the underlying database. It is safe to call more than once.
func (s *DetectionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Detection store closed")
	return nil
}

// Name implements activity.DetectionSink.
func (s *DetectionStore) Name() string { return "archive" }

// HandleDetection archives a logged detection.
func (s *DetectionStore) HandleDetection(ctx context.Context, d activity.Detection) error {
	_, err := s.Save(ctx, d)
	metrics.RecordArchiveWrite(err)
	return err
}

// Serve runs periodic value log GC until ctx is cancelled. It implements suture.Service.
func (s *DetectionStore) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				if errors.Is(err, ErrStoreClosed) {
					return err
				}
				logging.Warn().Err(err).Msg("Detection store GC failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *DetectionStore) String() string { return "detection-store" }
