// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history keeps completed experiment reports in a local BadgerDB.
//
// Reports are stored as JSON under
//
//	report/<started-at unix nanos, zero padded>/<run id>
//
// so a reverse prefix scan yields the newest runs first. A secondary key
//
//	run/<run id>
//
// maps a run ID to its report key for Get.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/sortbench/services/bench/experiment"
)

const (
	reportPrefix = "report/"
	runPrefix    = "run/"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNotFound is returned when no report has the requested run ID.
	ErrNotFound = errors.New("report not found")

	// ErrNilReport is returned by Save for a nil or unidentified report.
	ErrNilReport = errors.New("report must not be nil and must have a run id")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("history store is closed")

	// ErrInvalidConfig is returned by Open for an unusable configuration.
	ErrInvalidConfig = errors.New("invalid history configuration")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config holds configuration for the history store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string `yaml:"path" json:"path"`

	// InMemory keeps the database in RAM. Useful for testing.
	InMemory bool `yaml:"in_memory" json:"in_memory"`

	// SyncWrites fsyncs every write.
	SyncWrites bool `yaml:"sync_writes" json:"sync_writes"`

	// GCInterval is how often to run value log garbage collection.
	// Zero disables it.
	GCInterval time.Duration `yaml:"gc_interval" json:"gc_interval"`

	// GCDiscardRatio is the minimum discardable ratio before GC rewrites a
	// value log file.
	GCDiscardRatio float64 `yaml:"gc_discard_ratio" json:"gc_discard_ratio"`

	// Logger receives BadgerDB's internal messages. Nil silences them.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// DefaultConfig returns a durable on-disk configuration at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------
// Store
// -----------------------------------------------------------------------------

// Store persists experiment reports.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	stopGC chan struct{}
	gcDone chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// Open opens or creates a history store.
//
// Inputs:
//   - cfg: Path is required unless InMemory is set.
//
// Outputs:
//   - *Store: Call Close when done.
//   - error: ErrInvalidConfig, or the BadgerDB open error.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("%w: path is required for a persistent store", ErrInvalidConfig)
	}
	if cfg.GCDiscardRatio < 0 || cfg.GCDiscardRatio > 1 {
		return nil, fmt.Errorf("%w: gc_discard_ratio must be between 0 and 1", ErrInvalidConfig)
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create history directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{db: db, logger: logger}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopGC = make(chan struct{})
		s.gcDone = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.gcDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("history value log GC error", slog.String("error", err.Error()))
			}
		}
	}
}

func reportKey(r *experiment.Report) []byte {
	return []byte(fmt.Sprintf("%s%020d/%s", reportPrefix, r.StartedAt.UnixNano(), r.RunID))
}

func runKey(runID string) []byte {
	return []byte(runPrefix + runID)
}

func (s *Store) checkOpen(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context must not be nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Save stores r, replacing any report with the same run ID.
func (s *Store) Save(ctx context.Context, r *experiment.Report) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if r == nil || r.RunID == "" {
		return ErrNilReport
	}

	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", r.RunID, err)
	}
	key := reportKey(r)

	err = s.db.Update(func(txn *badger.Txn) error {
		if old, err := txn.Get(runKey(r.RunID)); err == nil {
			oldKey, err := old.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(oldKey); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(runKey(r.RunID), key)
	})
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.RunID, err)
	}
	return nil
}

// Get returns the report with runID.
//
// Outputs:
//   - error: ErrNotFound if no such report exists.
func (s *Store) Get(ctx context.Context, runID string) (*experiment.Report, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	var report experiment.Report
	err := s.db.View(func(txn *badger.Txn) error {
		idx, err := txn.Get(runKey(runID))
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", runID, err)
	}
	return &report, nil
}

// List returns up to limit reports, newest first. A limit of zero or less
// returns every report.
func (s *Store) List(ctx context.Context, limit int) ([]*experiment.Report, error) {
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	var reports []*experiment.Report
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(reportPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(reportPrefix + "\xff")); it.Valid(); it.Next() {
			if limit > 0 && len(reports) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			var r experiment.Report
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			reports = append(reports, &r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Delete removes the report with runID.
//
// Outputs:
//   - error: ErrNotFound if no such report exists.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		idx, err := txn.Get(runKey(runID))
		if err != nil {
			return err
		}
		key, err := idx.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(runKey(runID))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("delete report %s: %w", runID, err)
	}
	return nil
}

// Close stops garbage collection and closes the database. Safe to call
// more than once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if s.stopGC != nil {
			close(s.stopGC)
			<-s.gcDone
		}
		err = s.db.Close()
	})
	return err
}
