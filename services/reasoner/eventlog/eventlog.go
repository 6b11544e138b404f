// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package eventlog persists finished reasoning evaluations in an embedded
// BadgerDB store. The log is append-only and consumed strictly after the
// core pipeline returns; a write failure never fails a reasoning call.
package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
)

// ErrNotFound is returned by Get for unknown event ids.
var ErrNotFound = errors.New("event not found")

const (
	// eventKeyPrefix orders events by timestamp for range scans.
	eventKeyPrefix = "event:"

	// idKeyPrefix indexes events by id for point lookups.
	idKeyPrefix = "id:"

	defaultListLimit = 50
	maxListLimit     = 500
)

// Config holds configuration for the event store.
type Config struct {
	// Path is the directory for BadgerDB files. Required unless InMemory.
	Path string

	// InMemory enables in-memory mode with no disk persistence.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults for a persistent store.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// nowUTC is swappable in tests for deterministic timestamps.
var nowUTC = func() time.Time { return time.Now().UTC() }

// Store is an append-only log of reasoning events.
type Store struct {
	db *badger.DB
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

// Open creates the store, creating the directory when needed.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent event log")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create event log directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// eventKey orders primary keys by timestamp, tie-broken by id.
func eventKey(event *datatypes.ReasoningEvent) []byte {
	return fmt.Appendf(nil, "%s%020d:%s", eventKeyPrefix, event.Timestamp.UnixNano(), event.EventID)
}

func idKey(id string) []byte {
	return []byte(idKeyPrefix + id)
}

// Record appends an event, assigning EventID and Timestamp when unset.
func (s *Store) Record(event *datatypes.ReasoningEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = nowUTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(eventKey(event), payload); err != nil {
			return err
		}
		return txn.Set(idKey(event.EventID), payload)
	})
	if err != nil {
		return fmt.Errorf("record event %s: %w", event.EventID, err)
	}
	return nil
}

// List returns events newest first. Limit defaults to 50 and is capped at
// 500; offset skips matching events; a non-empty model filters exact
// matches. HasMore reports whether further matching events remain.
func (s *Store) List(limit, offset int, model string) (datatypes.ReasoningEventList, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	if offset < 0 {
		offset = 0
	}

	list := datatypes.ReasoningEventList{Events: []datatypes.ReasoningEvent{}}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(eventKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration seeks past the last possible event key.
		seek := append([]byte(eventKeyPrefix), 0xFF)
		skipped := 0
		for it.Seek(seek); it.ValidForPrefix([]byte(eventKeyPrefix)); it.Next() {
			var event datatypes.ReasoningEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("decode event %s: %w", it.Item().Key(), err)
			}
			if model != "" && event.Model != model {
				continue
			}
			if skipped < offset {
				skipped++
				continue
			}
			if len(list.Events) == limit {
				list.HasMore = true
				return nil
			}
			list.Events = append(list.Events, event)
		}
		return nil
	})
	if err != nil {
		return datatypes.ReasoningEventList{}, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

// Get fetches a single event by id.
func (s *Store) Get(id string) (datatypes.ReasoningEvent, error) {
	var event datatypes.ReasoningEvent
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &event)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return datatypes.ReasoningEvent{}, ErrNotFound
		}
		return datatypes.ReasoningEvent{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return event, nil
}
