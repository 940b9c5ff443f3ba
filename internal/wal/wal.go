// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

// Package wal parks occupancy events on disk when the primary write
// path is unavailable. Events are persisted to BadgerDB with fsync
// before the caller acknowledges them, so an ingest burst during a
// database or stream outage survives a process crash. A background
// replayer drains the log back into the store once writes succeed
// again.
package wal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/metrics"
)

var (
	// ErrClosed is returned for operations on a closed log.
	ErrClosed = errors.New("wal is closed")

	// ErrNilEvent is returned when a nil event is appended.
	ErrNilEvent = errors.New("event cannot be nil")

	// ErrEntryNotFound is returned when an entry does not exist.
	ErrEntryNotFound = errors.New("wal entry not found")
)

const pendingPrefix = "pending:"

// Entry is one parked event with its retry bookkeeping.
type Entry struct {
	ID            string          `json:"id"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Attempts      int             `json:"attempts"`
	LastAttemptAt time.Time       `json:"last_attempt_at,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
}

// UnmarshalPayload deserializes the parked event into v.
func (e *Entry) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Log is a BadgerDB-backed pending-event store.
type Log struct {
	db *badger.DB

	mu     sync.RWMutex
	closed bool
}

// Open creates or reopens the log at path. Writes are synced to disk;
// a confirmed append survives a crash.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, errors.New("wal path is required")
	}

	opts := badger.DefaultOptions(path)
	opts.SyncWrites = true
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	l := &Log{db: db}
	l.publishPendingGauge()

	logging.Info().Str("path", path).Msg("WAL opened")
	return l, nil
}

// Append parks an event and returns its entry ID. The event is
// serialized to JSON and fsynced before Append returns.
func (l *Log) Append(ctx context.Context, event any) (string, error) {
	if err := l.ensureOpen(); err != nil {
		return "", err
	}
	if event == nil {
		return "", ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	entry := &Entry{
		ID:        uuid.New().String(),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}

	key := []byte(pendingPrefix + entry.ID)
	if err := l.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, data))
	}); err != nil {
		return "", fmt.Errorf("write entry: %w", err)
	}

	metrics.WALPendingEvents.Inc()
	return entry.ID, nil
}

// Confirm removes an entry after its event has been durably stored
// elsewhere.
func (l *Log) Confirm(ctx context.Context, entryID string) error {
	if err := l.ensureOpen(); err != nil {
		return err
	}

	key := []byte(pendingPrefix + entryID)
	err := l.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}

	metrics.WALPendingEvents.Dec()
	return nil
}

// Pending returns every parked entry, oldest key first.
func (l *Log) Pending(ctx context.Context) ([]*Entry, error) {
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}

	var entries []*Entry
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(pendingPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().Err(err).
					Str("key", string(it.Item().Key())).
					Msg("Skipping malformed WAL entry")
				continue
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending entries: %w", err)
	}
	return entries, nil
}

// PendingCount counts parked entries without loading their payloads.
func (l *Log) PendingCount(ctx context.Context) (int64, error) {
	if err := l.ensureOpen(); err != nil {
		return 0, err
	}

	var count int64
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(pendingPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Replay hands every parked entry to fn. Entries fn accepts are
// confirmed and removed; entries fn rejects stay parked with their
// attempt count bumped. Returns how many entries were drained and how
// many remain.
func (l *Log) Replay(ctx context.Context, fn func(ctx context.Context, entry *Entry) error) (drained, remaining int, err error) {
	entries, err := l.Pending(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return drained, remaining + (len(entries) - drained - remaining), ctx.Err()
		}

		if err := fn(ctx, entry); err != nil {
			remaining++
			if merr := l.markAttempt(entry.ID, err.Error()); merr != nil {
				logging.Warn().Err(merr).
					Str("entry_id", entry.ID).
					Msg("Failed to record WAL replay attempt")
			}
			continue
		}

		if err := l.Confirm(ctx, entry.ID); err != nil && !errors.Is(err, ErrEntryNotFound) {
			remaining++
			continue
		}
		drained++
		metrics.WALReplayedTotal.Inc()
	}

	l.publishPendingGauge()
	return drained, remaining, nil
}

// markAttempt bumps the entry's attempt count and remembers the error.
func (l *Log) markAttempt(entryID, lastError string) error {
	key := []byte(pendingPrefix + entryID)
	return l.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		}
		if err != nil {
			return err
		}

		var entry Entry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return fmt.Errorf("unmarshal entry: %w", err)
		}

		entry.Attempts++
		entry.LastAttemptAt = time.Now().UTC()
		entry.LastError = lastError

		data, err := json.Marshal(&entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		return txn.Set(key, data)
	})
}

// Close shuts down the underlying BadgerDB.
func (l *Log) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	if err := l.db.Close(); err != nil {
		return fmt.Errorf("close badger: %w", err)
	}
	logging.Info().Msg("WAL closed")
	return nil
}

func (l *Log) ensureOpen() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

// publishPendingGauge resets the gauge from an on-disk count, used at
// open and after replay so the metric survives restarts.
func (l *Log) publishPendingGauge() {
	count, err := l.PendingCount(context.Background())
	if err != nil {
		return
	}
	metrics.WALPendingEvents.Set(float64(count))
}
