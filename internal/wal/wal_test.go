// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package wal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type parkedEvent struct {
	DeviceID  string `json:"device_id"`
	Occupancy int    `json:"occupancy"`
}

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendConfirmLifecycle(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	id, err := l.Append(ctx, parkedEvent{DeviceID: "cam-1", Occupancy: 7})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	count, err := l.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, l.Confirm(ctx, id))

	count, err = l.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)

	require.ErrorIs(t, l.Confirm(ctx, id), ErrEntryNotFound)
}

func TestAppendNilEvent(t *testing.T) {
	l := openTestLog(t)
	_, err := l.Append(context.Background(), nil)
	require.ErrorIs(t, err, ErrNilEvent)
}

func TestPendingRoundTrip(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, parkedEvent{DeviceID: "cam-1", Occupancy: 3})
	require.NoError(t, err)
	_, err = l.Append(ctx, parkedEvent{DeviceID: "cam-2", Occupancy: 11})
	require.NoError(t, err)

	entries, err := l.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	seen := map[string]int{}
	for _, entry := range entries {
		var ev parkedEvent
		require.NoError(t, entry.UnmarshalPayload(&ev))
		seen[ev.DeviceID] = ev.Occupancy
	}
	require.Equal(t, map[string]int{"cam-1": 3, "cam-2": 11}, seen)
}

func TestReplayDrainsAcceptedEntries(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, parkedEvent{DeviceID: "cam-ok", Occupancy: 1})
	require.NoError(t, err)
	_, err = l.Append(ctx, parkedEvent{DeviceID: "cam-bad", Occupancy: 2})
	require.NoError(t, err)

	drained, remaining, err := l.Replay(ctx, func(_ context.Context, entry *Entry) error {
		var ev parkedEvent
		require.NoError(t, entry.UnmarshalPayload(&ev))
		if ev.DeviceID == "cam-bad" {
			return errors.New("store unavailable")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, drained)
	require.Equal(t, 1, remaining)

	// The rejected entry stays parked with its failure recorded.
	entries, err := l.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, entries[0].Attempts)
	require.Equal(t, "store unavailable", entries[0].LastError)

	// A second replay that accepts everything leaves the log empty.
	drained, remaining, err = l.Replay(ctx, func(context.Context, *Entry) error { return nil })
	require.NoError(t, err)
	require.Equal(t, 1, drained)
	require.Equal(t, 0, remaining)

	count, err := l.PendingCount(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestEntriesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	l, err := Open(dir)
	require.NoError(t, err)
	_, err = l.Append(ctx, parkedEvent{DeviceID: "cam-1", Occupancy: 4})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	entries, err := reopened.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestClosedLogRejectsOperations(t *testing.T) {
	l, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	_, err = l.Append(context.Background(), parkedEvent{})
	require.ErrorIs(t, err, ErrClosed)
	_, err = l.Pending(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}
