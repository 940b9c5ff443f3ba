// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/mvargas-dev/crowdgauge/internal/models"
	"github.com/mvargas-dev/crowdgauge/internal/wal"
)

type fakeHTTPServer struct {
	mu       sync.Mutex
	started  chan struct{}
	stopped  chan struct{}
	shutdown bool
	serveErr error
}

func newFakeHTTPServer(serveErr error) *fakeHTTPServer {
	return &fakeHTTPServer{
		started:  make(chan struct{}),
		stopped:  make(chan struct{}),
		serveErr: serveErr,
	}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.started)
	if f.serveErr != nil {
		return f.serveErr
	}
	<-f.stopped
	return errors.New("http: Server closed")
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.mu.Lock()
	f.shutdown = true
	f.mu.Unlock()
	close(f.stopped)
	return nil
}

func (f *fakeHTTPServer) wasShutdown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdown
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer(nil)
	svc := NewHTTPService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-server.started:
	case <-time.After(2 * time.Second):
		t.Fatal("server never started")
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	require.True(t, server.wasShutdown())
}

func TestHTTPServiceSurfacesServeError(t *testing.T) {
	boom := errors.New("bind: address already in use")
	svc := NewHTTPService(newFakeHTTPServer(boom), time.Second)

	err := svc.Serve(context.Background())
	require.ErrorIs(t, err, boom)
}

type fakeRollupRunner struct {
	mu    sync.Mutex
	runs  []time.Time
	onRun func()
}

func (f *fakeRollupRunner) Run(_ context.Context, date time.Time) (*models.RollupReport, error) {
	f.mu.Lock()
	f.runs = append(f.runs, date)
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun()
	}
	return &models.RollupReport{Date: date.Format(models.DateFormat), Succeeded: 1}, nil
}

func (f *fakeRollupRunner) Yesterday() time.Time {
	return time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC)
}

func TestRollupServiceNextRun(t *testing.T) {
	svc := NewRollupService(&fakeRollupRunner{}, 2, time.UTC)

	// Before today's slot: runs today at 02:00.
	now := time.Date(2026, 3, 14, 1, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC), svc.nextRun(now))

	// At or after the slot: runs tomorrow.
	now = time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC), svc.nextRun(now))

	now = time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 15, 2, 0, 0, 0, time.UTC), svc.nextRun(now))
}

func TestRollupServiceRunsScheduledJob(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	runner := &fakeRollupRunner{onRun: cancel}
	svc := NewRollupService(runner, 2, time.UTC)

	// Pin "now" in the past so the first timer fires immediately.
	svc.now = func() time.Time {
		return time.Date(2026, 3, 14, 1, 59, 59, 0, time.UTC)
	}

	_ = svc.Serve(ctx)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	require.NotEmpty(t, runner.runs)
	require.Equal(t, runner.Yesterday(), runner.runs[0])
}

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakePruner) PruneEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 3, nil
}

func TestRetentionServicePrunesOnTick(t *testing.T) {
	pruner := &fakePruner{}
	svc := NewRetentionService(pruner, 30, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := svc.Serve(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	pruner.mu.Lock()
	defer pruner.mu.Unlock()
	require.NotEmpty(t, pruner.cutoffs)

	// The cutoff must sit roughly 30 days back.
	want := time.Now().UTC().AddDate(0, 0, -30)
	require.WithinDuration(t, want, pruner.cutoffs[0], time.Minute)
}

type fakeReplaySource struct {
	entries []*wal.Entry
}

func (f *fakeReplaySource) Replay(ctx context.Context, fn func(context.Context, *wal.Entry) error) (int, int, error) {
	drained, remaining := 0, 0
	for _, entry := range f.entries {
		if err := fn(ctx, entry); err != nil {
			remaining++
			continue
		}
		drained++
	}
	f.entries = nil
	return drained, remaining, nil
}

type fakeBatchSink struct {
	mu     sync.Mutex
	events []models.AnalysisEvent
}

func (f *fakeBatchSink) InsertEventsBatch(_ context.Context, events []models.AnalysisEvent) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return len(events), 0, nil
}

func TestWALReplayServiceDrainsIntoSink(t *testing.T) {
	payload, err := json.Marshal(models.AnalysisEvent{DeviceID: "cam-1", Occupancy: 4})
	require.NoError(t, err)
	entry := &wal.Entry{ID: "e-1", Payload: payload, CreatedAt: time.Now().UTC()}

	source := &fakeReplaySource{entries: []*wal.Entry{entry}}
	sink := &fakeBatchSink{}
	svc := NewWALReplayService(source, sink, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = svc.Serve(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1)
	require.Equal(t, "cam-1", sink.events[0].DeviceID)
}

type fakeConsumer struct{ err error }

func (f *fakeConsumer) Run(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestConsumerServicePropagatesCancellation(t *testing.T) {
	svc := NewConsumerService(&fakeConsumer{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
}

func TestConsumerServiceWrapsFailure(t *testing.T) {
	boom := errors.New("stream gone")
	svc := NewConsumerService(&fakeConsumer{err: boom})
	require.ErrorIs(t, svc.Serve(context.Background()), boom)
}
