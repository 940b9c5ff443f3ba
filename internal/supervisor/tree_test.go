// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
)

// blockingService runs until canceled and counts its starts.
type blockingService struct {
	starts atomic.Int32
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return "blocking" }

func TestTreeServesAndStopsServices(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(), DefaultTreeConfig())

	data := &blockingService{}
	pipeline := &blockingService{}
	api := &blockingService{}
	tree.AddDataService(data)
	tree.AddPipelineService(pipeline)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool {
		return data.starts.Load() == 1 && pipeline.starts.Load() == 1 && api.starts.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop")
	}

	unstopped, err := tree.UnstoppedServiceReport()
	require.NoError(t, err)
	require.Empty(t, unstopped)
}

func TestDefaultTreeConfig(t *testing.T) {
	cfg := DefaultTreeConfig()
	require.Equal(t, 5.0, cfg.FailureThreshold)
	require.Equal(t, 30.0, cfg.FailureDecay)
	require.Equal(t, 15*time.Second, cfg.FailureBackoff)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}
