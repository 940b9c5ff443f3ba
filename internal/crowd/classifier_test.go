// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package crowd

import (
	"testing"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

func intPtr(v int) *int         { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestClassifyRetail(t *testing.T) {
	tests := []struct {
		occupancy float64
		want      models.CrowdLevel
	}{
		{0, models.CrowdLevelEmpty},
		{0.5, models.CrowdLevelLow},
		{1, models.CrowdLevelLow},
		{5, models.CrowdLevelLow},
		{5.5, models.CrowdLevelModerate},
		{6, models.CrowdLevelModerate},
		{10, models.CrowdLevelModerate},
		{11, models.CrowdLevelHigh},
		{20, models.CrowdLevelHigh},
		{21, models.CrowdLevelVeryHigh},
		{500, models.CrowdLevelVeryHigh},
	}
	for _, tt := range tests {
		if got := Classify(tt.occupancy, models.ProfileRetail, nil); got != tt.want {
			t.Errorf("Classify(%v, retail) = %s, want %s", tt.occupancy, got, tt.want)
		}
	}
}

func TestClassifyTransit(t *testing.T) {
	capacity := intPtr(100)
	tests := []struct {
		occupancy float64
		want      models.CrowdLevel
	}{
		{0, models.CrowdLevelEmpty},
		{1, models.CrowdLevelLow},
		{29, models.CrowdLevelLow},
		{30, models.CrowdLevelModerate},
		{59, models.CrowdLevelModerate},
		{60, models.CrowdLevelHigh},
		{89, models.CrowdLevelHigh},
		{90, models.CrowdLevelVeryHigh},
		{150, models.CrowdLevelVeryHigh},
	}
	for _, tt := range tests {
		if got := Classify(tt.occupancy, models.ProfileTransit, capacity); got != tt.want {
			t.Errorf("Classify(%v, transit, cap=100) = %s, want %s", tt.occupancy, got, tt.want)
		}
	}
}

func TestClassifyTransitWithoutCapacityFallsBackToCounts(t *testing.T) {
	if got := Classify(21, models.ProfileTransit, nil); got != models.CrowdLevelVeryHigh {
		t.Errorf("transit without capacity should use count breakpoints, got %s", got)
	}
	zero := 0
	if got := Classify(3, models.ProfileTransit, &zero); got != models.CrowdLevelLow {
		t.Errorf("transit with zero capacity should use count breakpoints, got %s", got)
	}
}

// The classifier must never report a lower level for a higher count.
func TestClassifyMonotonic(t *testing.T) {
	profiles := []struct {
		profile  models.TenantProfile
		capacity *int
	}{
		{models.ProfileRetail, nil},
		{models.ProfileTransit, intPtr(50)},
		{models.ProfileTransit, nil},
	}
	for _, p := range profiles {
		prev := -1
		for occ := 0.0; occ <= 120; occ += 0.5 {
			rank := Classify(occ, p.profile, p.capacity).Rank()
			if rank < prev {
				t.Fatalf("classification not monotonic for %s at occupancy %v: rank %d after %d",
					p.profile, occ, rank, prev)
			}
			prev = rank
		}
	}
}

func TestClassifySampleNoData(t *testing.T) {
	if got := ClassifySample(nil, models.ProfileRetail, nil); got != models.CrowdLevelNoData {
		t.Errorf("nil sample = %s, want no_data", got)
	}
	if got := ClassifySample(floatPtr(0), models.ProfileRetail, nil); got != models.CrowdLevelEmpty {
		t.Errorf("zero sample = %s, want empty", got)
	}
}
