// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package crowd

import "github.com/mvargas-dev/crowdgauge/internal/models"

// Raw-count breakpoints for the retail profile. Strictly-greater-than
// comparisons: an occupancy of exactly 20 is high, 21 is very_high.
const (
	retailVeryHigh = 20
	retailHigh     = 10
	retailModerate = 5
)

// Percent-of-capacity breakpoints for the transit profile.
const (
	transitVeryHighPct = 90
	transitHighPct     = 60
	transitModeratePct = 30
)

// Classify maps an occupancy value onto the ordered crowd scale for the
// given profile. The function is total and monotonic: every
// non-negative input produces a level, and a larger input never yields
// a lower level.
//
// The transit profile needs a capacity to compute a percentage; when
// capacity is nil or non-positive it falls back to the raw-count
// breakpoints, which is the honest answer for a bounded space whose
// bound we do not actually know.
func Classify(occupancy float64, profile models.TenantProfile, capacity *int) models.CrowdLevel {
	if occupancy <= 0 {
		return models.CrowdLevelEmpty
	}

	if profile == models.ProfileTransit && capacity != nil && *capacity > 0 {
		pct := occupancy / float64(*capacity) * 100
		switch {
		case pct >= transitVeryHighPct:
			return models.CrowdLevelVeryHigh
		case pct >= transitHighPct:
			return models.CrowdLevelHigh
		case pct >= transitModeratePct:
			return models.CrowdLevelModerate
		default:
			return models.CrowdLevelLow
		}
	}

	switch {
	case occupancy > retailVeryHigh:
		return models.CrowdLevelVeryHigh
	case occupancy > retailHigh:
		return models.CrowdLevelHigh
	case occupancy > retailModerate:
		return models.CrowdLevelModerate
	default:
		return models.CrowdLevelLow
	}
}

// ClassifySample classifies an optional sample. A nil sample means no
// reading was available and yields CrowdLevelNoData; it is never
// coerced to empty, because "nobody measured" and "nobody there" are
// different facts.
func ClassifySample(sample *float64, profile models.TenantProfile, capacity *int) models.CrowdLevel {
	if sample == nil {
		return models.CrowdLevelNoData
	}
	return Classify(*sample, profile, capacity)
}
