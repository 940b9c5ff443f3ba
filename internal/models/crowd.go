// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

// CrowdLevel is the qualitative occupancy classification.
//
// CrowdLevelNoData is deliberately not part of the ordered scale: it
// means no sample was available, which is a different statement than
// "we observed zero people". Absence of data must never read as empty.
type CrowdLevel string

const (
	CrowdLevelNoData   CrowdLevel = "no_data"
	CrowdLevelEmpty    CrowdLevel = "empty"
	CrowdLevelLow      CrowdLevel = "low"
	CrowdLevelModerate CrowdLevel = "moderate"
	CrowdLevelHigh     CrowdLevel = "high"
	CrowdLevelVeryHigh CrowdLevel = "very_high"
)

// Rank returns the position of the level on the ordered scale, with
// empty=0 through very_high=4. CrowdLevelNoData and unknown values
// return -1.
func (l CrowdLevel) Rank() int {
	switch l {
	case CrowdLevelEmpty:
		return 0
	case CrowdLevelLow:
		return 1
	case CrowdLevelModerate:
		return 2
	case CrowdLevelHigh:
		return 3
	case CrowdLevelVeryHigh:
		return 4
	default:
		return -1
	}
}
