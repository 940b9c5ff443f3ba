// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package validation

import (
	"testing"

	"github.com/mvargas-dev/crowdgauge/internal/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestValidateIngestRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     models.IngestRequest
		wantErr bool
	}{
		{
			"valid",
			models.IngestRequest{DeviceID: "cam-01", Occupancy: intPtr(12), Entries: 3, Exits: 1},
			false,
		},
		{
			"zero occupancy is valid",
			models.IngestRequest{DeviceID: "cam-01", Occupancy: intPtr(0)},
			false,
		},
		{
			"missing occupancy",
			models.IngestRequest{DeviceID: "cam-01"},
			true,
		},
		{
			"negative occupancy",
			models.IngestRequest{DeviceID: "cam-01", Occupancy: intPtr(-1)},
			true,
		},
		{
			"negative entries",
			models.IngestRequest{DeviceID: "cam-01", Occupancy: intPtr(1), Entries: -2},
			true,
		},
		{
			"missing device id",
			models.IngestRequest{Occupancy: intPtr(1)},
			true,
		},
		{
			"confidence above one",
			models.IngestRequest{DeviceID: "cam-01", Occupancy: intPtr(1), Confidence: floatPtr(1.5)},
			true,
		},
		{
			"confidence at bounds",
			models.IngestRequest{DeviceID: "cam-01", Occupancy: intPtr(1), Confidence: floatPtr(1.0)},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTenantProfile(t *testing.T) {
	req := models.CreateTenantRequest{Name: "Museum", Profile: "stadium"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected profile rejection")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %s, want VALIDATION_ERROR", apiErr.Code)
	}
}

func TestDateonlyValidator(t *testing.T) {
	type q struct {
		Date string `validate:"dateonly"`
	}
	if err := ValidateStruct(&q{Date: "2026-03-14"}); err != nil {
		t.Errorf("valid date rejected: %v", err)
	}
	if err := ValidateStruct(&q{Date: "14/03/2026"}); err == nil {
		t.Error("malformed date accepted")
	}
}

func TestToAPIErrorAggregatesFields(t *testing.T) {
	req := models.IngestRequest{Entries: -1, Exits: -1}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if len(err.Errors()) < 3 {
		t.Errorf("expected at least 3 field errors, got %d", len(err.Errors()))
	}
	apiErr := err.ToAPIError()
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("multi-field error should list fields in details")
	}
}
