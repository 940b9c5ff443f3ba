// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package models

// APIResponse is the envelope for every JSON response. Status is
// "success" or "error"; Data carries the payload on success and Error
// is populated on failure. Exactly one of the two is set.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata *Metadata   `json:"metadata,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response bookkeeping: server timestamp (RFC3339),
// API version, the request ID for log correlation, and an optional
// item count for collection responses.
type Metadata struct {
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	RequestID string `json:"request_id,omitempty"`
	Count     *int   `json:"count,omitempty"`
}

// APIError is a machine-readable error. Codes are stable contract:
//
//	INVALID_PAYLOAD  - body failed validation (422)
//	UNKNOWN_DEVICE   - device not registered to any tenant (404)
//	TENANT_NOT_FOUND - tenant does not exist (404)
//	NOT_FOUND        - resource absent, e.g. no summary for that day (404)
//	VALIDATION_ERROR - malformed query/path parameters (400)
//	RATE_LIMITED     - per-device or per-IP limit exceeded (429)
//	INTERNAL_ERROR   - unexpected server failure (500)
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// IngestAck acknowledges a stored (or queued) occupancy reading.
type IngestAck struct {
	EventID    string `json:"event_id"`
	RecordedAt string `json:"recorded_at"`
	Queued     bool   `json:"queued,omitempty"` // true when accepted via the stream, not yet in the store
}

// DeviceRegistration is returned once at device creation. The token is
// shown only here; the server keeps just its hash.
type DeviceRegistration struct {
	Device Device `json:"device"`
	Token  string `json:"token"`
}
