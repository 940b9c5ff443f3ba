// Crowdgauge - Multi-Tenant Occupancy Analytics for Edge Sensors
// Copyright 2026 M. Vargas (mvargas-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mvargas-dev/crowdgauge

package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mvargas-dev/crowdgauge/internal/logging"
	"github.com/mvargas-dev/crowdgauge/internal/models"
	"github.com/mvargas-dev/crowdgauge/internal/validation"
)

// CreateTenant provisions a tenant account.
// POST /api/v1/tenants
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTenantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "request body is not valid JSON", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, http.StatusBadRequest, codeValidation, verr.ToAPIError())
		return
	}

	tenant := &models.Tenant{
		ID:       uuid.New(),
		Name:     req.Name,
		Profile:  models.TenantProfile(req.Profile),
		Capacity: req.Capacity,
	}
	if err := h.db.InsertTenant(r.Context(), tenant); err != nil {
		respondStoreError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("tenant_id", tenant.ID.String()).
		Str("profile", string(tenant.Profile)).
		Msg("Tenant created")

	respondSuccess(w, r, http.StatusCreated, tenant)
}

// ListTenants returns all tenant accounts.
// GET /api/v1/tenants
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.db.ListTenants(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondList(w, r, tenants, len(tenants))
}

// GetTenant returns one tenant account.
// GET /api/v1/tenants/{tenantID}
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDParam(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	tenant, err := h.db.GetTenant(r.Context(), tenantID)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, tenant)
}
