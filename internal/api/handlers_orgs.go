// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"

	"github.com/custodahq/custoda/internal/models"
)

// handleGetOrg returns the caller's organization.
//
//	@Summary	Current organization
//	@Tags		orgs
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	models.APIResponse{data=models.Org}
//	@Router		/api/v1/orgs/current [get]
func (s *Server) handleGetOrg(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	org, err := s.db.GetOrg(r.Context(), c.OrgID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(org)
}

// handleUpdateOrg applies org settings changes.
func (s *Server) handleUpdateOrg(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.UpdateOrgRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	org, err := s.db.UpdateOrg(r.Context(), c.OrgID, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(org)
}
