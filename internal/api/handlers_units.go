// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"

	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/models"
)

// handleListUnits lists units of one property.
//
//	@Summary	List units of a property
//	@Tags		units
//	@Security	BearerAuth
//	@Produce	json
//	@Param		propertyID	path		string	true	"Property id"
//	@Param		status		query		string	false	"Filter by unit status"
//	@Success	200			{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/properties/{propertyID}/units [get]
func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	propertyID, ok := pathID(rw, r, "propertyID")
	if !ok {
		return
	}

	limit, offset := s.pagination(r)
	units, total, err := s.db.ListUnits(r.Context(), c.OrgID, propertyID, database.UnitFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(units, limit, offset, total))
}

// handleCreateUnit adds a unit to a property, subject to the org's plan
// limit. The store enforces that the property belongs to the caller's
// org and that the unit number is unique within the property.
func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	propertyID, ok := pathID(rw, r, "propertyID")
	if !ok {
		return
	}

	var req models.CreateUnitRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	if err := s.entitlements.CheckUnitCreate(r.Context(), c.OrgID); err != nil {
		rw.DomainError(err)
		return
	}

	status := req.Status
	if status == "" {
		status = models.UnitStatusVacant
	}
	unit := &models.Unit{
		OrgID:      c.OrgID,
		PropertyID: propertyID,
		UnitNumber: req.UnitNumber,
		Floor:      req.Floor,
		Bedrooms:   req.Bedrooms,
		Bathrooms:  req.Bathrooms,
		SquareFeet: req.SquareFeet,
		Status:     status,
		RentCents:  req.RentCents,
		TenantID:   req.TenantID,
	}
	if err := s.db.CreateUnit(r.Context(), unit); err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(unit)
}

// handleGetUnit returns one unit. Tenants may only read their own unit.
func (s *Server) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	unit, err := s.db.GetUnit(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}

	if c.Role == models.RoleTenant && (unit.TenantID == nil || *unit.TenantID != c.UserID) {
		// Indistinguishable from a missing row, like cross-org reads.
		rw.NotFound("resource not found")
		return
	}
	rw.Success(unit)
}

// handleUpdateUnit applies unit edits.
func (s *Server) handleUpdateUnit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdateUnitRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	unit, err := s.db.UpdateUnit(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(unit)
}

// handleDeleteUnit soft-deletes a unit.
func (s *Server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteUnit(r.Context(), c.OrgID, id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}
