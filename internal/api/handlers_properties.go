// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/cache"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// handleListProperties lists the org's properties. The serialized result
// is cached per org and query shape; any property write clears the org's
// whole list prefix.
//
//	@Summary	List properties
//	@Tags		properties
//	@Security	BearerAuth
//	@Produce	json
//	@Param		manager_id	query		string	false	"Filter by manager"
//	@Param		search		query		string	false	"Match name or city"
//	@Success	200			{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/properties [get]
func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	managerID, ok := queryUUID(rw, r, "manager_id")
	if !ok {
		return
	}
	limit, offset := s.pagination(r)
	search := r.URL.Query().Get("search")

	// Tenants see only the property housing their unit. Uncached: the
	// result is per-user, not per-org.
	if c.Role == models.RoleTenant {
		unit, err := s.db.GetTenantUnit(r.Context(), c.OrgID, c.UserID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				rw.Success(models.NewListResponse([]models.Property{}, limit, offset, 0))
				return
			}
			rw.DomainError(err)
			return
		}
		property, err := s.db.GetProperty(r.Context(), c.OrgID, unit.PropertyID)
		if err != nil {
			rw.DomainError(err)
			return
		}
		rw.Success(models.NewListResponse([]models.Property{*property}, limit, offset, 1))
		return
	}

	fp := cache.Fingerprint(
		r.URL.Query().Get("manager_id"), search,
		strconv.Itoa(limit), strconv.Itoa(offset),
	)
	key := cache.PropertyListKey(c.OrgID, fp)
	if raw, hit := s.cache.Get(r.Context(), key); hit {
		rw.SuccessCached(json.RawMessage(raw))
		return
	}

	properties, total, err := s.db.ListProperties(r.Context(), c.OrgID, database.PropertyFilter{
		ManagerID: managerID,
		Search:    search,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}

	list := models.NewListResponse(properties, limit, offset, total)
	if raw, err := json.Marshal(list); err == nil {
		s.cache.Set(r.Context(), key, raw)
	} else {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to cache property list")
	}
	rw.Success(list)
}

// handleGetProperty returns one property with its units preloaded.
func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if c.Role == models.RoleTenant {
		unit, err := s.db.GetTenantUnit(r.Context(), c.OrgID, c.UserID)
		if err != nil {
			rw.DomainError(err)
			return
		}
		if unit.PropertyID != id {
			// Indistinguishable from a missing row, like cross-org reads.
			rw.NotFound("resource not found")
			return
		}
	}

	property, err := s.db.GetProperty(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(property)
}

// handleCreateProperty creates a property, subject to the org's plan
// limit.
func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.CreatePropertyRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	if err := s.entitlements.CheckPropertyCreate(r.Context(), c.OrgID); err != nil {
		rw.DomainError(err)
		return
	}

	country := req.Country
	if country == "" {
		country = "US"
	}
	property := &models.Property{
		OrgID:        c.OrgID,
		Name:         req.Name,
		ManagerID:    req.ManagerID,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Country:      country,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		YearBuilt:    req.YearBuilt,
		Notes:        req.Notes,
	}
	if err := s.db.CreateProperty(r.Context(), property); err != nil {
		rw.DomainError(err)
		return
	}

	s.invalidatePropertyLists(r, c.OrgID)
	rw.Created(property)
}

// handleUpdateProperty applies property edits.
func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdatePropertyRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	property, err := s.db.UpdateProperty(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}

	s.invalidatePropertyLists(r, c.OrgID)
	rw.Success(property)
}

// handleDeleteProperty soft-deletes a property.
func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteProperty(r.Context(), c.OrgID, id); err != nil {
		rw.DomainError(err)
		return
	}

	s.invalidatePropertyLists(r, c.OrgID)
	rw.NoContent()
}

func (s *Server) invalidatePropertyLists(r *http.Request, orgID uuid.UUID) {
	s.cache.DeletePrefix(r.Context(), cache.PropertyListPrefix(orgID))
}
