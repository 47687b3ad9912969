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

// handleListServiceRequests lists service requests. Tenants are pinned
// to their own submissions; staff see the org's full triage queue.
//
//	@Summary	List service requests
//	@Tags		service-requests
//	@Security	BearerAuth
//	@Produce	json
//	@Param		property_id	query		string	false	"Filter by property"
//	@Param		status		query		string	false	"Filter by status"
//	@Success	200			{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/service-requests [get]
func (s *Server) handleListServiceRequests(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	propertyID, ok := queryUUID(rw, r, "property_id")
	if !ok {
		return
	}

	limit, offset := s.pagination(r)
	filter := database.ServiceRequestFilter{
		PropertyID: propertyID,
		Status:     r.URL.Query().Get("status"),
		Limit:      limit,
		Offset:     offset,
	}
	if c.Role == models.RoleTenant {
		self := c.UserID
		filter.RequesterID = &self
	}

	requests, total, err := s.db.ListServiceRequests(r.Context(), c.OrgID, filter)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(requests, limit, offset, total))
}

// handleGetServiceRequest returns one request. Tenants can only read
// their own.
func (s *Server) handleGetServiceRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	sr, err := s.db.GetServiceRequest(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if c.Role == models.RoleTenant && sr.RequesterID != c.UserID {
		rw.NotFound("resource not found")
		return
	}
	rw.Success(sr)
}

// handleCreateServiceRequest files a request against a unit. Tenants may
// only file against the unit they occupy; the property is derived from
// the unit by the store.
func (s *Server) handleCreateServiceRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.CreateServiceRequestRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	if c.Role == models.RoleTenant {
		unit, err := s.db.GetUnit(r.Context(), c.OrgID, req.UnitID)
		if err != nil {
			rw.DomainError(err)
			return
		}
		if unit.TenantID == nil || *unit.TenantID != c.UserID {
			rw.NotFound("resource not found")
			return
		}
	}

	category := req.Category
	if category == "" {
		category = models.JobCategoryOther
	}
	priority := req.Priority
	if priority == "" {
		priority = models.JobPriorityMedium
	}
	sr := &models.ServiceRequest{
		OrgID:       c.OrgID,
		UnitID:      req.UnitID,
		RequesterID: c.UserID,
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Priority:    priority,
		ImageURL:    req.ImageURL,
		Status:      models.ServiceRequestStatusSubmitted,
	}
	if err := s.db.CreateServiceRequest(r.Context(), sr); err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(sr)
}

// handleTriageServiceRequest records a staff triage decision. The
// requester is notified through the outbox in the same transaction.
func (s *Server) handleTriageServiceRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.TriageServiceRequestRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	sr, err := s.db.TriageServiceRequest(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(sr)
}

// handleConvertServiceRequest turns a request into a job in one
// transaction, notifying the requester and any assignee.
func (s *Server) handleConvertServiceRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.ConvertServiceRequestRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	job, err := s.db.ConvertServiceRequest(r.Context(), c.OrgID, id, &req, c.UserID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(job)
}

// handleDeleteServiceRequest removes a request from the queue.
func (s *Server) handleDeleteServiceRequest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteServiceRequest(r.Context(), c.OrgID, id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}
