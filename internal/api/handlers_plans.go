// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"
	"strconv"

	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/models"
)

// handleListMaintenancePlans lists recurring maintenance plans.
//
//	@Summary	List maintenance plans
//	@Tags		maintenance-plans
//	@Security	BearerAuth
//	@Produce	json
//	@Param		property_id	query		string	false	"Filter by property"
//	@Param		is_active	query		bool	false	"Filter by active flag"
//	@Success	200			{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/maintenance-plans [get]
func (s *Server) handleListMaintenancePlans(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	propertyID, ok := queryUUID(rw, r, "property_id")
	if !ok {
		return
	}
	var isActive *bool
	if raw := r.URL.Query().Get("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			rw.BadRequest("invalid is_active")
			return
		}
		isActive = &v
	}

	limit, offset := s.pagination(r)
	plans, total, err := s.db.ListMaintenancePlans(r.Context(), c.OrgID, database.PlanFilter{
		PropertyID: propertyID,
		IsActive:   isActive,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(plans, limit, offset, total))
}

// handleGetMaintenancePlan returns one plan.
func (s *Server) handleGetMaintenancePlan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	plan, err := s.db.GetMaintenancePlan(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(plan)
}

// handleCreateMaintenancePlan creates a recurring plan. The store parses
// the cron expression and computes the first due time.
func (s *Server) handleCreateMaintenancePlan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.CreateMaintenancePlanRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	category := req.Category
	if category == "" {
		category = models.JobCategoryOther
	}
	priority := req.Priority
	if priority == "" {
		priority = models.JobPriorityMedium
	}
	plan := &models.MaintenancePlan{
		OrgID:       c.OrgID,
		PropertyID:  req.PropertyID,
		UnitID:      req.UnitID,
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Priority:    priority,
		AssigneeID:  req.AssigneeID,
		CronExpr:    req.CronExpr,
		IsActive:    true,
	}
	if err := s.db.CreateMaintenancePlan(r.Context(), plan); err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(plan)
}

// handleUpdateMaintenancePlan applies plan edits.
func (s *Server) handleUpdateMaintenancePlan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdateMaintenancePlanRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	plan, err := s.db.UpdateMaintenancePlan(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(plan)
}

// handleRunMaintenancePlan triggers one plan immediately, returning the
// generated job. The next scheduled run is unaffected.
func (s *Server) handleRunMaintenancePlan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	job, err := s.db.RunMaintenancePlan(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(job)
}

// handleDeleteMaintenancePlan soft-deletes a plan. Jobs it already
// generated are untouched.
func (s *Server) handleDeleteMaintenancePlan(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteMaintenancePlan(r.Context(), c.OrgID, id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}
