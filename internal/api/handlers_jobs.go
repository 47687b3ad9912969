// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"

	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/models"
)

// handleListJobs lists jobs with filtering. Technicians are pinned to
// their own assignments regardless of the filter they send.
//
//	@Summary	List jobs
//	@Tags		jobs
//	@Security	BearerAuth
//	@Produce	json
//	@Param		property_id	query		string	false	"Filter by property"
//	@Param		assignee_id	query		string	false	"Filter by assignee"
//	@Param		status		query		string	false	"Filter by status"
//	@Success	200			{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/jobs [get]
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	propertyID, ok := queryUUID(rw, r, "property_id")
	if !ok {
		return
	}
	assigneeID, ok := queryUUID(rw, r, "assignee_id")
	if !ok {
		return
	}

	limit, offset := s.pagination(r)
	filter := database.JobFilter{
		PropertyID: propertyID,
		AssigneeID: assigneeID,
		Status:     r.URL.Query().Get("status"),
		Priority:   r.URL.Query().Get("priority"),
		Category:   r.URL.Query().Get("category"),
		Limit:      limit,
		Offset:     offset,
	}
	if c.Role == models.RoleTechnician {
		self := c.UserID
		filter.AssigneeID = &self
	}

	jobs, total, err := s.db.ListJobs(r.Context(), c.OrgID, filter)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(jobs, limit, offset, total))
}

// handleGetJob returns one job. Technicians can only read jobs assigned
// to them.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	job, err := s.db.GetJob(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if !jobVisibleTo(c, job) {
		rw.NotFound("resource not found")
		return
	}
	rw.Success(job)
}

// handleCreateJob creates a job. Jobs created here are manual-source;
// service requests, recommendations and maintenance plans create theirs
// through conversion endpoints.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.CreateJobRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = models.JobPriorityMedium
	}
	status := models.JobStatusOpen
	if req.AssigneeID != nil {
		status = models.JobStatusAssigned
	}
	creator := c.UserID
	job := &models.Job{
		OrgID:        c.OrgID,
		PropertyID:   req.PropertyID,
		UnitID:       req.UnitID,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Priority:     priority,
		Status:       status,
		Source:       models.JobSourceManual,
		AssigneeID:   req.AssigneeID,
		CreatedByID:  &creator,
		ScheduledFor: req.ScheduledFor,
	}
	if err := s.db.CreateJob(r.Context(), job); err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(job)
}

// handleUpdateJob applies job edits. Status is not editable here.
func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdateJobRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	job, err := s.db.UpdateJob(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(job)
}

// handleAssignJob assigns a job to a technician or manager. The store
// validates the assignee's org and role and enqueues the assignment
// notification in the same transaction.
func (s *Server) handleAssignJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.JobAssignRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	job, err := s.db.AssignJob(r.Context(), c.OrgID, id, req.AssigneeID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(job)
}

// handleJobStatus moves a job through its status machine. Technicians
// may only move their own jobs.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.JobStatusRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	if c.Role == models.RoleTechnician {
		job, err := s.db.GetJob(r.Context(), c.OrgID, id)
		if err != nil {
			rw.DomainError(err)
			return
		}
		if !jobVisibleTo(c, job) {
			rw.NotFound("resource not found")
			return
		}
	}

	job, err := s.db.TransitionJob(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(job)
}

// handleDeleteJob soft-deletes a job.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteJob(r.Context(), c.OrgID, id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// jobVisibleTo applies the ownership rule on top of the role policy:
// technicians see only their assigned jobs, staff see everything.
func jobVisibleTo(c *auth.Claims, job *models.Job) bool {
	if c.Role != models.RoleTechnician {
		return true
	}
	return job.AssigneeID != nil && *job.AssigneeID == c.UserID
}
