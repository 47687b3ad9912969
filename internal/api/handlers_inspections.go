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

// handleListInspections lists inspections with filtering.
//
//	@Summary	List inspections
//	@Tags		inspections
//	@Security	BearerAuth
//	@Produce	json
//	@Param		property_id		query		string	false	"Filter by property"
//	@Param		inspector_id	query		string	false	"Filter by inspector"
//	@Param		status			query		string	false	"Filter by status"
//	@Success	200				{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/inspections [get]
func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	propertyID, ok := queryUUID(rw, r, "property_id")
	if !ok {
		return
	}
	inspectorID, ok := queryUUID(rw, r, "inspector_id")
	if !ok {
		return
	}

	limit, offset := s.pagination(r)
	inspections, total, err := s.db.ListInspections(r.Context(), c.OrgID, database.InspectionFilter{
		PropertyID:  propertyID,
		InspectorID: inspectorID,
		Status:      r.URL.Query().Get("status"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(inspections, limit, offset, total))
}

// handleGetInspection returns one inspection.
func (s *Server) handleGetInspection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	inspection, err := s.db.GetInspection(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(inspection)
}

// handleCreateInspection schedules an inspection. The inspector is
// notified through the outbox in the same transaction.
func (s *Server) handleCreateInspection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.CreateInspectionRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	inspection := &models.Inspection{
		OrgID:        c.OrgID,
		PropertyID:   req.PropertyID,
		UnitID:       req.UnitID,
		InspectorID:  req.InspectorID,
		ScheduledFor: req.ScheduledFor,
		Status:       models.InspectionStatusScheduled,
	}
	if err := s.db.CreateInspection(r.Context(), inspection); err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(inspection)
}

// handleUpdateInspection reschedules or reassigns an inspection.
func (s *Server) handleUpdateInspection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdateInspectionRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	inspection, err := s.db.UpdateInspection(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(inspection)
}

// handleCompleteInspection records the walkthrough result. Each finding
// becomes a recommendation row in the same transaction; the response
// carries both the inspection and the created recommendations.
func (s *Server) handleCompleteInspection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.CompleteInspectionRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	inspection, recommendations, err := s.db.CompleteInspection(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(map[string]interface{}{
		"inspection":      inspection,
		"recommendations": recommendations,
	})
}

// handleDeleteInspection soft-deletes an inspection.
func (s *Server) handleDeleteInspection(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.DeleteInspection(r.Context(), c.OrgID, id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}
