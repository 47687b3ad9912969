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

// handleListRecommendations lists inspection findings and manual
// suggestions awaiting a decision.
//
//	@Summary	List recommendations
//	@Tags		recommendations
//	@Security	BearerAuth
//	@Produce	json
//	@Param		property_id		query		string	false	"Filter by property"
//	@Param		inspection_id	query		string	false	"Filter by source inspection"
//	@Param		status			query		string	false	"Filter by status"
//	@Success	200				{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/recommendations [get]
func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	propertyID, ok := queryUUID(rw, r, "property_id")
	if !ok {
		return
	}
	inspectionID, ok := queryUUID(rw, r, "inspection_id")
	if !ok {
		return
	}

	limit, offset := s.pagination(r)
	recs, total, err := s.db.ListRecommendations(r.Context(), c.OrgID, database.RecommendationFilter{
		PropertyID:   propertyID,
		InspectionID: inspectionID,
		Status:       r.URL.Query().Get("status"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(recs, limit, offset, total))
}

// handleGetRecommendation returns one recommendation.
func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	rec, err := s.db.GetRecommendation(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(rec)
}

// handleUpdateRecommendation accepts or dismisses a recommendation.
func (s *Server) handleUpdateRecommendation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdateRecommendationRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	rec, err := s.db.UpdateRecommendation(r.Context(), c.OrgID, id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(rec)
}

// handleConvertRecommendation turns an open recommendation into a job in
// one transaction. The recommendation moves to converted and keeps a
// reference to the job it produced.
func (s *Server) handleConvertRecommendation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.ConvertRecommendationRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	job, err := s.db.ConvertRecommendation(r.Context(), c.OrgID, id, &req, c.UserID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(job)
}
