// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"

	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// handleListUsers lists org members. Admins see everyone; property
// managers only see the roles they coordinate (technicians and tenants).
//
//	@Summary	List users
//	@Tags		users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		role	query		string	false	"Filter by role"
//	@Success	200		{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	limit, offset := s.pagination(r)
	filter := database.UserFilter{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	}

	if c.Role == models.RolePropertyManager {
		switch filter.Role {
		case models.RoleTechnician, models.RoleTenant:
		case "":
			// No explicit role filter: a PM listing defaults to the
			// workforce they manage.
			filter.Role = models.RoleTechnician
		default:
			rw.Forbidden("property managers may only list technicians and tenants")
			return
		}
	}

	users, total, err := s.db.ListUsers(r.Context(), c.OrgID, filter)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(users, limit, offset, total))
}

// handleCreateUser invites a new user into the org.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.CreateUserRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.Security.BcryptCost)
	if err != nil {
		rw.InternalError(err)
		return
	}

	user := models.NewUser(c.OrgID, req.FirstName, req.LastName, req.Email, hash, req.Role)
	user.Phone = req.Phone
	if err := s.db.CreateUser(r.Context(), user); err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(user)
}

// handleGetUser returns one org member.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	user, err := s.db.GetUser(r.Context(), c.OrgID, id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(user)
}

// handleUpdateUser applies admin edits to a user, including role and
// activation changes. Role changes invalidate the authz decision cache
// and leave an audit line.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	hash, err := s.optionalPasswordHash(req.Password)
	if err != nil {
		rw.InternalError(err)
		return
	}

	user, err := s.db.UpdateUser(r.Context(), c.OrgID, id, &req, hash)
	if err != nil {
		rw.DomainError(err)
		return
	}

	if req.Role != nil {
		s.enforcer.InvalidateRole(*req.Role)
		logging.Ctx(r.Context()).Info().
			Str("user_id", id.String()).
			Str("new_role", *req.Role).
			Str("changed_by", c.UserID.String()).
			Msg("User role changed")
	}
	rw.Success(user)
}

// handleDeleteUser soft-deletes an org member. Self-deletion is refused
// so an org cannot orphan itself of admins by accident.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if id == c.UserID {
		rw.Conflict("cannot delete your own account")
		return
	}

	if err := s.db.DeleteUser(r.Context(), c.OrgID, id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// handleUpdateProfile lets any authenticated user edit their own
// profile. Privileged fields (role, activation) are stripped before the
// update regardless of what the client sent.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}
	req.Role = nil
	req.IsActive = nil

	hash, err := s.optionalPasswordHash(req.Password)
	if err != nil {
		rw.InternalError(err)
		return
	}

	user, err := s.db.UpdateUser(r.Context(), c.OrgID, c.UserID, &req, hash)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(user)
}

func (s *Server) optionalPasswordHash(password *string) (string, error) {
	if password == nil {
		return "", nil
	}
	return auth.HashPassword(*password, s.cfg.Security.BcryptCost)
}
