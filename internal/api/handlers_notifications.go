// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"
	"strconv"

	"github.com/custodahq/custoda/internal/models"
)

// handleListNotifications lists the caller's notifications, newest
// first. Pass unread=true to restrict to unread rows.
//
//	@Summary	List own notifications
//	@Tags		notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		unread	query		bool	false	"Unread only"
//	@Success	200		{object}	models.APIResponse{data=models.ListResponse}
//	@Router		/api/v1/notifications [get]
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			rw.BadRequest("invalid unread")
			return
		}
		unreadOnly = v
	}

	limit, offset := s.pagination(r)
	notifications, total, err := s.db.ListNotifications(r.Context(), c.OrgID, c.UserID, unreadOnly, limit, offset)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(models.NewListResponse(notifications, limit, offset, total))
}

// handleUnreadCount returns the caller's unread notification count.
func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	count, err := s.db.CountUnreadNotifications(r.Context(), c.OrgID, c.UserID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(map[string]int64{"unread": count})
}

// handleMarkNotificationRead marks one of the caller's notifications
// read. Another user's notification is a 404, not a 403.
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	id, ok := pathID(rw, r, "id")
	if !ok {
		return
	}

	if err := s.db.MarkNotificationRead(r.Context(), c.OrgID, c.UserID, id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// handleMarkAllNotificationsRead marks every unread notification of the
// caller read and reports how many changed.
func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	updated, err := s.db.MarkAllNotificationsRead(r.Context(), c.OrgID, c.UserID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(map[string]int64{"marked_read": updated})
}
