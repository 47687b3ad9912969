// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"

	gorillaws "github.com/gorilla/websocket"

	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/websocket"
)

// handleWebSocket upgrades the connection and registers the client with
// the hub under the authenticated user id. Browsers cannot set an
// Authorization header on the WebSocket handshake, so the token is also
// accepted as a query parameter or the session cookie.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if s.hub == nil {
		rw.ServiceUnavailable("realtime is not configured")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		rw.Unauthorized("missing token")
		return
	}

	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		rw.Unauthorized("invalid token")
		return
	}

	upgrader := gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkWSOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(s.hub, conn, claims.UserID, claims.OrgID)
	s.hub.Register <- client
	client.Start()
}

func (s *Server) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
