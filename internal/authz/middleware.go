// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package authz

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/logging"
)

// Middleware enforces the role policy on routes. It must run after
// auth.Middleware.Authenticate so claims are present in the context.
type Middleware struct {
	enforcer *Enforcer
	audit    *AuditLogger
}

// NewMiddleware creates the authorization middleware. audit may be nil.
func NewMiddleware(enforcer *Enforcer, audit *AuditLogger) *Middleware {
	return &Middleware{
		enforcer: enforcer,
		audit:    audit,
	}
}

// RequirePermission guards a route group with an object/action policy
// check against the authenticated user's role.
func (m *Middleware) RequirePermission(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeForbidden(w, "missing identity")
				return
			}

			start := time.Now()
			allowed, err := m.enforcer.Enforce(claims.Role, object, action)
			if err != nil {
				logging.CtxErr(r.Context(), err).Msg("Authorization check failed")
				writeEnforcementError(w)
				return
			}

			m.auditDecision(r, claims, object, action, allowed, time.Since(start))

			if !allowed {
				writeForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireMethodPermission derives the action from the HTTP method and
// checks it against the given object. Useful for CRUD route groups where
// GET maps to read, mutations to write, and DELETE to delete.
func (m *Middleware) RequireMethodPermission(object string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				writeForbidden(w, "missing identity")
				return
			}

			action := methodToAction(r.Method)

			start := time.Now()
			allowed, err := m.enforcer.Enforce(claims.Role, object, action)
			if err != nil {
				logging.CtxErr(r.Context(), err).Msg("Authorization check failed")
				writeEnforcementError(w)
				return
			}

			m.auditDecision(r, claims, object, action, allowed, time.Since(start))

			if !allowed {
				writeForbidden(w, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) auditDecision(r *http.Request, claims *auth.Claims, object, action string, allowed bool, duration time.Duration) {
	if m.audit == nil {
		return
	}

	reason := ""
	if !allowed {
		reason = "no policy grants " + action + " on " + object
	}

	m.audit.LogDecision(&AuditEvent{
		RequestID: logging.RequestIDFromContext(r.Context()),
		UserID:    claims.UserID.String(),
		OrgID:     claims.OrgID.String(),
		Role:      claims.Role,
		Object:    object,
		Action:    action,
		Decision:  allowed,
		Reason:    reason,
		Duration:  duration,
		IPAddress: r.RemoteAddr,
	})
}

// methodToAction maps HTTP methods to policy actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ActionRead
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return ActionWrite
	case http.MethodDelete:
		return ActionDelete
	default:
		return ActionRead
	}
}

// writeForbidden emits the standard error envelope without importing the
// api package.
func writeForbidden(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusForbidden, "FORBIDDEN", message)
}

func writeEnforcementError(w http.ResponseWriter) {
	writeEnvelope(w, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization check failed")
}

func writeEnvelope(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	body.Error.Code = code
	body.Error.Message = message

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to write authz error response")
	}
}
