// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/validation"
)

// decodeJSON reads and validates a JSON request body into dst. On failure
// it writes the error envelope and returns false; the handler must return
// immediately. The body is capped at the configured byte limit.
func (s *Server) decodeJSON(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.API.MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rw.BadRequest("request body too large")
			return false
		}
		rw.BadRequest("invalid JSON body: " + err.Error())
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationFailed(verr)
		return false
	}
	return true
}

// pagination parses limit/offset query parameters, applying the configured
// default and cap. Malformed or negative values fall back to defaults.
func (s *Server) pagination(r *http.Request) (limit, offset int) {
	limit = s.cfg.API.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > s.cfg.API.MaxPageSize {
		limit = s.cfg.API.MaxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// pathID parses a UUID route parameter. On failure it writes a 400
// envelope and returns false.
func pathID(rw *ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		rw.BadRequest("invalid " + param)
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter, returning nil when
// absent. A malformed value is reported as a 400.
func queryUUID(rw *ResponseWriter, r *http.Request, param string) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		rw.BadRequest("invalid " + param)
		return nil, false
	}
	return &id, true
}

// claims pulls authenticated claims from the request context. The auth
// middleware guarantees presence on protected routes; a miss means a
// wiring bug, reported as a 401 rather than a panic.
func claims(rw *ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	c, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("authentication required")
		return nil, false
	}
	return c, true
}
