// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
	"github.com/custodahq/custoda/internal/validation"
)

// ResponseWriter wraps http.ResponseWriter with envelope helpers so that
// every handler emits the same models.APIResponse shape. The request is
// kept only to recover the request id for error payloads.
type ResponseWriter struct {
	w http.ResponseWriter
	r *http.Request
}

// NewResponseWriter creates a ResponseWriter for the given request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r}
}

// Success writes a 200 envelope with the given data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.writeJSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    &models.Meta{Timestamp: time.Now().UTC()},
	})
}

// SuccessCached writes a 200 envelope flagged as served from cache.
func (rw *ResponseWriter) SuccessCached(data interface{}) {
	rw.writeJSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    &models.Meta{Timestamp: time.Now().UTC(), Cached: true},
	})
}

// Created writes a 201 envelope with the given data.
func (rw *ResponseWriter) Created(data interface{}) {
	rw.writeJSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    data,
		Meta:    &models.Meta{Timestamp: time.Now().UTC()},
	})
}

// NoContent writes a bare 204. No envelope: there is no body to wrap.
func (rw *ResponseWriter) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope with the given status and code.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.ErrorWithDetails(status, code, message, nil)
}

// ErrorWithDetails writes an error envelope carrying structured details,
// typically per-field validation messages.
func (rw *ResponseWriter) ErrorWithDetails(status int, code, message string, details map[string]interface{}) {
	rw.writeJSON(status, models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(rw.r.Context()),
		},
	})
}

// BadRequest writes a 400 envelope.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, models.ErrCodeBadRequest, message)
}

// Unauthorized writes a 401 envelope.
func (rw *ResponseWriter) Unauthorized(message string) {
	rw.Error(http.StatusUnauthorized, models.ErrCodeUnauthorized, message)
}

// Forbidden writes a 403 envelope.
func (rw *ResponseWriter) Forbidden(message string) {
	rw.Error(http.StatusForbidden, models.ErrCodeForbidden, message)
}

// NotFound writes a 404 envelope.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, models.ErrCodeNotFound, message)
}

// Conflict writes a 409 envelope.
func (rw *ResponseWriter) Conflict(message string) {
	rw.Error(http.StatusConflict, models.ErrCodeConflict, message)
}

// PaymentRequired writes a 402 envelope for plan-limit rejections.
func (rw *ResponseWriter) PaymentRequired(message string) {
	rw.Error(http.StatusPaymentRequired, models.ErrCodePaymentRequired, message)
}

// InternalError writes a 500 envelope with a generic message. The
// underlying error is logged, never sent to the client.
func (rw *ResponseWriter) InternalError(err error) {
	logging.Error().
		Err(err).
		Str("path", rw.r.URL.Path).
		Str("request_id", logging.RequestIDFromContext(rw.r.Context())).
		Msg("Internal server error")
	rw.Error(http.StatusInternalServerError, models.ErrCodeInternalError, "internal server error")
}

// ExternalServiceError writes a 502 envelope for upstream failures
// (Stripe, Cloudinary, the LLM API). The upstream error is logged.
func (rw *ResponseWriter) ExternalServiceError(service string, err error) {
	logging.Error().
		Err(err).
		Str("service", service).
		Str("path", rw.r.URL.Path).
		Msg("Upstream service call failed")
	rw.Error(http.StatusBadGateway, models.ErrCodeExternalService,
		fmt.Sprintf("%s request failed", service))
}

// ServiceUnavailable writes a 503 envelope for features that are not
// configured in this deployment.
func (rw *ResponseWriter) ServiceUnavailable(message string) {
	rw.Error(http.StatusServiceUnavailable, models.ErrCodeExternalService, message)
}

// ValidationFailed writes a 400 envelope from a request validation error.
func (rw *ResponseWriter) ValidationFailed(verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

func (rw *ResponseWriter) writeJSON(status int, body models.APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response envelope")
	}
}
