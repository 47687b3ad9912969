// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"time"
)

// Error codes used across the API.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodePaymentRequired  = "PAYMENT_REQUIRED"
	ErrCodeExternalService  = "EXTERNAL_SERVICE_FAILED"
)

// APIResponse is the response envelope used by every HTTP endpoint.
//
// Successful response:
//
//	{
//	  "success": true,
//	  "data": {"id": "7f9c...", "title": "Replace HVAC filter"},
//	  "meta": {"timestamp": "2026-03-02T12:00:00Z"}
//	}
//
// Error response:
//
//	{
//	  "success": false,
//	  "error": {
//	    "code": "VALIDATION_FAILED",
//	    "message": "Field validation failed",
//	    "details": {"title": "title is required"},
//	    "request_id": "b3c1..."
//	  },
//	  "meta": {"timestamp": "2026-03-02T12:00:00Z"}
//	}
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries response metadata for observability and caching.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
	Cached    bool      `json:"cached,omitempty"`
}

// APIError is the structured error payload inside the envelope.
type APIError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// PaginationInfo contains offset-based pagination metadata.
type PaginationInfo struct {
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	TotalCount int64 `json:"total_count"`
	HasMore    bool  `json:"has_more"`
}

// ListResponse wraps a result page with its pagination metadata. Items
// is always a JSON array, never null, so clients can iterate without
// nil checks.
type ListResponse struct {
	Items      interface{}    `json:"items"`
	Pagination PaginationInfo `json:"pagination"`
}

// NewListResponse computes pagination metadata for a result page.
func NewListResponse(items interface{}, limit, offset int, total int64) *ListResponse {
	return &ListResponse{
		Items: items,
		Pagination: PaginationInfo{
			Limit:      limit,
			Offset:     offset,
			TotalCount: total,
			HasMore:    int64(offset+limit) < total,
		},
	}
}
