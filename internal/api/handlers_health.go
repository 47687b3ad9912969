// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"
	"time"

	"github.com/custodahq/custoda/internal/models"
)

var startTime = time.Now()

// handleHealth is the liveness probe. It answers as long as the process
// is serving; no dependencies are checked.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	})
}

// handleReady is the readiness probe: healthy only when the database
// responds. Cache trouble degrades performance, not correctness, so it
// is reported but does not fail readiness.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := s.db.HealthCheck(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, models.ErrCodeDatabaseError, "database unavailable")
		return
	}

	stats := s.cache.Stats()
	rw.Success(map[string]interface{}{
		"status": "ready",
		"cache": map[string]int64{
			"hits":   stats.Hits,
			"misses": stats.Misses,
			"keys":   stats.Keys,
		},
	})
}
