// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package authz

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/logging"
)

// AuditEvent records one authorization decision for compliance and
// forensic review.
type AuditEvent struct {
	// ID is a unique identifier for this audit event
	ID string `json:"id"`

	// Timestamp is when the authorization decision was made
	Timestamp time.Time `json:"timestamp"`

	// RequestID links this event to an HTTP request
	RequestID string `json:"request_id,omitempty"`

	// UserID is the authenticated user requesting access
	UserID string `json:"user_id"`

	// OrgID is the tenant the user belongs to
	OrgID string `json:"org_id,omitempty"`

	// Role is the role used for the decision
	Role string `json:"role"`

	// Object is the resource being accessed (e.g. "jobs")
	Object string `json:"object"`

	// Action is the operation (read, write, delete)
	Action string `json:"action"`

	// Decision is true if access was allowed
	Decision bool `json:"decision"`

	// Reason provides context for denials
	Reason string `json:"reason,omitempty"`

	// Duration is how long the check took
	Duration time.Duration `json:"duration_ns"`

	// IPAddress is the client's IP address
	IPAddress string `json:"ip_address,omitempty"`
}

// AuditLoggerConfig configures the audit logger behavior.
type AuditLoggerConfig struct {
	// Enabled controls whether audit logging is active
	Enabled bool

	// LogAllowed controls whether to log allowed decisions.
	// Set to false to only log denials (reduces log volume).
	LogAllowed bool

	// LogDenied controls whether to log denied decisions
	LogDenied bool

	// BufferSize is the size of the async log buffer.
	// Events are dropped if the buffer is full (non-blocking).
	BufferSize int
}

// DefaultAuditLoggerConfig returns production defaults: denials logged,
// allowed decisions skipped to keep volume down.
func DefaultAuditLoggerConfig() *AuditLoggerConfig {
	return &AuditLoggerConfig{
		Enabled:    true,
		LogAllowed: false,
		LogDenied:  true,
		BufferSize: 1000,
	}
}

// AuditLogger handles async logging of authorization decisions.
type AuditLogger struct {
	config   *AuditLoggerConfig
	events   chan *AuditEvent
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAuditLogger creates a new audit logger with the given configuration.
func NewAuditLogger(config *AuditLoggerConfig) *AuditLogger {
	if config == nil {
		config = DefaultAuditLoggerConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}

	al := &AuditLogger{
		config:   config,
		events:   make(chan *AuditEvent, config.BufferSize),
		stopChan: make(chan struct{}),
	}

	if config.Enabled {
		al.wg.Add(1)
		go al.processEvents()
	}

	return al
}

// LogDecision records an authorization decision asynchronously.
// Non-blocking; events are dropped if the buffer is full.
func (al *AuditLogger) LogDecision(event *AuditEvent) {
	if al == nil || !al.config.Enabled {
		return
	}

	if event.Decision && !al.config.LogAllowed {
		return
	}
	if !event.Decision && !al.config.LogDenied {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case al.events <- event:
	default:
		logging.Warn().
			Str("user_id", event.UserID).
			Str("object", event.Object).
			Msg("Audit log buffer full, event dropped")
	}
}

// processEvents handles the async event processing.
func (al *AuditLogger) processEvents() {
	defer al.wg.Done()

	for {
		select {
		case <-al.stopChan:
			al.drainEvents()
			return
		case event := <-al.events:
			al.writeEvent(event)
		}
	}
}

// drainEvents processes any remaining events in the buffer.
func (al *AuditLogger) drainEvents() {
	for {
		select {
		case event := <-al.events:
			al.writeEvent(event)
		default:
			return
		}
	}
}

// writeEvent outputs the event to the log. Denials log at warn level so
// operators watching error streams see them.
func (al *AuditLogger) writeEvent(event *AuditEvent) {
	logEvent := logging.Info()
	if !event.Decision {
		logEvent = logging.Warn()
	}

	logEvent = logEvent.
		Str("event_type", "authz_decision").
		Str("audit_id", event.ID).
		Time("audit_timestamp", event.Timestamp).
		Str("user_id", event.UserID).
		Str("role", event.Role).
		Str("object", event.Object).
		Str("action", event.Action).
		Bool("decision", event.Decision).
		Dur("duration", event.Duration)

	if event.OrgID != "" {
		logEvent = logEvent.Str("org_id", event.OrgID)
	}
	if event.RequestID != "" {
		logEvent = logEvent.Str("request_id", event.RequestID)
	}
	if event.Reason != "" {
		logEvent = logEvent.Str("reason", event.Reason)
	}
	if event.IPAddress != "" {
		logEvent = logEvent.Str("ip_address", event.IPAddress)
	}

	if event.Decision {
		logEvent.Msg("Authorization allowed")
	} else {
		logEvent.Msg("Authorization denied")
	}
}

// Close stops the audit logger and flushes remaining events.
func (al *AuditLogger) Close() {
	if al == nil {
		return
	}

	al.stopOnce.Do(func() {
		close(al.stopChan)
	})
	al.wg.Wait()
}

// Stats returns current audit logger statistics.
func (al *AuditLogger) Stats() AuditLoggerStats {
	if al == nil {
		return AuditLoggerStats{}
	}

	return AuditLoggerStats{
		BufferSize: al.config.BufferSize,
		BufferUsed: len(al.events),
		Enabled:    al.config.Enabled,
		LogAllowed: al.config.LogAllowed,
		LogDenied:  al.config.LogDenied,
	}
}

// AuditLoggerStats provides statistics about the audit logger.
type AuditLoggerStats struct {
	BufferSize int  `json:"buffer_size"`
	BufferUsed int  `json:"buffer_used"`
	Enabled    bool `json:"enabled"`
	LogAllowed bool `json:"log_allowed"`
	LogDenied  bool `json:"log_denied"`
}
