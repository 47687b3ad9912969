// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
notification.go - Notification and Outbox Model

Notification rows serve two purposes: they are the persistent in-app
notification feed, and they double as the outbox consumed by the dispatch
manager in internal/notify. A row with DispatchedAt nil and
DispatchAttempts below the configured maximum is pending delivery; the
dispatcher pushes it over WebSocket and email, then stamps DispatchedAt.
*/

package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification types.
const (
	NotificationTypeJobAssigned         = "job_assigned"
	NotificationTypeJobStatus           = "job_status"
	NotificationTypeServiceRequest      = "service_request"
	NotificationTypeInspectionScheduled = "inspection_scheduled"
	NotificationTypeRecommendation      = "recommendation"
	NotificationTypeBilling             = "billing"
	NotificationTypeSystem              = "system"
)

// ValidNotificationTypes contains all accepted notification type values.
var ValidNotificationTypes = []string{
	NotificationTypeJobAssigned, NotificationTypeJobStatus,
	NotificationTypeServiceRequest, NotificationTypeInspectionScheduled,
	NotificationTypeRecommendation, NotificationTypeBilling,
	NotificationTypeSystem,
}

// IsValidNotificationType checks whether a notification type value is
// accepted.
func IsValidNotificationType(t string) bool {
	for _, v := range ValidNotificationTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Notification is a message addressed to a single user.
type Notification struct {
	Base
	OrgID  uuid.UUID `gorm:"type:uuid;index;not null" json:"org_id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	// Type is one of the notification type constants.
	Type string `gorm:"size:32;not null;index" json:"type"`
	// Title is the short headline shown in the feed and email subject.
	Title string `gorm:"size:200;not null" json:"title"`
	// Body is the full message text.
	Body string `gorm:"type:text" json:"body,omitempty"`
	// Data carries structured references (job id, request id) for client
	// deep links.
	Data map[string]string `gorm:"serializer:json" json:"data,omitempty"`

	// ReadAt is stamped when the user opens the notification.
	ReadAt *time.Time `gorm:"index" json:"read_at,omitempty"`

	// DispatchedAt is stamped by the dispatcher after delivery. Nil rows
	// are pending.
	DispatchedAt *time.Time `gorm:"index" json:"-"`
	// DispatchAttempts counts delivery tries; rows at the configured
	// maximum are abandoned.
	DispatchAttempts int `gorm:"default:0" json:"-"`
	// LastDispatchError records the most recent delivery failure.
	LastDispatchError string `gorm:"size:500" json:"-"`
}

// IsRead reports whether the user has opened the notification.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NewNotification creates a pending notification for a user.
func NewNotification(orgID, userID uuid.UUID, typ, title, body string, data map[string]string) *Notification {
	return &Notification{
		OrgID:  orgID,
		UserID: userID,
		Type:   typ,
		Title:  title,
		Body:   body,
		Data:   data,
	}
}
