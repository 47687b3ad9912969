// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service request statuses.
const (
	ServiceRequestStatusSubmitted = "submitted"
	ServiceRequestStatusTriaged   = "triaged"
	ServiceRequestStatusConverted = "converted"
	ServiceRequestStatusDeclined  = "declined"
	ServiceRequestStatusClosed    = "closed"
)

// ValidServiceRequestStatuses contains all accepted service request status
// values.
var ValidServiceRequestStatuses = []string{
	ServiceRequestStatusSubmitted, ServiceRequestStatusTriaged,
	ServiceRequestStatusConverted, ServiceRequestStatusDeclined,
	ServiceRequestStatusClosed,
}

// IsValidServiceRequestStatus checks whether a service request status
// value is accepted.
func IsValidServiceRequestStatus(s string) bool {
	for _, v := range ValidServiceRequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// serviceRequestTransitions maps each status to the set of statuses it may
// move to. Converted requests are driven by the convert operation, not by
// direct status updates.
var serviceRequestTransitions = map[string][]string{
	ServiceRequestStatusSubmitted: {ServiceRequestStatusTriaged, ServiceRequestStatusDeclined, ServiceRequestStatusClosed},
	ServiceRequestStatusTriaged:   {ServiceRequestStatusConverted, ServiceRequestStatusDeclined, ServiceRequestStatusClosed},
	ServiceRequestStatusConverted: {ServiceRequestStatusClosed},
	ServiceRequestStatusDeclined:  {},
	ServiceRequestStatusClosed:    {},
}

// ServiceRequest is a tenant-submitted maintenance issue. Managers triage
// requests and either decline them or convert them into jobs; conversion
// creates the job and links it in a single transaction.
type ServiceRequest struct {
	Base
	OrgID      uuid.UUID `gorm:"type:uuid;index;not null" json:"org_id"`
	PropertyID uuid.UUID `gorm:"type:uuid;index;not null" json:"property_id"`
	Property   *Property `gorm:"foreignKey:PropertyID" json:"-"`
	UnitID     uuid.UUID `gorm:"type:uuid;index;not null" json:"unit_id"`

	// RequesterID is the tenant who submitted the request.
	RequesterID uuid.UUID `gorm:"type:uuid;index;not null" json:"requester_id"`
	Requester   *User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	// JobID is set when the request converts into a job.
	JobID *uuid.UUID `gorm:"type:uuid" json:"job_id,omitempty"`

	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	// Category is one of the job category constants.
	Category string `gorm:"size:32;not null;default:other" json:"category"`
	// Priority is the tenant-perceived urgency; managers may adjust it
	// during triage.
	Priority string `gorm:"size:16;not null;default:medium" json:"priority"`
	// Status is one of the service request status constants.
	Status string `gorm:"size:32;not null;default:submitted;index" json:"status"`
	// ImageURL points at a tenant-uploaded photo of the issue.
	ImageURL string `gorm:"size:500" json:"image_url,omitempty"`
	// TriageNotes are written by the manager during triage or decline.
	TriageNotes string `gorm:"type:text" json:"triage_notes,omitempty"`
	// ResolvedAt is stamped when the request reaches a final status.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanTransitionTo reports whether the request may move from its current
// status to the target status.
func (sr *ServiceRequest) CanTransitionTo(target string) bool {
	for _, allowed := range serviceRequestTransitions[sr.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CreateServiceRequestRequest is the payload for POST /api/v1/service-requests.
// Tenants submit against their own unit; the property is derived from it.
type CreateServiceRequestRequest struct {
	UnitID      uuid.UUID `json:"unit_id" validate:"required"`
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Category    string    `json:"category,omitempty" validate:"omitempty,job_category"`
	Priority    string    `json:"priority,omitempty" validate:"omitempty,job_priority"`
	ImageURL    string    `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
}

// TriageServiceRequestRequest is the payload for POST
// /api/v1/service-requests/{id}/triage. Decline requires notes.
type TriageServiceRequestRequest struct {
	Status      string  `json:"status" validate:"required,oneof=triaged declined closed"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,job_priority"`
	TriageNotes string  `json:"triage_notes,omitempty" validate:"omitempty,max=10000"`
}

// ConvertServiceRequestRequest is the payload for POST
// /api/v1/service-requests/{id}/convert. Optional overrides for the
// generated job.
type ConvertServiceRequestRequest struct {
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty"`
	Priority     string     `json:"priority,omitempty" validate:"omitempty,job_priority"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}
