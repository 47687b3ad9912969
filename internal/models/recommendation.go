// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation statuses.
const (
	RecommendationStatusOpen      = "open"
	RecommendationStatusAccepted  = "accepted"
	RecommendationStatusDismissed = "dismissed"
	RecommendationStatusConverted = "converted"
)

// ValidRecommendationStatuses contains all accepted recommendation status
// values.
var ValidRecommendationStatuses = []string{
	RecommendationStatusOpen, RecommendationStatusAccepted,
	RecommendationStatusDismissed, RecommendationStatusConverted,
}

// IsValidRecommendationStatus checks whether a recommendation status value
// is accepted.
func IsValidRecommendationStatus(s string) bool {
	for _, v := range ValidRecommendationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Recommendation is suggested work recorded against a property, typically
// produced by a completed inspection. Converting a recommendation creates
// a job and links it; converted and dismissed recommendations are final.
type Recommendation struct {
	Base
	OrgID      uuid.UUID `gorm:"type:uuid;index;not null" json:"org_id"`
	PropertyID uuid.UUID `gorm:"type:uuid;index;not null" json:"property_id"`
	Property   *Property `gorm:"foreignKey:PropertyID" json:"-"`

	// InspectionID backlinks to the inspection that produced this
	// recommendation. Nil for manually entered recommendations.
	InspectionID *uuid.UUID `gorm:"type:uuid;index" json:"inspection_id,omitempty"`
	// JobID is set when the recommendation converts into a job.
	JobID *uuid.UUID `gorm:"type:uuid" json:"job_id,omitempty"`

	Title string `gorm:"size:200;not null" json:"title"`
	// Details describe the observed condition and suggested work.
	Details string `gorm:"type:text" json:"details,omitempty"`
	// Priority is one of the job priority constants.
	Priority string `gorm:"size:16;not null;default:medium" json:"priority"`
	// Status is one of the recommendation status constants.
	Status string `gorm:"size:32;not null;default:open;index" json:"status"`
}

// IsFinal reports whether the recommendation can no longer change status.
func (r *Recommendation) IsFinal() bool {
	return r.Status == RecommendationStatusDismissed || r.Status == RecommendationStatusConverted
}

// CreateRecommendationRequest is the payload for POST /api/v1/recommendations.
type CreateRecommendationRequest struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
	Title      string    `json:"title" validate:"required,min=3,max=200"`
	Details    string    `json:"details,omitempty" validate:"omitempty,max=10000"`
	Priority   string    `json:"priority,omitempty" validate:"omitempty,job_priority"`
}

// UpdateRecommendationRequest moves a recommendation between open,
// accepted and dismissed. Conversion uses the dedicated endpoint.
type UpdateRecommendationRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Details  *string `json:"details,omitempty" validate:"omitempty,max=10000"`
	Priority *string `json:"priority,omitempty" validate:"omitempty,job_priority"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=open accepted dismissed"`
}

// ConvertRecommendationRequest is the payload for POST
// /api/v1/recommendations/{id}/convert. Optional overrides for the
// generated job.
type ConvertRecommendationRequest struct {
	UnitID       *uuid.UUID `json:"unit_id,omitempty"`
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty"`
	Category     string     `json:"category,omitempty" validate:"omitempty,job_category"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}
