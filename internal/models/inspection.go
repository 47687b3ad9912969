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

// Inspection statuses.
const (
	InspectionStatusScheduled  = "scheduled"
	InspectionStatusInProgress = "in_progress"
	InspectionStatusCompleted  = "completed"
	InspectionStatusCanceled   = "canceled"
)

// ValidInspectionStatuses contains all accepted inspection status values.
var ValidInspectionStatuses = []string{
	InspectionStatusScheduled, InspectionStatusInProgress,
	InspectionStatusCompleted, InspectionStatusCanceled,
}

// IsValidInspectionStatus checks whether an inspection status value is
// accepted.
func IsValidInspectionStatus(s string) bool {
	for _, v := range ValidInspectionStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Inspection is a scheduled walkthrough of a property or unit. Completing
// an inspection records a condition score and may spawn recommendations.
type Inspection struct {
	Base
	OrgID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"org_id"`
	PropertyID uuid.UUID  `gorm:"type:uuid;index;not null" json:"property_id"`
	Property   *Property  `gorm:"foreignKey:PropertyID" json:"-"`
	UnitID     *uuid.UUID `gorm:"type:uuid" json:"unit_id,omitempty"`

	// InspectorID is the staff member performing the walkthrough.
	InspectorID uuid.UUID `gorm:"type:uuid;index;not null" json:"inspector_id"`
	Inspector   *User     `gorm:"foreignKey:InspectorID" json:"inspector,omitempty"`

	// ScheduledFor is when the inspection takes place.
	ScheduledFor time.Time `gorm:"index;not null" json:"scheduled_for"`
	// Status is one of the inspection status constants.
	Status string `gorm:"size:32;not null;default:scheduled;index" json:"status"`
	// CompletedAt is stamped when the inspection is completed.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Summary is the inspector's findings, written at completion.
	Summary string `gorm:"type:text" json:"summary,omitempty"`
	// Score is an overall condition score from 0 (unusable) to 100
	// (excellent). Nil until completion.
	Score *int `json:"score,omitempty"`
	// ReportURL points at an uploaded inspection report document.
	ReportURL string `gorm:"size:500" json:"report_url,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CreateInspectionRequest is the payload for POST /api/v1/inspections.
type CreateInspectionRequest struct {
	PropertyID   uuid.UUID  `json:"property_id" validate:"required"`
	UnitID       *uuid.UUID `json:"unit_id,omitempty"`
	InspectorID  uuid.UUID  `json:"inspector_id" validate:"required"`
	ScheduledFor time.Time  `json:"scheduled_for" validate:"required"`
}

// UpdateInspectionRequest carries mutable inspection fields for
// rescheduling or reassignment.
type UpdateInspectionRequest struct {
	InspectorID  *uuid.UUID `json:"inspector_id,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	Status       *string    `json:"status,omitempty" validate:"omitempty,inspection_status"`
}

// CompleteInspectionRequest is the payload for POST
// /api/v1/inspections/{id}/complete. Each finding becomes a
// recommendation row in the same transaction.
type CompleteInspectionRequest struct {
	Summary  string                  `json:"summary" validate:"required,max=20000"`
	Score    int                     `json:"score" validate:"min=0,max=100"`
	Findings []InspectionFindingItem `json:"findings,omitempty" validate:"omitempty,max=100,dive"`
}

// InspectionFindingItem is a single issue observed during an inspection.
type InspectionFindingItem struct {
	Title    string `json:"title" validate:"required,min=3,max=200"`
	Details  string `json:"details,omitempty" validate:"omitempty,max=10000"`
	Priority string `json:"priority,omitempty" validate:"omitempty,job_priority"`
}
