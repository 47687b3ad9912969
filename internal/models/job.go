// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
job.go - Work Order Model

Jobs are the unit of maintenance work. They are created three ways:
  - directly by staff (source "manual")
  - by converting a service request or recommendation (source
    "service_request" / "recommendation")
  - by the maintenance-plan runner (source "maintenance_plan")

Status transitions form a small state machine enforced by CanTransitionTo;
the database layer rejects updates that skip states.
*/

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Job statuses.
const (
	JobStatusOpen       = "open"
	JobStatusAssigned   = "assigned"
	JobStatusInProgress = "in_progress"
	JobStatusOnHold     = "on_hold"
	JobStatusCompleted  = "completed"
	JobStatusCanceled   = "canceled"
)

// Job priorities.
const (
	JobPriorityLow    = "low"
	JobPriorityMedium = "medium"
	JobPriorityHigh   = "high"
	JobPriorityUrgent = "urgent"
)

// Job sources.
const (
	JobSourceManual          = "manual"
	JobSourceServiceRequest  = "service_request"
	JobSourceRecommendation  = "recommendation"
	JobSourceMaintenancePlan = "maintenance_plan"
)

// Job categories. Shared with service requests and maintenance plans so
// conversions carry the category through unchanged.
const (
	JobCategoryPlumbing    = "plumbing"
	JobCategoryElectrical  = "electrical"
	JobCategoryHVAC        = "hvac"
	JobCategoryAppliance   = "appliance"
	JobCategoryStructural  = "structural"
	JobCategoryLandscaping = "landscaping"
	JobCategoryCleaning    = "cleaning"
	JobCategoryOther       = "other"
)

// ValidJobStatuses contains all accepted job status values.
var ValidJobStatuses = []string{
	JobStatusOpen, JobStatusAssigned, JobStatusInProgress,
	JobStatusOnHold, JobStatusCompleted, JobStatusCanceled,
}

// ValidJobPriorities contains all accepted job priority values.
var ValidJobPriorities = []string{
	JobPriorityLow, JobPriorityMedium, JobPriorityHigh, JobPriorityUrgent,
}

// ValidJobCategories contains all accepted job category values.
var ValidJobCategories = []string{
	JobCategoryPlumbing, JobCategoryElectrical, JobCategoryHVAC,
	JobCategoryAppliance, JobCategoryStructural, JobCategoryLandscaping,
	JobCategoryCleaning, JobCategoryOther,
}

// jobTransitions maps each status to the set of statuses it may move to.
// Completion requires assigned or in_progress; cancellation is allowed
// from any non-terminal state.
var jobTransitions = map[string][]string{
	JobStatusOpen:       {JobStatusAssigned, JobStatusCanceled},
	JobStatusAssigned:   {JobStatusInProgress, JobStatusOnHold, JobStatusOpen, JobStatusCompleted, JobStatusCanceled},
	JobStatusInProgress: {JobStatusOnHold, JobStatusCompleted, JobStatusCanceled},
	JobStatusOnHold:     {JobStatusAssigned, JobStatusInProgress, JobStatusCanceled},
	JobStatusCompleted:  {},
	JobStatusCanceled:   {},
}

// IsValidJobStatus checks whether a job status value is accepted.
func IsValidJobStatus(s string) bool {
	for _, v := range ValidJobStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidJobPriority checks whether a job priority value is accepted.
func IsValidJobPriority(p string) bool {
	for _, v := range ValidJobPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// IsValidJobCategory checks whether a job category value is accepted.
func IsValidJobCategory(c string) bool {
	for _, v := range ValidJobCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Job is a work order against a property, optionally narrowed to a unit.
type Job struct {
	Base
	OrgID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"org_id"`
	PropertyID uuid.UUID  `gorm:"type:uuid;index;not null" json:"property_id"`
	Property   *Property  `gorm:"foreignKey:PropertyID" json:"-"`
	UnitID     *uuid.UUID `gorm:"type:uuid;index" json:"unit_id,omitempty"`

	// Title is a short summary shown in lists and notifications.
	Title string `gorm:"size:200;not null" json:"title"`
	// Description is the full work description.
	Description string `gorm:"type:text" json:"description,omitempty"`
	// Category is one of the job category constants.
	Category string `gorm:"size:32;not null;default:other;index" json:"category"`
	// Status is one of the job status constants; transitions are enforced.
	Status string `gorm:"size:32;not null;default:open;index" json:"status"`
	// Priority is one of the job priority constants.
	Priority string `gorm:"size:16;not null;default:medium;index" json:"priority"`
	// Source records how the job came to exist.
	Source string `gorm:"size:32;not null;default:manual" json:"source"`

	// AssigneeID is the technician responsible for the work.
	AssigneeID *uuid.UUID `gorm:"type:uuid;index" json:"assignee_id,omitempty"`
	Assignee   *User      `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	// CreatedByID is the user who created the job. Nil for jobs generated
	// by the maintenance-plan runner.
	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id,omitempty"`

	// MaintenancePlanID backlinks to the plan for scheduled jobs.
	MaintenancePlanID *uuid.UUID `gorm:"type:uuid;index" json:"maintenance_plan_id,omitempty"`

	// ImageURL points at an uploaded photo of the issue or completed work.
	ImageURL string `gorm:"size:500" json:"image_url,omitempty"`

	// ScheduledFor is when work should begin; nil means unscheduled.
	ScheduledFor *time.Time `gorm:"index" json:"scheduled_for,omitempty"`
	// StartedAt is stamped on the transition to in_progress.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is stamped on the transition to completed.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// CostCents records actual cost, entered at completion.
	CostCents int64 `json:"cost_cents,omitempty"`
	// ResolutionNotes describe the work performed.
	ResolutionNotes string `gorm:"type:text" json:"resolution_notes,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CanTransitionTo reports whether the job may move from its current status
// to the target status.
func (j *Job) CanTransitionTo(target string) bool {
	for _, allowed := range jobTransitions[j.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the job has reached a final status.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusCanceled
}

// CreateJobRequest is the payload for POST /api/v1/jobs.
type CreateJobRequest struct {
	PropertyID   uuid.UUID  `json:"property_id" validate:"required"`
	UnitID       *uuid.UUID `json:"unit_id,omitempty"`
	Title        string     `json:"title" validate:"required,min=3,max=200"`
	Description  string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	Category     string     `json:"category,omitempty" validate:"omitempty,job_category"`
	Priority     string     `json:"priority,omitempty" validate:"omitempty,job_priority"`
	AssigneeID   *uuid.UUID `json:"assignee_id,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// UpdateJobRequest carries mutable job fields. Status moves through the
// dedicated status endpoint, not here.
type UpdateJobRequest struct {
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Category     *string    `json:"category,omitempty" validate:"omitempty,job_category"`
	Priority     *string    `json:"priority,omitempty" validate:"omitempty,job_priority"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	ImageURL     *string    `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
}

// JobStatusRequest is the payload for POST /api/v1/jobs/{id}/status.
type JobStatusRequest struct {
	Status          string `json:"status" validate:"required,job_status"`
	ResolutionNotes string `json:"resolution_notes,omitempty" validate:"omitempty,max=10000"`
	CostCents       int64  `json:"cost_cents,omitempty" validate:"omitempty,min=0"`
}

// JobAssignRequest is the payload for POST /api/v1/jobs/{id}/assign.
type JobAssignRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" validate:"required"`
}
