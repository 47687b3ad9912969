// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"time"

	"github.com/google/uuid"
)

// MaintenancePlan is a recurring work template. The plan runner scans for
// active plans whose NextRunAt has passed, creates a job from the template
// and advances NextRunAt per the cron expression, both in one transaction.
type MaintenancePlan struct {
	Base
	OrgID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"org_id"`
	PropertyID uuid.UUID  `gorm:"type:uuid;index;not null" json:"property_id"`
	Property   *Property  `gorm:"foreignKey:PropertyID" json:"-"`
	UnitID     *uuid.UUID `gorm:"type:uuid" json:"unit_id,omitempty"`

	// Title and Description seed the generated job.
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	// Category and Priority are copied onto generated jobs.
	Category string `gorm:"size:32;not null;default:other" json:"category"`
	Priority string `gorm:"size:16;not null;default:medium" json:"priority"`
	// AssigneeID pre-assigns generated jobs to a technician.
	AssigneeID *uuid.UUID `gorm:"type:uuid" json:"assignee_id,omitempty"`

	// CronExpr is a standard 5-field cron expression evaluated in UTC.
	CronExpr string `gorm:"size:100;not null" json:"cron_expr"`
	// NextRunAt is the next due time. Indexed: the runner polls on it.
	NextRunAt time.Time `gorm:"index;not null" json:"next_run_at"`
	// LastRunAt records the most recent generation.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	// IsActive plans are considered by the runner; paused plans keep their
	// schedule but generate nothing.
	IsActive bool `gorm:"default:true;index" json:"is_active"`
}

// IsDue reports whether the plan should generate a job at the given time.
func (p *MaintenancePlan) IsDue(now time.Time) bool {
	return p.IsActive && !p.NextRunAt.After(now)
}

// CreateMaintenancePlanRequest is the payload for POST /api/v1/maintenance-plans.
type CreateMaintenancePlanRequest struct {
	PropertyID  uuid.UUID  `json:"property_id" validate:"required"`
	UnitID      *uuid.UUID `json:"unit_id,omitempty"`
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=10000"`
	Category    string     `json:"category,omitempty" validate:"omitempty,job_category"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,job_priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	CronExpr    string     `json:"cron_expr" validate:"required,cron_expr"`
}

// UpdateMaintenancePlanRequest carries mutable plan fields. Changing
// CronExpr recomputes NextRunAt from now.
type UpdateMaintenancePlanRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=10000"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,job_category"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,job_priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	CronExpr    *string    `json:"cron_expr,omitempty" validate:"omitempty,cron_expr"`
	IsActive    *bool      `json:"is_active,omitempty"`
}
