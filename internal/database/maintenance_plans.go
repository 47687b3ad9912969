// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
maintenance_plans.go - Recurring Work Plan Store

The central operation is runPlanTx: it creates a job from the plan
template and advances NextRunAt in the same transaction. The advance uses
a guarded UPDATE on the previously read NextRunAt, so two runners racing
on the same plan produce exactly one job; the loser rolls back with
ErrConflict.
*/

package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
	"github.com/custodahq/custoda/internal/validation"
)

// PlanFilter narrows ListMaintenancePlans results.
type PlanFilter struct {
	PropertyID *uuid.UUID
	IsActive   *bool
	Limit      int
	Offset     int
}

// CreateMaintenancePlan inserts a plan, computing the first NextRunAt from
// the cron expression.
func (db *DB) CreateMaintenancePlan(ctx context.Context, plan *models.MaintenancePlan) error {
	sched, err := validation.ParseCron(plan.CronExpr)
	if err != nil {
		return err
	}
	if plan.NextRunAt.IsZero() {
		plan.NextRunAt = sched.Next(time.Now().UTC())
	}

	return db.withTx(ctx, func(tx *gorm.DB) error {
		ok, err := propertyInOrgTx(tx, plan.OrgID, plan.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignReference
		}
		if plan.UnitID != nil {
			ok, err := unitInPropertyTx(tx, plan.OrgID, plan.PropertyID, *plan.UnitID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
		}
		if plan.AssigneeID != nil {
			ok, err := userInOrgWithRoleTx(tx, plan.OrgID, *plan.AssigneeID,
				models.RoleTechnician, models.RolePropertyManager, models.RoleAdmin)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
		}
		return tx.Create(plan).Error
	})
}

// GetMaintenancePlan fetches a plan by id within the org.
func (db *DB) GetMaintenancePlan(ctx context.Context, orgID, id uuid.UUID) (*models.MaintenancePlan, error) {
	var plan models.MaintenancePlan
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &plan, nil
}

// ListMaintenancePlans returns a filtered page of org plans plus the
// total count.
func (db *DB) ListMaintenancePlans(ctx context.Context, orgID uuid.UUID, filter PlanFilter) ([]models.MaintenancePlan, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.MaintenancePlan{}).Where("org_id = ?", orgID)

	if filter.PropertyID != nil {
		q = q.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var plans []models.MaintenancePlan
	err := q.Order("next_run_at ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&plans).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return plans, total, nil
}

// UpdateMaintenancePlan applies non-nil fields. Changing the cron
// expression recomputes NextRunAt from now.
func (db *DB) UpdateMaintenancePlan(ctx context.Context, orgID, id uuid.UUID, req *models.UpdateMaintenancePlanRequest) (*models.MaintenancePlan, error) {
	var plan models.MaintenancePlan
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&plan, "id = ?", id).Error; err != nil {
			return err
		}
		if req.Title != nil {
			plan.Title = *req.Title
		}
		if req.Description != nil {
			plan.Description = *req.Description
		}
		if req.Category != nil {
			plan.Category = *req.Category
		}
		if req.Priority != nil {
			plan.Priority = *req.Priority
		}
		if req.AssigneeID != nil {
			ok, err := userInOrgWithRoleTx(tx, orgID, *req.AssigneeID,
				models.RoleTechnician, models.RolePropertyManager, models.RoleAdmin)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
			plan.AssigneeID = req.AssigneeID
		}
		if req.CronExpr != nil {
			sched, err := validation.ParseCron(*req.CronExpr)
			if err != nil {
				return err
			}
			plan.CronExpr = *req.CronExpr
			plan.NextRunAt = sched.Next(time.Now().UTC())
		}
		if req.IsActive != nil {
			plan.IsActive = *req.IsActive
		}
		return tx.Save(&plan).Error
	})
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// DeleteMaintenancePlan removes a plan. Jobs it generated survive.
func (db *DB) DeleteMaintenancePlan(ctx context.Context, orgID, id uuid.UUID) error {
	res := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&models.MaintenancePlan{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RunMaintenancePlan generates a job from the plan immediately, advancing
// the schedule. Manual trigger; ignores due-ness.
func (db *DB) RunMaintenancePlan(ctx context.Context, orgID, id uuid.UUID) (*models.Job, error) {
	var job *models.Job
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		var plan models.MaintenancePlan
		if err := tx.Where("org_id = ?", orgID).First(&plan, "id = ?", id).Error; err != nil {
			return err
		}
		created, err := runPlanTx(tx, &plan, time.Now().UTC())
		if err != nil {
			return err
		}
		job = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// DueMaintenancePlans returns active plans whose NextRunAt has passed,
// oldest first. Cross-org: the runner serves every tenant.
func (db *DB) DueMaintenancePlans(ctx context.Context, now time.Time, limit int) ([]models.MaintenancePlan, error) {
	var plans []models.MaintenancePlan
	err := db.gorm.WithContext(ctx).
		Where("is_active = ? AND next_run_at <= ?", true, now).
		Order("next_run_at ASC").
		Limit(limit).
		Find(&plans).Error
	if err != nil {
		return nil, translateError(err)
	}
	return plans, nil
}

// RunDuePlans executes every due plan, each in its own transaction, and
// returns the jobs created. A failing plan is logged and skipped; it does
// not block the rest of the batch.
func (db *DB) RunDuePlans(ctx context.Context, now time.Time, limit int) ([]models.Job, error) {
	plans, err := db.DueMaintenancePlans(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	jobs := make([]models.Job, 0, len(plans))
	for i := range plans {
		plan := plans[i]
		var job *models.Job
		err := db.withTx(ctx, func(tx *gorm.DB) error {
			created, err := runPlanTx(tx, &plan, now)
			if err != nil {
				return err
			}
			job = created
			return nil
		})
		switch {
		case err == nil:
			jobs = append(jobs, *job)
		case errors.Is(err, ErrConflict):
			// Another runner advanced this plan first.
			logging.Ctx(ctx).Debug().
				Str("plan_id", plan.ID.String()).
				Msg("Plan already ran, skipping")
		default:
			logging.Ctx(ctx).Error().
				Err(err).
				Str("plan_id", plan.ID.String()).
				Str("org_id", plan.OrgID.String()).
				Msg("Plan run failed")
		}
	}
	return jobs, nil
}

// runPlanTx creates the job and advances the schedule inside the caller's
// transaction. The guarded UPDATE on the previously read NextRunAt keeps
// concurrent runners from double-generating.
func runPlanTx(tx *gorm.DB, plan *models.MaintenancePlan, now time.Time) (*models.Job, error) {
	sched, err := validation.ParseCron(plan.CronExpr)
	if err != nil {
		return nil, err
	}
	next := sched.Next(now)

	res := tx.Model(&models.MaintenancePlan{}).
		Where("id = ? AND next_run_at = ?", plan.ID, plan.NextRunAt).
		Updates(map[string]interface{}{
			"next_run_at": next,
			"last_run_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	job := &models.Job{
		OrgID:             plan.OrgID,
		PropertyID:        plan.PropertyID,
		UnitID:            plan.UnitID,
		Title:             plan.Title,
		Description:       plan.Description,
		Category:          plan.Category,
		Priority:          plan.Priority,
		Source:            models.JobSourceMaintenancePlan,
		MaintenancePlanID: &plan.ID,
		ScheduledFor:      &now,
		Status:            models.JobStatusOpen,
	}
	if plan.AssigneeID != nil {
		job.AssigneeID = plan.AssigneeID
		job.Status = models.JobStatusAssigned
	}
	if err := tx.Create(job).Error; err != nil {
		return nil, err
	}

	if job.AssigneeID != nil {
		notif := models.NewNotification(job.OrgID, *job.AssigneeID,
			models.NotificationTypeJobAssigned,
			"New scheduled job: "+job.Title,
			"A recurring maintenance plan generated a job assigned to you.",
			map[string]string{"job_id": job.ID.String()},
		)
		if err := tx.Create(notif).Error; err != nil {
			return nil, err
		}
	}

	return job, nil
}
