// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/models"
)

// JobFilter narrows ListJobs results.
type JobFilter struct {
	PropertyID *uuid.UUID
	AssigneeID *uuid.UUID
	Status     string
	Priority   string
	Category   string
	Limit      int
	Offset     int
}

// CreateJob inserts a job after verifying its references stay inside the
// org. A job created with an assignee starts in assigned status.
func (db *DB) CreateJob(ctx context.Context, job *models.Job) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		ok, err := propertyInOrgTx(tx, job.OrgID, job.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignReference
		}
		if job.UnitID != nil {
			ok, err := unitInPropertyTx(tx, job.OrgID, job.PropertyID, *job.UnitID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
		}
		if job.AssigneeID != nil {
			ok, err := userInOrgWithRoleTx(tx, job.OrgID, *job.AssigneeID,
				models.RoleTechnician, models.RolePropertyManager, models.RoleAdmin)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
			if job.Status == "" || job.Status == models.JobStatusOpen {
				job.Status = models.JobStatusAssigned
			}
		}
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		if job.AssigneeID != nil {
			return tx.Create(newJobAssignedNotification(job)).Error
		}
		return nil
	})
}

// GetJob fetches a job with its assignee preloaded.
func (db *DB) GetJob(ctx context.Context, orgID, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Preload("Assignee").
		First(&job, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

// ListJobs returns a filtered page of org jobs plus the total count.
// Ordered urgent-first, then newest.
func (db *DB) ListJobs(ctx context.Context, orgID uuid.UUID, filter JobFilter) ([]models.Job, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.Job{}).Where("org_id = ?", orgID)

	if filter.PropertyID != nil {
		q = q.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.AssigneeID != nil {
		q = q.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var jobs []models.Job
	err := q.Order(priorityOrderExpr).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&jobs).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return jobs, total, nil
}

// priorityOrderExpr sorts urgent > high > medium > low without a separate
// rank column.
const priorityOrderExpr = "CASE priority " +
	"WHEN 'urgent' THEN 0 " +
	"WHEN 'high' THEN 1 " +
	"WHEN 'medium' THEN 2 " +
	"ELSE 3 END"

// UpdateJob applies non-nil fields from the request and returns the
// updated row. Terminal jobs reject edits.
func (db *DB) UpdateJob(ctx context.Context, orgID, id uuid.UUID, req *models.UpdateJobRequest) (*models.Job, error) {
	var job models.Job
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&job, "id = ?", id).Error; err != nil {
			return err
		}
		if job.IsTerminal() {
			return ErrInvalidTransition
		}
		if req.Title != nil {
			job.Title = *req.Title
		}
		if req.Description != nil {
			job.Description = *req.Description
		}
		if req.Category != nil {
			job.Category = *req.Category
		}
		if req.Priority != nil {
			job.Priority = *req.Priority
		}
		if req.ScheduledFor != nil {
			job.ScheduledFor = req.ScheduledFor
		}
		if req.ImageURL != nil {
			job.ImageURL = *req.ImageURL
		}
		return tx.Save(&job).Error
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// AssignJob sets the assignee and moves the job to assigned status,
// notifying the new assignee in the same transaction. Reassignment of an
// already assigned or in-progress job keeps its status.
func (db *DB) AssignJob(ctx context.Context, orgID, id, assigneeID uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&job, "id = ?", id).Error; err != nil {
			return err
		}
		if job.IsTerminal() {
			return ErrInvalidTransition
		}
		ok, err := userInOrgWithRoleTx(tx, orgID, assigneeID,
			models.RoleTechnician, models.RolePropertyManager, models.RoleAdmin)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignReference
		}
		job.AssigneeID = &assigneeID
		if job.Status == models.JobStatusOpen {
			if !job.CanTransitionTo(models.JobStatusAssigned) {
				return ErrInvalidTransition
			}
			job.Status = models.JobStatusAssigned
		}
		if err := tx.Save(&job).Error; err != nil {
			return err
		}
		return tx.Create(newJobAssignedNotification(&job)).Error
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// TransitionJob moves a job through its status machine, stamping
// StartedAt/CompletedAt and recording resolution details on completion.
func (db *DB) TransitionJob(ctx context.Context, orgID, id uuid.UUID, req *models.JobStatusRequest) (*models.Job, error) {
	var job models.Job
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&job, "id = ?", id).Error; err != nil {
			return err
		}
		if !job.CanTransitionTo(req.Status) {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		switch req.Status {
		case models.JobStatusInProgress:
			if job.StartedAt == nil {
				job.StartedAt = &now
			}
		case models.JobStatusCompleted:
			job.CompletedAt = &now
			if req.ResolutionNotes != "" {
				job.ResolutionNotes = req.ResolutionNotes
			}
			if req.CostCents > 0 {
				job.CostCents = req.CostCents
			}
		case models.JobStatusOpen:
			job.AssigneeID = nil
		}
		job.Status = req.Status
		return tx.Save(&job).Error
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// DeleteJob soft-deletes a job.
func (db *DB) DeleteJob(ctx context.Context, orgID, id uuid.UUID) error {
	res := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&models.Job{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// unitInPropertyTx verifies a unit belongs to the given property inside a
// transaction.
func unitInPropertyTx(tx *gorm.DB, orgID, propertyID, unitID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Unit{}).
		Where("org_id = ? AND property_id = ? AND id = ?", orgID, propertyID, unitID).
		Count(&count).Error
	return count > 0, err
}

// newJobAssignedNotification builds the outbox row for a job assignment.
// Callers create it in the same transaction as the assignment itself.
func newJobAssignedNotification(job *models.Job) *models.Notification {
	return models.NewNotification(job.OrgID, *job.AssigneeID,
		models.NotificationTypeJobAssigned,
		"Job assigned: "+job.Title,
		"You have been assigned a "+job.Priority+" priority "+job.Category+" job.",
		map[string]string{"job_id": job.ID.String()},
	)
}
