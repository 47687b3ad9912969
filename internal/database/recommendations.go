// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/models"
)

// RecommendationFilter narrows ListRecommendations results.
type RecommendationFilter struct {
	PropertyID   *uuid.UUID
	InspectionID *uuid.UUID
	Status       string
	Limit        int
	Offset       int
}

// CreateRecommendation inserts a manually entered recommendation.
func (db *DB) CreateRecommendation(ctx context.Context, rec *models.Recommendation) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		ok, err := propertyInOrgTx(tx, rec.OrgID, rec.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignReference
		}
		return tx.Create(rec).Error
	})
}

// GetRecommendation fetches a recommendation by id within the org.
func (db *DB) GetRecommendation(ctx context.Context, orgID, id uuid.UUID) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&rec, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &rec, nil
}

// ListRecommendations returns a filtered page of org recommendations plus
// the total count.
func (db *DB) ListRecommendations(ctx context.Context, orgID uuid.UUID, filter RecommendationFilter) ([]models.Recommendation, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.Recommendation{}).Where("org_id = ?", orgID)

	if filter.PropertyID != nil {
		q = q.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.InspectionID != nil {
		q = q.Where("inspection_id = ?", *filter.InspectionID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var recs []models.Recommendation
	err := q.Order(priorityOrderExpr).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&recs).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return recs, total, nil
}

// UpdateRecommendation applies non-nil fields. Converted and dismissed
// recommendations are final.
func (db *DB) UpdateRecommendation(ctx context.Context, orgID, id uuid.UUID, req *models.UpdateRecommendationRequest) (*models.Recommendation, error) {
	var rec models.Recommendation
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		if rec.IsFinal() {
			return ErrInvalidTransition
		}
		if req.Title != nil {
			rec.Title = *req.Title
		}
		if req.Details != nil {
			rec.Details = *req.Details
		}
		if req.Priority != nil {
			rec.Priority = *req.Priority
		}
		if req.Status != nil {
			rec.Status = *req.Status
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ConvertRecommendation creates a job from the recommendation and marks
// it converted, in one transaction.
func (db *DB) ConvertRecommendation(ctx context.Context, orgID, id uuid.UUID, req *models.ConvertRecommendationRequest, convertedBy uuid.UUID) (*models.Job, error) {
	var job *models.Job
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		var rec models.Recommendation
		if err := tx.Where("org_id = ?", orgID).First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		if rec.IsFinal() {
			return ErrInvalidTransition
		}

		category := req.Category
		if category == "" {
			category = models.JobCategoryOther
		}

		j := &models.Job{
			OrgID:        orgID,
			PropertyID:   rec.PropertyID,
			UnitID:       req.UnitID,
			Title:        rec.Title,
			Description:  rec.Details,
			Category:     category,
			Priority:     rec.Priority,
			Source:       models.JobSourceRecommendation,
			CreatedByID:  &convertedBy,
			ScheduledFor: req.ScheduledFor,
			Status:       models.JobStatusOpen,
		}
		if req.UnitID != nil {
			ok, err := unitInPropertyTx(tx, orgID, rec.PropertyID, *req.UnitID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
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
			j.AssigneeID = req.AssigneeID
			j.Status = models.JobStatusAssigned
		}
		if err := tx.Create(j).Error; err != nil {
			return err
		}

		rec.Status = models.RecommendationStatusConverted
		rec.JobID = &j.ID
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		if j.AssigneeID != nil {
			notif := models.NewNotification(orgID, *j.AssigneeID,
				models.NotificationTypeJobAssigned,
				"New job: "+j.Title,
				"An inspection recommendation was converted into a job assigned to you.",
				map[string]string{"job_id": j.ID.String()},
			)
			if err := tx.Create(notif).Error; err != nil {
				return err
			}
		}

		job = j
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
