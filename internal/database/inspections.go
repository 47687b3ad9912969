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

// InspectionFilter narrows ListInspections results.
type InspectionFilter struct {
	PropertyID  *uuid.UUID
	InspectorID *uuid.UUID
	Status      string
	Limit       int
	Offset      int
}

// CreateInspection schedules an inspection after verifying its references
// stay inside the org. The inspector is notified in the same transaction.
func (db *DB) CreateInspection(ctx context.Context, inspection *models.Inspection) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		ok, err := propertyInOrgTx(tx, inspection.OrgID, inspection.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignReference
		}
		if inspection.UnitID != nil {
			ok, err := unitInPropertyTx(tx, inspection.OrgID, inspection.PropertyID, *inspection.UnitID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
		}
		ok, err = userInOrgWithRoleTx(tx, inspection.OrgID, inspection.InspectorID,
			models.RoleTechnician, models.RolePropertyManager, models.RoleAdmin)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignReference
		}

		if err := tx.Create(inspection).Error; err != nil {
			return err
		}

		notif := models.NewNotification(inspection.OrgID, inspection.InspectorID,
			models.NotificationTypeInspectionScheduled,
			"Inspection scheduled",
			"You have been scheduled to inspect a property on "+
				inspection.ScheduledFor.Format("Jan 2, 2006 15:04 MST")+".",
			map[string]string{"inspection_id": inspection.ID.String()},
		)
		return tx.Create(notif).Error
	})
}

// GetInspection fetches an inspection with its inspector preloaded.
func (db *DB) GetInspection(ctx context.Context, orgID, id uuid.UUID) (*models.Inspection, error) {
	var inspection models.Inspection
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Preload("Inspector").
		First(&inspection, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &inspection, nil
}

// ListInspections returns a filtered page of org inspections plus the
// total count, soonest first.
func (db *DB) ListInspections(ctx context.Context, orgID uuid.UUID, filter InspectionFilter) ([]models.Inspection, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.Inspection{}).Where("org_id = ?", orgID)

	if filter.PropertyID != nil {
		q = q.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.InspectorID != nil {
		q = q.Where("inspector_id = ?", *filter.InspectorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var inspections []models.Inspection
	err := q.Order("scheduled_for ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&inspections).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return inspections, total, nil
}

// UpdateInspection reschedules or reassigns an inspection. Completed and
// canceled inspections reject edits.
func (db *DB) UpdateInspection(ctx context.Context, orgID, id uuid.UUID, req *models.UpdateInspectionRequest) (*models.Inspection, error) {
	var inspection models.Inspection
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&inspection, "id = ?", id).Error; err != nil {
			return err
		}
		if inspection.Status == models.InspectionStatusCompleted ||
			inspection.Status == models.InspectionStatusCanceled {
			return ErrInvalidTransition
		}
		if req.InspectorID != nil {
			ok, err := userInOrgWithRoleTx(tx, orgID, *req.InspectorID,
				models.RoleTechnician, models.RolePropertyManager, models.RoleAdmin)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
			inspection.InspectorID = *req.InspectorID
		}
		if req.ScheduledFor != nil {
			inspection.ScheduledFor = *req.ScheduledFor
		}
		if req.Status != nil {
			// Only scheduled <-> in_progress and cancellation move through
			// here; completion uses CompleteInspection.
			if *req.Status == models.InspectionStatusCompleted {
				return ErrInvalidTransition
			}
			inspection.Status = *req.Status
		}
		return tx.Save(&inspection).Error
	})
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

// CompleteInspection records the result and materializes each finding as
// an open recommendation, all in one transaction.
func (db *DB) CompleteInspection(ctx context.Context, orgID, id uuid.UUID, req *models.CompleteInspectionRequest) (*models.Inspection, []models.Recommendation, error) {
	var inspection models.Inspection
	var recs []models.Recommendation

	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&inspection, "id = ?", id).Error; err != nil {
			return err
		}
		if inspection.Status == models.InspectionStatusCompleted ||
			inspection.Status == models.InspectionStatusCanceled {
			return ErrInvalidTransition
		}

		now := time.Now().UTC()
		score := req.Score
		inspection.Status = models.InspectionStatusCompleted
		inspection.CompletedAt = &now
		inspection.Summary = req.Summary
		inspection.Score = &score
		if err := tx.Save(&inspection).Error; err != nil {
			return err
		}

		recs = make([]models.Recommendation, 0, len(req.Findings))
		for _, f := range req.Findings {
			priority := f.Priority
			if priority == "" {
				priority = models.JobPriorityMedium
			}
			rec := models.Recommendation{
				OrgID:        orgID,
				PropertyID:   inspection.PropertyID,
				InspectionID: &inspection.ID,
				Title:        f.Title,
				Details:      f.Details,
				Priority:     priority,
				Status:       models.RecommendationStatusOpen,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &inspection, recs, nil
}

// DeleteInspection soft-deletes an inspection. Recommendations it
// produced survive.
func (db *DB) DeleteInspection(ctx context.Context, orgID, id uuid.UUID) error {
	res := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&models.Inspection{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
