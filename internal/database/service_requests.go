// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/models"
)

// ServiceRequestFilter narrows ListServiceRequests results.
type ServiceRequestFilter struct {
	PropertyID  *uuid.UUID
	RequesterID *uuid.UUID
	Status      string
	Limit       int
	Offset      int
}

// CreateServiceRequest inserts a tenant request. The property is derived
// from the unit; the unit must exist in the org. Staff in the org are not
// notified row-by-row here: managers watch the triage queue.
func (db *DB) CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		var unit models.Unit
		if err := tx.Where("org_id = ?", sr.OrgID).First(&unit, "id = ?", sr.UnitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrForeignReference
			}
			return err
		}
		sr.PropertyID = unit.PropertyID
		if sr.Status == "" {
			sr.Status = models.ServiceRequestStatusSubmitted
		}
		return tx.Create(sr).Error
	})
}

// GetServiceRequest fetches a request with its requester preloaded.
func (db *DB) GetServiceRequest(ctx context.Context, orgID, id uuid.UUID) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Preload("Requester").
		First(&sr, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sr, nil
}

// ListServiceRequests returns a filtered page of org requests plus the
// total count. Tenant callers pass their own RequesterID.
func (db *DB) ListServiceRequests(ctx context.Context, orgID uuid.UUID, filter ServiceRequestFilter) ([]models.ServiceRequest, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.ServiceRequest{}).Where("org_id = ?", orgID)

	if filter.PropertyID != nil {
		q = q.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.RequesterID != nil {
		q = q.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var requests []models.ServiceRequest
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&requests).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return requests, total, nil
}

// TriageServiceRequest moves a request to triaged, declined or closed and
// notifies the requester of the outcome in the same transaction.
func (db *DB) TriageServiceRequest(ctx context.Context, orgID, id uuid.UUID, req *models.TriageServiceRequestRequest) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&sr, "id = ?", id).Error; err != nil {
			return err
		}
		if !sr.CanTransitionTo(req.Status) {
			return ErrInvalidTransition
		}

		sr.Status = req.Status
		if req.Priority != nil {
			sr.Priority = *req.Priority
		}
		if req.TriageNotes != "" {
			sr.TriageNotes = req.TriageNotes
		}
		if req.Status == models.ServiceRequestStatusDeclined ||
			req.Status == models.ServiceRequestStatusClosed {
			now := time.Now().UTC()
			sr.ResolvedAt = &now
		}
		if err := tx.Save(&sr).Error; err != nil {
			return err
		}

		title := "Your service request was updated"
		body := "Request \"" + sr.Title + "\" is now " + sr.Status + "."
		if sr.TriageNotes != "" {
			body += " Notes: " + sr.TriageNotes
		}
		notif := models.NewNotification(orgID, sr.RequesterID,
			models.NotificationTypeServiceRequest, title, body,
			map[string]string{"service_request_id": sr.ID.String()},
		)
		return tx.Create(notif).Error
	})
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// ConvertServiceRequest creates a job from the request and links it, in
// one transaction. The requester is notified; so is the assignee when the
// job starts out assigned.
func (db *DB) ConvertServiceRequest(ctx context.Context, orgID, id uuid.UUID, req *models.ConvertServiceRequestRequest, convertedBy uuid.UUID) (*models.Job, error) {
	var job *models.Job
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		var sr models.ServiceRequest
		if err := tx.Where("org_id = ?", orgID).First(&sr, "id = ?", id).Error; err != nil {
			return err
		}
		if !sr.CanTransitionTo(models.ServiceRequestStatusConverted) {
			return ErrInvalidTransition
		}

		priority := sr.Priority
		if req.Priority != "" {
			priority = req.Priority
		}

		j := &models.Job{
			OrgID:        orgID,
			PropertyID:   sr.PropertyID,
			UnitID:       &sr.UnitID,
			Title:        sr.Title,
			Description:  sr.Description,
			Category:     sr.Category,
			Priority:     priority,
			Source:       models.JobSourceServiceRequest,
			CreatedByID:  &convertedBy,
			ImageURL:     sr.ImageURL,
			ScheduledFor: req.ScheduledFor,
			Status:       models.JobStatusOpen,
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

		sr.Status = models.ServiceRequestStatusConverted
		sr.JobID = &j.ID
		if err := tx.Save(&sr).Error; err != nil {
			return err
		}

		requesterNotif := models.NewNotification(orgID, sr.RequesterID,
			models.NotificationTypeServiceRequest,
			"Your service request is being worked on",
			"Request \""+sr.Title+"\" was converted into a work order.",
			map[string]string{"service_request_id": sr.ID.String(), "job_id": j.ID.String()},
		)
		if err := tx.Create(requesterNotif).Error; err != nil {
			return err
		}

		if j.AssigneeID != nil {
			assigneeNotif := models.NewNotification(orgID, *j.AssigneeID,
				models.NotificationTypeJobAssigned,
				"New job: "+j.Title,
				"A tenant service request was converted into a job assigned to you.",
				map[string]string{"job_id": j.ID.String()},
			)
			if err := tx.Create(assigneeNotif).Error; err != nil {
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

// DeleteServiceRequest soft-deletes a request.
func (db *DB) DeleteServiceRequest(ctx context.Context, orgID, id uuid.UUID) error {
	res := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&models.ServiceRequest{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
