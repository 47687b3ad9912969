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

// PropertyFilter narrows ListProperties results.
type PropertyFilter struct {
	ManagerID *uuid.UUID
	Search    string // matches name or city
	Limit     int
	Offset    int
}

// CreateProperty inserts a property after verifying the manager reference
// stays inside the org.
func (db *DB) CreateProperty(ctx context.Context, property *models.Property) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		if property.ManagerID != nil {
			ok, err := userInOrgWithRoleTx(tx, property.OrgID, *property.ManagerID,
				models.RoleAdmin, models.RolePropertyManager)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
		}
		return tx.Create(property).Error
	})
}

// GetProperty fetches a property with its units preloaded.
func (db *DB) GetProperty(ctx context.Context, orgID, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Preload("Units").
		First(&property, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &property, nil
}

// ListProperties returns a filtered page of org properties plus the total
// count. Units are not preloaded on list reads.
func (db *DB) ListProperties(ctx context.Context, orgID uuid.UUID, filter PropertyFilter) ([]models.Property, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.Property{}).Where("org_id = ?", orgID)

	if filter.ManagerID != nil {
		q = q.Where("manager_id = ?", *filter.ManagerID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("name LIKE ? OR city LIKE ?", pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var properties []models.Property
	err := q.Order("name ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&properties).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return properties, total, nil
}

// UpdateProperty applies non-nil fields from the request and returns the
// updated row.
func (db *DB) UpdateProperty(ctx context.Context, orgID, id uuid.UUID, req *models.UpdatePropertyRequest) (*models.Property, error) {
	var property models.Property
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&property, "id = ?", id).Error; err != nil {
			return err
		}
		if req.ManagerID != nil {
			ok, err := userInOrgWithRoleTx(tx, orgID, *req.ManagerID,
				models.RoleAdmin, models.RolePropertyManager)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
			property.ManagerID = req.ManagerID
		}
		if req.Name != nil {
			property.Name = *req.Name
		}
		if req.AddressLine1 != nil {
			property.AddressLine1 = *req.AddressLine1
		}
		if req.AddressLine2 != nil {
			property.AddressLine2 = *req.AddressLine2
		}
		if req.City != nil {
			property.City = *req.City
		}
		if req.State != nil {
			property.State = *req.State
		}
		if req.ZipCode != nil {
			property.ZipCode = *req.ZipCode
		}
		if req.Country != nil {
			property.Country = *req.Country
		}
		if req.Latitude != nil {
			property.Latitude = *req.Latitude
		}
		if req.Longitude != nil {
			property.Longitude = *req.Longitude
		}
		if req.YearBuilt != nil {
			property.YearBuilt = *req.YearBuilt
		}
		if req.Notes != nil {
			property.Notes = *req.Notes
		}
		if req.ImageURL != nil {
			property.ImageURL = *req.ImageURL
		}
		return tx.Save(&property).Error
	})
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// DeleteProperty soft-deletes a property and its units.
func (db *DB) DeleteProperty(ctx context.Context, orgID, id uuid.UUID) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		res := tx.Where("org_id = ?", orgID).Delete(&models.Property{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("org_id = ? AND property_id = ?", orgID, id).Delete(&models.Unit{}).Error
	})
}

// CountProperties returns the number of live properties in the org.
// Entitlement checks consult this before create.
func (db *DB) CountProperties(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := db.gorm.WithContext(ctx).
		Model(&models.Property{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, translateError(err)
}

// propertyInOrgTx verifies a property reference inside a transaction.
func propertyInOrgTx(tx *gorm.DB, orgID, propertyID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&models.Property{}).
		Where("org_id = ? AND id = ?", orgID, propertyID).
		Count(&count).Error
	return count > 0, err
}

// userInOrgWithRoleTx verifies a user reference inside a transaction.
func userInOrgWithRoleTx(tx *gorm.DB, orgID, userID uuid.UUID, roles ...string) (bool, error) {
	q := tx.Model(&models.User{}).
		Where("org_id = ? AND id = ? AND is_active = ?", orgID, userID, true)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}
