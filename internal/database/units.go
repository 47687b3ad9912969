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

// UnitFilter narrows ListUnits results.
type UnitFilter struct {
	Status string
	Limit  int
	Offset int
}

// CreateUnit inserts a unit after verifying the parent property and the
// optional tenant reference stay inside the org.
func (db *DB) CreateUnit(ctx context.Context, unit *models.Unit) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		ok, err := propertyInOrgTx(tx, unit.OrgID, unit.PropertyID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignReference
		}
		if unit.TenantID != nil {
			ok, err := userInOrgWithRoleTx(tx, unit.OrgID, *unit.TenantID, models.RoleTenant)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
		}
		return tx.Create(unit).Error
	})
}

// GetUnit fetches a unit by id within the org.
func (db *DB) GetUnit(ctx context.Context, orgID, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&unit, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &unit, nil
}

// ListUnits returns a filtered page of a property's units plus the total
// count.
func (db *DB) ListUnits(ctx context.Context, orgID, propertyID uuid.UUID, filter UnitFilter) ([]models.Unit, int64, error) {
	q := db.gorm.WithContext(ctx).
		Model(&models.Unit{}).
		Where("org_id = ? AND property_id = ?", orgID, propertyID)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var units []models.Unit
	err := q.Order("unit_number ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&units).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return units, total, nil
}

// UpdateUnit applies non-nil fields from the request and returns the
// updated row.
func (db *DB) UpdateUnit(ctx context.Context, orgID, id uuid.UUID, req *models.UpdateUnitRequest) (*models.Unit, error) {
	var unit models.Unit
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&unit, "id = ?", id).Error; err != nil {
			return err
		}
		if req.TenantID != nil {
			ok, err := userInOrgWithRoleTx(tx, orgID, *req.TenantID, models.RoleTenant)
			if err != nil {
				return err
			}
			if !ok {
				return ErrForeignReference
			}
			unit.TenantID = req.TenantID
			unit.Status = models.UnitStatusOccupied
		}
		if req.UnitNumber != nil {
			unit.UnitNumber = *req.UnitNumber
		}
		if req.Floor != nil {
			unit.Floor = *req.Floor
		}
		if req.Bedrooms != nil {
			unit.Bedrooms = *req.Bedrooms
		}
		if req.Bathrooms != nil {
			unit.Bathrooms = *req.Bathrooms
		}
		if req.SquareFeet != nil {
			unit.SquareFeet = *req.SquareFeet
		}
		if req.Status != nil {
			unit.Status = *req.Status
			if *req.Status == models.UnitStatusVacant {
				unit.TenantID = nil
			}
		}
		if req.RentCents != nil {
			unit.RentCents = *req.RentCents
		}
		return tx.Save(&unit).Error
	})
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// DeleteUnit soft-deletes a unit.
func (db *DB) DeleteUnit(ctx context.Context, orgID, id uuid.UUID) error {
	res := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&models.Unit{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnits returns the number of live units in the org. Entitlement
// checks consult this before create.
func (db *DB) CountUnits(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := db.gorm.WithContext(ctx).
		Model(&models.Unit{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, translateError(err)
}

// GetTenantUnit fetches the unit occupied by the given tenant, if any.
func (db *DB) GetTenantUnit(ctx context.Context, orgID, tenantID uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := db.gorm.WithContext(ctx).
		Where("org_id = ? AND tenant_id = ?", orgID, tenantID).
		First(&unit).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &unit, nil
}
