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

// CreateOrgWithAdmin bootstraps a new organization: the org row, its first
// admin user and a free subscription, all in one transaction. Used by
// registration and the startup seed.
func (db *DB) CreateOrgWithAdmin(ctx context.Context, org *models.Org, admin *models.User) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}

		admin.OrgID = org.ID
		admin.Role = models.RoleAdmin
		if err := tx.Create(admin).Error; err != nil {
			return err
		}

		return tx.Create(models.NewFreeSubscription(org.ID)).Error
	})
}

// GetOrg fetches an org by id.
func (db *DB) GetOrg(ctx context.Context, id uuid.UUID) (*models.Org, error) {
	var org models.Org
	err := db.gorm.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &org, nil
}

// GetOrgByStripeCustomer resolves an org from a Stripe customer id.
// Webhook handlers use this to map events back to tenants.
func (db *DB) GetOrgByStripeCustomer(ctx context.Context, customerID string) (*models.Org, error) {
	if customerID == "" {
		return nil, ErrNotFound
	}
	var org models.Org
	err := db.gorm.WithContext(ctx).First(&org, "stripe_customer_id = ?", customerID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &org, nil
}

// UpdateOrg applies non-nil fields from the request and returns the
// updated row.
func (db *DB) UpdateOrg(ctx context.Context, id uuid.UUID, req *models.UpdateOrgRequest) (*models.Org, error) {
	var org models.Org
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&org, "id = ?", id).Error; err != nil {
			return err
		}
		if req.Name != nil {
			org.Name = *req.Name
			org.Slug = models.Slugify(*req.Name)
		}
		if req.ContactEmail != nil {
			org.ContactEmail = *req.ContactEmail
		}
		if req.Timezone != nil {
			org.Timezone = *req.Timezone
		}
		return tx.Save(&org).Error
	})
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// SetOrgStripeCustomer stores the lazily created Stripe customer id.
func (db *DB) SetOrgStripeCustomer(ctx context.Context, orgID uuid.UUID, customerID string) error {
	res := db.gorm.WithContext(ctx).
		Model(&models.Org{}).
		Where("id = ?", orgID).
		Update("stripe_customer_id", customerID)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOrgs returns the number of live orgs. The seed uses this to decide
// whether to bootstrap.
func (db *DB) CountOrgs(ctx context.Context) (int64, error) {
	var count int64
	err := db.gorm.WithContext(ctx).Model(&models.Org{}).Count(&count).Error
	return count, translateError(err)
}
