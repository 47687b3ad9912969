// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/models"
)

// GetSubscription fetches the org's subscription row. Every org has one,
// created at registration.
func (db *DB) GetSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.gorm.WithContext(ctx).First(&sub, "org_id = ?", orgID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

// GetSubscriptionByStripeID resolves a subscription from Stripe's
// subscription id.
func (db *DB) GetSubscriptionByStripeID(ctx context.Context, stripeSubID string) (*models.Subscription, error) {
	if stripeSubID == "" {
		return nil, ErrNotFound
	}
	var sub models.Subscription
	err := db.gorm.WithContext(ctx).First(&sub, "stripe_subscription_id = ?", stripeSubID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &sub, nil
}

// SaveSubscription persists webhook-reconciled billing state onto the
// org's subscription row.
func (db *DB) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	return db.withTx(ctx, func(tx *gorm.DB) error {
		var existing models.Subscription
		err := tx.First(&existing, "org_id = ?", sub.OrgID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(sub).Error
			}
			return err
		}
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		return tx.Save(sub).Error
	})
}

// DowngradeSubscription resets the org to the free plan, clearing Stripe
// linkage. Called when a Stripe subscription is deleted.
func (db *DB) DowngradeSubscription(ctx context.Context, orgID uuid.UUID) error {
	return translateError(db.gorm.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("org_id = ?", orgID).
		Updates(map[string]interface{}{
			"plan_id":                models.PlanFree,
			"status":                 models.SubscriptionStatusActive,
			"stripe_subscription_id": "",
			"cancel_at_period_end":   false,
		}).Error)
}
