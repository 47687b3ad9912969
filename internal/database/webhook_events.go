// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"
	"time"

	"github.com/custodahq/custoda/internal/models"
)

// InsertWebhookEvent claims a Stripe event for processing. A replayed
// event hits the unique index on StripeEventID and comes back as
// ErrConflict, which the webhook handler treats as already-handled.
func (db *DB) InsertWebhookEvent(ctx context.Context, event *models.WebhookEvent) error {
	return translateError(db.gorm.WithContext(ctx).Create(event).Error)
}

// GetWebhookEvent fetches the ledger row for a Stripe event id.
func (db *DB) GetWebhookEvent(ctx context.Context, stripeEventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := db.gorm.WithContext(ctx).First(&event, "stripe_event_id = ?", stripeEventID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &event, nil
}

// MarkWebhookProcessed stamps ProcessedAt, or records the failure so the
// row shows why Stripe will retry.
func (db *DB) MarkWebhookProcessed(ctx context.Context, stripeEventID string, procErr error) error {
	updates := map[string]interface{}{}
	if procErr != nil {
		msg := procErr.Error()
		if len(msg) > 1000 {
			msg = msg[:1000]
		}
		updates["error"] = msg
	} else {
		updates["processed_at"] = time.Now().UTC()
		updates["error"] = ""
	}
	return translateError(db.gorm.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("stripe_event_id = ?", stripeEventID).
		Updates(updates).Error)
}

// DeleteWebhookEvent removes a claimed ledger row. Used when processing
// fails before any state change so Stripe's retry can run fresh.
func (db *DB) DeleteWebhookEvent(ctx context.Context, stripeEventID string) error {
	return translateError(db.gorm.WithContext(ctx).
		Delete(&models.WebhookEvent{}, "stripe_event_id = ?", stripeEventID).Error)
}
