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

// CreateNotification inserts a notification row. The dispatcher picks it
// up on its next poll.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	return translateError(db.gorm.WithContext(ctx).Create(n).Error)
}

// ListNotifications returns a page of the user's notifications, newest
// first, plus the total count.
func (db *DB) ListNotifications(ctx context.Context, orgID, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	q := db.gorm.WithContext(ctx).
		Model(&models.Notification{}).
		Where("org_id = ? AND user_id = ?", orgID, userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var notifications []models.Notification
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return notifications, total, nil
}

// CountUnreadNotifications returns the user's unread count for the badge.
func (db *DB) CountUnreadNotifications(ctx context.Context, orgID, userID uuid.UUID) (int64, error) {
	var count int64
	err := db.gorm.WithContext(ctx).
		Model(&models.Notification{}).
		Where("org_id = ? AND user_id = ? AND read_at IS NULL", orgID, userID).
		Count(&count).Error
	return count, translateError(err)
}

// MarkNotificationRead stamps ReadAt on one of the user's notifications.
func (db *DB) MarkNotificationRead(ctx context.Context, orgID, userID, id uuid.UUID) error {
	now := time.Now().UTC()
	res := db.gorm.WithContext(ctx).
		Model(&models.Notification{}).
		Where("org_id = ? AND user_id = ? AND id = ? AND read_at IS NULL", orgID, userID, id).
		Update("read_at", now)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead stamps ReadAt on every unread notification the
// user has and returns how many were affected.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, orgID, userID uuid.UUID) (int64, error) {
	now := time.Now().UTC()
	res := db.gorm.WithContext(ctx).
		Model(&models.Notification{}).
		Where("org_id = ? AND user_id = ? AND read_at IS NULL", orgID, userID).
		Update("read_at", now)
	return res.RowsAffected, translateError(res.Error)
}

// PendingNotifications returns undispatched rows that still have delivery
// attempts left, oldest first. The dispatch manager polls this.
func (db *DB) PendingNotifications(ctx context.Context, maxAttempts, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := db.gorm.WithContext(ctx).
		Where("dispatched_at IS NULL AND dispatch_attempts < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, translateError(err)
	}
	return notifications, nil
}

// CountPendingNotifications sizes the outbox backlog for metrics.
func (db *DB) CountPendingNotifications(ctx context.Context, maxAttempts int) (int64, error) {
	var count int64
	err := db.gorm.WithContext(ctx).
		Model(&models.Notification{}).
		Where("dispatched_at IS NULL AND dispatch_attempts < ?", maxAttempts).
		Count(&count).Error
	return count, translateError(err)
}

// MarkNotificationDispatched stamps DispatchedAt after delivery.
func (db *DB) MarkNotificationDispatched(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return translateError(db.gorm.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dispatched_at":       now,
			"last_dispatch_error": "",
		}).Error)
}

// RecordDispatchFailure bumps the attempt counter and stores the error so
// the next poll retries or abandons the row.
func (db *DB) RecordDispatchFailure(ctx context.Context, id uuid.UUID, dispatchErr string) error {
	if len(dispatchErr) > 500 {
		dispatchErr = dispatchErr[:500]
	}
	return translateError(db.gorm.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"dispatch_attempts":   gorm.Expr("dispatch_attempts + 1"),
			"last_dispatch_error": dispatchErr,
		}).Error)
}
