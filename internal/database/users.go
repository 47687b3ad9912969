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

// UserFilter narrows ListUsers results.
type UserFilter struct {
	Role     string
	IsActive *bool
	Search   string // matches first name, last name or email
	Limit    int
	Offset   int
}

// CreateUser inserts a user into the org.
func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	return translateError(db.gorm.WithContext(ctx).Create(user).Error)
}

// GetUser fetches a user by id within the org.
func (db *DB) GetUser(ctx context.Context, orgID, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetUserByEmail fetches a user by email across orgs. Login only; all
// other lookups are org-scoped.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := db.gorm.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// ListUsers returns a filtered page of org users plus the total count.
func (db *DB) ListUsers(ctx context.Context, orgID uuid.UUID, filter UserFilter) ([]models.User, int64, error) {
	q := db.gorm.WithContext(ctx).Model(&models.User{}).Where("org_id = ?", orgID)

	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var users []models.User
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return users, total, nil
}

// UpdateUser applies non-nil fields from the request and returns the
// updated row. The password hash, when present, is already bcrypt-hashed
// by the caller.
func (db *DB) UpdateUser(ctx context.Context, orgID, id uuid.UUID, req *models.UpdateUserRequest, passwordHash string) (*models.User, error) {
	var user models.User
	err := db.withTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.Phone != nil {
			user.Phone = *req.Phone
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.AvatarURL != nil {
			user.AvatarURL = *req.AvatarURL
		}
		if passwordHash != "" {
			user.PasswordHash = passwordHash
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser soft-deletes a user. Their history (jobs, requests) survives.
func (db *DB) DeleteUser(ctx context.Context, orgID, id uuid.UUID) error {
	res := db.gorm.WithContext(ctx).
		Where("org_id = ?", orgID).
		Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin stamps the user's last successful login.
func (db *DB) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	return translateError(db.gorm.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", now).Error)
}

// UserInOrgWithRole reports whether the user exists in the org and holds
// one of the given roles. Used to validate assignee and manager
// references before writes.
func (db *DB) UserInOrgWithRole(ctx context.Context, orgID, userID uuid.UUID, roles ...string) (bool, error) {
	q := db.gorm.WithContext(ctx).
		Model(&models.User{}).
		Where("org_id = ? AND id = ? AND is_active = ?", orgID, userID, true)
	if len(roles) > 0 {
		q = q.Where("role IN ?", roles)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}
