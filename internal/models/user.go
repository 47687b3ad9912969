// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account within an org. The Role field drives authorization
// decisions via the casbin enforcer; PasswordHash is a bcrypt digest and is
// never serialized.
type User struct {
	Base
	OrgID uuid.UUID `gorm:"type:uuid;index;not null" json:"org_id"`
	Org   *Org      `gorm:"foreignKey:OrgID" json:"-"`

	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	// Email is globally unique and doubles as the login identifier.
	Email string `gorm:"size:254;not null;uniqueIndex:idx_users_email" json:"email"`
	// PasswordHash is a bcrypt digest of the login password.
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	// Role is one of the constants in roles.go.
	Role string `gorm:"size:32;not null;index" json:"role"`
	// Phone is optional contact info surfaced on work orders.
	Phone string `gorm:"size:32" json:"phone,omitempty"`
	// AvatarURL points at an uploaded profile image.
	AvatarURL string `gorm:"size:500" json:"avatar_url,omitempty"`
	// IsActive users may authenticate; deactivated users keep their history
	// but are rejected at login.
	IsActive bool `gorm:"default:true" json:"is_active"`
	// LastLoginAt records the most recent successful login.
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index;uniqueIndex:idx_users_email" json:"-"`
}

// FullName joins first and last name for display.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NewUser creates an active user in the given org. The caller supplies the
// bcrypt hash; plaintext passwords never reach the model layer.
func NewUser(orgID uuid.UUID, firstName, lastName, email, passwordHash, role string) *User {
	return &User{
		OrgID:        orgID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
	}
}

// LoginRequest is the payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// LoginResponse carries the signed JWT and the authenticated user profile.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	User      *User  `json:"user"`
}

// CreateUserRequest is the payload for inviting a user into the org.
type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=12,max=128"`
	Role      string `json:"role" validate:"required,role"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// UpdateUserRequest carries mutable user fields. Nil fields are left
// unchanged. Role changes are restricted to admins by the route policy.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Role      *string `json:"role,omitempty" validate:"omitempty,role"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=12,max=128"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=500"`
}
