// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"strings"

	"gorm.io/gorm"
)

// Org is the tenancy root. Every domain row carries an OrgID and all
// queries are scoped to it; rows never cross org boundaries.
type Org struct {
	Base
	// Name is the display name of the organization.
	Name string `gorm:"size:200;not null" json:"name"`
	// Slug is a URL-safe unique identifier derived from the name.
	Slug string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	// ContactEmail receives billing and operational notices.
	ContactEmail string `gorm:"size:254" json:"contact_email"`
	// Timezone is an IANA zone name used for scheduling display.
	Timezone string `gorm:"size:64;default:UTC" json:"timezone"`
	// StripeCustomerID is set lazily on first checkout. Indexed for
	// webhook lookups; empty until the org first reaches Stripe.
	StripeCustomerID string `gorm:"size:100;index" json:"-"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Slugify converts a display name into a URL-safe slug.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NewOrg creates an organization with a slug derived from the name.
func NewOrg(name, contactEmail string) *Org {
	return &Org{
		Name:         name,
		Slug:         Slugify(name),
		ContactEmail: contactEmail,
		Timezone:     "UTC",
	}
}

// CreateOrgRequest is the payload for registering a new organization with
// its initial admin user.
type CreateOrgRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=200"`
	ContactEmail  string `json:"contact_email" validate:"required,email"`
	AdminName     string `json:"admin_name" validate:"required,min=2,max=200"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminPassword string `json:"admin_password" validate:"required,min=12,max=128"`
}

// UpdateOrgRequest carries mutable org settings. Nil fields are left
// unchanged.
type UpdateOrgRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	Timezone     *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}
