// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unit occupancy states.
const (
	UnitStatusVacant      = "vacant"
	UnitStatusOccupied    = "occupied"
	UnitStatusUnavailable = "unavailable"
)

// ValidUnitStatuses contains all accepted unit status values.
var ValidUnitStatuses = []string{UnitStatusVacant, UnitStatusOccupied, UnitStatusUnavailable}

// IsValidUnitStatus checks whether a unit status value is accepted.
func IsValidUnitStatus(s string) bool {
	for _, v := range ValidUnitStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Unit is a rentable space within a property: an apartment, office suite
// or storage bay. TenantID links the occupying tenant account.
// Invariant: the unit's property must belong to the same org.
type Unit struct {
	Base
	OrgID      uuid.UUID `gorm:"type:uuid;index;not null" json:"org_id"`
	PropertyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_units_property_number" json:"property_id"`
	Property   *Property `gorm:"foreignKey:PropertyID" json:"-"`

	// UnitNumber is the unit designation, unique within its property.
	UnitNumber string `gorm:"size:50;not null;uniqueIndex:idx_units_property_number" json:"unit_number"`
	// Floor is informational; negative values denote basement levels.
	Floor int `json:"floor,omitempty"`
	// Bedrooms and Bathrooms describe residential layouts.
	Bedrooms  int     `json:"bedrooms,omitempty"`
	Bathrooms float64 `json:"bathrooms,omitempty"`
	// SquareFeet is the floor area.
	SquareFeet float64 `json:"square_feet,omitempty"`
	// Status is one of the unit status constants above.
	Status string `gorm:"size:32;not null;default:vacant;index" json:"status"`
	// RentCents is the asking or contracted monthly rent in cents.
	RentCents int64 `json:"rent_cents,omitempty"`
	// TenantID is the tenant account occupying this unit, if any.
	TenantID *uuid.UUID `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	Tenant   *User      `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index;uniqueIndex:idx_units_property_number" json:"-"`
}

// CreateUnitRequest is the payload for POST /api/v1/properties/{propertyID}/units.
type CreateUnitRequest struct {
	UnitNumber string     `json:"unit_number" validate:"required,min=1,max=50"`
	Floor      int        `json:"floor,omitempty" validate:"omitempty,min=-10,max=200"`
	Bedrooms   int        `json:"bedrooms,omitempty" validate:"omitempty,min=0,max=50"`
	Bathrooms  float64    `json:"bathrooms,omitempty" validate:"omitempty,min=0,max=50"`
	SquareFeet float64    `json:"square_feet,omitempty" validate:"omitempty,min=0"`
	Status     string     `json:"status,omitempty" validate:"omitempty,unit_status"`
	RentCents  int64      `json:"rent_cents,omitempty" validate:"omitempty,min=0"`
	TenantID   *uuid.UUID `json:"tenant_id,omitempty"`
}

// UpdateUnitRequest carries mutable unit fields. Nil fields are left
// unchanged.
type UpdateUnitRequest struct {
	UnitNumber *string    `json:"unit_number,omitempty" validate:"omitempty,min=1,max=50"`
	Floor      *int       `json:"floor,omitempty" validate:"omitempty,min=-10,max=200"`
	Bedrooms   *int       `json:"bedrooms,omitempty" validate:"omitempty,min=0,max=50"`
	Bathrooms  *float64   `json:"bathrooms,omitempty" validate:"omitempty,min=0,max=50"`
	SquareFeet *float64   `json:"square_feet,omitempty" validate:"omitempty,min=0"`
	Status     *string    `json:"status,omitempty" validate:"omitempty,unit_status"`
	RentCents  *int64     `json:"rent_cents,omitempty" validate:"omitempty,min=0"`
	TenantID   *uuid.UUID `json:"tenant_id,omitempty"`
}
