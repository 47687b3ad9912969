// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is a managed building or site. Units belong to exactly one
// property; jobs and inspections reference the property they occur at.
// Invariant: ManagerID, when set, must reference a user in the same org.
type Property struct {
	Base
	OrgID uuid.UUID `gorm:"type:uuid;index;not null" json:"org_id"`
	Org   *Org      `gorm:"foreignKey:OrgID" json:"-"`

	// Name is the display name, unique within the org.
	Name string `gorm:"size:200;not null" json:"name"`
	// ManagerID is the property manager responsible for this property.
	ManagerID *uuid.UUID `gorm:"type:uuid;index" json:"manager_id,omitempty"`
	Manager   *User      `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`

	AddressLine1 string `gorm:"size:200;not null" json:"address_line1"`
	AddressLine2 string `gorm:"size:200" json:"address_line2,omitempty"`
	City         string `gorm:"size:100;not null" json:"city"`
	State        string `gorm:"size:100" json:"state,omitempty"`
	ZipCode      string `gorm:"size:20" json:"zip_code,omitempty"`
	Country      string `gorm:"size:2;default:US" json:"country"`

	// Latitude and Longitude support map display; zero values mean
	// ungeocoded.
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`

	// YearBuilt is informational, surfaced on inspection reports.
	YearBuilt int `json:"year_built,omitempty"`
	// Notes holds free-form operational notes for managers.
	Notes string `gorm:"type:text" json:"notes,omitempty"`
	// ImageURL points at an uploaded cover photo.
	ImageURL string `gorm:"size:500" json:"image_url,omitempty"`

	// Units is populated on detail reads.
	Units []Unit `gorm:"foreignKey:PropertyID" json:"units,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CreatePropertyRequest is the payload for POST /api/v1/properties.
type CreatePropertyRequest struct {
	Name         string     `json:"name" validate:"required,min=2,max=200"`
	ManagerID    *uuid.UUID `json:"manager_id,omitempty"`
	AddressLine1 string     `json:"address_line1" validate:"required,max=200"`
	AddressLine2 string     `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	City         string     `json:"city" validate:"required,max=100"`
	State        string     `json:"state,omitempty" validate:"omitempty,max=100"`
	ZipCode      string     `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	Country      string     `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
	Latitude     float64    `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    float64    `json:"longitude,omitempty" validate:"omitempty,longitude"`
	YearBuilt    int        `json:"year_built,omitempty" validate:"omitempty,min=1800,max=2100"`
	Notes        string     `json:"notes,omitempty" validate:"omitempty,max=10000"`
}

// UpdatePropertyRequest carries mutable property fields. Nil fields are
// left unchanged.
type UpdatePropertyRequest struct {
	Name         *string    `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	ManagerID    *uuid.UUID `json:"manager_id,omitempty"`
	AddressLine1 *string    `json:"address_line1,omitempty" validate:"omitempty,max=200"`
	AddressLine2 *string    `json:"address_line2,omitempty" validate:"omitempty,max=200"`
	City         *string    `json:"city,omitempty" validate:"omitempty,max=100"`
	State        *string    `json:"state,omitempty" validate:"omitempty,max=100"`
	ZipCode      *string    `json:"zip_code,omitempty" validate:"omitempty,max=20"`
	Country      *string    `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
	Latitude     *float64   `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude    *float64   `json:"longitude,omitempty" validate:"omitempty,longitude"`
	YearBuilt    *int       `json:"year_built,omitempty" validate:"omitempty,min=1800,max=2100"`
	Notes        *string    `json:"notes,omitempty" validate:"omitempty,max=10000"`
	ImageURL     *string    `json:"image_url,omitempty" validate:"omitempty,url,max=500"`
}
