// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
roles.go - User Role Definitions

Role hierarchy (enforced by the casbin policy in internal/authz):
  - admin: full access within the org, including user and billing management
  - property_manager: manages properties, units, jobs, inspections,
    service-request triage and content
  - technician: works assigned jobs, reads the properties they serve
  - tenant: submits service requests, reads own unit and notifications
*/

package models

// Role names. These align with the casbin policy definitions in
// internal/authz/policy.csv.
const (
	RoleAdmin           = "admin"
	RolePropertyManager = "property_manager"
	RoleTechnician      = "technician"
	RoleTenant          = "tenant"
)

// ValidRoles contains all assignable role names.
var ValidRoles = []string{RoleAdmin, RolePropertyManager, RoleTechnician, RoleTenant}

// IsValidRole checks whether a role name is assignable.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaffRole reports whether the role belongs to org staff (anyone who is
// not a tenant).
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RolePropertyManager || role == RoleTechnician
}
