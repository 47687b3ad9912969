// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"

	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// Seed bootstraps the first org and its admin when the database is empty.
// No-op on any subsequent start. The caller supplies the bcrypt hash.
func (db *DB) Seed(ctx context.Context, orgName, adminEmail, passwordHash string) error {
	count, err := db.CountOrgs(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Debug().Msg("Orgs exist, skipping seed")
		return nil
	}

	org := models.NewOrg(orgName, adminEmail)
	admin := models.NewUser(org.ID, "Admin", "User", adminEmail, passwordHash, models.RoleAdmin)

	if err := db.CreateOrgWithAdmin(ctx, org, admin); err != nil {
		return err
	}

	logging.Info().
		Str("org", org.Name).
		Str("admin", admin.Email).
		Msg("Seeded initial org and admin user")
	return nil
}
