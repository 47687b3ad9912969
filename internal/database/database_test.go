// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/models"
)

// setupTestDB creates an in-memory sqlite database with the full schema.
// The pool is pinned to a single connection: sqlite's :memory: database
// lives on the connection, so a second one would see an empty schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		AutoMigrate:  true,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	return db
}

// seedTestOrg creates an org with an admin and returns both.
func seedTestOrg(t *testing.T, db *DB, name, adminEmail string) (*models.Org, *models.User) {
	t.Helper()

	org := models.NewOrg(name, adminEmail)
	admin := models.NewUser(uuid.Nil, "Ada", "Admin", adminEmail, "test-hash", models.RoleAdmin)
	if err := db.CreateOrgWithAdmin(context.Background(), org, admin); err != nil {
		t.Fatalf("Failed to create test org %q: %v", name, err)
	}
	return org, admin
}

// createTestUser adds a user with the given role to the org.
func createTestUser(t *testing.T, db *DB, orgID uuid.UUID, role, email string) *models.User {
	t.Helper()

	user := models.NewUser(orgID, "Test", "User", email, "test-hash", role)
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create test user %q: %v", email, err)
	}
	return user
}

// createTestProperty adds a property to the org.
func createTestProperty(t *testing.T, db *DB, orgID uuid.UUID, name string) *models.Property {
	t.Helper()

	property := &models.Property{
		OrgID:        orgID,
		Name:         name,
		AddressLine1: "100 Main St",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62701",
		Country:      "US",
	}
	if err := db.CreateProperty(context.Background(), property); err != nil {
		t.Fatalf("Failed to create test property %q: %v", name, err)
	}
	return property
}

// createTestUnit adds a unit to the property.
func createTestUnit(t *testing.T, db *DB, orgID, propertyID uuid.UUID, number string) *models.Unit {
	t.Helper()

	unit := &models.Unit{
		OrgID:      orgID,
		PropertyID: propertyID,
		UnitNumber: number,
		Status:     models.UnitStatusVacant,
	}
	if err := db.CreateUnit(context.Background(), unit); err != nil {
		t.Fatalf("Failed to create test unit %q: %v", number, err)
	}
	return unit
}

// TestNew tests database creation and health checking
func TestNew(t *testing.T) {
	db := setupTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() on fresh database failed: %v", err)
	}
}

// TestNewRequiresDSN tests that an empty DSN is rejected
func TestNewRequiresDSN(t *testing.T) {
	_, err := New(&config.DatabaseConfig{})
	if err == nil {
		t.Fatal("New() with empty DSN should fail")
	}
}

// TestCreateOrgWithAdmin tests the registration bootstrap transaction
func TestCreateOrgWithAdmin(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, admin := seedTestOrg(t, db, "Acme Property Group", "ada@acme.test")

	t.Run("org is persisted with slug", func(t *testing.T) {
		got, err := db.GetOrg(ctx, org.ID)
		if err != nil {
			t.Fatalf("GetOrg() failed: %v", err)
		}
		if got.Slug != "acme-property-group" {
			t.Errorf("Slug = %q, want %q", got.Slug, "acme-property-group")
		}
	})

	t.Run("admin role is forced", func(t *testing.T) {
		got, err := db.GetUser(ctx, org.ID, admin.ID)
		if err != nil {
			t.Fatalf("GetUser() failed: %v", err)
		}
		if got.Role != models.RoleAdmin {
			t.Errorf("Role = %q, want %q", got.Role, models.RoleAdmin)
		}
		if got.OrgID != org.ID {
			t.Errorf("OrgID = %v, want %v", got.OrgID, org.ID)
		}
	})

	t.Run("free subscription is created", func(t *testing.T) {
		sub, err := db.GetSubscription(ctx, org.ID)
		if err != nil {
			t.Fatalf("GetSubscription() failed: %v", err)
		}
		if sub.PlanID != models.PlanFree {
			t.Errorf("PlanID = %q, want %q", sub.PlanID, models.PlanFree)
		}
		if sub.Status != models.SubscriptionStatusActive {
			t.Errorf("Status = %q, want %q", sub.Status, models.SubscriptionStatusActive)
		}
	})
}

// TestSeed tests the startup bootstrap
func TestSeed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Seed(ctx, "Custoda Demo", "admin@custoda.test", "test-hash"); err != nil {
		t.Fatalf("Seed() on empty database failed: %v", err)
	}

	count, err := db.CountOrgs(ctx)
	if err != nil {
		t.Fatalf("CountOrgs() failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountOrgs() = %d after seed, want 1", count)
	}

	admin, err := db.GetUserByEmail(ctx, "admin@custoda.test")
	if err != nil {
		t.Fatalf("GetUserByEmail() for seeded admin failed: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("seeded admin role = %q, want %q", admin.Role, models.RoleAdmin)
	}

	// Second seed must be a no-op.
	if err := db.Seed(ctx, "Other Org", "other@custoda.test", "test-hash"); err != nil {
		t.Fatalf("Seed() on populated database failed: %v", err)
	}
	count, err = db.CountOrgs(ctx)
	if err != nil {
		t.Fatalf("CountOrgs() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountOrgs() = %d after second seed, want 1", count)
	}
}

// TestDuplicateEmailRejected tests the global email uniqueness constraint
func TestDuplicateEmailRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	orgA, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	orgB, _ := seedTestOrg(t, db, "Org B", "bob@orgb.test")

	createTestUser(t, db, orgA.ID, models.RoleTechnician, "shared@example.test")

	dup := models.NewUser(orgB.ID, "Dup", "User", "shared@example.test", "test-hash", models.RoleTechnician)
	err := db.CreateUser(ctx, dup)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("CreateUser() with email from another org = %v, want ErrConflict", err)
	}
}

// TestOrgScoping tests that cross-org reads are indistinguishable from
// missing rows
func TestOrgScoping(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	orgA, adminA := seedTestOrg(t, db, "Org A", "ada@orga.test")
	orgB, _ := seedTestOrg(t, db, "Org B", "bob@orgb.test")

	property := createTestProperty(t, db, orgA.ID, "Maple Court")
	unit := createTestUnit(t, db, orgA.ID, property.ID, "1A")

	t.Run("own org sees the row", func(t *testing.T) {
		if _, err := db.GetProperty(ctx, orgA.ID, property.ID); err != nil {
			t.Errorf("GetProperty() in own org failed: %v", err)
		}
	})

	t.Run("other org gets ErrNotFound", func(t *testing.T) {
		if _, err := db.GetProperty(ctx, orgB.ID, property.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProperty() cross-org = %v, want ErrNotFound", err)
		}
		if _, err := db.GetUnit(ctx, orgB.ID, unit.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUnit() cross-org = %v, want ErrNotFound", err)
		}
		if _, err := db.GetUser(ctx, orgB.ID, adminA.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUser() cross-org = %v, want ErrNotFound", err)
		}
	})

	t.Run("missing row gets the same ErrNotFound", func(t *testing.T) {
		if _, err := db.GetProperty(ctx, orgA.ID, uuid.New()); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetProperty() missing row = %v, want ErrNotFound", err)
		}
	})

	t.Run("cross-org foreign reference is rejected", func(t *testing.T) {
		job := &models.Job{
			OrgID:      orgB.ID,
			PropertyID: property.ID, // belongs to org A
			Title:      "Fix leak",
			Category:   models.JobCategoryPlumbing,
			Priority:   models.JobPriorityMedium,
			Source:     models.JobSourceManual,
			Status:     models.JobStatusOpen,
		}
		if err := db.CreateJob(ctx, job); !errors.Is(err, ErrForeignReference) {
			t.Errorf("CreateJob() with cross-org property = %v, want ErrForeignReference", err)
		}
	})
}

// TestCreatePropertyManagerRole tests that only staff can manage a property
func TestCreatePropertyManagerRole(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	manager := createTestUser(t, db, org.ID, models.RolePropertyManager, "mgr@orga.test")
	tenant := createTestUser(t, db, org.ID, models.RoleTenant, "tenant@orga.test")

	t.Run("property manager accepted", func(t *testing.T) {
		property := &models.Property{
			OrgID:        org.ID,
			Name:         "Oak Plaza",
			ManagerID:    &manager.ID,
			AddressLine1: "1 Oak St",
			City:         "Springfield",
		}
		if err := db.CreateProperty(ctx, property); err != nil {
			t.Errorf("CreateProperty() with manager failed: %v", err)
		}
	})

	t.Run("tenant as manager rejected", func(t *testing.T) {
		property := &models.Property{
			OrgID:        org.ID,
			Name:         "Elm Plaza",
			ManagerID:    &tenant.ID,
			AddressLine1: "2 Elm St",
			City:         "Springfield",
		}
		if err := db.CreateProperty(ctx, property); !errors.Is(err, ErrForeignReference) {
			t.Errorf("CreateProperty() with tenant manager = %v, want ErrForeignReference", err)
		}
	})
}

// TestUnitNumberUniquePerProperty tests the composite unique index
func TestUnitNumberUniquePerProperty(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	propertyA := createTestProperty(t, db, org.ID, "Maple Court")
	propertyB := createTestProperty(t, db, org.ID, "Oak Plaza")

	createTestUnit(t, db, org.ID, propertyA.ID, "1A")

	t.Run("duplicate within property rejected", func(t *testing.T) {
		dup := &models.Unit{OrgID: org.ID, PropertyID: propertyA.ID, UnitNumber: "1A"}
		if err := db.CreateUnit(ctx, dup); !errors.Is(err, ErrConflict) {
			t.Errorf("CreateUnit() duplicate number = %v, want ErrConflict", err)
		}
	})

	t.Run("same number in another property accepted", func(t *testing.T) {
		other := &models.Unit{OrgID: org.ID, PropertyID: propertyB.ID, UnitNumber: "1A"}
		if err := db.CreateUnit(ctx, other); err != nil {
			t.Errorf("CreateUnit() in other property failed: %v", err)
		}
	})
}

// TestUpdateUnitOccupancy tests the tenant/status coupling on updates
func TestUpdateUnitOccupancy(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	unit := createTestUnit(t, db, org.ID, property.ID, "1A")
	tenant := createTestUser(t, db, org.ID, models.RoleTenant, "tenant@orga.test")

	t.Run("placing a tenant marks the unit occupied", func(t *testing.T) {
		got, err := db.UpdateUnit(ctx, org.ID, unit.ID, &models.UpdateUnitRequest{TenantID: &tenant.ID})
		if err != nil {
			t.Fatalf("UpdateUnit() failed: %v", err)
		}
		if got.Status != models.UnitStatusOccupied {
			t.Errorf("Status = %q, want %q", got.Status, models.UnitStatusOccupied)
		}
		if got.TenantID == nil || *got.TenantID != tenant.ID {
			t.Errorf("TenantID = %v, want %v", got.TenantID, tenant.ID)
		}
	})

	t.Run("vacating clears the tenant", func(t *testing.T) {
		vacant := models.UnitStatusVacant
		got, err := db.UpdateUnit(ctx, org.ID, unit.ID, &models.UpdateUnitRequest{Status: &vacant})
		if err != nil {
			t.Fatalf("UpdateUnit() failed: %v", err)
		}
		if got.Status != models.UnitStatusVacant {
			t.Errorf("Status = %q, want %q", got.Status, models.UnitStatusVacant)
		}
		if got.TenantID != nil {
			t.Errorf("TenantID = %v, want nil", got.TenantID)
		}
	})

	t.Run("staff user as tenant rejected", func(t *testing.T) {
		staff := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")
		_, err := db.UpdateUnit(ctx, org.ID, unit.ID, &models.UpdateUnitRequest{TenantID: &staff.ID})
		if !errors.Is(err, ErrForeignReference) {
			t.Errorf("UpdateUnit() with staff tenant = %v, want ErrForeignReference", err)
		}
	})
}

// TestDeletePropertyCascadesUnits tests that deleting a property soft
// deletes its units
func TestDeletePropertyCascadesUnits(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	property := createTestProperty(t, db, org.ID, "Maple Court")
	unit := createTestUnit(t, db, org.ID, property.ID, "1A")

	if err := db.DeleteProperty(ctx, org.ID, property.ID); err != nil {
		t.Fatalf("DeleteProperty() failed: %v", err)
	}

	if _, err := db.GetProperty(ctx, org.ID, property.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProperty() after delete = %v, want ErrNotFound", err)
	}
	if _, err := db.GetUnit(ctx, org.ID, unit.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUnit() after property delete = %v, want ErrNotFound", err)
	}

	count, err := db.CountUnits(ctx, org.ID)
	if err != nil {
		t.Fatalf("CountUnits() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("CountUnits() after property delete = %d, want 0", count)
	}
}

// TestListProperties tests pagination and search
func TestListProperties(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	for i := 0; i < 5; i++ {
		createTestProperty(t, db, org.ID, fmt.Sprintf("Building %d", i))
	}
	createTestProperty(t, db, org.ID, "Harbor View")

	t.Run("pagination", func(t *testing.T) {
		properties, total, err := db.ListProperties(ctx, org.ID, PropertyFilter{Limit: 4, Offset: 0})
		if err != nil {
			t.Fatalf("ListProperties() failed: %v", err)
		}
		if total != 6 {
			t.Errorf("total = %d, want 6", total)
		}
		if len(properties) != 4 {
			t.Errorf("len(properties) = %d, want 4", len(properties))
		}
	})

	t.Run("search by name", func(t *testing.T) {
		properties, total, err := db.ListProperties(ctx, org.ID, PropertyFilter{Search: "harbor", Limit: 10})
		if err != nil {
			t.Fatalf("ListProperties() failed: %v", err)
		}
		if total != 1 || len(properties) != 1 {
			t.Fatalf("search returned %d rows (total %d), want 1", len(properties), total)
		}
		if properties[0].Name != "Harbor View" {
			t.Errorf("Name = %q, want %q", properties[0].Name, "Harbor View")
		}
	})
}

// TestSaveSubscriptionUpsert tests that webhook-driven saves update in
// place rather than duplicating rows
func TestSaveSubscriptionUpsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")

	existing, err := db.GetSubscription(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetSubscription() failed: %v", err)
	}

	update := &models.Subscription{
		OrgID:                org.ID,
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: "sub_123",
		PlanID:               models.PlanStarter,
		Status:               models.SubscriptionStatusActive,
	}
	if err := db.SaveSubscription(ctx, update); err != nil {
		t.Fatalf("SaveSubscription() failed: %v", err)
	}

	got, err := db.GetSubscription(ctx, org.ID)
	if err != nil {
		t.Fatalf("GetSubscription() after save failed: %v", err)
	}
	if got.ID != existing.ID {
		t.Errorf("subscription row was replaced: ID %v != %v", got.ID, existing.ID)
	}
	if got.PlanID != models.PlanStarter {
		t.Errorf("PlanID = %q, want %q", got.PlanID, models.PlanStarter)
	}

	t.Run("lookup by stripe subscription id", func(t *testing.T) {
		bySub, err := db.GetSubscriptionByStripeID(ctx, "sub_123")
		if err != nil {
			t.Fatalf("GetSubscriptionByStripeID() failed: %v", err)
		}
		if bySub.OrgID != org.ID {
			t.Errorf("OrgID = %v, want %v", bySub.OrgID, org.ID)
		}
	})

	t.Run("downgrade resets to free", func(t *testing.T) {
		if err := db.DowngradeSubscription(ctx, org.ID); err != nil {
			t.Fatalf("DowngradeSubscription() failed: %v", err)
		}
		got, err := db.GetSubscription(ctx, org.ID)
		if err != nil {
			t.Fatalf("GetSubscription() after downgrade failed: %v", err)
		}
		if got.PlanID != models.PlanFree {
			t.Errorf("PlanID = %q, want %q", got.PlanID, models.PlanFree)
		}
		if got.StripeSubscriptionID != "" {
			t.Errorf("StripeSubscriptionID = %q, want empty", got.StripeSubscriptionID)
		}
	})
}

// TestGetOrgByStripeCustomer tests customer id resolution edge cases
func TestGetOrgByStripeCustomer(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")

	t.Run("empty customer id is not found", func(t *testing.T) {
		// Orgs without billing have an empty stripe_customer_id; an empty
		// lookup must not match them.
		if _, err := db.GetOrgByStripeCustomer(ctx, ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetOrgByStripeCustomer(\"\") = %v, want ErrNotFound", err)
		}
	})

	t.Run("set and resolve", func(t *testing.T) {
		if err := db.SetOrgStripeCustomer(ctx, org.ID, "cus_abc"); err != nil {
			t.Fatalf("SetOrgStripeCustomer() failed: %v", err)
		}
		got, err := db.GetOrgByStripeCustomer(ctx, "cus_abc")
		if err != nil {
			t.Fatalf("GetOrgByStripeCustomer() failed: %v", err)
		}
		if got.ID != org.ID {
			t.Errorf("org ID = %v, want %v", got.ID, org.ID)
		}
	})

	t.Run("unknown org id on set", func(t *testing.T) {
		if err := db.SetOrgStripeCustomer(ctx, uuid.New(), "cus_xyz"); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetOrgStripeCustomer() unknown org = %v, want ErrNotFound", err)
		}
	})
}

// TestWebhookEventIdempotency tests the Stripe event ledger
func TestWebhookEventIdempotency(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	event := &models.WebhookEvent{
		StripeEventID: "evt_test_1",
		Type:          "customer.subscription.updated",
		Payload:       []byte(`{"id":"evt_test_1"}`),
	}
	if err := db.InsertWebhookEvent(ctx, event); err != nil {
		t.Fatalf("InsertWebhookEvent() failed: %v", err)
	}

	t.Run("replay is ErrConflict", func(t *testing.T) {
		replay := &models.WebhookEvent{
			StripeEventID: "evt_test_1",
			Type:          "customer.subscription.updated",
		}
		if err := db.InsertWebhookEvent(ctx, replay); !errors.Is(err, ErrConflict) {
			t.Errorf("InsertWebhookEvent() replay = %v, want ErrConflict", err)
		}
	})

	t.Run("failure is recorded", func(t *testing.T) {
		if err := db.MarkWebhookProcessed(ctx, "evt_test_1", errors.New("org lookup failed")); err != nil {
			t.Fatalf("MarkWebhookProcessed() failed: %v", err)
		}
		got, err := db.GetWebhookEvent(ctx, "evt_test_1")
		if err != nil {
			t.Fatalf("GetWebhookEvent() failed: %v", err)
		}
		if got.ProcessedAt != nil {
			t.Error("ProcessedAt set on failed event")
		}
		if got.Error != "org lookup failed" {
			t.Errorf("Error = %q, want %q", got.Error, "org lookup failed")
		}
	})

	t.Run("success stamps ProcessedAt and clears error", func(t *testing.T) {
		if err := db.MarkWebhookProcessed(ctx, "evt_test_1", nil); err != nil {
			t.Fatalf("MarkWebhookProcessed() failed: %v", err)
		}
		got, err := db.GetWebhookEvent(ctx, "evt_test_1")
		if err != nil {
			t.Fatalf("GetWebhookEvent() failed: %v", err)
		}
		if !got.IsProcessed() {
			t.Error("IsProcessed() = false after successful mark")
		}
		if got.Error != "" {
			t.Errorf("Error = %q, want empty", got.Error)
		}
	})

	t.Run("delete releases the claim", func(t *testing.T) {
		if err := db.DeleteWebhookEvent(ctx, "evt_test_1"); err != nil {
			t.Fatalf("DeleteWebhookEvent() failed: %v", err)
		}
		retry := &models.WebhookEvent{StripeEventID: "evt_test_1", Type: "customer.subscription.updated"}
		if err := db.InsertWebhookEvent(ctx, retry); err != nil {
			t.Errorf("InsertWebhookEvent() after delete failed: %v", err)
		}
	})
}

// TestNotificationOutbox tests the dispatch lifecycle of notification rows
func TestNotificationOutbox(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, admin := seedTestOrg(t, db, "Org A", "ada@orga.test")

	first := models.NewNotification(org.ID, admin.ID, models.NotificationTypeSystem,
		"Welcome", "Your account is ready.", nil)
	second := models.NewNotification(org.ID, admin.ID, models.NotificationTypeBilling,
		"Payment failed", "Please update your card.", map[string]string{"plan": "starter"})
	for _, n := range []*models.Notification{first, second} {
		if err := db.CreateNotification(ctx, n); err != nil {
			t.Fatalf("CreateNotification() failed: %v", err)
		}
	}

	const maxAttempts = 3

	t.Run("new rows are pending oldest first", func(t *testing.T) {
		pending, err := db.PendingNotifications(ctx, maxAttempts, 10)
		if err != nil {
			t.Fatalf("PendingNotifications() failed: %v", err)
		}
		if len(pending) != 2 {
			t.Fatalf("len(pending) = %d, want 2", len(pending))
		}
		if pending[0].ID != first.ID {
			t.Errorf("pending[0] = %v, want oldest %v", pending[0].ID, first.ID)
		}
	})

	t.Run("dispatched rows leave the queue", func(t *testing.T) {
		if err := db.MarkNotificationDispatched(ctx, first.ID); err != nil {
			t.Fatalf("MarkNotificationDispatched() failed: %v", err)
		}
		pending, err := db.PendingNotifications(ctx, maxAttempts, 10)
		if err != nil {
			t.Fatalf("PendingNotifications() failed: %v", err)
		}
		if len(pending) != 1 || pending[0].ID != second.ID {
			t.Errorf("pending = %d rows, want only the undispatched one", len(pending))
		}
	})

	t.Run("exhausted rows are abandoned", func(t *testing.T) {
		for i := 0; i < maxAttempts; i++ {
			if err := db.RecordDispatchFailure(ctx, second.ID, "smtp: connection refused"); err != nil {
				t.Fatalf("RecordDispatchFailure() failed: %v", err)
			}
		}
		pending, err := db.PendingNotifications(ctx, maxAttempts, 10)
		if err != nil {
			t.Fatalf("PendingNotifications() failed: %v", err)
		}
		if len(pending) != 0 {
			t.Errorf("len(pending) = %d after exhausting attempts, want 0", len(pending))
		}

		count, err := db.CountPendingNotifications(ctx, maxAttempts)
		if err != nil {
			t.Fatalf("CountPendingNotifications() failed: %v", err)
		}
		if count != 0 {
			t.Errorf("CountPendingNotifications() = %d, want 0", count)
		}
	})

	t.Run("read tracking", func(t *testing.T) {
		unread, err := db.CountUnreadNotifications(ctx, org.ID, admin.ID)
		if err != nil {
			t.Fatalf("CountUnreadNotifications() failed: %v", err)
		}
		if unread != 2 {
			t.Errorf("unread = %d, want 2", unread)
		}

		if err := db.MarkNotificationRead(ctx, org.ID, admin.ID, first.ID); err != nil {
			t.Fatalf("MarkNotificationRead() failed: %v", err)
		}
		// Re-reading the same row is ErrNotFound: the read_at IS NULL
		// guard already consumed it.
		if err := db.MarkNotificationRead(ctx, org.ID, admin.ID, first.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("MarkNotificationRead() twice = %v, want ErrNotFound", err)
		}

		affected, err := db.MarkAllNotificationsRead(ctx, org.ID, admin.ID)
		if err != nil {
			t.Fatalf("MarkAllNotificationsRead() failed: %v", err)
		}
		if affected != 1 {
			t.Errorf("MarkAllNotificationsRead() = %d, want 1", affected)
		}
	})

	t.Run("other user cannot mark read", func(t *testing.T) {
		other := createTestUser(t, db, org.ID, models.RoleTechnician, "tech@orga.test")
		err := db.MarkNotificationRead(ctx, org.ID, other.ID, second.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("MarkNotificationRead() as other user = %v, want ErrNotFound", err)
		}
	})
}

// TestBlogPostSlugs tests slug uniquification and published filtering
func TestBlogPostSlugs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	published := &models.BlogPost{
		Title:  "Winter HVAC Checklist",
		Body:   "Change the filters.",
		Tags:   []string{"hvac", "seasonal"},
		Status: models.BlogPostStatusPublished,
		Source: models.BlogPostSourceManual,
	}
	if err := db.CreateBlogPost(ctx, published); err != nil {
		t.Fatalf("CreateBlogPost() failed: %v", err)
	}
	if published.Slug != "winter-hvac-checklist" {
		t.Errorf("Slug = %q, want %q", published.Slug, "winter-hvac-checklist")
	}
	if published.PublishedAt == nil {
		t.Error("PublishedAt not stamped on published create")
	}

	t.Run("colliding titles get numeric suffixes", func(t *testing.T) {
		second := &models.BlogPost{Title: "Winter HVAC Checklist", Body: "x", Status: models.BlogPostStatusDraft}
		if err := db.CreateBlogPost(ctx, second); err != nil {
			t.Fatalf("CreateBlogPost() failed: %v", err)
		}
		if second.Slug != "winter-hvac-checklist-2" {
			t.Errorf("Slug = %q, want %q", second.Slug, "winter-hvac-checklist-2")
		}

		third := &models.BlogPost{Title: "Winter HVAC Checklist", Body: "x", Status: models.BlogPostStatusDraft}
		if err := db.CreateBlogPost(ctx, third); err != nil {
			t.Fatalf("CreateBlogPost() failed: %v", err)
		}
		if third.Slug != "winter-hvac-checklist-3" {
			t.Errorf("Slug = %q, want %q", third.Slug, "winter-hvac-checklist-3")
		}
	})

	t.Run("public list excludes drafts", func(t *testing.T) {
		posts, total, err := db.ListBlogPosts(ctx, BlogPostFilter{PublishedOnly: true, Limit: 10})
		if err != nil {
			t.Fatalf("ListBlogPosts() failed: %v", err)
		}
		if total != 1 || len(posts) != 1 {
			t.Fatalf("published list = %d rows (total %d), want 1", len(posts), total)
		}
		if posts[0].ID != published.ID {
			t.Errorf("published post = %v, want %v", posts[0].ID, published.ID)
		}
	})

	t.Run("tag filter", func(t *testing.T) {
		posts, _, err := db.ListBlogPosts(ctx, BlogPostFilter{Tag: "hvac", Limit: 10})
		if err != nil {
			t.Fatalf("ListBlogPosts() failed: %v", err)
		}
		if len(posts) != 1 {
			t.Errorf("tag filter = %d rows, want 1", len(posts))
		}
	})

	t.Run("public get only sees published", func(t *testing.T) {
		if _, err := db.GetPublishedBlogPost(ctx, "winter-hvac-checklist"); err != nil {
			t.Errorf("GetPublishedBlogPost() for published slug failed: %v", err)
		}
		if _, err := db.GetPublishedBlogPost(ctx, "winter-hvac-checklist-2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetPublishedBlogPost() for draft slug = %v, want ErrNotFound", err)
		}
	})

	t.Run("first publish stamps PublishedAt", func(t *testing.T) {
		status := models.BlogPostStatusPublished
		got, err := db.UpdateBlogPost(ctx, published.ID, &models.UpdateBlogPostRequest{Status: &status})
		if err != nil {
			t.Fatalf("UpdateBlogPost() failed: %v", err)
		}
		if got.PublishedAt == nil {
			t.Error("PublishedAt nil after publish")
		}
	})
}

// TestListUsers tests role filtering and search
func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	org, _ := seedTestOrg(t, db, "Org A", "ada@orga.test")
	createTestUser(t, db, org.ID, models.RoleTechnician, "walt@orga.test")
	createTestUser(t, db, org.ID, models.RoleTenant, "tina@orga.test")

	t.Run("role filter", func(t *testing.T) {
		users, total, err := db.ListUsers(ctx, org.ID, UserFilter{Role: models.RoleTechnician, Limit: 10})
		if err != nil {
			t.Fatalf("ListUsers() failed: %v", err)
		}
		if total != 1 || len(users) != 1 {
			t.Fatalf("role filter = %d rows (total %d), want 1", len(users), total)
		}
		if users[0].Email != "walt@orga.test" {
			t.Errorf("Email = %q, want %q", users[0].Email, "walt@orga.test")
		}
	})

	t.Run("search matches email", func(t *testing.T) {
		users, _, err := db.ListUsers(ctx, org.ID, UserFilter{Search: "tina", Limit: 10})
		if err != nil {
			t.Fatalf("ListUsers() failed: %v", err)
		}
		if len(users) != 1 {
			t.Errorf("search = %d rows, want 1", len(users))
		}
	})

	t.Run("soft deleted users disappear", func(t *testing.T) {
		tech, err := db.GetUserByEmail(ctx, "walt@orga.test")
		if err != nil {
			t.Fatalf("GetUserByEmail() failed: %v", err)
		}
		if err := db.DeleteUser(ctx, org.ID, tech.ID); err != nil {
			t.Fatalf("DeleteUser() failed: %v", err)
		}
		if _, err := db.GetUser(ctx, org.ID, tech.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUser() after delete = %v, want ErrNotFound", err)
		}
	})
}
