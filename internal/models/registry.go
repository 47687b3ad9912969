// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

// AllModels returns every persisted model in dependency order. AutoMigrate
// walks this slice, so referenced tables must precede the rows that point
// at them.
func AllModels() []interface{} {
	return []interface{}{
		&Org{},
		&User{},
		&Property{},
		&Unit{},
		&Job{},
		&MaintenancePlan{},
		&Inspection{},
		&Recommendation{},
		&ServiceRequest{},
		&Subscription{},
		&Notification{},
		&BlogPost{},
		&WebhookEvent{},
	}
}

// ModelRegistry maps table-friendly names to model prototypes. Used by
// tests and tooling that need to address models by name.
var ModelRegistry = map[string]interface{}{
	"org":              &Org{},
	"user":             &User{},
	"property":         &Property{},
	"unit":             &Unit{},
	"job":              &Job{},
	"maintenance_plan": &MaintenancePlan{},
	"inspection":       &Inspection{},
	"recommendation":   &Recommendation{},
	"service_request":  &ServiceRequest{},
	"subscription":     &Subscription{},
	"notification":     &Notification{},
	"blog_post":        &BlogPost{},
	"webhook_event":    &WebhookEvent{},
}
