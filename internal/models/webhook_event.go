// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"time"
)

// WebhookEvent is the idempotency ledger for Stripe webhook processing.
// Stripe retries deliveries; the unique StripeEventID makes replays
// detectable so each event mutates billing state exactly once.
type WebhookEvent struct {
	Base
	// StripeEventID is Stripe's evt_... identifier.
	StripeEventID string `gorm:"size:100;uniqueIndex;not null" json:"stripe_event_id"`
	// Type is the Stripe event type, e.g. customer.subscription.updated.
	Type string `gorm:"size:100;not null;index" json:"type"`
	// Payload is the raw event JSON, kept for replay and debugging.
	Payload []byte `gorm:"type:bytes" json:"-"`
	// ProcessedAt is stamped after the handler committed its effect.
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	// Error records the most recent processing failure, empty on success.
	Error string `gorm:"size:1000" json:"error,omitempty"`
}

// IsProcessed reports whether the event already mutated billing state.
func (e *WebhookEvent) IsProcessed() bool {
	return e.ProcessedAt != nil
}
