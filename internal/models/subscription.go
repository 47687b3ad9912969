// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan identifiers.
const (
	PlanFree    = "free"
	PlanStarter = "starter"
	PlanPro     = "pro"
)

// Subscription statuses, mirroring Stripe's subscription lifecycle.
const (
	SubscriptionStatusActive     = "active"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusUnpaid     = "unpaid"
	SubscriptionStatusIncomplete = "incomplete"
)

// ValidPlans contains all recognized plan identifiers.
var ValidPlans = []string{PlanFree, PlanStarter, PlanPro}

// IsValidPlan checks whether a plan identifier is recognized.
func IsValidPlan(p string) bool {
	for _, v := range ValidPlans {
		if v == p {
			return true
		}
	}
	return false
}

// Subscription tracks an org's billing state, reconciled from Stripe
// webhooks. Every org has exactly one row; orgs that never checked out sit
// on the free plan with no Stripe identifiers.
type Subscription struct {
	Base
	OrgID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"org_id"`

	// StripeCustomerID and StripeSubscriptionID are empty on the free plan.
	StripeCustomerID     string `gorm:"size:100;index" json:"-"`
	StripeSubscriptionID string `gorm:"size:100;index" json:"-"`

	// PlanID is one of the plan constants.
	PlanID string `gorm:"size:32;not null;default:free" json:"plan_id"`
	// Status is one of the subscription status constants.
	Status string `gorm:"size:32;not null;default:active" json:"status"`
	// CurrentPeriodEnd is when the paid period lapses. Zero on free.
	CurrentPeriodEnd time.Time `json:"current_period_end,omitempty"`
	// CancelAtPeriodEnd is set when the customer scheduled a cancellation.
	CancelAtPeriodEnd bool `json:"cancel_at_period_end"`
}

// IsPaidActive reports whether the org currently holds an entitled paid
// subscription. Trialing counts; past_due keeps access until Stripe
// finalizes the cancellation.
func (s *Subscription) IsPaidActive() bool {
	if s.PlanID == PlanFree {
		return false
	}
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}

// EffectivePlan returns the plan the org is entitled to right now:
// the stored plan when the subscription is in good standing, free
// otherwise.
func (s *Subscription) EffectivePlan() string {
	if s.IsPaidActive() {
		return s.PlanID
	}
	return PlanFree
}

// NewFreeSubscription creates the default subscription row for a new org.
func NewFreeSubscription(orgID uuid.UUID) *Subscription {
	return &Subscription{
		OrgID:  orgID,
		PlanID: PlanFree,
		Status: SubscriptionStatusActive,
	}
}

// CheckoutRequest is the payload for POST /api/v1/subscriptions/checkout.
type CheckoutRequest struct {
	PlanID string `json:"plan_id" validate:"required,oneof=starter pro"`
}

// CheckoutResponse carries the Stripe-hosted session URL.
type CheckoutResponse struct {
	URL string `json:"url"`
}
