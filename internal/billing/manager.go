// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// ErrBillingDisabled is returned when Stripe integration is off.
var ErrBillingDisabled = errors.New("billing is not enabled")

// Manager creates Stripe Checkout and Billing Portal sessions.
type Manager struct {
	cfg *config.StripeConfig
	db  *database.DB
	sc  *client.API
}

// NewManager creates the billing manager. The Stripe client is only
// initialized when billing is enabled.
func NewManager(cfg *config.StripeConfig, db *database.DB) *Manager {
	m := &Manager{
		cfg: cfg,
		db:  db,
	}
	if cfg.Enabled {
		m.sc = &client.API{}
		m.sc.Init(cfg.SecretKey, nil)
	}
	return m
}

// Enabled reports whether Stripe integration is active.
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled
}

// EnsureCustomer returns the org's Stripe customer id, creating the
// customer lazily on first use and persisting the id on the Org row.
func (m *Manager) EnsureCustomer(ctx context.Context, org *models.Org) (string, error) {
	if !m.cfg.Enabled {
		return "", ErrBillingDisabled
	}
	if org.StripeCustomerID != "" {
		return org.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(org.ContactEmail),
		Name:  stripe.String(org.Name),
	}
	params.Context = ctx
	params.AddMetadata("org_id", org.ID.String())

	customer, err := m.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	if err := m.db.SetOrgStripeCustomer(ctx, org.ID, customer.ID); err != nil {
		return "", fmt.Errorf("persist stripe customer id: %w", err)
	}
	org.StripeCustomerID = customer.ID

	logging.Info().
		Str("org_id", org.ID.String()).
		Str("stripe_customer", customer.ID).
		Msg("created stripe customer")

	return customer.ID, nil
}

// priceForPlan resolves the configured Stripe price id for a paid plan.
func (m *Manager) priceForPlan(planID string) (string, error) {
	switch planID {
	case models.PlanStarter:
		if m.cfg.StarterPriceID == "" {
			return "", fmt.Errorf("starter price id not configured")
		}
		return m.cfg.StarterPriceID, nil
	case models.PlanPro:
		if m.cfg.ProPriceID == "" {
			return "", fmt.Errorf("pro price id not configured")
		}
		return m.cfg.ProPriceID, nil
	default:
		return "", fmt.Errorf("plan %q is not purchasable", planID)
	}
}

// CreateCheckoutSession starts a subscription checkout for the given
// plan and returns the Stripe-hosted URL.
func (m *Manager) CreateCheckoutSession(ctx context.Context, org *models.Org, planID string) (string, error) {
	if !m.cfg.Enabled {
		return "", ErrBillingDisabled
	}

	priceID, err := m.priceForPlan(planID)
	if err != nil {
		return "", err
	}

	customerID, err := m.EnsureCustomer(ctx, org)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(m.cfg.CheckoutSuccessURL),
		CancelURL:  stripe.String(m.cfg.CheckoutCancelURL),
	}
	params.Context = ctx
	params.AddMetadata("org_id", org.ID.String())
	params.AddMetadata("plan_id", planID)

	session, err := m.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	logging.Info().
		Str("org_id", org.ID.String()).
		Str("plan_id", planID).
		Msg("created checkout session")

	return session.URL, nil
}

// CreatePortalSession opens the Stripe Billing Portal for the org's
// customer so they can manage payment methods and cancellation.
func (m *Manager) CreatePortalSession(ctx context.Context, org *models.Org) (string, error) {
	if !m.cfg.Enabled {
		return "", ErrBillingDisabled
	}
	if org.StripeCustomerID == "" {
		return "", fmt.Errorf("org has no billing history")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(org.StripeCustomerID),
		ReturnURL: stripe.String(m.cfg.PortalReturnURL),
	}
	params.Context = ctx

	session, err := m.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}

	return session.URL, nil
}
