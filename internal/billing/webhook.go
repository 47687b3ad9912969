// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
	"github.com/custodahq/custoda/internal/models"
)

// Processor reconciles Stripe webhook events against subscription rows.
type Processor struct {
	cfg *config.StripeConfig
	db  *database.DB
}

// NewProcessor creates the webhook processor.
func NewProcessor(cfg *config.StripeConfig, db *database.DB) *Processor {
	return &Processor{cfg: cfg, db: db}
}

// VerifyAndParse checks the Stripe-Signature header against the raw
// payload and returns the parsed event. API version drift between the
// dashboard and the SDK pin is tolerated; the fields we read are stable.
func (p *Processor) VerifyAndParse(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}

// ProcessEvent claims the event in the ledger and applies it. Replays
// return nil without reprocessing. Failures release the claim so
// Stripe's retry can run against a clean slate.
func (p *Processor) ProcessEvent(ctx context.Context, event stripe.Event) error {
	start := time.Now()

	ledgerRow := &models.WebhookEvent{
		StripeEventID: event.ID,
		Type:          string(event.Type),
		Payload:       event.Data.Raw,
	}
	if err := p.db.InsertWebhookEvent(ctx, ledgerRow); err != nil {
		if errors.Is(err, database.ErrConflict) {
			logging.Ctx(ctx).Info().
				Str("stripe_event", event.ID).
				Str("type", string(event.Type)).
				Msg("webhook replay, already handled")
			metrics.RecordWebhookEvent(string(event.Type), "replay", time.Since(start))
			return nil
		}
		return fmt.Errorf("claim webhook event: %w", err)
	}

	err := p.applyEvent(ctx, event)
	if err != nil {
		// Release the claim so the retry is not shadowed by the ledger.
		if delErr := p.db.DeleteWebhookEvent(ctx, event.ID); delErr != nil {
			logging.CtxErr(ctx, delErr).Str("stripe_event", event.ID).Msg("failed to release webhook claim")
		}
		metrics.RecordWebhookEvent(string(event.Type), "error", time.Since(start))
		return err
	}

	if err := p.db.MarkWebhookProcessed(ctx, event.ID, nil); err != nil {
		logging.CtxErr(ctx, err).Str("stripe_event", event.ID).Msg("failed to stamp webhook ledger")
	}
	metrics.RecordWebhookEvent(string(event.Type), "processed", time.Since(start))
	return nil
}

// applyEvent dispatches on the event type. Unexpected types are recorded
// in the ledger and acknowledged without effect.
func (p *Processor) applyEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return p.handleCheckoutCompleted(ctx, event)
	case "customer.subscription.created", "customer.subscription.updated":
		return p.handleSubscriptionUpserted(ctx, event)
	case "customer.subscription.deleted":
		return p.handleSubscriptionDeleted(ctx, event)
	case "invoice.payment_succeeded":
		return p.handleInvoicePaid(ctx, event)
	case "invoice.payment_failed":
		return p.handleInvoiceFailed(ctx, event)
	default:
		logging.Ctx(ctx).Debug().
			Str("type", string(event.Type)).
			Str("stripe_event", event.ID).
			Msg("ignoring unhandled webhook type")
		return nil
	}
}

// orgForCustomer resolves the org that owns a Stripe customer id.
func (p *Processor) orgForCustomer(ctx context.Context, customerID string) (*models.Org, error) {
	if customerID == "" {
		return nil, fmt.Errorf("event carries no customer id")
	}
	org, err := p.db.GetOrgByStripeCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("resolve org for customer %s: %w", customerID, err)
	}
	return org, nil
}

// planForPrice maps a Stripe price id back to a plan id.
func (p *Processor) planForPrice(priceID string) string {
	switch priceID {
	case p.cfg.StarterPriceID:
		return models.PlanStarter
	case p.cfg.ProPriceID:
		return models.PlanPro
	default:
		return ""
	}
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}

	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	org, err := p.orgForCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	// The subscription row is fully reconciled by the subsequent
	// customer.subscription.created event; checkout completion only links
	// the Stripe subscription id early and tells the admins.
	if session.Subscription != nil {
		sub, err := p.db.GetSubscription(ctx, org.ID)
		if err != nil {
			return err
		}
		sub.StripeCustomerID = customerID
		sub.StripeSubscriptionID = session.Subscription.ID
		if err := p.db.SaveSubscription(ctx, sub); err != nil {
			return err
		}
	}

	return p.notifyAdmins(ctx, org.ID, "Checkout completed",
		"Your subscription checkout completed. Plan changes take effect immediately.")
}

func (p *Processor) handleSubscriptionUpserted(ctx context.Context, event stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	customerID := ""
	if stripeSub.Customer != nil {
		customerID = stripeSub.Customer.ID
	}
	org, err := p.orgForCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	planID := ""
	if stripeSub.Items != nil && len(stripeSub.Items.Data) > 0 && stripeSub.Items.Data[0].Price != nil {
		planID = p.planForPrice(stripeSub.Items.Data[0].Price.ID)
	}
	if planID == "" {
		return fmt.Errorf("subscription %s carries no recognized price", stripeSub.ID)
	}

	sub, err := p.db.GetSubscription(ctx, org.ID)
	if err != nil {
		return err
	}

	previousStatus := sub.Status
	sub.StripeCustomerID = customerID
	sub.StripeSubscriptionID = stripeSub.ID
	sub.PlanID = planID
	sub.Status = string(stripeSub.Status)
	sub.CancelAtPeriodEnd = stripeSub.CancelAtPeriodEnd
	if stripeSub.CurrentPeriodEnd > 0 {
		sub.CurrentPeriodEnd = time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()
	}

	if err := p.db.SaveSubscription(ctx, sub); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Str("org_id", org.ID.String()).
		Str("plan_id", planID).
		Str("status", sub.Status).
		Msg("subscription reconciled")

	if previousStatus != sub.Status || event.Type == "customer.subscription.created" {
		return p.notifyAdmins(ctx, org.ID, "Subscription updated",
			fmt.Sprintf("Your %s plan is now %s.", PlanByID(planID).Name, sub.Status))
	}
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &stripeSub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	sub, err := p.db.GetSubscriptionByStripeID(ctx, stripeSub.ID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Deleting a subscription we never tracked is a no-op.
			return nil
		}
		return err
	}

	if err := p.db.DowngradeSubscription(ctx, sub.OrgID); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Str("org_id", sub.OrgID.String()).
		Msg("subscription canceled, org downgraded to free")

	return p.notifyAdmins(ctx, sub.OrgID, "Subscription canceled",
		"Your subscription has ended. The org is back on the free plan; existing data is untouched.")
}

func (p *Processor) handleInvoicePaid(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	org, err := p.orgForCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return err
	}

	// A successful payment restores good standing after past_due.
	sub, err := p.db.GetSubscription(ctx, org.ID)
	if err != nil {
		return err
	}
	if sub.Status == models.SubscriptionStatusPastDue || sub.Status == models.SubscriptionStatusUnpaid {
		sub.Status = models.SubscriptionStatusActive
		if err := p.db.SaveSubscription(ctx, sub); err != nil {
			return err
		}
		return p.notifyAdmins(ctx, org.ID, "Payment received",
			"Your payment went through and the subscription is active again.")
	}
	return nil
}

func (p *Processor) handleInvoiceFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	customerID := ""
	if invoice.Customer != nil {
		customerID = invoice.Customer.ID
	}
	org, err := p.orgForCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil
		}
		return err
	}

	sub, err := p.db.GetSubscription(ctx, org.ID)
	if err != nil {
		return err
	}
	if sub.PlanID != models.PlanFree && sub.Status != models.SubscriptionStatusPastDue {
		sub.Status = models.SubscriptionStatusPastDue
		if err := p.db.SaveSubscription(ctx, sub); err != nil {
			return err
		}
	}

	return p.notifyAdmins(ctx, org.ID, "Payment failed",
		"A subscription payment failed. Update your payment method in the billing portal to keep your plan.")
}

// notifyAdmins enqueues a billing notification for every active admin of
// the org. Dispatch happens asynchronously through the outbox.
func (p *Processor) notifyAdmins(ctx context.Context, orgID uuid.UUID, title, body string) error {
	active := true
	admins, _, err := p.db.ListUsers(ctx, orgID, database.UserFilter{
		Role:     models.RoleAdmin,
		IsActive: &active,
		Limit:    50,
	})
	if err != nil {
		return fmt.Errorf("list org admins: %w", err)
	}

	for i := range admins {
		n := models.NewNotification(orgID, admins[i].ID, models.NotificationTypeBilling, title, body, nil)
		if err := p.db.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("enqueue billing notification: %w", err)
		}
	}
	return nil
}
