// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
Package billing integrates Stripe subscriptions and enforces plan
entitlements.

Three concerns live here:

  - Plans: the free/starter/pro catalog with property and unit limits,
    and entitlement checks handlers call before creating billable
    resources. Failed checks surface as ErrPlanLimit and map to a
    PAYMENT_REQUIRED response.
  - Manager: Stripe Checkout and Billing Portal session creation. The
    Stripe customer is created lazily on first checkout and stored on
    the Org row.
  - Processor: the signature-verified webhook endpoint's brain. Events
    are claimed in the WebhookEvent ledger for idempotency, then a type
    switch reconciles the org's subscription row. Status-affecting
    events enqueue billing notifications for the org's admins.

Stripe is entirely optional: with stripe.enabled=false every org stays
on the free plan and checkout/portal return errors.
*/
package billing
