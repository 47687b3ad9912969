// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"

	"github.com/custodahq/custoda/internal/billing"
	"github.com/custodahq/custoda/internal/models"
)

// handleGetSubscription returns the org's current subscription together
// with the plan's limits.
//
//	@Summary	Current subscription
//	@Tags		subscriptions
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	models.APIResponse
//	@Router		/api/v1/subscriptions/current [get]
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}

	sub, err := s.db.GetSubscription(r.Context(), c.OrgID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(map[string]interface{}{
		"subscription": sub,
		"plan":         billing.PlanByID(sub.PlanID),
	})
}

// handleCheckout creates a Stripe Checkout session for a paid plan and
// returns the hosted URL. Stripe failures surface as a 502; nothing is
// written locally until the webhook confirms payment.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	if !s.billing.Enabled() {
		rw.ServiceUnavailable("billing is not configured")
		return
	}

	var req models.CheckoutRequest
	if !s.decodeJSON(rw, w, r, &req) {
		return
	}

	org, err := s.db.GetOrg(r.Context(), c.OrgID)
	if err != nil {
		rw.DomainError(err)
		return
	}

	url, err := s.billing.CreateCheckoutSession(r.Context(), org, req.PlanID)
	if err != nil {
		rw.ExternalServiceError("stripe", err)
		return
	}
	rw.Success(&models.CheckoutResponse{URL: url})
}

// handlePortal creates a Stripe billing portal session for managing the
// existing subscription.
func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	c, ok := claims(rw, r)
	if !ok {
		return
	}
	if !s.billing.Enabled() {
		rw.ServiceUnavailable("billing is not configured")
		return
	}

	org, err := s.db.GetOrg(r.Context(), c.OrgID)
	if err != nil {
		rw.DomainError(err)
		return
	}

	url, err := s.billing.CreatePortalSession(r.Context(), org)
	if err != nil {
		rw.ExternalServiceError("stripe", err)
		return
	}
	rw.Success(&models.CheckoutResponse{URL: url})
}
