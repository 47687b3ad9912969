// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"io"
	"net/http"

	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// Stripe caps event payloads well below this; anything larger is not a
// legitimate webhook.
const maxWebhookBody = 1 << 20

// handleStripeWebhook receives Stripe events. The raw body is needed for
// signature verification, so this route bypasses the JSON decode helper.
// Processing failures answer 502: the ledger claim was released, and the
// non-2xx makes Stripe redeliver the event. Replays of already-handled
// events come back nil from the processor and ack normally.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		rw.BadRequest("unreadable payload")
		return
	}

	event, err := s.webhooks.VerifyAndParse(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Rejected Stripe webhook")
		rw.BadRequest("invalid signature")
		return
	}

	if err := s.webhooks.ProcessEvent(r.Context(), event); err != nil {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("Stripe event processing failed")
		rw.Error(http.StatusBadGateway, models.ErrCodeInternalError, "event processing failed")
		return
	}
	rw.Success(map[string]string{"received": event.ID})
}
