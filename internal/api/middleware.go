// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// Per-IP rate limit tiers. Health checks and webhooks get their own
// generous tiers so liveness monitors and Stripe retries never compete
// with user traffic for the API budget.
const (
	healthTierRequests  = 1000
	webhookTierRequests = 300
	publicTierRequests  = 120
)

func (s *Server) rateLimitAPI() func(http.Handler) http.Handler {
	if s.cfg.Security.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(s.cfg.Security.RateLimitRequests, s.cfg.Security.RateLimitWindow)
}

func (s *Server) rateLimitHealth() func(http.Handler) http.Handler {
	if s.cfg.Security.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(healthTierRequests, time.Minute)
}

func (s *Server) rateLimitWebhook() func(http.Handler) http.Handler {
	if s.cfg.Security.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(webhookTierRequests, time.Minute)
}

func (s *Server) rateLimitPublic() func(http.Handler) http.Handler {
	if s.cfg.Security.RateLimitDisabled {
		return passthrough
	}
	return httprate.LimitByIP(publicTierRequests, time.Minute)
}

func passthrough(next http.Handler) http.Handler { return next }
