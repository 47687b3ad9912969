// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package api

import (
	"fmt"

	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/authz"
	"github.com/custodahq/custoda/internal/billing"
	"github.com/custodahq/custoda/internal/blog"
	"github.com/custodahq/custoda/internal/cache"
	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/media"
	"github.com/custodahq/custoda/internal/websocket"
)

// Server holds every collaborator the HTTP handlers reach. It owns the
// auth and authz stacks; the heavier components (database, cache, hub,
// generator, uploader) are constructed by the caller and injected.
type Server struct {
	cfg   *config.Config
	db    *database.DB
	cache cache.Cacher
	hub   *websocket.Hub

	jwt      *auth.JWTManager
	authmw   *auth.Middleware
	enforcer *authz.Enforcer
	audit    *authz.AuditLogger
	authz    *authz.Middleware

	billing      *billing.Manager
	webhooks     *billing.Processor
	entitlements *billing.Entitlements

	generator *blog.Generator
	uploader  *media.Uploader
}

// NewServer wires the API server. The hub, generator and uploader may be
// nil in reduced deployments; the corresponding routes then answer 503.
func NewServer(
	cfg *config.Config,
	db *database.DB,
	cacher cache.Cacher,
	hub *websocket.Hub,
	generator *blog.Generator,
	uploader *media.Uploader,
) (*Server, error) {
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("jwt manager: %w", err)
	}

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		return nil, fmt.Errorf("authz enforcer: %w", err)
	}
	audit := authz.NewAuditLogger(authz.DefaultAuditLoggerConfig())

	return &Server{
		cfg:          cfg,
		db:           db,
		cache:        cacher,
		hub:          hub,
		jwt:          jwtManager,
		authmw:       auth.NewMiddleware(jwtManager, &cfg.Security),
		enforcer:     enforcer,
		audit:        audit,
		authz:        authz.NewMiddleware(enforcer, audit),
		billing:      billing.NewManager(&cfg.Stripe, db),
		webhooks:     billing.NewProcessor(&cfg.Stripe, db),
		entitlements: billing.NewEntitlements(db),
		generator:    generator,
		uploader:     uploader,
	}, nil
}

// Close releases background resources held by the auth and authz stacks.
func (s *Server) Close() {
	s.authmw.Close()
	s.audit.Close()
	s.enforcer.Close()
}
