// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	_ "github.com/custodahq/custoda/docs" // generated swagger spec
	"github.com/custodahq/custoda/internal/api"
	"github.com/custodahq/custoda/internal/auth"
	"github.com/custodahq/custoda/internal/blog"
	"github.com/custodahq/custoda/internal/cache"
	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/media"
	"github.com/custodahq/custoda/internal/notify"
	"github.com/custodahq/custoda/internal/plans"
	"github.com/custodahq/custoda/internal/supervisor"
	ws "github.com/custodahq/custoda/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("stripe", cfg.Stripe.Enabled).
		Bool("email", cfg.Email.Enabled).
		Bool("blog_generator", cfg.Blog.Enabled).
		Bool("uploads", cfg.Cloudinary.Enabled).
		Msg("Starting Custoda")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedOrgName != "" && cfg.Database.SeedAdminEmail != "" && cfg.Database.SeedAdminPass != "" {
		hash, err := auth.HashPassword(cfg.Database.SeedAdminPass, cfg.Security.BcryptCost)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to hash seed admin password")
		}
		if err := db.Seed(ctx, cfg.Database.SeedOrgName, cfg.Database.SeedAdminEmail, hash); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed initial org")
		}
	}

	cacher, err := cache.New(ctx, &cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize cache")
	}
	defer func() {
		if err := cacher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()

	hub := ws.NewHub()

	// The outbox dispatcher always runs with the WebSocket channel; SMTP
	// joins when email delivery is configured.
	channels := []notify.Channel{notify.NewWebSocketChannel(hub)}
	if cfg.Email.Enabled {
		channels = append(channels, notify.NewEmailChannel(cfg.Email))
		logging.Info().Str("smtp_host", cfg.Email.SMTPHost).Msg("Email notifications enabled")
	}
	dispatcher := notify.NewDispatcher(db, cfg.Notify, channels...)

	var (
		generator *blog.Generator
		scheduler *blog.Scheduler
	)
	if cfg.Blog.Enabled {
		generator = blog.NewGenerator(db, blog.NewClient(cfg.Blog), cfg.Blog)
		scheduler, err = blog.NewScheduler(generator, cfg.Blog)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize blog scheduler")
		}
		logging.Info().
			Str("model", cfg.Blog.Model).
			Str("cron", cfg.Blog.Cron).
			Msg("Blog generator enabled")
	}

	var uploader *media.Uploader
	if cfg.Cloudinary.Enabled {
		uploader, err = media.NewUploader(cfg.Cloudinary)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Cloudinary uploader")
		}
	}

	srv, err := api.NewServer(cfg, db, cacher, hub, generator, uploader)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build API server")
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(treeCfg)
	tree.AddWorker(dispatcher)
	tree.AddWorker(plans.NewRunner(db, cfg.Plans))
	if scheduler != nil {
		tree.AddWorker(scheduler)
	}
	tree.AddRealtime(supervisor.NewHubService(hub))
	tree.AddAPI(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))

	logging.Info().Msg("Starting supervision tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, draining")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervision tree failed")
		}
	}

	// Drain the error channel so the tree has fully stopped before the
	// deferred database and cache closes run.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Stopped")
}
