// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package plans runs recurring maintenance plans. The runner scans for
// active plans whose next run time has passed and generates a job from
// each, advancing the schedule in the same transaction.
package plans

import (
	"context"
	"time"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
)

// Runner polls for due maintenance plans on an interval. It implements
// the supervision tree's service contract via Serve.
type Runner struct {
	db  *database.DB
	cfg config.PlansConfig
}

// NewRunner creates a plan runner. Zero config fields fall back to safe
// defaults.
func NewRunner(db *database.DB, cfg config.PlansConfig) *Runner {
	if cfg.RunInterval <= 0 {
		cfg.RunInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Runner{db: db, cfg: cfg}
}

// Serve runs scan rounds until the context is canceled.
func (r *Runner) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", r.cfg.RunInterval).
		Int("batch_size", r.cfg.BatchSize).
		Msg("maintenance plan runner started")

	ticker := time.NewTicker(r.cfg.RunInterval)
	defer ticker.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("maintenance plan runner stopping")
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// String names the service inside the supervision tree.
func (r *Runner) String() string {
	return "plan-runner"
}

// RunOnce performs one scan: every due plan generates a job and has its
// schedule advanced. Exposed so callers can force a scan outside the
// ticker.
func (r *Runner) RunOnce(ctx context.Context) {
	start := time.Now().UTC()
	jobs, err := r.db.RunDuePlans(ctx, start, r.cfg.BatchSize)
	if err != nil {
		logging.Error().Err(err).Msg("failed to scan due maintenance plans")
		return
	}
	if len(jobs) > 0 {
		logging.Info().
			Int("jobs", len(jobs)).
			Dur("duration", time.Since(start)).
			Msg("maintenance plan scan generated jobs")
	}
}
