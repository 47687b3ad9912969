// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package blog

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/validation"
)

// Scheduler fires the generator on a cron expression. It implements
// the supervision tree's service contract via Serve.
type Scheduler struct {
	gen      *Generator
	cfg      config.BlogConfig
	schedule cron.Schedule
	loc      *time.Location

	// running gates overlapping runs when a generation outlasts the
	// next cron fire.
	running chan struct{}
}

// NewScheduler parses the configured cron expression and timezone.
func NewScheduler(gen *Generator, cfg config.BlogConfig) (*Scheduler, error) {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 5 * time.Minute
	}

	schedule, err := validation.ParseCron(cfg.Cron)
	if err != nil {
		return nil, fmt.Errorf("invalid blog cron expression %q: %w", cfg.Cron, err)
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid blog timezone %q: %w", cfg.Timezone, err)
		}
	}

	return &Scheduler{
		gen:      gen,
		cfg:      cfg,
		schedule: schedule,
		loc:      loc,
		running:  make(chan struct{}, 1),
	}, nil
}

// Serve checks the schedule until the context is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	next := s.schedule.Next(time.Now().In(s.loc))
	logging.Info().
		Str("cron", s.cfg.Cron).
		Str("timezone", s.loc.String()).
		Time("next_run", next).
		Msg("blog scheduler started")

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("blog scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			now := time.Now().In(s.loc)
			if now.Before(next) {
				continue
			}
			// Generation runs off the tick loop so a slow run cannot
			// stall the schedule; runOnce skips itself while a previous
			// run is still in flight.
			go s.runOnce(ctx)
			next = s.schedule.Next(now)
		}
	}
}

// String names the service inside the supervision tree.
func (s *Scheduler) String() string {
	return "blog-scheduler"
}

// runOnce executes one generation with a per-run timeout, skipping if a
// previous run is still in flight.
func (s *Scheduler) runOnce(ctx context.Context) {
	select {
	case s.running <- struct{}{}:
	default:
		logging.Warn().Msg("skipping scheduled blog generation, previous run still in flight")
		return
	}
	defer func() { <-s.running }()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
	defer cancel()

	post, err := s.gen.Generate(runCtx, GenerateOptions{Trigger: TriggerScheduled})
	if err != nil {
		logging.Error().Err(err).Msg("scheduled blog generation failed")
		return
	}
	logging.Info().Str("post_id", post.ID.String()).Str("slug", post.Slug).
		Msg("scheduled blog generation complete")
}
