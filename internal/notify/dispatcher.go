// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package notify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
	"github.com/custodahq/custoda/internal/models"
)

// Dispatcher drains the notification outbox on an interval, delivering
// each pending row over every applicable channel. It implements the
// supervision tree's service contract via Serve.
type Dispatcher struct {
	db       *database.DB
	cfg      config.NotifyConfig
	channels []Channel
}

// NewDispatcher creates an outbox dispatcher. Zero config fields fall
// back to safe defaults.
func NewDispatcher(db *database.DB, cfg config.NotifyConfig, channels ...Channel) *Dispatcher {
	if cfg.DispatchInterval <= 0 {
		cfg.DispatchInterval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 2 * time.Minute
	}
	return &Dispatcher{db: db, cfg: cfg, channels: channels}
}

// Serve runs dispatch rounds until the context is canceled.
func (d *Dispatcher) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", d.cfg.DispatchInterval).
		Int("batch_size", d.cfg.BatchSize).
		Int("workers", d.cfg.Workers).
		Msg("notification dispatcher started")

	ticker := time.NewTicker(d.cfg.DispatchInterval)
	defer ticker.Stop()

	d.DispatchPending(ctx)

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("notification dispatcher stopping")
			return ctx.Err()
		case <-ticker.C:
			d.DispatchPending(ctx)
		}
	}
}

// String names the service inside the supervision tree.
func (d *Dispatcher) String() string {
	return "notify-dispatcher"
}

// DispatchPending runs one dispatch round: poll pending rows, skip rows
// still inside their backoff window, and fan the rest out over a worker
// pool. Exposed so callers can force a round outside the ticker.
func (d *Dispatcher) DispatchPending(ctx context.Context) {
	start := time.Now()

	if depth, err := d.db.CountPendingNotifications(ctx, d.cfg.MaxAttempts); err == nil {
		metrics.NotificationQueueDepth.Set(float64(depth))
	}

	pending, err := d.db.PendingNotifications(ctx, d.cfg.MaxAttempts, d.cfg.BatchSize)
	if err != nil {
		logging.Error().Err(err).Msg("failed to poll notification outbox")
		return
	}
	if len(pending) == 0 {
		return
	}

	now := time.Now()
	pool := workerpool.New(d.cfg.Workers)
	dispatched := 0
	for i := range pending {
		n := pending[i]
		if !d.due(&n, now) {
			continue
		}
		dispatched++
		pool.Submit(func() {
			d.dispatchOne(ctx, &n)
		})
	}
	pool.StopWait()

	if dispatched > 0 {
		metrics.NotificationDispatchDuration.Observe(time.Since(start).Seconds())
		logging.Debug().
			Int("dispatched", dispatched).
			Int("pending", len(pending)).
			Dur("duration", time.Since(start)).
			Msg("notification dispatch round complete")
	}
}

// due reports whether the row's backoff window has elapsed. The row's
// UpdatedAt moves on every failure, so backoff is measured from the
// last attempt.
func (d *Dispatcher) due(n *models.Notification, now time.Time) bool {
	if n.DispatchAttempts == 0 {
		return true
	}
	return now.After(n.UpdatedAt.Add(d.backoff(n.DispatchAttempts)))
}

// backoff doubles the base delay per recorded attempt, capped.
func (d *Dispatcher) backoff(attempts int) time.Duration {
	delay := d.cfg.BaseDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= d.cfg.MaxDelay {
			return d.cfg.MaxDelay
		}
	}
	if delay > d.cfg.MaxDelay {
		return d.cfg.MaxDelay
	}
	return delay
}

// dispatchOne delivers a single row over every applicable channel and
// stamps the outcome.
func (d *Dispatcher) dispatchOne(ctx context.Context, n *models.Notification) {
	user, err := d.db.GetUser(ctx, n.OrgID, n.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Addressee is gone; nothing left to deliver.
			if markErr := d.db.MarkNotificationDispatched(ctx, n.ID); markErr != nil {
				logging.Error().Err(markErr).Str("notification_id", n.ID.String()).
					Msg("failed to retire orphaned notification")
			}
			return
		}
		logging.Error().Err(err).Str("notification_id", n.ID.String()).
			Msg("failed to load notification addressee")
		return
	}

	var failures []string
	for _, ch := range d.channels {
		if !ch.Applies(n, user) {
			continue
		}
		sendErr := ch.Send(ctx, n, user)
		metrics.RecordNotificationDispatch(ch.Name(), sendErr == nil)
		if sendErr == nil {
			continue
		}
		failures = append(failures, ch.Name()+": "+sendErr.Error())

		var dErr *DeliveryError
		transient := errors.As(sendErr, &dErr) && dErr.Transient
		logging.Warn().
			Err(sendErr).
			Str("notification_id", n.ID.String()).
			Str("channel", ch.Name()).
			Int("attempt", n.DispatchAttempts+1).
			Bool("transient", transient).
			Msg("notification delivery failed")
	}

	if len(failures) > 0 {
		if err := d.db.RecordDispatchFailure(ctx, n.ID, strings.Join(failures, "; ")); err != nil {
			logging.Error().Err(err).Str("notification_id", n.ID.String()).
				Msg("failed to record dispatch failure")
		}
		return
	}

	if err := d.db.MarkNotificationDispatched(ctx, n.ID); err != nil {
		logging.Error().Err(err).Str("notification_id", n.ID.String()).
			Msg("failed to mark notification dispatched")
	}
}
