// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/custodahq/custoda/internal/logging"
)

// TreeConfig tunes restart behavior for every layer of the tree. Zero
// values fall back to suture's defaults.
type TreeConfig struct {
	// FailureThreshold is the decayed failure count that triggers backoff.
	FailureThreshold float64
	// FailureDecay is the failure half-life in seconds.
	FailureDecay float64
	// FailureBackoff is how long a tripped supervisor waits before
	// restarting its services.
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long a service may take to honor
	// context cancellation before it is reported as unstopped.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig mirrors suture's built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the application supervision tree. Background workers, the
// realtime hub and the HTTP listener each live under their own child
// supervisor so a crash loop in one layer cannot starve the others.
type Tree struct {
	root     *suture.Supervisor
	workers  *suture.Supervisor
	realtime *suture.Supervisor
	api      *suture.Supervisor
}

// NewTree builds the empty tree. Services are attached with the Add*
// methods before Serve is called.
func NewTree(cfg TreeConfig) *Tree {
	def := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = def.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = def.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	// sutureslog wants an *slog.Logger; the adapter routes its records
	// into the global zerolog logger.
	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()

	spec := suture.Spec{
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}
	rootSpec := spec
	rootSpec.EventHook = hook

	t := &Tree{
		root:     suture.New("custoda", rootSpec),
		workers:  suture.New("workers", spec),
		realtime: suture.New("realtime", spec),
		api:      suture.New("api", spec),
	}
	t.root.Add(t.workers)
	t.root.Add(t.realtime)
	t.root.Add(t.api)
	return t
}

// AddWorker attaches a background service (outbox dispatcher, blog
// scheduler) to the workers layer.
func (t *Tree) AddWorker(svc suture.Service) suture.ServiceToken {
	return t.workers.Add(svc)
}

// AddRealtime attaches the WebSocket hub to the realtime layer.
func (t *Tree) AddRealtime(svc suture.Service) suture.ServiceToken {
	return t.realtime.Add(svc)
}

// AddAPI attaches the HTTP server to the api layer.
func (t *Tree) AddAPI(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in its own goroutine and returns the
// terminal error channel.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that ignored cancellation past
// the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
