// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/database"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		AutoMigrate:  true,
	})
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test database: %v", err)
		}
	})
	return db
}

func TestNewRunnerAppliesDefaults(t *testing.T) {
	r := NewRunner(setupTestDB(t), config.PlansConfig{})
	if r.cfg.RunInterval != time.Minute {
		t.Errorf("RunInterval = %v, want 1m", r.cfg.RunInterval)
	}
	if r.cfg.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", r.cfg.BatchSize)
	}
}

func TestRunnerServeStopsOnCancel(t *testing.T) {
	r := NewRunner(setupTestDB(t), config.PlansConfig{
		RunInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not stop after cancel")
	}
}

func TestRunOnceEmptyDatabase(t *testing.T) {
	r := NewRunner(setupTestDB(t), config.PlansConfig{})
	// A scan with no plans must be a quiet no-op.
	r.RunOnce(context.Background())
}
