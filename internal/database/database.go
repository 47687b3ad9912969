// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package database provides the persistence layer on top of GORM. It wraps
// a single *gorm.DB with org-scoped data access methods, one file per
// domain aggregate. Multi-tenancy is enforced here: every query on
// org-owned tables carries an org id taken from the caller's token claims,
// never from request bodies.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/custodahq/custoda/internal/config"
	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/models"
)

// DB wraps the GORM connection and provides data access methods.
type DB struct {
	gorm *gorm.DB
	cfg  *config.DatabaseConfig
}

// New creates a database connection, configures the pool and optionally
// migrates the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	dialector, err := openDialector(cfg.DSN)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(cfg.SlowQueryThreshold),
		// Timestamps come from the application so test clocks stay
		// deterministic under sqlite.
		NowFunc: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{gorm: gormDB, cfg: cfg}

	if err := db.configureConnectionPool(); err != nil {
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}

	return db, nil
}

// openDialector selects the GORM driver from the DSN shape. Postgres is
// the production driver; sqlite serves local development and tests.
func openDialector(dsn string) (gorm.Dialector, error) {
	switch {
	case dsn == "":
		return nil, fmt.Errorf("database DSN is required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return postgres.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

// configureConnectionPool applies pool limits from config to the
// underlying sql.DB.
func (db *DB) configureConnectionPool() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(db.cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(db.cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(db.cfg.ConnMaxLifetime)

	logging.Debug().
		Int("max_open", db.cfg.MaxOpenConns).
		Int("max_idle", db.cfg.MaxIdleConns).
		Dur("max_lifetime", db.cfg.ConnMaxLifetime).
		Msg("Database connection pool configured")

	return nil
}

// Migrate applies AutoMigrate across the model registry in dependency
// order.
func (db *DB) Migrate() error {
	start := time.Now()
	if err := db.gorm.AutoMigrate(models.AllModels()...); err != nil {
		return err
	}
	logging.Info().
		Int("models", len(models.AllModels())).
		Dur("took", time.Since(start)).
		Msg("Schema migration complete")
	return nil
}

// HealthCheck pings the database. Used by /ready and the supervisor.
func (db *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Gorm exposes the underlying handle for tests and one-off tooling.
// Application code goes through the typed store methods.
func (db *DB) Gorm() *gorm.DB {
	return db.gorm
}

// withTx runs fn inside a transaction, translating the returned error.
func (db *DB) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return translateError(db.gorm.WithContext(ctx).Transaction(fn))
}
