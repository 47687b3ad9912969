// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultPostgresImage matches the version run in production.
	DefaultPostgresImage = "postgres:16-alpine"

	postgresUser     = "custoda"
	postgresPassword = "custoda-test"
	postgresDatabase = "custoda_test"
)

// PostgresContainer is a running throwaway PostgreSQL instance.
type PostgresContainer struct {
	testcontainers.Container
	// DSN is ready to pass to database.New via config.DatabaseConfig.
	DSN string
}

// PostgresOption configures container startup.
type PostgresOption func(*postgresConfig)

type postgresConfig struct {
	image        string
	startTimeout time.Duration
	logger       testcontainers.Logging
}

// WithPostgresImage overrides the Docker image.
func WithPostgresImage(image string) PostgresOption {
	return func(c *postgresConfig) { c.image = image }
}

// WithStartTimeout overrides the readiness timeout.
func WithStartTimeout(d time.Duration) PostgresOption {
	return func(c *postgresConfig) { c.startTimeout = d }
}

// WithLogger routes container lifecycle logs somewhere useful.
func WithLogger(l testcontainers.Logging) PostgresOption {
	return func(c *postgresConfig) { c.logger = l }
}

// StartPostgres launches a PostgreSQL container and waits until it
// accepts connections.
func StartPostgres(ctx context.Context, opts ...PostgresOption) (*PostgresContainer, error) {
	cfg := postgresConfig{
		image:        DefaultPostgresImage,
		startTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDatabase,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithDeadline(cfg.startTimeout),
	}

	genReq := testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	}
	if cfg.logger != nil {
		genReq.Logger = cfg.logger
	}

	container, err := testcontainers.GenericContainer(ctx, genReq)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, port.Port(), postgresDatabase)

	return &PostgresContainer{Container: container, DSN: dsn}, nil
}
