// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package testinfra provides testcontainers helpers for integration
// tests that need a real PostgreSQL instance instead of the in-memory
// SQLite harness the unit tests use.
//
// Everything here is behind the "integration" build tag:
//
//	go test -tags integration ./...
//
// Tests skip themselves when Docker is unavailable, so the tag is safe
// to enable in environments without a daemon.
package testinfra
