// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package middleware provides HTTP middleware shared across the API
// surface: request id propagation, Prometheus instrumentation, gzip
// compression, and security headers. Rate limiting and CORS use the
// chi ecosystem (go-chi/httprate, go-chi/cors) and are wired in the
// router; authentication lives in internal/auth.
package middleware
