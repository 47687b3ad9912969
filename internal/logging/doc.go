// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package logging provides the application-wide structured logger built on
// zerolog. It exposes package-level leveled functions, request-scoped
// context helpers, and an slog adapter for libraries that require one.
//
// Initialize once from main:
//
//	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
//
// Then log anywhere:
//
//	logging.Info().Str("org_id", orgID).Msg("subscription updated")
//	logging.Ctx(r.Context()).Warn().Msg("stripe event ignored")
package logging
