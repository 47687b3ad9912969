// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package main runs the Custoda API server.
//
// Custoda is a multi-tenant property operations platform: organizations
// manage their properties, units, maintenance jobs, inspections and
// tenant service requests through a JSON REST API, with real-time
// notifications over WebSocket and subscription billing through Stripe.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, optional YAML file, environment)
//  2. Structured logging (zerolog)
//  3. Database (GORM/PostgreSQL), migration and optional seed
//  4. Response cache (Redis or in-process)
//  5. Optional integrations: Cloudinary uploads, Anthropic blog generator
//  6. Supervision tree (suture): outbox dispatcher, blog scheduler,
//     WebSocket hub, HTTP server
//
// The process shuts down gracefully on SIGINT and SIGTERM: the listener
// drains in-flight requests, the hub closes its clients and the workers
// stop at their next safe point.
//
// @title						Custoda API
// @version					1.0
// @description				Multi-tenant property operations API: properties, units,
// @description				maintenance jobs, inspections, tenant service requests,
// @description				notifications and subscription billing.
// @description
// @description				All responses share one envelope with success, data, error
// @description				and meta fields. Errors carry a stable machine-readable code.
//
// @contact.name				Custoda Labs
// @contact.url				https://github.com/custodahq/custoda/issues
//
// @license.name				AGPL-3.0-or-later
// @license.url				https://www.gnu.org/licenses/agpl-3.0.html
//
// @host						localhost:8080
// @BasePath					/
// @schemes					http https
//
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
// @description				JWT issued by /api/v1/auth/login, sent as "Bearer <token>".
// @description				The same token is also set as an HTTP-only cookie for
// @description				browser clients and the WebSocket handshake.
package main
