// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

// Package supervisor arranges the long-running pieces of the platform
// under a suture/v4 supervision tree.
//
// The tree has three child supervisors for failure isolation:
//
//   - workers: the notification outbox dispatcher and the blog
//     generation scheduler. A crash here retries with backoff and never
//     takes down request serving.
//   - realtime: the WebSocket hub.
//   - api: the HTTP server.
//
// Services restart individually on panic or error return; when a child
// crashes past the failure threshold its supervisor backs off before
// restarting the whole layer. Supervisor events are logged through the
// zerolog-backed slog adapter in internal/logging.
//
// The notification dispatcher and blog scheduler implement
// suture.Service themselves and are added directly. The hub and the
// HTTP server predate the supervision tree and are adapted by the
// HubService and HTTPService wrappers.
package supervisor
