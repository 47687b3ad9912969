// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
Package notify delivers notification rows to users.

Notifications are written to the database first (the notifications table
doubles as an outbox) and delivered out of band by the Dispatcher, which
polls for pending rows, fans them out over a worker pool, and stamps each
row dispatched or records the failure for the next poll.

Two channels exist:

  - WebSocket: pushes the notification to every connected session of the
    addressed user via the hub. Best effort; disconnected users see the
    row in their feed on next load.
  - Email: sends a plain-text email over SMTP for the notification types
    that warrant leaving the app (job assignments, new service requests,
    scheduled inspections, billing, system notices).

A row is retried until the configured attempt cap with exponential
backoff keyed on the attempt counter. Rows at the cap are abandoned and
remain visible in the in-app feed.
*/
package notify
