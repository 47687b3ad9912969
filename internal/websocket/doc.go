// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

/*
Package websocket delivers real-time pushes to signed-in users.

The hub keeps connections keyed by user ID so notification pushes reach
every open tab a user has, while broadcasts reach everyone. It is built
on gorilla/websocket with the hub-and-spoke pattern:

  - Hub: central broker, owns the client registry and message fan-out
  - Client: one connection, with separate read and write goroutines
  - Message: typed {type, data} envelope

Message Types:

  - notification.created: a Notification row for the receiving user
  - unread.count: hint that the unread badge should be refreshed
  - system: operator announcements (broadcast)
  - ping / pong: application-level liveness

Connection Lifecycle:

 1. Client connects via authenticated HTTP upgrade on /api/v1/ws
 2. Hub registers the client under its user ID
 3. Client starts read/write goroutines
 4. Dispatcher and handlers push messages through the hub
 5. Client disconnects; hub unregisters and closes the send channel

Slow consumers are dropped rather than allowed to stall the hub: sends
into a full client buffer remove the client and count a drop metric.

Timing:

  - writeWait: 10 seconds per message
  - pongWait: 60 seconds, with pings at 9/10 of that
  - maxMessageSize: 512 KB

See Also:

  - internal/notify: outbox dispatcher feeding the hub
  - internal/api: upgrade endpoint handler
*/
package websocket
