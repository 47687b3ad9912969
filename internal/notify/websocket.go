// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package notify

import (
	"context"

	"github.com/custodahq/custoda/internal/models"
)

// Pusher is the hub surface the WebSocket channel needs.
type Pusher interface {
	PushNotification(n *models.Notification)
}

// WebSocketChannel pushes notifications to the user's connected sessions.
// Delivery is best effort: disconnected users still see the row in their
// feed, so a push to nobody is not a failure.
type WebSocketChannel struct {
	hub Pusher
}

// NewWebSocketChannel creates a channel backed by the given hub.
func NewWebSocketChannel(hub Pusher) *WebSocketChannel {
	return &WebSocketChannel{hub: hub}
}

// Name returns the channel identifier.
func (c *WebSocketChannel) Name() string {
	return ChannelWebSocket
}

// Applies is true for every notification as long as a hub is wired.
func (c *WebSocketChannel) Applies(_ *models.Notification, _ *models.User) bool {
	return c.hub != nil
}

// Send enqueues the notification on the hub. The hub's send path is
// non-blocking, so this never fails.
func (c *WebSocketChannel) Send(_ context.Context, n *models.Notification, _ *models.User) error {
	c.hub.PushNotification(n)
	return nil
}
