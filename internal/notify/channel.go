// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package notify

import (
	"context"
	"fmt"

	"github.com/custodahq/custoda/internal/models"
)

// Channel names used in logs and metrics labels.
const (
	ChannelWebSocket = "websocket"
	ChannelEmail     = "email"
)

// DeliveryError wraps a channel failure with a stable code and a
// transience flag the dispatcher uses for logging and retry decisions.
type DeliveryError struct {
	Code      string
	Transient bool
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Channel delivers a single notification to its addressed user.
type Channel interface {
	// Name returns the channel identifier (websocket, email).
	Name() string

	// Applies reports whether this channel should deliver the given
	// notification to the given user.
	Applies(n *models.Notification, user *models.User) bool

	// Send delivers the notification. A nil error means delivered; the
	// dispatcher records errors on the row and retries.
	Send(ctx context.Context, n *models.Notification, user *models.User) error
}
