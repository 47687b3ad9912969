// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package supervisor

import "context"

// runner matches *websocket.Hub without importing the package.
type runner interface {
	RunWithContext(ctx context.Context) error
}

// HubService adapts the WebSocket hub's RunWithContext loop to
// suture.Service.
type HubService struct {
	hub runner
}

// NewHubService wraps hub.
func NewHubService(hub runner) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *HubService) String() string {
	return "websocket-hub"
}
