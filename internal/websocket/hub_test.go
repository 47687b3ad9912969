// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/models"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	// The hub never touches the connection, so nil is safe for hub tests.
	return NewClient(hub, nil, userID, uuid.New())
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("hub did not stop after context cancel")
		}
	})
	return hub, cancel
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", hub.ClientCount(), want)
}

func TestHubRegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)

	userID := uuid.New()
	client := newTestClient(hub, userID)

	hub.Register <- client
	waitForCount(t, hub, 1)

	if !hub.UserConnected(userID) {
		t.Error("expected user to be connected")
	}

	hub.Unregister <- client
	waitForCount(t, hub, 0)

	if hub.UserConnected(userID) {
		t.Error("expected user to be disconnected")
	}
}

func TestHubSendToUserReachesAllConnections(t *testing.T) {
	hub, _ := startHub(t)

	userID := uuid.New()
	tab1 := newTestClient(hub, userID)
	tab2 := newTestClient(hub, userID)
	other := newTestClient(hub, uuid.New())

	hub.Register <- tab1
	hub.Register <- tab2
	hub.Register <- other
	waitForCount(t, hub, 3)

	hub.SendToUser(userID, MessageTypeSystem, "maintenance window")

	for _, c := range []*Client{tab1, tab2} {
		select {
		case msg := <-c.send:
			if msg.Type != MessageTypeSystem {
				t.Errorf("unexpected message type %q", msg.Type)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for direct message")
		}
	}

	select {
	case msg := <-other.send:
		t.Errorf("other user should not receive direct message, got %v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastReachesEveryone(t *testing.T) {
	hub, _ := startHub(t)

	a := newTestClient(hub, uuid.New())
	b := newTestClient(hub, uuid.New())
	hub.Register <- a
	hub.Register <- b
	waitForCount(t, hub, 2)

	hub.Broadcast(MessageTypeSystem, "hello")

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			if msg.Type != MessageTypeSystem {
				t.Errorf("unexpected message type %q", msg.Type)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}
}

func TestHubPushNotification(t *testing.T) {
	hub, _ := startHub(t)

	userID := uuid.New()
	client := newTestClient(hub, userID)
	hub.Register <- client
	waitForCount(t, hub, 1)

	n := models.NewNotification(uuid.New(), userID, models.NotificationTypeJobAssigned, "Job assigned", "Unit 4B leak", nil)
	hub.PushNotification(n)

	var types []string
	for i := 0; i < 2; i++ {
		select {
		case msg := <-client.send:
			types = append(types, msg.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d messages", i)
		}
	}

	if types[0] != MessageTypeNotification || types[1] != MessageTypeUnreadCount {
		t.Errorf("unexpected push sequence %v", types)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)

	userID := uuid.New()
	client := newTestClient(hub, userID)
	hub.Register <- client
	waitForCount(t, hub, 1)

	// Fill the send buffer without draining it, then overflow it.
	for i := 0; i < cap(client.send)+1; i++ {
		hub.SendToUser(userID, MessageTypeSystem, i)
	}

	waitForCount(t, hub, 0)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- hub.RunWithContext(ctx)
	}()

	client := newTestClient(hub, uuid.New())
	hub.Register <- client
	waitForCount(t, hub, 1)

	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// Drain pending messages; the channel must be closed.
	for {
		select {
		case _, ok := <-client.send:
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("send channel was not closed on shutdown")
		}
	}
}

func TestMarshalMessage(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypePong})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"pong","data":null}` {
		t.Errorf("unexpected JSON %s", data)
	}
}
