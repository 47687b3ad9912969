// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/custodahq/custoda/internal/logging"
	"github.com/custodahq/custoda/internal/metrics"
	"github.com/custodahq/custoda/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	// This may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
	MessageTypeNotification = "notification.created"
	MessageTypeUnreadCount  = "unread.count"
	MessageTypeSystem       = "system"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// directMessage targets a single user's connections.
type directMessage struct {
	userID  uuid.UUID
	message Message
}

// Hub maintains the set of active clients, keyed by user ID so a user
// with several open tabs receives pushes on every connection. Messages
// flow either to everyone (Broadcast) or to one user (SendToUser).
type Hub struct {
	clients    map[uuid.UUID]map[*Client]bool
	broadcast  chan Message
	direct     chan directMessage
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		direct:     make(chan directMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[uuid.UUID]map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// This method is designed for use with suture supervision.
//
// When the context is canceled:
//  1. All connected clients are gracefully closed
//  2. The method returns ctx.Err()
//
// DETERMINISM: Uses priority-based selection to ensure predictable behavior:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle events (Register/Unregister)
// - Priority 3: Broadcast and direct messages
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (highest priority, non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: Handle messages or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.deliverToAll(message)

		case dm := <-h.direct:
			h.deliverToUser(dm.userID, dm.message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	set, ok := h.clients[client.userID]
	if !ok {
		set = make(map[*Client]bool)
		h.clients[client.userID] = set
	}
	set[client] = true
	total := h.totalClientsLocked()
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().
		Str("user_id", client.userID.String()).
		Int("total_clients", total).
		Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	removed := false
	if set, ok := h.clients[client.userID]; ok {
		if _, present := set[client]; present {
			delete(set, client)
			close(client.send)
			removed = true
		}
		if len(set) == 0 {
			delete(h.clients, client.userID)
		}
	}
	total := h.totalClientsLocked()
	h.mu.Unlock()

	if removed {
		metrics.WSConnections.Set(float64(total))
		logging.Info().
			Str("user_id", client.userID.String()).
			Int("total_clients", total).
			Msg("websocket client disconnected")
	}
}

// totalClientsLocked counts connections across all users. Caller holds h.mu.
func (h *Hub) totalClientsLocked() int {
	total := 0
	for _, set := range h.clients {
		total += len(set)
	}
	return total
}

// logGracefulShutdown closes all connected clients and logs structured
// shutdown information. ctx.Err() is not logged as an error because
// cancellation is expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.closeAllClients()

	reason := getShutdownReason(ctx)

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// deliverToAll sends a message to every connected client in a
// deterministic order.
// DETERMINISM: Sorts clients by their monotonic ID so message delivery
// order is reproducible in tests and under race analysis.
func (h *Hub) deliverToAll(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClientsLocked()
	h.sendToClientsLocked(clients, message)
}

// deliverToUser sends a message to every connection a single user holds.
func (h *Hub) deliverToUser(userID uuid.UUID, message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[userID]
	if !ok || len(set) == 0 {
		return
	}

	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	h.sendToClientsLocked(clients, message)
}

// sendToClientsLocked pushes a message to each client with a non-blocking
// send. Slow consumers with a full buffer are dropped rather than allowed
// to stall the hub. Caller holds h.mu.
func (h *Hub) sendToClientsLocked(clients []*Client, message Message) {
	var toRemove []*Client

	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			metrics.WSMessagesDropped.Inc()
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		if set, ok := h.clients[client.userID]; ok {
			if _, present := set[client]; present {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		}
		logging.Warn().
			Str("user_id", client.userID.String()).
			Msg("dropping slow websocket client, send buffer full")
	}

	metrics.WSConnections.Set(float64(h.totalClientsLocked()))
}

// sortedClientsLocked returns all clients ordered by ID. Caller holds h.mu.
func (h *Hub) sortedClientsLocked() []*Client {
	var clients []*Client
	for _, set := range h.clients {
		for client := range set {
			clients = append(clients, client)
		}
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// closeAllClients gracefully closes all connected WebSocket clients.
// DETERMINISM: Closes clients in ID order for consistent shutdown behavior.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClientsLocked()
	for _, client := range clients {
		close(client.send)
	}
	h.clients = make(map[uuid.UUID]map[*Client]bool)
	metrics.WSConnections.Set(0)

	logging.Info().Msg("closed all websocket clients during shutdown")
}

// Broadcast queues a message for every connected client. The enqueue is
// non-blocking; when the hub is saturated the message is dropped and logged.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// SendToUser queues a message for every connection held by one user.
func (h *Hub) SendToUser(userID uuid.UUID, messageType string, data interface{}) {
	dm := directMessage{
		userID: userID,
		message: Message{
			Type: messageType,
			Data: data,
		},
	}

	select {
	case h.direct <- dm:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().
			Str("user_id", userID.String()).
			Str("message_type", messageType).
			Msg("direct channel full, dropping message")
	}
}

// NotificationPayload is the wire shape of a notification.created push.
type NotificationPayload struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CreatedAt string    `json:"created_at"`
}

// PushNotification sends a notification row to its recipient along with a
// hint that the unread count changed.
func (h *Hub) PushNotification(n *models.Notification) {
	payload := NotificationPayload{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
	h.SendToUser(n.UserID, MessageTypeNotification, payload)
	h.SendToUser(n.UserID, MessageTypeUnreadCount, map[string]bool{"stale": true})
}

// ClientCount returns the number of connected clients across all users.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClientsLocked()
}

// UserConnected reports whether a user has at least one open connection.
func (h *Hub) UserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
