// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/watchpost/internal/activity"
	"github.com/tomtom215/watchpost/internal/logging"
	"github.com/tomtom215/watchpost/internal/metrics"
	"github.com/tomtom215/watchpost/internal/models"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Client-initiated message types.
const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is the wire envelope for every pushed message.
type Message = models.Event

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	snapshot func() activity.Snapshot
	now      func() time.Time

	done     chan struct{}
	doneOnce sync.Once
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// SetSnapshotSource makes the hub greet every new client with the current
// engine snapshot.
func (h *Hub) SetSnapshotSource(fn func() activity.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// String implements fmt.Stringer for suture logging.
func (h *Hub) String() string { return "websocket-hub" }

// Serve runs the hub until ctx is cancelled, then closes every client.
//
// Lifecycle events are drained before broadcasts so that a client registered
// just before a broadcast always receives it.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	snapshot := h.snapshot
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client connected")

	if snapshot != nil {
		select {
		case client.send <- h.message(models.EventSession, snapshot()):
		default:
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()
	h.doneOnce.Do(func() { close(h.done) })

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// broadcastToClients sends a message to every client in ID order. Clients
// whose buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClientsLocked()
	var dropped int
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.Inc()
		default:
			close(client.send)
			delete(h.clients, client)
			dropped++
		}
	}
	if dropped > 0 {
		metrics.WSErrors.WithLabelValues("slow_client").Add(float64(dropped))
		metrics.WSConnections.Set(float64(len(h.clients)))
		logging.Warn().Int("dropped", dropped).Msg("dropped slow websocket clients")
	}
}

func (h *Hub) sortedClientsLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.sortedClientsLocked() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// RegisterClient hands a client to the hub. It returns false once the hub
// has stopped.
func (h *Hub) RegisterClient(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// unregister removes a client unless the hub has already stopped.
func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) message(eventType string, data interface{}) Message {
	return Message{Type: eventType, Timestamp: h.now().UTC(), Data: data}
}

// Broadcast queues a typed message for every client. It never blocks.
func (h *Hub) Broadcast(eventType string, data interface{}) bool {
	select {
	case h.broadcast <- h.message(eventType, data):
		return true
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", eventType).Msg("broadcast channel full, dropping message")
		return false
	}
}

// Name implements activity.DetectionSink.
func (h *Hub) Name() string { return "websocket" }

// HandleDetection broadcasts a logged detection.
func (h *Hub) HandleDetection(_ context.Context, d activity.Detection) error {
	h.Broadcast(models.EventDetection, d)
	return nil
}

// HandleAlert broadcasts an alert change.
func (h *Hub) HandleAlert(_ context.Context, a activity.AlertState) error {
	h.Broadcast(models.EventAlertState, a)
	return nil
}

// HandleAnalysis broadcasts the per-frame analysis. Dropped silently when
// nobody is listening.
func (h *Hub) HandleAnalysis(_ context.Context, a activity.ActivityAnalysis) error {
	if h.ClientCount() == 0 {
		return nil
	}
	h.Broadcast(models.EventAnalysis, a)
	return nil
}

// HandleSession broadcasts a session lifecycle snapshot.
func (h *Hub) HandleSession(_ context.Context, s activity.Snapshot) error {
	h.Broadcast(models.EventSession, s)
	return nil
}
