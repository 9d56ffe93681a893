package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"camelsrating/internal/infrastructure"
	"camelsrating/pkg/contracts/events"

	"github.com/google/uuid"
)

// ErrHubStopped is returned when publishing to a hub that is not running
var ErrHubStopped = errors.New("websocket hub is not running")

const broadcastQueueSize = 64

type outbound struct {
	msgType string
	payload []byte
	traceID string
}

// HubStats is a snapshot of hub activity
type HubStats struct {
	ActiveClients    int   `json:"active_clients"`
	TotalConnections int64 `json:"total_connections"`
	MessagesSent     int64 `json:"messages_sent"`
	MessagesDropped  int64 `json:"messages_dropped"`
}

// Hub maintains the set of active clients and broadcasts run events to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	stats   HubStats
	running bool
	stopped bool
	quit    chan struct{}
	done    chan struct{}

	logger  *slog.Logger
	metrics *Metrics
}

// NewHub creates a hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
	}
}

// Start runs the hub loop in a new goroutine. Calling Start twice, or
// after Stop, is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running || h.stopped {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop closes every client and ends the hub loop
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.stopped = true
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.stats.ActiveClients = 0
			h.mu.Unlock()
			h.logger.Info("Hub shut down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.stats.TotalConnections++
			h.stats.ActiveClients = len(h.clients)
			count := h.stats.ActiveClients
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.recordConnect(ctx)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
				h.stats.ActiveClients = len(h.clients)
			}
			count := h.stats.ActiveClients
			h.mu.Unlock()

			if ok {
				ctx := client.context()
				h.metrics.recordDisconnect(ctx, time.Since(client.connectedAt))
				h.logger.InfoContext(ctx, "Client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// greet queues the connect message for a newly registered client
func (h *Hub) greet(client *Client) {
	payload, err := encode(events.MessageTypeConnect, client.traceID, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Client buffer full, connect message dropped",
			slog.String("client_id", client.id))
	}
}

// deliver fans msg out to every client. A client whose buffer is full is
// disconnected rather than allowed to stall the hub.
func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	delivered, dropped := 0, 0
	for client := range h.clients {
		select {
		case client.send <- msg.payload:
			delivered++
		default:
			dropped++
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.stats.ActiveClients = len(h.clients)
	h.stats.MessagesSent += int64(delivered)
	h.stats.MessagesDropped += int64(dropped)
	h.mu.Unlock()

	ctx := context.Background()
	if msg.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, msg.traceID)
	}
	h.metrics.recordBroadcast(ctx, msg.msgType, delivered, dropped)

	if dropped > 0 {
		h.logger.WarnContext(ctx, "Slow clients disconnected during broadcast",
			slog.String("message_type", msg.msgType),
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped))
	} else {
		h.logger.DebugContext(ctx, "Broadcast delivered",
			slog.String("message_type", msg.msgType),
			slog.Int("client_count", delivered),
			slog.Int("message_size", len(msg.payload)))
	}
}

// Register adds a client. It returns false when the hub is not running.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client. Unknown clients are ignored.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Publish wraps data in an event envelope carrying the trace id from ctx
// and queues it for every connected client.
func (h *Hub) Publish(ctx context.Context, msgType events.MessageType, data interface{}) error {
	traceID := infrastructure.GetTraceID(ctx)
	payload, err := encode(msgType, traceID, data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return ErrHubStopped
	}

	select {
	case h.broadcast <- outbound{msgType: string(msgType), payload: payload, traceID: traceID}:
		return nil
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns a snapshot of hub activity
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

func encode(msgType events.MessageType, traceID string, data interface{}) ([]byte, error) {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.NewString(),
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s message: %w", msgType, err)
	}
	return payload, nil
}
