package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/observability"
	"ArticleHunter/internal/ports"
)

// ErrHubStopped is returned when publishing to a hub whose Run loop has exited.
var ErrHubStopped = errors.New("websocket hub stopped")

const broadcastBufferSize = 256

// SnapshotFunc returns the events a subscriber receives right after it connects.
type SnapshotFunc func() []domain.Event

type reply struct {
	client  *Client
	message []byte
}

// Hub owns the subscriber set. All writes to client send buffers happen on the Run goroutine.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	replies    chan reply
	done       chan struct{}

	snapshot SnapshotFunc
	metrics  *observability.Collector
	logger   *slog.Logger
}

var _ ports.Broadcaster = (*Hub)(nil)

// NewHub creates a hub. snapshot may be nil.
func NewHub(snapshot SnapshotFunc, metrics *observability.Collector, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		replies:    make(chan reply, broadcastBufferSize),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		metrics:    metrics,
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("hub shutting down", "subscribers", len(h.clients))
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.metrics.SetSubscribers(len(h.clients))
			h.logger.Info("subscriber registered", "connection_id", client.id, "subscribers", len(h.clients))
			h.sendSnapshot(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Info("subscriber unregistered", "connection_id", client.id, "subscribers", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}

		case r := <-h.replies:
			if _, ok := h.clients[r.client]; ok {
				h.deliver(r.client, r.message)
			}
		}
	}
}

// Broadcast encodes the event once and queues it for every subscriber. It blocks only while the
// queue is full.
func (h *Hub) Broadcast(ctx context.Context, event string, payload any) error {
	message, err := encode(event, payload)
	if err != nil {
		return err
	}

	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.broadcast <- message:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) replyTo(c *Client, event string, payload any) {
	message, err := encode(event, payload)
	if err != nil {
		h.logger.Error("encode reply", "event", event, "error", err)
		return
	}
	select {
	case h.replies <- reply{client: c, message: message}:
	case <-h.done:
	}
}

func (h *Hub) sendSnapshot(c *Client) {
	if h.snapshot == nil {
		return
	}
	for _, ev := range h.snapshot() {
		message, err := encode(ev.Name, ev.Data)
		if err != nil {
			h.logger.Error("encode snapshot", "event", ev.Name, "error", err)
			continue
		}
		if !h.deliver(c, message) {
			return
		}
	}
}

// deliver never blocks: a subscriber whose buffer is full is disconnected.
func (h *Hub) deliver(c *Client, message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		h.logger.Warn("slow subscriber dropped", "connection_id", c.id)
		h.drop(c)
		return false
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.metrics.SetSubscribers(len(h.clients))
}

func encode(event string, payload any) ([]byte, error) {
	message, err := json.Marshal(domain.Event{Name: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event, err)
	}
	return message, nil
}
