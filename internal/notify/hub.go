package notify

import (
	"context"
	"errors"
	"sync"

	"oliver-admin/internal/logging"
)

// EventExportComplete is the message type pushed when an export finishes.
const EventExportComplete = "export_complete"

// ErrHubBusy is returned when the broadcast queue is full.
var ErrHubBusy = errors.New("notify hub: broadcast queue full")

// Message is the websocket envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type delivery struct {
	actorID string
	message Message
}

// Hub pushes messages to connected admin websocket clients. A message is
// delivered only to clients authenticated as its actor.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	broadcast  chan delivery
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}
}

// NewHub constructs a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// Run owns the client set until ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.stopped)
			h.closeAll()
			logging.Info().Str("component", "notify-hub").Msg("websocket hub stopped")
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			logging.Debug().Int("total_clients", total).Str("actor_id", c.actorID).Msg("websocket client connected")
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

// Notify queues an export_complete message for the initiating admin.
func (h *Hub) Notify(ctx context.Context, msg ExportCompleted) error {
	d := delivery{actorID: msg.ActorID, message: Message{Type: EventExportComplete, Data: msg}}
	select {
	case h.broadcast <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrHubBusy
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if d.actorID != "" && c.actorID != d.actorID {
			continue
		}
		select {
		case c.send <- d.message:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
