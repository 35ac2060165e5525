package server

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// clientBuffer is the number of queued messages a client may fall behind
// before the hub drops it.
const clientBuffer = 16

// broadcastQueue is the number of messages Broadcast buffers for Run.
const broadcastQueue = 64

// Client is one connected live-reload subscriber.
type Client struct {
	ID   string
	send chan []byte
}

// NewClient creates a client with a fresh random id.
func NewClient() *Client {
	return &Client{
		ID:   "client-" + uuid.NewString(),
		send: make(chan []byte, clientBuffer),
	}
}

// Messages returns the client's outbound queue. It is closed when the hub
// unregisters the client or stops.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Hub fans broadcast messages out to every registered client. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	logger *slog.Logger

	register   chan *Client
	unregister chan string
	broadcast  chan []byte
	done       chan struct{}

	count atomic.Int64
}

// NewHub creates a hub. Call Run to start delivering; until then Register
// and Unregister block and broadcasts only fill the queue.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan string),
		broadcast:  make(chan []byte, broadcastQueue),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client queue.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[string]*Client)
	defer func() {
		h.count.Store(0)
		for id, c := range clients {
			close(c.send)
			delete(clients, id)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients[c.ID] = c
			h.count.Store(int64(len(clients)))
			h.logger.Debug("Client connected", "client", c.ID, "clients", len(clients))

		case id := <-h.unregister:
			if c, ok := clients[id]; ok {
				close(c.send)
				delete(clients, id)
				h.count.Store(int64(len(clients)))
				h.logger.Debug("Client disconnected", "client", id, "clients", len(clients))
			}

		case msg := <-h.broadcast:
			for id, c := range clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer.
					close(c.send)
					delete(clients, id)
					h.logger.Warn("Dropping slow client", "client", id)
				}
			}
			h.count.Store(int64(len(clients)))
		}
	}
}

// Register adds c to the hub. It is a no-op once the hub has stopped.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes the client with id. Unknown ids are ignored.
func (h *Hub) Unregister(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// Broadcast queues msg for every client registered when it is delivered.
// It never blocks: when Run is not draining the queue (not started yet, or
// falling behind) and the queue is full, msg is dropped.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("Broadcast queue full, dropping message", "queued", len(h.broadcast))
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}
