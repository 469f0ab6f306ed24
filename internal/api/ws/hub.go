// Package ws pushes live usage updates to connected dashboard clients over
// websocket. One Hub runs per server; the refresher broadcasts after every
// installed cycle and each browser tab holds one client.
package ws

import (
	"github.com/nghyane/mux-console/internal/json"
	log "github.com/nghyane/mux-console/internal/logging"
)

// Event is one message pushed to subscribers.
type Event struct {
	Event string `json:"event"`
	Seq   uint64 `json:"seq,omitempty"`
}

// Hub tracks the connected clients and fans events out to them. All client
// set mutation happens inside Run.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub creates a hub. Call Run in its own goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 8),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// A client that cannot keep up is dropped rather
					// than allowed to stall the others.
					delete(h.clients, client)
					close(client.send)
				}
			}
		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Close disconnects every client and stops the run loop.
func (h *Hub) Close() {
	close(h.done)
}

// UsageUpdated implements the refresher's broadcaster: it announces that a
// new snapshot installed under seq.
func (h *Hub) UsageUpdated(seq uint64) {
	h.Broadcast(Event{Event: "usage-updated", Seq: seq})
}

// Broadcast queues an event for all connected clients. Events are dropped
// when the queue is saturated so a broadcast never blocks the caller.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Warnf("ws: marshal event: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
	}
}
