// Package server coordinates session registration, event dispatch, and
// broadcast fan-out for the EchoRoom WebSocket service via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Hub owns the session registry and the set of live client connections. All
// registry mutation and outbound fan-out happens on the single goroutine
// running Run, so no locks guard the registry or the client map.
type Hub struct {
	registry *Registry
	clients  map[string]*Client

	register   chan *Client
	unregister chan departure
	inbound    chan inboundEvent
	queries    chan rosterQuery

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type departure struct {
	client *Client
	reason string
}

type inboundEvent struct {
	client *Client
	event  string
	data   json.RawMessage
}

type rosterQuery struct {
	reply chan []RosterEntry
}

// NewHub creates a hub around the given registry. The registry must not be
// shared with any other hub; the hub becomes its sole owner.
func NewHub(registry *Registry) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   registry,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan departure),
		inbound:    make(chan inboundEvent),
		queries:    make(chan rosterQuery),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands a new client to the event loop. The welcome unicast and the
// presence broadcasts fire once the loop processes the registration.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

// Disconnect hands a departing client to the event loop along with the reason
// reported in the user-left broadcast. Safe to call more than once.
func (h *Hub) Disconnect(c *Client, reason string) {
	select {
	case h.unregister <- departure{client: c, reason: reason}:
	case <-h.ctx.Done():
	}
}

// Dispatch hands an inbound client event to the event loop.
func (h *Hub) Dispatch(c *Client, event string, data json.RawMessage) {
	select {
	case h.inbound <- inboundEvent{client: c, event: event, data: data}:
	case <-h.ctx.Done():
	}
}

// StartClient registers the client and launches its read/write pumps. The
// pumps are tracked so Shutdown can wait for them to drain.
func (h *Hub) StartClient(c *Client) {
	h.Register(c)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// Roster returns a point-in-time copy of the registry contents, serialized
// for clients. It is safe to call from any goroutine; the snapshot is taken
// inside the event loop.
func (h *Hub) Roster() []RosterEntry {
	q := rosterQuery{reply: make(chan []RosterEntry, 1)}
	select {
	case h.queries <- q:
		return <-q.reply
	case <-h.ctx.Done():
		return nil
	}
}

// ClientCount reports the number of registered sessions.
func (h *Hub) ClientCount() int {
	return len(h.Roster())
}

// Run is the hub's event loop. Every inbound event is processed to completion
// before the next one, which keeps the registry free of concurrent mutation.
// Call it in its own goroutine; it returns only after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case c := <-h.register:
			h.handleConnect(c)

		case d := <-h.unregister:
			h.handleDisconnect(d.client, d.reason)

		case ev := <-h.inbound:
			h.dispatch(ev)

		case q := <-h.queries:
			q.reply <- h.rosterPayload()
		}
	}
}

// unicast delivers an event to exactly one client.
func (h *Hub) unicast(c *Client, event string, data any) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Error encoding %s event: %v", event, err)
		return
	}
	if !h.safeSend(c, frame) {
		h.evict(c)
	}
}

// broadcastAll delivers an event to every registered client.
func (h *Hub) broadcastAll(event string, data any) {
	h.broadcastExcept(nil, event, data)
}

// broadcastExcept delivers an event to every registered client except the
// sender. The exclusion is a filter over the live client set at dispatch
// time, not a precomputed subscriber list.
func (h *Hub) broadcastExcept(sender *Client, event string, data any) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		log.Printf("Error encoding %s event: %v", event, err)
		return
	}

	var failed []*Client
	for _, c := range h.clients {
		if sender != nil && c == sender {
			continue
		}
		if !h.safeSend(c, frame) {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.evict(c)
	}
}

// safeSend enqueues a frame without blocking. A full or closed send buffer
// reports failure so the caller can evict the client.
func (h *Hub) safeSend(c *Client, frame []byte) bool {
	if c == nil || c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// evict removes a client whose send buffer overflowed. The removal runs
// through the normal disconnect path so remaining clients see a user-left.
func (h *Hub) evict(c *Client) {
	log.Printf("Client %s from %s evicted: send buffer full", c.id, c.addr)
	h.handleDisconnect(c, "send buffer full")
}

// shutdownClients announces the shutdown and closes every live connection.
// Closing the send channel lets each write pump flush the announcement and a
// close frame before tearing down the connection.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	frame, err := encodeEvent(EventServerShutdown, serverShutdownPayload{
		Message:   "Server is shutting down",
		Timestamp: time.Now().UnixMilli(),
	})

	for _, c := range h.clients {
		if err == nil {
			h.safeSend(c, frame)
		}
		if !c.closed {
			c.closed = true
			close(c.send)
		}
	}

	log.Printf("Notified %d client connections", len(h.clients))
}

// Shutdown stops the event loop, notifies connected clients, and waits for
// the client pumps to finish or the timeout to pass.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

// rosterPayload serializes the registry in insertion order. Only called from
// the event loop.
func (h *Hub) rosterPayload() []RosterEntry {
	sessions := h.registry.Snapshot()
	entries := make([]RosterEntry, 0, len(sessions))
	for _, s := range sessions {
		entries = append(entries, RosterEntry{
			ID:          s.ID,
			Username:    s.Username,
			ConnectedAt: s.ConnectedAt.UnixMilli(),
			LastSeen:    s.LastSeen.UnixMilli(),
		})
	}
	return entries
}
