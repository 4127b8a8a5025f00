// Package server routes inbound client events to their handlers. Each
// handler performs its registry mutation and all of its broadcasts within a
// single event-loop step; missing sessions are benign and fall back to
// defaults rather than surfacing errors to clients.
package server

import (
	"encoding/json"
	"log"
	"strings"
	"time"
)

// dispatch is the central event router keyed by event name.
func (h *Hub) dispatch(ev inboundEvent) {
	if ev.client == nil {
		return
	}

	switch ev.event {
	case EventSendMessage:
		h.handleSendMessage(ev.client, ev.data)
	case EventTyping:
		h.handleTyping(ev.client, ev.data)
	case EventStopTyping:
		h.handleStopTyping(ev.client)
	case EventUpdateUsername:
		h.handleUpdateUsername(ev.client, ev.data)
	case EventPing:
		h.handlePing(ev.client)
	default:
		log.Printf("Unknown event %q from %s; ignoring", ev.event, ev.client.addr)
	}
}

func (h *Hub) handleConnect(c *Client) {
	if c == nil {
		log.Printf("Received nil client registration; skipping")
		return
	}

	s, err := h.registry.UpsertOnConnect(c.id, c.addr)
	if err != nil {
		log.Printf("Rejecting connection with duplicate id %s: %v", c.id, err)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		return
	}
	h.clients[c.id] = c

	count := h.registry.Count()
	log.Printf("Client %s connected from %s. Total clients: %d", c.id, c.addr, count)

	now := time.Now()
	h.unicast(c, EventWelcome, welcomePayload{
		Message:       "Welcome to EchoRoom",
		ID:            c.id,
		Username:      s.Username,
		UsersCount:    count,
		ServerTime:    now.Format(time.RFC3339),
		ServerVersion: Version,
	})
	h.broadcastExcept(c, EventUserJoined, userJoinedPayload{
		ID:       c.id,
		Username: s.Username,
		Time:     wallClock(now),
	})
	h.broadcastAll(EventUserCountUpdate, h.registry.Count())
	h.broadcastAll(EventActiveUsers, h.rosterPayload())
}

func (h *Hub) handleDisconnect(c *Client, reason string) {
	if c == nil {
		return
	}

	current, ok := h.clients[c.id]
	if !ok || current != c {
		// Duplicate disconnect for an already-removed client is a no-op.
		return
	}
	delete(h.clients, c.id)
	if !c.closed {
		c.closed = true
		close(c.send)
	}

	s, existed := h.registry.Remove(c.id)
	if !existed {
		return
	}

	count := h.registry.Count()
	log.Printf("Client %s (%s) disconnected: %s. Total clients: %d", c.id, s.Username, reason, count)

	h.broadcastAll(EventUserLeft, userLeftPayload{
		ID:       c.id,
		Username: s.Username,
		Reason:   reason,
	})
	h.broadcastAll(EventUserCountUpdate, count)
	h.broadcastAll(EventActiveUsers, h.rosterPayload())
}

func (h *Hub) handleSendMessage(c *Client, data json.RawMessage) {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("Invalid send-message payload from %s: %v", c.addr, err)
		return
	}
	if strings.TrimSpace(p.Message) == "" {
		log.Printf("Ignoring empty message from %s", c.addr)
		return
	}

	h.registry.TouchLastSeen(c.id)

	now := time.Now()
	h.broadcastAll(EventNewMessage, newMessagePayload{
		ID:        c.id,
		Message:   p.Message,
		Time:      wallClock(now),
		Timestamp: now.UnixMilli(),
		Username:  h.displayName(c, p.Username),
	})
}

func (h *Hub) handleTyping(c *Client, data json.RawMessage) {
	var p typingPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("Invalid typing payload from %s: %v", c.addr, err)
			return
		}
	}

	h.broadcastExcept(c, EventUserTyping, userTypingPayload{
		ID:       c.id,
		Username: h.displayName(c, p.Username),
	})
}

func (h *Hub) handleStopTyping(c *Client) {
	h.broadcastExcept(c, EventUserStopTyping, userStopTypingPayload{ID: c.id})
}

func (h *Hub) handleUpdateUsername(c *Client, data json.RawMessage) {
	var p updateUsernamePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("Invalid update-username payload from %s: %v", c.addr, err)
		return
	}

	s, ok := h.registry.Get(c.id)
	if !ok {
		h.unicast(c, EventUsernameUpdated, usernameUpdatedPayload{
			Success:     false,
			NewUsername: DefaultUsername(c.id),
		})
		return
	}

	old := s.Username
	trimmed := strings.TrimSpace(p.NewUsername)
	if trimmed == "" {
		// Empty after trimming retains the current name; no broadcasts.
		h.unicast(c, EventUsernameUpdated, usernameUpdatedPayload{
			Success:     false,
			NewUsername: old,
		})
		return
	}

	h.registry.UpdateUsername(c.id, trimmed)
	log.Printf("Client %s renamed %q -> %q", c.id, old, trimmed)

	h.broadcastAll(EventUsernameChanged, usernameChangedPayload{
		ID:          c.id,
		OldUsername: old,
		NewUsername: trimmed,
		Time:        wallClock(time.Now()),
	})
	h.broadcastAll(EventActiveUsers, h.rosterPayload())
	h.unicast(c, EventUsernameUpdated, usernameUpdatedPayload{
		Success:     true,
		NewUsername: trimmed,
	})
}

func (h *Hub) handlePing(c *Client) {
	h.unicast(c, EventPong, pongPayload{Timestamp: time.Now().UnixMilli()})
}

// displayName resolves the name shown on a message or typing indicator. A
// non-empty client-supplied override wins for display only and is never
// written back to the registry, so the roster stays authoritative.
func (h *Hub) displayName(c *Client, override string) string {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed
	}
	if s, ok := h.registry.Get(c.id); ok {
		return s.Username
	}
	return DefaultUsername(c.id)
}
