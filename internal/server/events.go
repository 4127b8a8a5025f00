// Package server defines the wire-level event vocabulary exchanged with chat
// clients. Every frame in both directions is an envelope carrying an event
// name and a JSON payload.
package server

import (
	"encoding/json"
	"time"
)

// Event names sent by the server.
const (
	EventWelcome         = "welcome"
	EventUserJoined      = "user-joined"
	EventUserCountUpdate = "user-count-update"
	EventActiveUsers     = "active-users-update"
	EventNewMessage      = "new-message"
	EventUserTyping      = "user-typing"
	EventUserStopTyping  = "user-stop-typing"
	EventUsernameChanged = "username-changed"
	EventUsernameUpdated = "username-updated"
	EventPong            = "pong"
	EventUserLeft        = "user-left"
	EventServerShutdown  = "server-shutdown"
)

// Event names accepted from clients.
const (
	EventSendMessage    = "send-message"
	EventTyping         = "typing"
	EventStopTyping     = "stop-typing"
	EventUpdateUsername = "update-username"
	EventPing           = "ping"
)

// envelope frames every WebSocket message: an event name plus its payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type welcomePayload struct {
	Message       string `json:"message"`
	ID            string `json:"id"`
	Username      string `json:"username"`
	UsersCount    int    `json:"usersCount"`
	ServerTime    string `json:"serverTime"`
	ServerVersion string `json:"serverVersion"`
}

type userJoinedPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Time     string `json:"time"`
}

// RosterEntry is one session as serialized in active-users-update broadcasts
// and the /api/users endpoint.
type RosterEntry struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	ConnectedAt int64  `json:"connectedAt"`
	LastSeen    int64  `json:"lastSeen"`
}

type sendMessagePayload struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
}

type newMessagePayload struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
}

type typingPayload struct {
	Username string `json:"username,omitempty"`
}

type userTypingPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type userStopTypingPayload struct {
	ID string `json:"id"`
}

type updateUsernamePayload struct {
	NewUsername string `json:"newUsername"`
}

type usernameChangedPayload struct {
	ID          string `json:"id"`
	OldUsername string `json:"oldUsername"`
	NewUsername string `json:"newUsername"`
	Time        string `json:"time"`
}

type usernameUpdatedPayload struct {
	Success     bool   `json:"success"`
	NewUsername string `json:"newUsername"`
}

type pongPayload struct {
	Timestamp int64 `json:"timestamp"`
}

type userLeftPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

type serverShutdownPayload struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// encodeEvent marshals an event name and payload into a wire frame.
func encodeEvent(event string, data any) ([]byte, error) {
	env := envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// wallClock formats a timestamp the way clients display it next to messages.
func wallClock(t time.Time) string {
	return t.Format("15:04:05")
}
