// Shared helpers for exercising the hub without a network: clients are
// created with a nil connection, so outbound frames accumulate in their send
// channels where tests can inspect them.
package server_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/echoroom/echoroom/internal/server"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startHub(t *testing.T) *server.Hub {
	t.Helper()

	server.SetConfig(nil)
	hub := server.NewHub(server.NewRegistry())
	go hub.Run()
	t.Cleanup(func() {
		_ = hub.Shutdown(time.Second)
	})
	return hub
}

// joinClient registers a connection-less client and waits for its welcome so
// the caller knows the hub has processed the registration.
func joinClient(t *testing.T, hub *server.Hub, id string) *server.Client {
	t.Helper()

	c := server.NewClient(hub, nil, id, "127.0.0.1:52000")
	hub.Register(c)
	waitForEvent(t, c, "welcome")
	return c
}

// waitForEvent reads frames from the client's send channel, discarding
// everything until the named event arrives, and returns its payload.
func waitForEvent(t *testing.T, c *server.Client, event string) json.RawMessage {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw, ok := <-c.GetSendChan():
			if !ok {
				t.Fatalf("send channel closed while waiting for %q", event)
			}
			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("malformed frame %q: %v", raw, err)
			}
			if f.Event == event {
				return f.Data
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", event)
		}
	}
}

// assertNoEvent drains the client's send channel for a short window and fails
// if the named event shows up.
func assertNoEvent(t *testing.T, c *server.Client, event string) {
	t.Helper()

	timeout := time.After(150 * time.Millisecond)
	for {
		select {
		case raw, ok := <-c.GetSendChan():
			if !ok {
				return
			}
			var f frame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("malformed frame %q: %v", raw, err)
			}
			if f.Event == event {
				t.Fatalf("unexpected %q event with payload %s", event, f.Data)
			}
		case <-timeout:
			return
		}
	}
}

func decodeMap(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decoding payload %q: %v", raw, err)
	}
	return m
}

func decodeInt(t *testing.T, raw json.RawMessage) int {
	t.Helper()

	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		t.Fatalf("decoding payload %q as int: %v", raw, err)
	}
	return n
}

func decodeRoster(t *testing.T, raw json.RawMessage) []server.RosterEntry {
	t.Helper()

	var roster []server.RosterEntry
	if err := json.Unmarshal(raw, &roster); err != nil {
		t.Fatalf("decoding roster %q: %v", raw, err)
	}
	return roster
}
