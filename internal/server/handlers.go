// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the JSON status endpoints.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// WebSocketHandler returns the upgrade handler. It assigns the connection its
// id, hands the client to the hub, and lets the hub launch the pumps.
func WebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, uuid.NewString(), r.RemoteAddr)
		hub.StartClient(client)
	}
}

// HealthHandler reports process status, uptime, and the active session count.
func HealthHandler(hub *Hub, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"clients": hub.ClientCount(),
		})
	}
}

// UsersHandler returns the current roster snapshot.
func UsersHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		roster := hub.Roster()
		if roster == nil {
			roster = []RosterEntry{}
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"count": len(roster),
			"users": roster,
		})
	}
}

// StatusHandler returns version, environment, and memory metadata.
func StatusHandler(startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		respondJSON(w, http.StatusOK, map[string]any{
			"version":     Version,
			"environment": currentConfig().Environment,
			"goVersion":   runtime.Version(),
			"uptime":      time.Since(startedAt).Round(time.Second).String(),
			"memory": map[string]uint64{
				"alloc":      m.Alloc,
				"totalAlloc": m.TotalAlloc,
				"sys":        m.Sys,
			},
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
