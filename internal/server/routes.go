package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/OWASP-BLT/BLT-sub001/internal/signaling"
)

// Configure the websocket upgrader. Buffers are sized for SDP bodies.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,

	// Room access is the room ID itself (the link is the credential),
	// so any origin may connect.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// New builds the HTTP mux: health check, room ID minting, and the
// websocket signaling endpoint addressed by a room path segment.
func New(hub *signaling.Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("POST /rooms", handleNewRoom(hub))
	mux.HandleFunc("GET /ws/{room}", ServeWs(hub))
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Signaling server is healthy."))
}

// handleNewRoom mints an unused room ID for the host flow. The room
// itself is created when its first participant connects.
func handleNewRoom(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"room_id": hub.NewRoomID()})
	}
}

// ServeWs upgrades the connection and hands it to the hub, which
// decides whether the join is admitted.
func ServeWs(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.PathValue("room")
		if roomID == "" {
			http.Error(w, "room is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "err", err)
			return
		}

		client := signaling.NewClient(hub, conn, roomID)
		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
