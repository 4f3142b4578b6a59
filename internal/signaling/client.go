package signaling

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP bodies are a few KB;
	// 64 KB leaves generous headroom.
	maxMessageSize = 64 * 1024
)

// Client wraps a single participant connection. It is created with its
// room ID already set (the room is a path segment of the websocket URL)
// and handed to the hub, which decides whether the join is admitted.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// ID identifies the connection in logs.
	ID string

	// RoomID is the room this connection is bound to.
	RoomID string

	// Send carries outbound messages to writePump. FIFO through this
	// channel plus the single writer goroutine is what gives per-sender
	// delivery ordering.
	Send chan *protocol.Message

	// control carries a preformatted close frame for join rejections.
	// Buffered so the hub never blocks on it.
	control chan []byte

	// joined and sendClosed are owned by the hub goroutine.
	joined     bool
	sendClosed bool
}

// NewClient wraps an upgraded connection bound to roomID. The caller
// registers it with the hub and starts both pumps.
func NewClient(hub *Hub, conn *websocket.Conn, roomID string) *Client {
	return &Client{
		Hub:     hub,
		Conn:    conn,
		ID:      uuid.NewString(),
		RoomID:  roomID,
		Send:    make(chan *protocol.Message, 256),
		control: make(chan []byte, 1),
	}
}

// ReadPump pumps messages from the websocket connection to the hub.
// It runs in a per-connection goroutine; all reads happen here.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Debug("client read error", "client", c.ID, "err", err)
			}
			return
		}

		c.Hub.Forward <- inbound{client: c, msg: &msg}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
// It runs in a per-connection goroutine; all writes happen here.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel: normal teardown.
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				slog.Debug("client write error", "client", c.ID, "err", err)
				return
			}

		case frame := <-c.control:
			// Join rejection: deliver the distinct close code and drop
			// the connection without touching room state.
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, frame)
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
