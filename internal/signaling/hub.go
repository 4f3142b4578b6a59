package signaling

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/gorilla/websocket"

	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
)

// inbound pairs a message with the connection it arrived on.
type inbound struct {
	client *Client
	msg    *protocol.Message
}

// Hub owns all room state. Every join, leave and relay runs on the
// single Run goroutine, which is what makes the two-participant cap
// atomic under concurrent joins: no two connections can both observe a
// one-member room and both be admitted.
type Hub struct {
	rooms map[string]*Room

	// Register admits a new connection into its room (or rejects it).
	Register chan *Client

	// Unregister removes a dropped connection from its room.
	Unregister chan *Client

	// Forward carries client messages for relaying.
	Forward chan inbound

	// roomIDReqs serves room ID generation so the uniqueness check sees
	// live room state.
	roomIDReqs chan chan string
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Forward:    make(chan inbound),
		roomIDReqs: make(chan chan string),
	}
}

// NewRoomID returns a memorable room ID that no live room is using.
// Safe to call from any goroutine; Run must be started.
func (h *Hub) NewRoomID() string {
	reply := make(chan string, 1)
	h.roomIDReqs <- reply
	return <-reply
}

// generateRoomID builds a color-bird-place ID, retrying on the unlikely
// collision with a live room.
func (h *Hub) generateRoomID() string {
	for {
		id := fmt.Sprintf("%s-%s-%s",
			colors[randomIndex(len(colors))],
			birds[randomIndex(len(birds))],
			places[randomIndex(len(places))],
		)
		if _, ok := h.rooms[id]; !ok {
			return id
		}
	}
}

// randomIndex returns a cryptographically secure random index for a
// slice of the given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(fmt.Sprintf("generate random index: %v", err))
	}
	return int(n.Int64())
}

// Run is the hub's event loop. It must run in its own goroutine and is
// the only goroutine that touches rooms or client membership flags.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.join(client)

		case client := <-h.Unregister:
			h.leave(client)

		case in := <-h.Forward:
			h.dispatch(in)

		case reply := <-h.roomIDReqs:
			reply <- h.generateRoomID()
		}
	}
}

// join admits a client into its room, creating the room on first join.
// A full room rejects the connection with the room-full close code and
// mutates nothing.
func (h *Hub) join(c *Client) {
	room, ok := h.rooms[c.RoomID]
	if !ok {
		room = &Room{ID: c.RoomID}
		h.rooms[c.RoomID] = room
		slog.Info("room created", "room", room.ID)
	}

	if len(room.Members) >= maxRoomSize {
		slog.Info("join rejected, room full", "room", room.ID, "client", c.ID)
		c.control <- websocket.FormatCloseMessage(protocol.CloseRoomFull, "room full")
		return
	}

	room.Members = append(room.Members, c)
	c.joined = true

	order := protocol.JoinedFirst
	if len(room.Members) == maxRoomSize {
		order = protocol.JoinedSecond
	}
	slog.Info("client joined", "room", room.ID, "client", c.ID, "order", order)

	c.Send <- &protocol.Message{Type: protocol.TypeJoin, JoinedAs: order}
	h.broadcastRoomStatus(room)
}

// leave removes a dropped connection. The remaining member, if any, is
// told the peer disconnected and the room waits for a new second
// participant; an empty room is destroyed.
func (h *Hub) leave(c *Client) {
	if c.joined {
		c.joined = false
		if room, ok := h.rooms[c.RoomID]; ok && room.remove(c) {
			if len(room.Members) == 0 {
				delete(h.rooms, room.ID)
				slog.Info("room destroyed", "room", room.ID)
			} else {
				slog.Info("client left", "room", room.ID, "client", c.ID)
				room.Members[0].Send <- &protocol.Message{Type: protocol.TypePeerDisconnected}
				h.broadcastRoomStatus(room)
			}
		}
	}

	h.closeSend(c)
}

// dispatch handles a message read from a client connection.
func (h *Hub) dispatch(in inbound) {
	switch {
	case in.msg.Type == protocol.TypeCallEnded:
		h.endCall(in.client)

	case in.msg.Type.Relayed():
		h.relay(in.client, in.msg)

	default:
		slog.Warn("unexpected message type from client", "type", in.msg.Type, "client", in.client.ID)
	}
}

// relay forwards a message verbatim to the other room member. The
// payload is never inspected here.
func (h *Hub) relay(c *Client, msg *protocol.Message) {
	if !c.joined {
		return
	}
	room, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}

	if peer := room.other(c); peer != nil {
		peer.Send <- msg
	} else {
		slog.Debug("relay dropped, no peer in room", "room", room.ID, "type", msg.Type)
	}
}

// endCall relays the hangup to the other member, then removes both
// members and destroys the room. The call-ended message is queued ahead
// of the close, so the peer sees it before the connection drops.
func (h *Hub) endCall(c *Client) {
	if !c.joined {
		return
	}
	room, ok := h.rooms[c.RoomID]
	if !ok {
		return
	}

	if peer := room.other(c); peer != nil {
		peer.Send <- &protocol.Message{Type: protocol.TypeCallEnded}
	}

	for _, m := range room.Members {
		m.joined = false
		h.closeSend(m)
	}
	room.Members = nil
	delete(h.rooms, room.ID)
	slog.Info("call ended, room destroyed", "room", room.ID, "by", c.ID)
}

// broadcastRoomStatus tells every member the current participant count.
func (h *Hub) broadcastRoomStatus(room *Room) {
	count := len(room.Members)
	for _, m := range room.Members {
		m.Send <- &protocol.Message{Type: protocol.TypeRoomStatus, Count: count}
	}
}

// closeSend shuts a client's send channel exactly once, which makes its
// writePump flush queued messages and write a close frame.
func (h *Hub) closeSend(c *Client) {
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}
