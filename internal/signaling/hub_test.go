package signaling

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
)

// newTestClient builds a hub-side client with buffered channels so the
// hub's synchronous methods never block. No websocket connection is
// involved; the hub never touches Conn.
func newTestClient(h *Hub, id, roomID string) *Client {
	return &Client{
		Hub:     h,
		ID:      id,
		RoomID:  roomID,
		Send:    make(chan *protocol.Message, 16),
		control: make(chan []byte, 1),
	}
}

// recv pops the next queued message or fails the test.
func recv(t *testing.T, c *Client) *protocol.Message {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		if !ok {
			t.Fatalf("client %s: send channel closed", c.ID)
		}
		return msg
	default:
		t.Fatalf("client %s: no message queued", c.ID)
	}
	return nil
}

func TestJoinAssignsOrder(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", "room")
	b := newTestClient(h, "b", "room")

	h.join(a)
	if msg := recv(t, a); msg.Type != protocol.TypeJoin || msg.JoinedAs != protocol.JoinedFirst {
		t.Fatalf("a join message = %+v", msg)
	}
	if msg := recv(t, a); msg.Type != protocol.TypeRoomStatus || msg.Count != 1 {
		t.Fatalf("a room status = %+v", msg)
	}

	h.join(b)
	if msg := recv(t, b); msg.Type != protocol.TypeJoin || msg.JoinedAs != protocol.JoinedSecond {
		t.Fatalf("b join message = %+v", msg)
	}
	// Both members learn the room filled.
	if msg := recv(t, a); msg.Type != protocol.TypeRoomStatus || msg.Count != 2 {
		t.Fatalf("a room status after b = %+v", msg)
	}
	if msg := recv(t, b); msg.Type != protocol.TypeRoomStatus || msg.Count != 2 {
		t.Fatalf("b room status = %+v", msg)
	}

	room := h.rooms["room"]
	if room == nil || len(room.Members) != 2 {
		t.Fatalf("room state = %+v", room)
	}
	if room.Members[0] != a || room.Members[1] != b {
		t.Fatalf("member order lost")
	}
}

func TestThirdJoinRejectedWithoutMutation(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", "room")
	b := newTestClient(h, "b", "room")
	c := newTestClient(h, "c", "room")

	h.join(a)
	h.join(b)
	h.join(c)

	select {
	case frame := <-c.control:
		want := websocket.FormatCloseMessage(protocol.CloseRoomFull, "room full")
		if string(frame) != string(want) {
			t.Fatalf("close frame = %q, want %q", frame, want)
		}
	default:
		t.Fatalf("no rejection frame queued for c")
	}

	if c.joined {
		t.Fatalf("rejected client marked joined")
	}
	if len(c.Send) != 0 {
		t.Fatalf("rejected client received %d messages", len(c.Send))
	}
	if got := len(h.rooms["room"].Members); got != 2 {
		t.Fatalf("members = %d after rejection, want 2", got)
	}

	// The members saw nothing beyond their own join traffic.
	recv(t, a) // join
	recv(t, a) // status 1
	recv(t, a) // status 2
	if len(a.Send) != 0 {
		t.Fatalf("a received extra traffic after rejection")
	}

	// Unregister of a never-joined client must be a no-op.
	h.leave(c)
	if got := len(h.rooms["room"].Members); got != 2 {
		t.Fatalf("members = %d after rejected leave, want 2", got)
	}
}

func TestRelayForwardsVerbatimToPeer(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", "room")
	b := newTestClient(h, "b", "room")
	h.join(a)
	h.join(b)
	drain(a)
	drain(b)

	offer := &protocol.Message{Type: protocol.TypeOffer, SDP: "v=0 fake sdp"}
	h.dispatch(inbound{client: a, msg: offer})
	if got := recv(t, b); got != offer {
		t.Fatalf("offer not forwarded verbatim: %+v", got)
	}
	if len(a.Send) != 0 {
		t.Fatalf("offer echoed to sender")
	}

	cand := &protocol.Message{
		Type:      protocol.TypeICECandidate,
		Candidate: json.RawMessage(`{"candidate":"c1"}`),
	}
	h.dispatch(inbound{client: b, msg: cand})
	if got := recv(t, a); got != cand {
		t.Fatalf("candidate not forwarded verbatim: %+v", got)
	}

	// Relayed traffic with no peer present is dropped, not an error.
	h.leave(b)
	drain(a)
	h.dispatch(inbound{client: a, msg: offer})
	if len(a.Send) != 0 {
		t.Fatalf("peerless relay produced traffic")
	}
}

func TestRelayPreservesSenderOrder(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", "room")
	b := newTestClient(h, "b", "room")
	h.join(a)
	h.join(b)
	drain(b)

	msgs := []*protocol.Message{
		{Type: protocol.TypeOffer, SDP: "o"},
		{Type: protocol.TypeICECandidate, Candidate: json.RawMessage(`1`)},
		{Type: protocol.TypeICECandidate, Candidate: json.RawMessage(`2`)},
		{Type: protocol.TypeICECandidate, Candidate: json.RawMessage(`3`)},
	}
	for _, m := range msgs {
		h.dispatch(inbound{client: a, msg: m})
	}
	for i, want := range msgs {
		if got := recv(t, b); got != want {
			t.Fatalf("message %d out of order: %+v", i, got)
		}
	}
}

func TestLeaveNotifiesRemainingMember(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", "room")
	b := newTestClient(h, "b", "room")
	h.join(a)
	h.join(b)
	drain(a)
	drain(b)

	h.leave(b)

	if msg := recv(t, a); msg.Type != protocol.TypePeerDisconnected {
		t.Fatalf("remaining member got %+v, want peer-disconnected", msg)
	}
	if msg := recv(t, a); msg.Type != protocol.TypeRoomStatus || msg.Count != 1 {
		t.Fatalf("room status after leave = %+v", msg)
	}
	if !b.sendClosed {
		t.Fatalf("leaver's send channel not closed")
	}

	// The room survives with one member and accepts a new second joiner.
	if _, ok := h.rooms["room"]; !ok {
		t.Fatalf("room destroyed while a member remains")
	}
	c := newTestClient(h, "c", "room")
	h.join(c)
	if msg := recv(t, c); msg.JoinedAs != protocol.JoinedSecond {
		t.Fatalf("rejoin order = %+v", msg)
	}
}

func TestLastLeaveDestroysRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", "room")
	h.join(a)
	h.leave(a)

	if _, ok := h.rooms["room"]; ok {
		t.Fatalf("empty room not destroyed")
	}
}

func TestEndCallRelaysHangupAndDestroysRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient(h, "a", "room")
	b := newTestClient(h, "b", "room")
	h.join(a)
	h.join(b)
	drain(a)
	drain(b)

	h.dispatch(inbound{client: a, msg: &protocol.Message{Type: protocol.TypeCallEnded}})

	if msg := recv(t, b); msg.Type != protocol.TypeCallEnded {
		t.Fatalf("peer got %+v, want call-ended", msg)
	}
	if _, ok := h.rooms["room"]; ok {
		t.Fatalf("room survived call end")
	}
	if !a.sendClosed || !b.sendClosed {
		t.Fatalf("send channels not closed: a=%v b=%v", a.sendClosed, b.sendClosed)
	}

	// The unregisters that follow the connection drops are no-ops.
	h.leave(a)
	h.leave(b)
}

func TestRoomIDFormat(t *testing.T) {
	h := NewHub()
	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-[a-z]+$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := h.generateRoomID()
		if !pattern.MatchString(id) {
			t.Fatalf("room ID %q does not match word-word-word", id)
		}
		seen[id] = true
	}
	if len(seen) < 2 {
		t.Fatalf("generator produced a single ID across 50 draws")
	}
}

func TestRoomIDAvoidsLiveRooms(t *testing.T) {
	h := NewHub()
	// Occupy every ID except one; generation must land on the free slot.
	free := ""
	for _, c := range colors {
		for _, b := range birds {
			for _, p := range places {
				id := c + "-" + b + "-" + p
				if free == "" {
					free = id
					continue
				}
				h.rooms[id] = &Room{ID: id}
			}
		}
	}
	if got := h.generateRoomID(); got != free {
		t.Fatalf("generateRoomID() = %q, want the only free ID %q", got, free)
	}
}

// drain empties a client's queued messages.
func drain(c *Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}
