package signalclient

import (
	"encoding/json"

	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
)

// Handler fans incoming signaling messages out to typed channels, so
// the call layer consumes events instead of parsing envelopes.
type Handler struct {
	client *Client

	Joined           chan protocol.JoinOrder
	RoomStatus       chan int
	Offer            chan string
	Answer           chan string
	Candidate        chan json.RawMessage
	PeerDisconnected chan struct{}
	CallEnded        chan struct{}

	// Closed fires once the connection is gone, carrying the websocket
	// close code (0 if none). protocol.CloseRoomFull means the join was
	// rejected.
	Closed chan int
}

// NewHandler creates a message handler for client.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:           client,
		Joined:           make(chan protocol.JoinOrder, 1),
		RoomStatus:       make(chan int, 4),
		Offer:            make(chan string, 1),
		Answer:           make(chan string, 1),
		Candidate:        make(chan json.RawMessage, 32),
		PeerDisconnected: make(chan struct{}, 1),
		CallEnded:        make(chan struct{}, 1),
		Closed:           make(chan int, 1),
	}
}

// Start consumes the client's incoming stream until it closes. Run it
// in its own goroutine.
func (h *Handler) Start() {
	for msg := range h.client.Incoming() {
		switch msg.Type {

		case protocol.TypeJoin:
			h.Joined <- msg.JoinedAs

		case protocol.TypeRoomStatus:
			h.RoomStatus <- msg.Count

		case protocol.TypeOffer:
			h.Offer <- msg.SDP

		case protocol.TypeAnswer:
			h.Answer <- msg.SDP

		case protocol.TypeICECandidate:
			h.Candidate <- msg.Candidate

		case protocol.TypePeerDisconnected:
			h.PeerDisconnected <- struct{}{}

		case protocol.TypeCallEnded:
			h.CallEnded <- struct{}{}

		default:
			// Unknown server message, ignore.
		}
	}

	h.Closed <- h.client.CloseCode()
}
