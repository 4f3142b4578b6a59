package protocol

import "encoding/json"

// MessageType tags every signaling message exchanged over the websocket.
type MessageType string

const (
	// Server to client, sent once after a successful join. Carries the
	// join order, which decides the negotiation roles.
	TypeJoin MessageType = "join"

	// Server to all room members whenever membership changes.
	TypeRoomStatus MessageType = "room-status"

	// Relayed verbatim between the two members. The server never
	// inspects the payloads.
	TypeOffer        MessageType = "offer"
	TypeAnswer       MessageType = "answer"
	TypeICECandidate MessageType = "ice-candidate"

	// Server to the remaining member when the other one drops.
	TypePeerDisconnected MessageType = "peer-disconnected"

	// Client to server to hang up; relayed to the other member before
	// the room is torn down.
	TypeCallEnded MessageType = "call-ended"
)

// JoinOrder is the registry's answer to "which participant am I".
// The first joiner initiates the offer/answer exchange.
type JoinOrder string

const (
	JoinedFirst  JoinOrder = "first"
	JoinedSecond JoinOrder = "second"
)

// CloseRoomFull is the websocket close code sent to a third participant
// trying to join an occupied room. Application close codes live in the
// 4000-4999 range.
const CloseRoomFull = 4409

// Message is the JSON envelope for all signaling traffic. Only the
// fields matching Type are set.
type Message struct {
	Type MessageType `json:"type"`

	// join
	JoinedAs JoinOrder `json:"joined_as,omitempty"`

	// room-status
	Count int `json:"count,omitempty"`

	// offer / answer
	SDP string `json:"sdp,omitempty"`

	// ice-candidate, kept opaque so the relay and the signaling client
	// never depend on the candidate format
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Relayed reports whether a client-sent message of this type is
// forwarded to the other room member.
func (t MessageType) Relayed() bool {
	switch t {
	case TypeOffer, TypeAnswer, TypeICECandidate:
		return true
	}
	return false
}
