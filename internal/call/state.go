package call

import (
	"encoding/json"
	"fmt"

	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
)

// Phase is the negotiation state of one call participant.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseJoining
	PhaseWaitingForPeer
	PhaseHaveLocalOffer
	PhaseHaveRemoteOffer
	PhaseConnected
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseJoining:
		return "joining"
	case PhaseWaitingForPeer:
		return "waiting-for-peer"
	case PhaseHaveLocalOffer:
		return "have-local-offer"
	case PhaseHaveRemoteOffer:
		return "have-remote-offer"
	case PhaseConnected:
		return "connected"
	case PhaseEnded:
		return "ended"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// EndReason says why a session reached PhaseEnded.
type EndReason int

const (
	EndReasonNone      EndReason = iota
	EndReasonLocal               // local hangup
	EndReasonPeerGone            // peer-disconnected, or the relay connection dropped
	EndReasonPeerEnded           // peer sent call-ended
	EndReasonTransport           // ICE / transport failure
)

func (r EndReason) String() string {
	switch r {
	case EndReasonLocal:
		return "ended locally"
	case EndReasonPeerGone:
		return "peer disconnected"
	case EndReasonPeerEnded:
		return "peer ended the call"
	case EndReasonTransport:
		return "connection failed"
	}
	return "none"
}

// Session is one participant's negotiation state. Values are never
// mutated in place: Apply returns the successor state, so a transition
// either happens whole or not at all.
type Session struct {
	Phase     Phase
	Order     protocol.JoinOrder
	Initiator bool

	// RemoteDescSet gates candidate application: candidates received
	// before the remote description are buffered in Pending.
	RemoteDescSet bool
	Pending       []json.RawMessage

	Reason EndReason
}

// NewSession returns the starting state.
func NewSession() Session {
	return Session{Phase: PhaseIdle}
}

// Event is one input to the negotiation state machine: a relayed
// signaling message, a local action, or a transport notification.
type Event interface{ isEvent() }

type (
	// EvDialing marks the start of the room join.
	EvDialing struct{}

	// EvJoined carries the registry's join order, the single source of
	// truth for the initiator role.
	EvJoined struct{ Order protocol.JoinOrder }

	// EvRoomStatus carries the room's participant count.
	EvRoomStatus struct{ Count int }

	// EvLocalOffer reports that a local offer was created and set as
	// the local description.
	EvLocalOffer struct{ SDP string }

	// EvRemoteOffer is a relayed offer from the peer.
	EvRemoteOffer struct{ SDP string }

	// EvLocalAnswer reports that a local answer was created and set as
	// the local description.
	EvLocalAnswer struct{ SDP string }

	// EvRemoteAnswer is a relayed answer from the peer.
	EvRemoteAnswer struct{ SDP string }

	// EvRemoteCandidate is a relayed ICE candidate, kept opaque.
	EvRemoteCandidate struct{ Candidate json.RawMessage }

	// EvPeerDisconnected is the relay telling us the peer dropped.
	EvPeerDisconnected struct{}

	// EvCallEnded is the peer's explicit hangup.
	EvCallEnded struct{}

	// EvTransportFailed is an unrecoverable failure from the transport
	// layer (e.g. ICE failed).
	EvTransportFailed struct{ Cause string }

	// EvEndRequested is the local hangup.
	EvEndRequested struct{}
)

func (EvDialing) isEvent()          {}
func (EvJoined) isEvent()           {}
func (EvRoomStatus) isEvent()       {}
func (EvLocalOffer) isEvent()       {}
func (EvRemoteOffer) isEvent()      {}
func (EvLocalAnswer) isEvent()      {}
func (EvRemoteAnswer) isEvent()     {}
func (EvRemoteCandidate) isEvent()  {}
func (EvPeerDisconnected) isEvent() {}
func (EvCallEnded) isEvent()        {}
func (EvTransportFailed) isEvent()  {}
func (EvEndRequested) isEvent()     {}

// Effect is a side effect a transition asks the session driver to
// perform. The machine itself does no I/O.
type Effect interface{ isEffect() }

type (
	// FxCreateOffer: create an offer and set it as local description,
	// then feed EvLocalOffer back.
	FxCreateOffer struct{}

	// FxSendOffer: relay the local offer to the peer.
	FxSendOffer struct{ SDP string }

	// FxAcceptOffer: set the remote offer, create an answer and set it
	// as local description, then feed EvLocalAnswer back.
	FxAcceptOffer struct{ SDP string }

	// FxSendAnswer: relay the local answer to the peer.
	FxSendAnswer struct{ SDP string }

	// FxAcceptAnswer: set the remote answer.
	FxAcceptAnswer struct{ SDP string }

	// FxAddCandidates: apply remote candidates, in the given order.
	FxAddCandidates struct{ Candidates []json.RawMessage }

	// FxShutdown: release transport and media resources; terminal.
	FxShutdown struct{ Reason EndReason }

	// FxWarn: log a tolerated protocol violation.
	FxWarn struct{ Msg string }
)

func (FxCreateOffer) isEffect()   {}
func (FxSendOffer) isEffect()     {}
func (FxAcceptOffer) isEffect()   {}
func (FxSendAnswer) isEffect()    {}
func (FxAcceptAnswer) isEffect()  {}
func (FxAddCandidates) isEffect() {}
func (FxShutdown) isEffect()      {}
func (FxWarn) isEffect()          {}

// Apply computes the transition for one event. It is pure: no I/O, no
// mutation of s. PhaseEnded is terminal; every event after it is a
// no-op, which is what makes hangups idempotent.
func Apply(s Session, ev Event) (Session, []Effect) {
	if s.Phase == PhaseEnded {
		return s, nil
	}

	switch ev := ev.(type) {
	case EvDialing:
		s.Phase = PhaseJoining
		return s, nil

	case EvJoined:
		s.Order = ev.Order
		s.Initiator = ev.Order == protocol.JoinedFirst
		s.Phase = PhaseWaitingForPeer
		return s, nil

	case EvRoomStatus:
		// The second arrival is what starts negotiation, and only on
		// the initiator side; the second joiner waits for the offer.
		if ev.Count == maxParticipants && s.Phase == PhaseWaitingForPeer && s.Initiator {
			return s, []Effect{FxCreateOffer{}}
		}
		return s, nil

	case EvLocalOffer:
		if s.Phase != PhaseWaitingForPeer {
			return s, []Effect{FxWarn{Msg: "local offer ignored in " + s.Phase.String()}}
		}
		s.Phase = PhaseHaveLocalOffer
		return s, []Effect{FxSendOffer{SDP: ev.SDP}}

	case EvRemoteOffer:
		if s.Initiator || (s.Phase != PhaseWaitingForPeer && s.Phase != PhaseIdle) {
			return s, []Effect{FxWarn{Msg: "offer discarded in " + s.Phase.String()}}
		}
		s.Phase = PhaseHaveRemoteOffer
		return s.setRemoteDesc(FxAcceptOffer{SDP: ev.SDP})

	case EvLocalAnswer:
		if s.Phase != PhaseHaveRemoteOffer {
			return s, []Effect{FxWarn{Msg: "local answer ignored in " + s.Phase.String()}}
		}
		s.Phase = PhaseConnected
		return s, []Effect{FxSendAnswer{SDP: ev.SDP}}

	case EvRemoteAnswer:
		// An answer is only valid against a pending local offer. Out of
		// order or duplicate answers are a protocol violation and are
		// discarded without touching the state.
		if s.Phase != PhaseHaveLocalOffer {
			return s, []Effect{FxWarn{Msg: "answer discarded in " + s.Phase.String()}}
		}
		s.Phase = PhaseConnected
		return s.setRemoteDesc(FxAcceptAnswer{SDP: ev.SDP})

	case EvRemoteCandidate:
		if s.RemoteDescSet {
			return s, []Effect{FxAddCandidates{Candidates: []json.RawMessage{ev.Candidate}}}
		}
		pending := make([]json.RawMessage, 0, len(s.Pending)+1)
		pending = append(pending, s.Pending...)
		s.Pending = append(pending, ev.Candidate)
		return s, nil

	case EvPeerDisconnected:
		return s.end(EndReasonPeerGone)

	case EvCallEnded:
		return s.end(EndReasonPeerEnded)

	case EvTransportFailed:
		next, effects := s.end(EndReasonTransport)
		return next, append([]Effect{FxWarn{Msg: "transport failed: " + ev.Cause}}, effects...)

	case EvEndRequested:
		return s.end(EndReasonLocal)
	}

	return s, nil
}

const maxParticipants = 2

// setRemoteDesc marks the remote description as present and drains the
// candidate buffer right after it, preserving receipt order.
func (s Session) setRemoteDesc(accept Effect) (Session, []Effect) {
	s.RemoteDescSet = true
	effects := []Effect{accept}
	if len(s.Pending) > 0 {
		effects = append(effects, FxAddCandidates{Candidates: s.Pending})
		s.Pending = nil
	}
	return s, effects
}

// end moves to the terminal phase and asks the driver to tear down.
func (s Session) end(reason EndReason) (Session, []Effect) {
	s.Phase = PhaseEnded
	s.Reason = reason
	s.Pending = nil
	return s, []Effect{FxShutdown{Reason: reason}}
}
