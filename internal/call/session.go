package call

import (
	"encoding/json"
	"log/slog"

	"github.com/pion/webrtc/v4"

	"github.com/OWASP-BLT/BLT-sub001/internal/config"
	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
)

// newPeerConnection builds the pion peer connection with the configured
// NAT-traversal helpers.
func newPeerConnection(cfg *config.Config) (*webrtc.PeerConnection, error) {
	iceServers := []webrtc.ICEServer{{URLs: cfg.STUNServers()}}

	if turnServers := cfg.TURNServers(); turnServers != nil {
		username, password := cfg.TURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := webrtc.ICETransportPolicyAll
	if cfg.ForceRelay && cfg.TURNServers() != nil {
		policy = webrtc.ICETransportPolicyRelay
	}

	return webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
}

// installTransportHooks bridges pion callbacks into the session. Local
// candidates go straight out through the relay as they are gathered;
// failures become events for the state machine.
func (c *Controller) installTransportHooks() {
	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		b, err := json.Marshal(cand.ToJSON())
		if err != nil {
			return
		}
		c.client.Send(&protocol.Message{Type: protocol.TypeICECandidate, Candidate: b})
	})

	c.pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if state == webrtc.ICEConnectionStateFailed {
			c.pushEvent(EvTransportFailed{Cause: "ice " + state.String()})
		}
	})

	// The initiator opens the control channel; the other side receives
	// it here.
	c.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() == controlChannelLabel {
			c.attachControl(dc)
		}
	})
}

func (c *Controller) attachControl(dc *webrtc.DataChannel) {
	c.control.Store(dc)
	dc.OnOpen(func() {
		c.sendTrackState()
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		c.handleControl(msg.Data)
	})
}

func (c *Controller) handleControl(data []byte) {
	msg, err := decodeControl(data)
	if err != nil {
		slog.Debug("bad control message", "err", err)
		return
	}

	switch msg.Type {
	case controlTypeTrackState:
		var ts trackStatePayload
		if err := msg.decodePayload(&ts); err != nil {
			return
		}
		c.notify(Notice{Kind: NoticePeerTracks, Audio: ts.Audio, Video: ts.Video})

	case controlTypeBye:
		c.pushEvent(EvCallEnded{})
	}
}

// perform executes one effect requested by the state machine. Runs on
// the session loop goroutine.
func (c *Controller) perform(eff Effect) {
	switch eff := eff.(type) {
	case FxCreateOffer:
		// The control channel must exist before the offer so its
		// transport is part of the negotiated session.
		c.openControlChannel()
		offer, err := c.pc.CreateOffer(nil)
		if err != nil {
			c.transportFail("create offer", err)
			return
		}
		if err := c.pc.SetLocalDescription(offer); err != nil {
			c.transportFail("set local description", err)
			return
		}
		c.step(EvLocalOffer{SDP: offer.SDP})

	case FxSendOffer:
		c.client.Send(&protocol.Message{Type: protocol.TypeOffer, SDP: eff.SDP})

	case FxAcceptOffer:
		desc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: eff.SDP}
		if err := c.pc.SetRemoteDescription(desc); err != nil {
			c.transportFail("set remote description", err)
			return
		}
		answer, err := c.pc.CreateAnswer(nil)
		if err != nil {
			c.transportFail("create answer", err)
			return
		}
		if err := c.pc.SetLocalDescription(answer); err != nil {
			c.transportFail("set local description", err)
			return
		}
		c.step(EvLocalAnswer{SDP: answer.SDP})

	case FxSendAnswer:
		c.client.Send(&protocol.Message{Type: protocol.TypeAnswer, SDP: eff.SDP})

	case FxAcceptAnswer:
		desc := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: eff.SDP}
		if err := c.pc.SetRemoteDescription(desc); err != nil {
			c.transportFail("set remote description", err)
		}

	case FxAddCandidates:
		for _, raw := range eff.Candidates {
			var init webrtc.ICECandidateInit
			if err := json.Unmarshal(raw, &init); err != nil {
				slog.Warn("bad ICE candidate discarded", "err", err)
				continue
			}
			if err := c.pc.AddICECandidate(init); err != nil {
				slog.Warn("ICE candidate rejected", "err", err)
			}
		}

	case FxShutdown:
		c.shutdown(eff.Reason)

	case FxWarn:
		slog.Warn("negotiation violation tolerated", "room", c.roomID, "detail", eff.Msg)
		c.notify(Notice{Kind: NoticeWarning, Text: eff.Msg})
	}
}

func (c *Controller) openControlChannel() {
	dc, err := c.pc.CreateDataChannel(controlChannelLabel, nil)
	if err != nil {
		slog.Warn("control channel unavailable", "err", err)
		return
	}
	c.attachControl(dc)
}

// transportFail reports an unrecoverable transport error exactly once;
// after the first one the session is ended and further events no-op.
func (c *Controller) transportFail(op string, err error) {
	slog.Error("transport error", "op", op, "err", err)
	c.step(EvTransportFailed{Cause: op + ": " + err.Error()})
}
