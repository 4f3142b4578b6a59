package call

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/OWASP-BLT/BLT-sub001/internal/config"
	"github.com/OWASP-BLT/BLT-sub001/internal/media"
	"github.com/OWASP-BLT/BLT-sub001/internal/protocol"
	"github.com/OWASP-BLT/BLT-sub001/internal/signalclient"
)

// joinTimeout bounds the wait for the server's join confirmation.
const joinTimeout = 30 * time.Second

// NoticeKind classifies user-facing call events.
type NoticeKind int

const (
	// NoticePhase reports a negotiation phase change.
	NoticePhase NoticeKind = iota
	// NoticePeerTracks reports the peer's mute / video state.
	NoticePeerTracks
	// NoticeWarning reports a tolerated protocol violation.
	NoticeWarning
	// NoticeEnded reports the terminal state with its reason.
	NoticeEnded
)

// Notice is a user-facing call event for the UI layer.
type Notice struct {
	Kind NoticeKind

	Phase        Phase     // NoticePhase
	Audio, Video bool      // NoticePeerTracks
	Text         string    // NoticeWarning
	Reason       EndReason // NoticeEnded
}

// Controller orchestrates one participant's call: it joins the room,
// wires relayed messages and transport callbacks into the negotiation
// state machine, and owns the media capture for the session's lifetime.
type Controller struct {
	cfg     *config.Config
	roomID  string
	capture *media.Capture
	client  *signalclient.Client
	handler *signalclient.Handler
	pc      *webrtc.PeerConnection
	control atomic.Pointer[webrtc.DataChannel]

	// sess is owned by the session loop goroutine (Dial touches it only
	// before the loop starts). phase and reason mirror it for
	// concurrent readers.
	sess   Session
	phase  atomic.Int32
	reason atomic.Int32

	events  chan Event
	endReq  chan struct{}
	notices chan Notice
	done    chan struct{}

	shutdownOnce sync.Once
}

// Dial joins roomID and returns a running controller. Capacity and
// connectivity problems surface here, synchronously: ErrRoomFull when a
// third participant tries an occupied room. The capture is adopted only
// on success; on error the caller still owns it.
func Dial(cfg *config.Config, roomID string, capture *media.Capture) (*Controller, error) {
	client := signalclient.New(cfg.WebSocketURL(roomID))
	if err := client.Connect(); err != nil {
		return nil, NewError("connect to server", err)
	}

	handler := signalclient.NewHandler(client)
	go handler.Start()

	pc, err := newPeerConnection(cfg)
	if err != nil {
		client.Close()
		return nil, NewError("create peer connection", err)
	}

	c := &Controller{
		cfg:     cfg,
		roomID:  roomID,
		capture: capture,
		client:  client,
		handler: handler,
		pc:      pc,
		sess:    NewSession(),
		events:  make(chan Event, 8),
		endReq:  make(chan struct{}, 1),
		notices: make(chan Notice, 16),
		done:    make(chan struct{}),
	}

	if _, err := pc.AddTrack(capture.AudioTrack()); err != nil {
		c.abort()
		return nil, NewError("add audio track", err)
	}
	if _, err := pc.AddTrack(capture.VideoTrack()); err != nil {
		c.abort()
		return nil, NewError("add video track", err)
	}

	c.installTransportHooks()
	c.step(EvDialing{})

	select {
	case order := <-handler.Joined:
		c.step(EvJoined{Order: order})
		slog.Info("joined room", "room", roomID, "order", order)

	case code := <-handler.Closed:
		c.abort()
		if code == protocol.CloseRoomFull {
			return nil, WrapError("join room", ErrRoomFull, roomID)
		}
		return nil, WrapError("join room", ErrSignaling, fmt.Sprintf("connection closed (code %d)", code))

	case <-time.After(joinTimeout):
		c.abort()
		return nil, WrapError("join room", ErrTimeout, "no join confirmation")
	}

	go c.run()
	return c, nil
}

// run is the single-threaded session loop: every relayed message,
// transport callback and local action funnels through here and into
// Apply, one at a time.
func (c *Controller) run() {
	defer close(c.done)

	for c.sess.Phase != PhaseEnded {
		select {
		case count := <-c.handler.RoomStatus:
			c.step(EvRoomStatus{Count: count})

		case sdp := <-c.handler.Offer:
			c.step(EvRemoteOffer{SDP: sdp})

		case sdp := <-c.handler.Answer:
			c.step(EvRemoteAnswer{SDP: sdp})

		case cand := <-c.handler.Candidate:
			c.step(EvRemoteCandidate{Candidate: cand})

		case <-c.handler.PeerDisconnected:
			c.step(EvPeerDisconnected{})

		case <-c.handler.CallEnded:
			c.step(EvCallEnded{})

		case <-c.handler.Closed:
			// Losing the relay mid-call reads the same as losing the
			// peer.
			c.step(EvPeerDisconnected{})

		case ev := <-c.events:
			c.step(ev)

		case <-c.endReq:
			c.step(EvEndRequested{})
		}
	}
}

// step advances the state machine by one event and executes the
// requested effects.
func (c *Controller) step(ev Event) {
	prev := c.sess.Phase
	next, effects := Apply(c.sess, ev)
	c.sess = next
	c.phase.Store(int32(next.Phase))

	if next.Phase != prev {
		slog.Debug("negotiation phase", "room", c.roomID, "from", prev, "to", next.Phase)
		c.notify(Notice{Kind: NoticePhase, Phase: next.Phase})
	}

	for _, eff := range effects {
		c.perform(eff)
	}
}

// pushEvent queues an event from a transport callback goroutine.
// Dropped once the session is over.
func (c *Controller) pushEvent(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// notify delivers a user-facing notice without ever blocking the
// session loop; a UI that stops reading just misses notices.
func (c *Controller) notify(n Notice) {
	select {
	case c.notices <- n:
	default:
	}
}

// shutdown releases everything exactly once: the hangup signals (best
// effort), the media capture, the peer connection, and the relay
// connection.
func (c *Controller) shutdown(reason EndReason) {
	c.shutdownOnce.Do(func() {
		c.reason.Store(int32(reason))

		if reason == EndReasonLocal {
			c.sendControl(controlTypeBye, nil)
			c.client.Send(&protocol.Message{Type: protocol.TypeCallEnded})
		}

		c.capture.Close()
		c.pc.Close()
		c.client.Close()

		slog.Info("call ended", "room", c.roomID, "reason", reason.String())
		c.notify(Notice{Kind: NoticeEnded, Reason: reason})
	})
}

// abort tears down a controller that never finished dialing. The
// capture stays with the caller.
func (c *Controller) abort() {
	c.pc.Close()
	c.client.Close()
	close(c.done)
}

// End requests a local hangup. Idempotent, safe from any goroutine and
// in any phase.
func (c *Controller) End() {
	select {
	case c.endReq <- struct{}{}:
	default:
	}
}

// SetAudioEnabled flips the microphone track without renegotiating and
// tells the peer over the control channel.
func (c *Controller) SetAudioEnabled(on bool) {
	c.capture.SetAudioEnabled(on)
	c.sendTrackState()
}

// SetVideoEnabled flips the camera track without renegotiating and
// tells the peer over the control channel.
func (c *Controller) SetVideoEnabled(on bool) {
	c.capture.SetVideoEnabled(on)
	c.sendTrackState()
}

func (c *Controller) AudioEnabled() bool { return c.capture.AudioEnabled() }
func (c *Controller) VideoEnabled() bool { return c.capture.VideoEnabled() }

func (c *Controller) sendTrackState() {
	c.sendControl(controlTypeTrackState, trackStatePayload{
		Audio: c.capture.AudioEnabled(),
		Video: c.capture.VideoEnabled(),
	})
}

func (c *Controller) sendControl(msgType string, payload any) {
	dc := c.control.Load()
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	b, err := encodeControl(msgType, payload)
	if err != nil {
		return
	}
	dc.Send(b)
}

// RoomID returns the room this controller joined.
func (c *Controller) RoomID() string { return c.roomID }

// Phase returns the current negotiation phase. Safe from any goroutine.
func (c *Controller) Phase() Phase { return Phase(c.phase.Load()) }

// EndedReason returns why the call ended, once Done is closed.
func (c *Controller) EndedReason() EndReason { return EndReason(c.reason.Load()) }

// Notices returns the stream of user-facing call events.
func (c *Controller) Notices() <-chan Notice { return c.notices }

// Done is closed when the session loop has finished and all resources
// are released.
func (c *Controller) Done() <-chan struct{} { return c.done }
