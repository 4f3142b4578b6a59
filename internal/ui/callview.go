package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/OWASP-BLT/BLT-sub001/internal/call"
)

// callModel is the live in-call view: connection phase, call timer,
// local and peer track toggles.
type callModel struct {
	ctrl    *call.Controller
	spinner spinner.Model

	phase       call.Phase
	connectedAt time.Time
	now         time.Time

	peerKnown bool
	peerAudio bool
	peerVideo bool

	warning string
	ended   bool
	reason  call.EndReason
}

type (
	noticeMsg      call.Notice
	sessionDoneMsg struct{}
	tickMsg        time.Time
)

func newCallModel(ctrl *call.Controller) *callModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &callModel{
		ctrl:    ctrl,
		spinner: s,
		phase:   ctrl.Phase(),
		now:     time.Now(),
	}
}

func (m *callModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen(), m.tick())
}

// listen waits for the next call notice, or for the session to finish.
func (m *callModel) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-m.ctrl.Notices():
			return noticeMsg(n)
		case <-m.ctrl.Done():
			return sessionDoneMsg{}
		}
	}
}

func (m *callModel) tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *callModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "m":
			m.ctrl.SetAudioEnabled(!m.ctrl.AudioEnabled())
		case "v":
			m.ctrl.SetVideoEnabled(!m.ctrl.VideoEnabled())
		case "q", "ctrl+c":
			// Hanging up ends the session; quit follows on Done.
			m.ctrl.End()
		}
		return m, nil

	case noticeMsg:
		switch msg.Kind {
		case call.NoticePhase:
			m.phase = msg.Phase
			if msg.Phase == call.PhaseConnected && m.connectedAt.IsZero() {
				m.connectedAt = time.Now()
			}
		case call.NoticePeerTracks:
			m.peerKnown = true
			m.peerAudio = msg.Audio
			m.peerVideo = msg.Video
		case call.NoticeWarning:
			m.warning = msg.Text
		case call.NoticeEnded:
			m.reason = msg.Reason
		}
		return m, m.listen()

	case sessionDoneMsg:
		m.ended = true
		m.reason = m.ctrl.EndedReason()
		return m, tea.Quit

	case tickMsg:
		m.now = time.Time(msg)
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *callModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s BLT Call: %s", IconCall, m.ctrl.RoomID())))
	b.WriteString("\n")

	switch {
	case m.ended:
		b.WriteString(MutedStyle.Render(fmt.Sprintf("Call over: %s", m.reason)))
	case m.phase == call.PhaseConnected:
		b.WriteString(SuccessStyle.Render(fmt.Sprintf("● In call · %s", m.duration())))
	default:
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), phaseLabel(m.phase)))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("You:  %s %s\n", trackIcon(m.ctrl.AudioEnabled(), IconMicOn, IconMicOff), trackIcon(m.ctrl.VideoEnabled(), IconCamOn, IconCamOff)))
	if m.peerKnown {
		b.WriteString(fmt.Sprintf("Peer: %s %s\n", trackIcon(m.peerAudio, IconMicOn, IconMicOff), trackIcon(m.peerVideo, IconCamOn, IconCamOff)))
	}

	if m.warning != "" {
		b.WriteString("\n" + WarningStyle.Render(IconWarning+" "+m.warning) + "\n")
	}

	b.WriteString("\n" + MutedStyle.Render("m mic · v camera · q hang up"))

	return BoxStyle.Render(b.String()) + "\n"
}

func (m *callModel) duration() string {
	if m.connectedAt.IsZero() {
		return "00:00"
	}
	d := m.now.Sub(m.connectedAt).Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func trackIcon(on bool, onIcon, offIcon string) string {
	if on {
		return onIcon
	}
	return offIcon
}

func phaseLabel(p call.Phase) string {
	switch p {
	case call.PhaseJoining:
		return "Joining room..."
	case call.PhaseWaitingForPeer:
		return "Waiting for the other participant..."
	case call.PhaseHaveLocalOffer, call.PhaseHaveRemoteOffer:
		return "Negotiating connection..."
	}
	return p.String()
}

// RunCallView runs the live call view until the session ends and
// returns why it ended.
func RunCallView(ctrl *call.Controller) (call.EndReason, error) {
	p := tea.NewProgram(newCallModel(ctrl))
	if _, err := p.Run(); err != nil {
		return call.EndReasonNone, err
	}

	// The UI can exit before the session does; make sure the call is
	// torn down either way. End is idempotent.
	ctrl.End()
	<-ctrl.Done()

	return ctrl.EndedReason(), nil
}
