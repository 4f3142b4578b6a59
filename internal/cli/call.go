package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/OWASP-BLT/BLT-sub001/internal/call"
	"github.com/OWASP-BLT/BLT-sub001/internal/config"
	"github.com/OWASP-BLT/BLT-sub001/internal/media"
	"github.com/OWASP-BLT/BLT-sub001/internal/ui"
)

// Flags shared by host and join.
var (
	flagDomain   string
	flagInsecure bool
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagRelay    bool
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.Options{
		Domain:     flagDomain,
		Insecure:   flagInsecure,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagRelay,
	})
	if err != nil {
		return nil, call.NewError("load config", err)
	}
	return cfg, nil
}

// openCapture acquires the local media before any room is touched, per
// the call startup order: no capture, no call.
func openCapture() (*media.Capture, error) {
	capture, err := media.Open(media.NewSilenceSource(), media.NewBlankVideoSource())
	if err != nil {
		return nil, call.WrapError("open media", call.ErrMediaDenied, err.Error())
	}
	return capture, nil
}

// fetchRoomID asks the server to mint a room ID; when the server is
// unreachable for minting we fall back to a locally generated opaque ID
// (the room is created on first join either way).
func fetchRoomID(cfg *config.Config) string {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(cfg.RoomsURL(), "application/json", nil)
	if err == nil {
		defer resp.Body.Close()
		var body struct {
			RoomID string `json:"room_id"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) == nil && body.RoomID != "" {
			return body.RoomID
		}
	}
	return uuid.NewString()[:8]
}

// runCall dials the room and drives the call UI to completion.
func runCall(cfg *config.Config, roomID string, capture *media.Capture) error {
	displayICEServers(cfg)

	stopSpinner := ui.RunConnectionSpinner("Connecting to server...")
	ctrl, err := call.Dial(cfg, roomID, capture)
	stopSpinner()
	if err != nil {
		if errors.Is(err, call.ErrRoomFull) {
			return fmt.Errorf("this call already has two participants (room %s)", roomID)
		}
		return err
	}

	started := time.Now()
	reason, err := ui.RunCallView(ctrl)
	if err != nil {
		return call.NewError("call view", err)
	}

	fmt.Println()
	ui.RenderCallSummary(ui.CallSummary{
		RoomID:   roomID,
		Duration: time.Since(started).Round(time.Second).String(),
		Outcome:  reason.String(),
	})

	return nil
}

func displayICEServers(cfg *config.Config) {
	var rows []ui.ICEServerRow
	for _, u := range cfg.STUNServers() {
		rows = append(rows, ui.ICEServerRow{Kind: "STUN", URL: u})
	}
	for _, u := range cfg.TURNServers() {
		rows = append(rows, ui.ICEServerRow{Kind: "TURN", URL: u})
	}
	ui.RenderICEServers(rows)
	fmt.Println()
}

func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagDomain, "domain", "d", "", "Custom signaling server domain")
	cmd.Flags().BoolVar(&flagInsecure, "insecure", false, "Use ws/http instead of wss/https")
	cmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	cmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server (e.g. turn:turn.example.org)")
	cmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	cmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
	cmd.Flags().BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode")
}
