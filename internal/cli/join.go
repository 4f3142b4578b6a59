package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OWASP-BLT/BLT-sub001/internal/call"
	"github.com/OWASP-BLT/BLT-sub001/internal/ui"
)

var joinCmd = &cobra.Command{
	Use:     "join <room-id|link>",
	Aliases: []string{"j"},
	Short:   "Join a call from a shared link",
	Long: `Join an existing call using the room ID or the full call link.

Examples:
  bltcall join amber-falcon-harbor
  bltcall join "https://blt.owasp.org/call?room=amber-falcon-harbor"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := ParseRoomRef(args[0])
		if err != nil {
			return err
		}
		return joinCall(roomID)
	},
}

func joinCall(roomID string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	capture, err := openCapture()
	if err != nil {
		return err
	}
	defer capture.Close()

	fmt.Println()
	return runCall(cfg, roomID, capture)
}

// ParseRoomRef accepts either a bare room ID or a shared call link with
// the room ID in the "room" query parameter.
func ParseRoomRef(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("room ID cannot be empty")
	}

	if strings.Contains(input, "://") || strings.Contains(input, "?") {
		parsed, err := url.Parse(input)
		if err != nil {
			return "", call.NewError("parse link", err)
		}
		if roomID := parsed.Query().Get("room"); roomID != "" {
			ui.PrintSuccessf("Extracted room ID: %s", roomID)
			return roomID, nil
		}
		return "", fmt.Errorf("no room parameter in link: %s", input)
	}

	return input, nil
}

func init() {
	rootCmd.AddCommand(joinCmd)
	addConnectionFlags(joinCmd)
}
