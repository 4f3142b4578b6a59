package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OWASP-BLT/BLT-sub001/internal/ui"
)

var hostCmd = &cobra.Command{
	Use:     "host",
	Aliases: []string{"start"},
	Short:   "Start a call and share the link",
	Long: `Start a new call: a fresh room is created and you wait in it until
the other participant opens the link.

Examples:
  bltcall host
  bltcall host --domain calls.example.org
  bltcall host --relay --turn turn:turn.example.org --turn-user u --turn-pass p`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hostCall()
	},
}

func hostCall() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Media first: a call without capture fails before any room state
	// is touched.
	capture, err := openCapture()
	if err != nil {
		return err
	}
	defer capture.Close()

	roomID := fetchRoomID(cfg)

	fmt.Println()
	ui.RenderRoomInfo(roomID, cfg.RoomLink(roomID))
	fmt.Println()

	return runCall(cfg, roomID, capture)
}

func init() {
	rootCmd.AddCommand(hostCmd)
	addConnectionFlags(hostCmd)
}
