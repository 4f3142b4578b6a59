package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/OWASP-BLT/BLT-sub001/internal/ui"
	"github.com/OWASP-BLT/BLT-sub001/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "bltcall",
	Short:   "Peer-to-peer audio/video calls over WebRTC",
	Long:    `bltcall hosts and joins two-person calls: a room on the signaling server pairs exactly two participants, who then negotiate a direct WebRTC media session. Share the call link with one other person and talk.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
