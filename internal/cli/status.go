package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vpnspeed/internal/logging"
	"vpnspeed/internal/vpn"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the VPN client's connection status",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := logging.NewConsole(os.Stderr, "warn")
		if err != nil {
			return err
		}

		status := appInstance.Status(cmd.Context(), logger)
		var pill string
		switch status {
		case vpn.StatusConnected:
			pill = connectedPillStyle.Render("CONNECTED")
		case vpn.StatusDisconnected:
			pill = disconnectedPillStyle.Render("DISCONNECTED")
		default:
			pill = unknownPillStyle.Render("UNKNOWN")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "VPN: %s\n", pill)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
