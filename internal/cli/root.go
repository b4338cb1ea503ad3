package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"vpnspeed/internal/app"
	"vpnspeed/internal/config"
)

var (
	appInstance *app.App
	version     = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vpnspeed",
	Short: "Measure VPN connection time and throughput per location",
	Long: `vpnspeed measures how long the VPN client takes to connect to each
configured location and the download speed it delivers there.

  Quick start:
    vpnspeed                       # one run with locations.json and vpn_aliases.json
    vpnspeed -r 3 -o results/      # three rounds per location, output to results/
    vpnspeed history "Tokyo, Japan"
    vpnspeed schedule --every 6h

  Every run measures a baseline speed without the VPN, then connects to
  each location several times, and writes results_<timestamp>.json plus a
  vpnspeed_<timestamp>.log next to it.`,
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTests,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return ensureApp(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Cleanup
		if appInstance != nil {
			err := appInstance.Close()
			appInstance = nil
			return err
		}
		return nil
	},
}

// Execute executes the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ensureApp initializes appInstance from the environment, letting the
// persistent flags override it. Completion functions may run without
// PersistentPreRunE, so they call it too.
func ensureApp(cmd *cobra.Command) error {
	if appInstance != nil {
		return nil
	}
	settings := config.LoadSettings()
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		settings.DBPath = db
	}
	if cmd.Flags().Changed("log-level") {
		settings.LogLevel, _ = cmd.Flags().GetString("log-level")
	}

	var err error
	appInstance, err = app.New(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "database path")

	addRunFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vpnspeed %s\n", version)
	},
}
