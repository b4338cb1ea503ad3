package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vpnspeed/internal/logging"
	"vpnspeed/internal/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the tests repeatedly until interrupted",
	Long: `Run the tests now and then every --every interval until interrupted.

A run that takes longer than the interval delays the next one; runs never
overlap. Each run writes its own result and log files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		every, _ := cmd.Flags().GetDuration("every")
		opts := runOptions(cmd)

		logger, err := logging.NewConsole(os.Stderr, appInstance.Settings.LogLevel)
		if err != nil {
			return err
		}

		s, err := schedule.NewScheduler(every, func(ctx context.Context) error {
			run, err := appInstance.RunOnce(ctx, opts)
			if run != nil {
				printSummary(cmd, run)
			}
			return err
		}, logger)
		if err != nil {
			return err
		}

		logger.Infof("Running tests every %s, press Ctrl+C to stop", every)
		return s.Wait(cmd.Context())
	},
}

func init() {
	scheduleCmd.Flags().Duration("every", 6*time.Hour, "interval between run starts")
	addRunFlags(scheduleCmd)
	rootCmd.AddCommand(scheduleCmd)
}
