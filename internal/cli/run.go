package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vpnspeed/internal/app"
	"vpnspeed/internal/config"
	"vpnspeed/internal/results"
	"vpnspeed/internal/storage/models"
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("repeat", "r", 0, "rounds per location (default from settings, 5)")
	cmd.Flags().String("locations", "", "locations file (default "+config.DefaultLocationsFile+")")
	cmd.Flags().String("aliases", "", "VPN alias file (default "+config.DefaultAliasesFile+")")
	cmd.Flags().StringP("output-dir", "o", "", "directory for result and log files (default .)")
}

// runOptions builds the run options from the flags of cmd. Flags left unset
// keep the environment and database settings.
func runOptions(cmd *cobra.Command) app.RunOptions {
	opts := app.RunOptions{
		Console:  os.Stderr,
		Progress: printProgress(cmd),
	}
	if cmd.Flags().Changed("repeat") {
		opts.Repeats, _ = cmd.Flags().GetInt("repeat")
	}
	opts.LocationsFile, _ = cmd.Flags().GetString("locations")
	opts.AliasesFile, _ = cmd.Flags().GetString("aliases")
	opts.OutputDir, _ = cmd.Flags().GetString("output-dir")
	return opts
}

func runTests(cmd *cobra.Command, args []string) error {
	opts := runOptions(cmd)
	if opts.Repeats < 0 {
		return fmt.Errorf("--repeat must be positive")
	}

	run, err := appInstance.RunOnce(cmd.Context(), opts)
	if run != nil {
		printSummary(cmd, run)
	}
	return err
}

func printProgress(cmd *cobra.Command) func(config.Location, *models.LocationResult, int, int) {
	out := cmd.OutOrStdout()
	return func(loc config.Location, result *models.LocationResult, current, total int) {
		if result == nil {
			fmt.Fprintf(out, "  [%d/%d] %-35s %s\n", current, total,
				truncateName(loc.Name(), 35), errorStyle.Render("FAILED"))
			return
		}
		fmt.Fprintf(out, "  [%d/%d] %-35s %s  %s\n", current, total,
			truncateName(loc.Name(), 35),
			results.FormatSeconds(result.AvgConnectSeconds),
			mbpsStyle(result.AvgMbps).Render(results.FormatMbps(result.AvgMbps)))
	}
}

func printSummary(cmd *cobra.Command, run *models.Run) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Results"))
	fmt.Fprintf(out, "Without VPN: %s\n\n", mbpsStyle(run.BaselineMbps).Render(results.FormatMbps(run.BaselineMbps)))
	if len(run.Locations) == 0 {
		fmt.Fprintln(out, dimStyle.Render("No location could be measured."))
		return
	}
	fmt.Fprintln(out, locationTable(run.Locations, false))
}

func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	return name[:maxLen-3] + "..."
}
