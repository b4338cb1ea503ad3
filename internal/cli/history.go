package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"vpnspeed/internal/results"
	"vpnspeed/internal/storage/models"
)

var historyCmd = &cobra.Command{
	Use:   "history [location]",
	Short: "Show past runs or a location's past averages",
	Long: `Show recent test runs, or the averages recorded for one location.

The location is named the way results name it, e.g. "Tokyo, Japan".`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeLocationNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			history, err := appInstance.Storage.GetLocationHistory(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintf(out, "No history for %s\n", args[0])
				return nil
			}
			fmt.Fprintln(out, titleStyle.Render("History: "+args[0]))
			fmt.Fprintln(out, locationTable(history, true))
			return nil
		}

		runs, err := appInstance.Storage.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No test runs recorded yet.")
			return nil
		}
		fmt.Fprintln(out, titleStyle.Render("Recent runs"))
		fmt.Fprintln(out, runTable(runs))
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the locations measured in one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := appInstance.Storage.GetRun(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("run %s: %w", args[0], err)
		}
		printSummary(cmd, run)
		return nil
	},
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// locationTable renders location averages; withTime adds the test time.
func locationTable(locations []*models.LocationResult, withTime bool) string {
	headers := []string{"LOCATION", "CONNECT", "SPEED", "ROUNDS"}
	if withTime {
		headers = append([]string{"TESTED"}, headers...)
	}
	t := newTable(headers...)
	for _, loc := range locations {
		row := []string{
			loc.Name,
			results.FormatSeconds(loc.AvgConnectSeconds),
			results.FormatMbps(loc.AvgMbps),
			fmt.Sprintf("%d/%d", loc.Successes, loc.Rounds),
		}
		if withTime {
			row = append([]string{loc.TestedAt.Local().Format("2006-01-02 15:04")}, row...)
		}
		t.Row(row...)
	}
	return t.String()
}

func runTable(runs []*models.Run) string {
	t := newTable("STARTED", "RUN", "MACHINE", "OS", "WITHOUT VPN")
	for _, run := range runs {
		t.Row(
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			shortID(run.ID),
			run.MachineName,
			run.OS,
			results.FormatMbps(run.BaselineMbps),
		)
	}
	return t.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of history entries")

	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
