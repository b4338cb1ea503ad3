package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vpnspeed/internal/app"
)

var settingsCmd = &cobra.Command{
	Use:   "settings [key] [value]",
	Short: "List, show or change run settings",
	Long: `List, show or change the settings stored in the database.

  vpnspeed settings                    # list all settings
  vpnspeed settings repeat_tests       # show one setting
  vpnspeed settings repeat_tests 3     # change a setting

Command-line flags such as --repeat override these settings for one run.`,
	Args:              cobra.MaximumNArgs(2),
	ValidArgsFunction: completeSettingKeys,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		switch len(args) {
		case 0:
			settings, err := appInstance.Storage.GetAllSettings(ctx)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(settings))
			for k := range settings {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE")
			fmt.Fprintln(w, "---\t-----")
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\n", k, settings[k])
			}
			return w.Flush()

		case 1:
			value, err := appInstance.Storage.GetSetting(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil

		default:
			if err := app.ValidateSetting(args[0], args[1]); err != nil {
				return err
			}
			if err := appInstance.Storage.SetSetting(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s = %s\n", successStyle.Render("✓"), args[0], args[1])
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}
