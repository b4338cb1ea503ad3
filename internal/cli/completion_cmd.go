package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Generate shell completion script",
	Long: `Generate a completion script for bash, zsh, fish or powershell.

Besides subcommands and flags, the script completes:
  vpnspeed history <TAB>     location names from the locations file
  vpnspeed settings <TAB>    setting keys (repeat_tests, settle_seconds, ...)

Load it for the current shell, e.g.:
  source <(vpnspeed completion bash)
  vpnspeed completion fish | source`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	// Completion does not need the history database.
	PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptions, _ := cmd.Flags().GetBool("descriptions")
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, descriptions)
		case "zsh":
			if descriptions {
				return rootCmd.GenZshCompletion(out)
			}
			return rootCmd.GenZshCompletionNoDesc(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, descriptions)
		case "powershell":
			if descriptions {
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
			return rootCmd.GenPowerShellCompletion(out)
		}
		return fmt.Errorf("unsupported shell %q", args[0])
	},
}

func init() {
	completionCmd.Flags().Bool("descriptions", true, "include completion descriptions")
	rootCmd.AddCommand(completionCmd)
}
