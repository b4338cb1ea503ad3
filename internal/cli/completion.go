package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"vpnspeed/internal/config"
	"vpnspeed/internal/logging"
	"vpnspeed/internal/storage"
)

var settingKeys = []string{
	storage.SettingRepeatTests,
	storage.SettingBaselineRetries,
	storage.SettingRetryDelaySeconds,
	storage.SettingSettleSeconds,
	storage.SettingDisconnectSettleSeconds,
}

// completeLocationNames provides shell completion for the configured locations.
func completeLocationNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	if err := ensureApp(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	file := appInstance.Settings.LocationsFile
	if file == "" {
		file = config.DefaultLocationsFile
	}

	var completions []string
	for _, loc := range config.LoadLocations(logging.Discard(), file) {
		if strings.HasPrefix(strings.ToLower(loc.Name()), strings.ToLower(toComplete)) {
			completions = append(completions, loc.Name())
		}
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeSettingKeys provides shell completion for setting keys.
func completeSettingKeys(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	for _, key := range settingKeys {
		if strings.HasPrefix(key, toComplete) {
			completions = append(completions, key)
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
