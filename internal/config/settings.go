package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Settings holds the environment-driven configuration of vpnspeed.
//
// Env:
//
//	VPNSPEED_LOCATIONS, VPNSPEED_ALIASES, VPNSPEED_OUTPUT_DIR, VPNSPEED_VPN_CLI,
//	VPNSPEED_SPEEDTEST_CMD, VPNSPEED_LOG_LEVEL, VPNSPEED_DB, VPNSPEED_METRICS_FILE
type Settings struct {
	LocationsFile    string
	AliasesFile      string
	OutputDir        string
	VPNCommand       string
	SpeedtestCommand string
	LogLevel         string
	DBPath           string // empty selects the default data directory
	MetricsFile      string // empty disables the textfile export
}

// Default file names and commands.
const (
	DefaultLocationsFile    = "locations.json"
	DefaultAliasesFile      = "vpn_aliases.json"
	DefaultVPNCommand       = "expressvpn"
	DefaultSpeedtestCommand = "speedtest --json"
)

// LoadSettings reads settings from the environment, first loading ./.env
// when present. Variables already set in the environment win over .env.
func LoadSettings() Settings {
	_ = loadDotEnv()
	return Settings{
		LocationsFile:    getenv("VPNSPEED_LOCATIONS", DefaultLocationsFile),
		AliasesFile:      getenv("VPNSPEED_ALIASES", DefaultAliasesFile),
		OutputDir:        getenv("VPNSPEED_OUTPUT_DIR", "."),
		VPNCommand:       getenv("VPNSPEED_VPN_CLI", DefaultVPNCommand),
		SpeedtestCommand: getenv("VPNSPEED_SPEEDTEST_CMD", DefaultSpeedtestCommand),
		LogLevel:         getenv("VPNSPEED_LOG_LEVEL", "info"),
		DBPath:           os.Getenv("VPNSPEED_DB"),
		MetricsFile:      os.Getenv("VPNSPEED_METRICS_FILE"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}
