// Package paths resolves where vpnspeed keeps its run history.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "vpnspeed"

// DataDir returns $XDG_DATA_HOME/vpnspeed, or ~/.local/share/vpnspeed when
// XDG_DATA_HOME is unset or not absolute, creating it if needed.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if !filepath.IsAbs(base) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// DBPath returns the default history database inside DataDir.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".db"), nil
}
