// Package sysinfo describes the machine a run executes on.
package sysinfo

import (
	"os"
	"strings"
)

// Info identifies the test machine in run results.
type Info struct {
	MachineName string
	OS          string // e.g. "Linux 6.1.0-18-amd64"
}

// Collect gathers the host name and OS descriptor. Lookups that fail
// produce "unknown" rather than an error.
func Collect() Info {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return Info{
		MachineName: host,
		OS:          describeOS(),
	}
}

func join(system, release string) string {
	return strings.TrimSpace(system + " " + release)
}
