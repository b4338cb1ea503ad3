//go:build !unix && !windows

package sysinfo

import "runtime"

func describeOS() string {
	return runtime.GOOS
}
