//go:build unix

package sysinfo

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func describeOS() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOOS
	}
	return join(unix.ByteSliceToString(uts.Sysname[:]), unix.ByteSliceToString(uts.Release[:]))
}
