//go:build windows

package sysinfo

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func describeOS() string {
	v := windows.RtlGetVersion()
	return join("Windows", fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber))
}
