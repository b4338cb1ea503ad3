package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// VPN errors
	ErrNoAlias       = errors.New("no vpn alias for location")
	ErrConnectFailed = errors.New("vpn connect failed")

	// Speedtest errors
	ErrRateLimited     = errors.New("speedtest rate limited")
	ErrSpeedtestParse  = errors.New("failed to parse speedtest output")
	ErrSpeedtestFailed = errors.New("speedtest failed")

	// Storage errors
	ErrRunNotFound     = errors.New("run not found")
	ErrSettingNotFound = errors.New("setting not found")
)

// LocationError represents a location-related error
type LocationError struct {
	Country string
	City    string
	Err     error
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("location '%s, %s': %v", e.City, e.Country, e.Err)
}

func (e *LocationError) Unwrap() error {
	return e.Err
}

// CommandError represents a failed external command
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command `%s`: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
