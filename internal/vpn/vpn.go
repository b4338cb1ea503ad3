// Package vpn drives the ExpressVPN command-line client. All knowledge of the
// client's output wording lives here.
package vpn

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/apex/log"

	"vpnspeed/internal/config"
	"vpnspeed/internal/metrics"
	"vpnspeed/internal/shell"
	"vpnspeed/internal/wait"
	pkgerrors "vpnspeed/pkg/errors"
)

const (
	defaultCommand    = "expressvpn"
	defaultMaxRetries = 3
	defaultRetryDelay = 5 * time.Second
)

// Status is the VPN connection state reported by the client.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusUnknown      Status = "unknown"
)

// ClassifyStatus maps the output of the status subcommand to a Status.
// "disconnected" contains "connected", so it must be checked first.
func ClassifyStatus(output string) Status {
	out := strings.ToLower(output)
	switch {
	case strings.Contains(out, "disconnected"):
		return StatusDisconnected
	case strings.Contains(out, "connected"):
		return StatusConnected
	default:
		return StatusUnknown
	}
}

// connectSucceeded reports whether connect output signals an established session.
func connectSucceeded(output string) bool {
	return strings.Contains(strings.ToLower(output), "connected")
}

// Client wraps the VPN command-line client.
type Client struct {
	runner     shell.Runner
	aliases    config.Aliases
	command    string
	retryDelay time.Duration
	log        log.Interface
	sleep      wait.SleepFunc
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithCommand sets the client executable, e.g. "expressvpn".
func WithCommand(command string) Option {
	return func(c *Client) {
		c.command = command
	}
}

// WithRetryDelay sets the pause between connect attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Interface) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// WithSleep replaces the real-time sleep.
func WithSleep(sleep wait.SleepFunc) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithClock replaces time.Now for connection timing.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client that resolves locations through aliases.
func New(runner shell.Runner, aliases config.Aliases, opts ...Option) *Client {
	c := &Client{
		runner:     runner,
		aliases:    aliases,
		command:    defaultCommand,
		retryDelay: defaultRetryDelay,
		log:        log.Log,
		sleep:      wait.Sleep,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.aliases == nil {
		c.aliases = config.Aliases{}
	}
	return c
}

func (c *Client) run(ctx context.Context, args string) string {
	return c.runner.Run(ctx, c.command+" "+args)
}

// Status queries the client for the current connection state.
func (c *Client) Status(ctx context.Context) Status {
	output := c.run(ctx, "status")
	status := ClassifyStatus(output)
	switch status {
	case StatusDisconnected:
		c.log.Info("VPN is currently DISCONNECTED.")
	case StatusConnected:
		c.log.Info("VPN is currently CONNECTED.")
	default:
		c.log.WithField("output", output).Warn("Check if VPN is activated properly")
	}
	return status
}

// Alias returns the client alias for a location.
func (c *Client) Alias(country, city string) (string, bool) {
	return c.aliases.Lookup(country, city)
}

// ConnectionTime connects to the location and returns the seconds the connect
// command took, rounded to two decimals. maxRetries values below 1 are
// treated as 1. A location without an alias fails immediately with
// ErrNoAlias; exhausting every attempt fails with ErrConnectFailed.
func (c *Client) ConnectionTime(ctx context.Context, country, city string, maxRetries int) (float64, error) {
	alias, ok := c.Alias(country, city)
	if !ok {
		c.log.Warnf("No VPN alias found for %s, %s. Skipping...", city, country)
		metrics.ConnectAttempts.WithLabelValues("no_alias").Inc()
		return 0, &pkgerrors.LocationError{Country: country, City: city, Err: pkgerrors.ErrNoAlias}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	logger := c.log.WithField("alias", alias)
	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.Infof("Connecting to %s (Attempt %d/%d)...", alias, attempt, maxRetries)

		start := c.now()
		output := c.run(ctx, "connect "+alias)
		elapsed := c.now().Sub(start)

		if connectSucceeded(output) {
			seconds := round2(elapsed.Seconds())
			logger.Infof("Successfully connected to %s in %.2f sec.", alias, seconds)
			metrics.ConnectAttempts.WithLabelValues("ok").Inc()
			metrics.ConnectDuration.Observe(elapsed.Seconds())
			return seconds, nil
		}

		metrics.ConnectAttempts.WithLabelValues("failed").Inc()
		logger.WithField("output", output).Warnf("Attempt %d: Failed to connect to %s.", attempt, alias)
		if attempt < maxRetries {
			if err := c.sleep(ctx, c.retryDelay); err != nil {
				return 0, &pkgerrors.LocationError{Country: country, City: city, Err: err}
			}
		}
	}

	logger.Errorf("Connection to %s failed after %d attempts. Skipping.", alias, maxRetries)
	return 0, &pkgerrors.LocationError{
		Country: country,
		City:    city,
		Err:     fmt.Errorf("%w after %d attempts", pkgerrors.ErrConnectFailed, maxRetries),
	}
}

// Disconnect ends the current VPN session and returns the client output.
func (c *Client) Disconnect(ctx context.Context) string {
	return c.run(ctx, "disconnect")
}

// SetNetworkLock turns the client's network lock preference on or off.
// With the lock on, the speed test cannot reach the network while a
// session is being torn down or set up.
func (c *Client) SetNetworkLock(ctx context.Context, on bool) string {
	state := "off"
	if on {
		state = "on"
	}
	return c.run(ctx, "preferences set network_lock "+state)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
