// Package speedtest runs the speed-test command-line tool and extracts the
// download rate from its JSON output.
package speedtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/apex/log"

	"vpnspeed/internal/metrics"
	"vpnspeed/internal/shell"
	"vpnspeed/internal/wait"
	pkgerrors "vpnspeed/pkg/errors"
)

const (
	defaultCommand    = "speedtest --json"
	defaultRetryDelay = 5 * time.Second
)

// rateLimitMarker matches the HTTP 403 status the tool prints when the
// speed-test service refuses the client. 403 embedded in a longer number
// does not match.
var rateLimitMarker = regexp.MustCompile(`(^|[^0-9.])403([^0-9.]|$)`)

// Result is the subset of the tool's JSON report that vpnspeed reads.
type Result struct {
	Download *float64 `json:"download"` // bits per second
}

// IsRateLimited reports whether output carries the rate-limit marker. It
// matches a field whose value is exactly 403, so Probe asks only about
// output that Parse rejected.
func IsRateLimited(output string) bool {
	return rateLimitMarker.MatchString(output)
}

// Parse extracts the download rate from JSON output and returns it in Mbps
// rounded to two decimals.
func Parse(output string) (float64, error) {
	var result Result
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		return 0, fmt.Errorf("%w: %v", pkgerrors.ErrSpeedtestParse, err)
	}
	if result.Download == nil {
		return 0, fmt.Errorf("%w: no download field", pkgerrors.ErrSpeedtestParse)
	}
	return math.Round(*result.Download/1_000_000*100) / 100, nil
}

// Probe measures download throughput with the speed-test tool.
type Probe struct {
	runner     shell.Runner
	command    string
	retryDelay time.Duration
	log        log.Interface
	sleep      wait.SleepFunc
}

// Option configures a Probe.
type Option func(*Probe)

// WithCommand sets the speed-test command line, e.g. "speedtest --json".
func WithCommand(command string) Option {
	return func(p *Probe) {
		p.command = command
	}
}

// WithRetryDelay sets the pause between attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(p *Probe) {
		p.retryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Interface) Option {
	return func(p *Probe) {
		p.log = logger
	}
}

// WithSleep replaces the real-time sleep.
func WithSleep(sleep wait.SleepFunc) Option {
	return func(p *Probe) {
		p.sleep = sleep
	}
}

// New creates a Probe.
func New(runner shell.Runner, opts ...Option) *Probe {
	p := &Probe{
		runner:     runner,
		command:    defaultCommand,
		retryDelay: defaultRetryDelay,
		log:        log.Log,
		sleep:      wait.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Measure runs the speed test up to maxRetries times and returns the first
// successful download rate in Mbps. It returns 0 when every attempt is rate
// limited or unparseable; 0 is the "could not measure" value.
func (p *Probe) Measure(ctx context.Context, maxRetries int) float64 {
	mbps, err := p.measure(ctx, maxRetries)
	if err != nil {
		p.log.WithError(err).Error("Speedtest failed after max retries. Skipping.")
		return 0
	}
	return mbps
}

func (p *Probe) measure(ctx context.Context, maxRetries int) (float64, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		output := p.runner.Run(ctx, p.command)

		mbps, err := Parse(output)
		if err == nil {
			metrics.SpeedtestAttempts.WithLabelValues("ok").Inc()
			p.log.Infof("Speedtest completed: %.2f Mbps", mbps)
			return mbps, nil
		}

		if IsRateLimited(output) {
			lastErr = pkgerrors.ErrRateLimited
			metrics.SpeedtestAttempts.WithLabelValues("rate_limited").Inc()
			p.log.Warnf("Attempt %d: Speedtest fails to connect.", attempt)
		} else {
			lastErr = err
			metrics.SpeedtestAttempts.WithLabelValues("parse_error").Inc()
			p.log.WithError(err).Errorf("Attempt %d: Error decoding speedtest JSON output.", attempt)
			p.log.Debugf("Raw Output: %s", output)
		}

		if attempt < maxRetries {
			p.log.Infof("Retrying speedtest in %s... (Attempt %d/%d)", p.retryDelay, attempt+1, maxRetries)
			if err := p.sleep(ctx, p.retryDelay); err != nil {
				return 0, err
			}
		}
	}

	return 0, fmt.Errorf("%w after %d attempts: %v", pkgerrors.ErrSpeedtestFailed, maxRetries, lastErr)
}
