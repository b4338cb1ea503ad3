package speedtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"vpnspeed/internal/logging"
	"vpnspeed/internal/metrics"
	"vpnspeed/internal/shell"
	"vpnspeed/internal/wait"
	pkgerrors "vpnspeed/pkg/errors"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		output string
		want   bool
	}{
		{"403 Forbidden", true},
		{"ERROR: HTTP Error 403: Forbidden", true},
		{"Cannot retrieve speedtest configuration\n403", true},
		{`{"download": 40312345.6, "upload": 1403.5}`, false},
		{`{"download": 50000000}`, false},
		{"Invalid JSON", false},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			if got := IsRateLimited(tt.output); got != tt.want {
				t.Errorf("IsRateLimited(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr bool
	}{
		{name: "integer bits", output: `{"download": 50000000}`, want: 50.0},
		{name: "rounds to two decimals", output: `{"download": 93456789.12, "upload": 1000, "ping": 12.3}`, want: 93.46},
		{name: "zero", output: `{"download": 0}`, want: 0},
		{name: "not json", output: "Invalid JSON", wantErr: true},
		{name: "empty", output: "", wantErr: true},
		{name: "no download field", output: `{"upload": 1000}`, wantErr: true},
		{name: "download not numeric", output: `{"download": {}}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.output)
			if tt.wantErr {
				if !errors.Is(err, pkgerrors.ErrSpeedtestParse) {
					t.Fatalf("Parse(%q) error = %v, want ErrSpeedtestParse", tt.output, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.output, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}

func TestProbe_Measure(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		retries    int
		want       float64
		wantRuns   int
		wantSleeps int
	}{
		{name: "well formed", output: `{"download": 50000000}`, retries: 3, want: 50.0, wantRuns: 1},
		{name: "invalid json", output: "Invalid JSON", retries: 3, want: 0, wantRuns: 3, wantSleeps: 2},
		{name: "rate limited", output: "403 Forbidden", retries: 3, want: 0, wantRuns: 3, wantSleeps: 2},
		{name: "single attempt", output: "403 Forbidden", retries: 1, want: 0, wantRuns: 1},
		{name: "report with a 403 field", output: `{"download": 52000000, "upload": 9000000, "ping": 403}`, retries: 3, want: 52.0, wantRuns: 1},
		{name: "zero retries still runs once", output: `{"download": 1000000}`, retries: 0, want: 1.0, wantRuns: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := 0
			runner := shell.RunnerFunc(func(_ context.Context, command string) string {
				runs++
				if command != "speedtest --json" {
					t.Errorf("command = %q", command)
				}
				return tt.output
			})
			sleeper := &wait.Recorder{}
			p := New(runner, WithLogger(logging.Discard()), WithSleep(sleeper.Sleep))

			if got := p.Measure(context.Background(), tt.retries); got != tt.want {
				t.Errorf("Measure() = %v, want %v", got, tt.want)
			}
			if runs != tt.wantRuns {
				t.Errorf("ran %d times, want %d", runs, tt.wantRuns)
			}
			if len(sleeper.Slept) != tt.wantSleeps {
				t.Errorf("slept %d times, want %d", len(sleeper.Slept), tt.wantSleeps)
			}
			for _, d := range sleeper.Slept {
				if d != 5*time.Second {
					t.Errorf("slept %v, want 5s", d)
				}
			}
		})
	}
}

func TestProbe_MeasureRecoversAfterRateLimit(t *testing.T) {
	outputs := []string{"403 Forbidden", "garbage", `{"download": 42000000}`}
	runner := shell.RunnerFunc(func(context.Context, string) string {
		out := outputs[0]
		outputs = outputs[1:]
		return out
	})

	before := testutil.ToFloat64(metrics.SpeedtestAttempts.WithLabelValues("rate_limited"))
	p := New(runner, WithLogger(logging.Discard()), WithSleep((&wait.Recorder{}).Sleep))
	if got := p.Measure(context.Background(), 3); got != 42.0 {
		t.Errorf("Measure() = %v, want 42.0", got)
	}
	if after := testutil.ToFloat64(metrics.SpeedtestAttempts.WithLabelValues("rate_limited")); after != before+1 {
		t.Errorf("rate_limited counter = %v, want %v", after, before+1)
	}
}

func TestProbe_MeasureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := shell.RunnerFunc(func(context.Context, string) string { return "Invalid JSON" })
	p := New(runner, WithLogger(logging.Discard()), WithCommand("speedtest --json"))
	if got := p.Measure(ctx, 3); got != 0 {
		t.Errorf("Measure() = %v, want 0", got)
	}
}
