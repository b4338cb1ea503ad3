// Package metrics exports Prometheus metrics describing probe outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for exporting to prometheus. Runs are short-lived, so they are
// published through the node_exporter textfile collector (see WriteTextfile)
// instead of an HTTP endpoint.
var (
	ConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vpnspeed_connect_attempts_total",
			Help: "Number of VPN connect attempts by result (ok, failed, no_alias).",
		},
		[]string{"result"},
	)
	ConnectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vpnspeed_connect_duration_seconds",
			Help:    "Time taken by successful VPN connect commands.",
			Buckets: []float64{.5, 1, 1.5, 2, 2.5, 3, 4, 5, 7.5, 10, 15, 20, 30, 60},
		},
	)
	SpeedtestAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vpnspeed_speedtest_attempts_total",
			Help: "Number of speed test attempts by result (ok, rate_limited, parse_error).",
		},
		[]string{"result"},
	)
	DownloadMbps = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vpnspeed_download_mbps",
			Help: "A histogram of measured download rates.",
			Buckets: []float64{
				1, 5, 10, 25, 50, 75, 100,
				150, 200, 300, 400, 500,
				750, 1000, 2500},
		},
		[]string{"mode"},
	)
	LocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vpnspeed_locations_total",
			Help: "Number of tested locations by outcome (measured, failed).",
		},
		[]string{"outcome"},
	)
	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vpnspeed_runs_total",
			Help: "Number of completed test runs.",
		},
	)
)

// WriteTextfile writes every registered metric to path in the text
// exposition format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
