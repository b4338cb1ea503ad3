// Package bench runs a full measurement: a baseline speed test without the
// VPN, then repeated connect-and-measure rounds for every location.
package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"vpnspeed/internal/config"
	"vpnspeed/internal/metrics"
	"vpnspeed/internal/storage/models"
	"vpnspeed/internal/sysinfo"
	"vpnspeed/internal/vpn"
	"vpnspeed/internal/wait"
)

// VPN is the VPN client surface the tester drives.
type VPN interface {
	Status(ctx context.Context) vpn.Status
	ConnectionTime(ctx context.Context, country, city string, maxRetries int) (float64, error)
	Disconnect(ctx context.Context) string
	SetNetworkLock(ctx context.Context, on bool) string
}

// SpeedProbe measures download throughput in Mbps; 0 means it could not.
type SpeedProbe interface {
	Measure(ctx context.Context, maxRetries int) float64
}

// Saver persists a finished run.
type Saver interface {
	Save(ctx context.Context, run *models.Run) error
}

// ProgressFunc is called each time a location completes. result is nil when
// no round of the location succeeded.
type ProgressFunc func(loc config.Location, result *models.LocationResult, current, total int)

// TesterConfig holds configuration for the Tester.
type TesterConfig struct {
	Repeats         int           // rounds per location
	BaselineRetries int           // speed test attempts without VPN
	RoundRetries    int           // connect and speed test attempts within a round
	SettleDelay     time.Duration // after the initial disconnect and network lock change
	DisconnectDelay time.Duration // after every round's disconnect

	// Sleep and Now default to real time.
	Sleep wait.SleepFunc
	Now   func() time.Time
}

// DefaultTesterConfig returns default tester configuration
func DefaultTesterConfig() TesterConfig {
	return TesterConfig{
		Repeats:         5,
		BaselineRetries: 3,
		RoundRetries:    1,
		SettleDelay:     3 * time.Second,
		DisconnectDelay: 5 * time.Second,
	}
}

// Tester orchestrates a test run.
type Tester struct {
	vpn    VPN
	speed  SpeedProbe
	saver  Saver
	log    log.Interface
	config TesterConfig
}

// NewTester creates a new Tester.
func NewTester(client VPN, speed SpeedProbe, saver Saver, logger log.Interface, cfg TesterConfig) *Tester {
	defaults := DefaultTesterConfig()
	if cfg.Repeats <= 0 {
		cfg.Repeats = defaults.Repeats
	}
	if cfg.BaselineRetries <= 0 {
		cfg.BaselineRetries = defaults.BaselineRetries
	}
	if cfg.RoundRetries <= 0 {
		cfg.RoundRetries = defaults.RoundRetries
	}
	if cfg.Sleep == nil {
		cfg.Sleep = wait.Sleep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Tester{
		vpn:    client,
		speed:  speed,
		saver:  saver,
		log:    logger,
		config: cfg,
	}
}

// Run measures the baseline and every location, persists the run and
// restores the VPN client's network lock. Cancelling ctx skips the remaining
// work; whatever was measured so far is still saved and the cleanup commands
// still run. The returned error reports a failed save only.
func (t *Tester) Run(ctx context.Context, info sysinfo.Info, locations []config.Location, progress ProgressFunc) (*models.Run, error) {
	run := &models.Run{
		ID:          uuid.NewString(),
		MachineName: info.MachineName,
		OS:          info.OS,
		Locations:   []*models.LocationResult{},
		StartedAt:   t.config.Now(),
	}
	t.log.WithFields(log.Fields{
		"run":       run.ID,
		"locations": len(locations),
	}).Info("Starting test run")

	t.measure(ctx, run, locations, progress)

	if ctx.Err() != nil {
		t.log.WithError(ctx.Err()).Warn("Test run interrupted, saving partial results")
	}
	finished := t.config.Now()
	run.FinishedAt = &finished

	// Persistence and cleanup must happen even after an interrupt.
	cleanupCtx := context.WithoutCancel(ctx)
	var saveErr error
	if err := t.saver.Save(cleanupCtx, run); err != nil {
		t.log.WithError(err).Error("Failed to save results")
		saveErr = fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	t.vpn.Disconnect(cleanupCtx)
	t.vpn.SetNetworkLock(cleanupCtx, true)

	metrics.RunsTotal.Inc()
	return run, saveErr
}

func (t *Tester) measure(ctx context.Context, run *models.Run, locations []config.Location, progress ProgressFunc) {
	// Ensure VPN is disconnected before starting tests
	if t.vpn.Status(ctx) != vpn.StatusDisconnected {
		t.log.Info("Disconnecting VPN before starting tests...")
		t.vpn.Disconnect(ctx)
		if t.config.Sleep(ctx, t.config.SettleDelay) != nil {
			return
		}
	}

	run.BaselineMbps = t.speed.Measure(ctx, t.config.BaselineRetries)
	observeMbps("baseline", run.BaselineMbps)
	t.log.Infof("Speed without VPN: %.2f Mbps", run.BaselineMbps)

	// The speed test needs network access while a session is up or
	// being torn down.
	t.vpn.SetNetworkLock(ctx, false)
	if t.config.Sleep(ctx, t.config.SettleDelay) != nil {
		return
	}

	for i, loc := range locations {
		if ctx.Err() != nil {
			return
		}
		result, ok := t.TestLocation(ctx, loc)
		if ok {
			result.TestedAt = run.StartedAt
			run.AddLocation(result)
		} else {
			result = nil
		}
		if progress != nil {
			progress(loc, result, i+1, len(locations))
		}
	}
}

// TestLocation runs the configured number of rounds against one location
// and averages the successful ones. It returns false when no round connected.
func (t *Tester) TestLocation(ctx context.Context, loc config.Location) (*models.LocationResult, bool) {
	logger := t.log.WithFields(log.Fields{"country": loc.Country, "city": loc.City})
	logger.Infof("Testing VPN for %s...", loc.Name())

	var samples []Sample
	rounds := 0
	for i := 0; i < t.config.Repeats; i++ {
		if ctx.Err() != nil {
			break
		}
		rounds++
		logger.Infof("Running test %d/%d for %s...", i+1, t.config.Repeats, loc.Name())

		seconds, err := t.vpn.ConnectionTime(ctx, loc.Country, loc.City, t.config.RoundRetries)
		if err == nil {
			mbps := t.speed.Measure(ctx, t.config.RoundRetries)
			if ctx.Err() != nil {
				// The speed test was killed; its 0 is not a measurement.
				rounds--
				t.vpn.Disconnect(context.WithoutCancel(ctx))
				break
			}
			observeMbps("vpn", mbps)
			samples = append(samples, Sample{ConnectSeconds: seconds, Mbps: mbps})
		} else {
			logger.WithError(err).Debug("Round skipped")
		}

		// A connect attempt may leave a session behind even when it failed.
		t.vpn.Disconnect(context.WithoutCancel(ctx))
		t.config.Sleep(ctx, t.config.DisconnectDelay)
	}

	result, ok := Aggregate(loc, samples, rounds)
	if !ok {
		metrics.LocationsTotal.WithLabelValues("failed").Inc()
		logger.Warnf("No successful rounds for %s, leaving it out of the results", loc.Name())
		return nil, false
	}
	metrics.LocationsTotal.WithLabelValues("measured").Inc()
	logger.Infof("%s: %.2f sec to connect, %.2f Mbps (%d/%d rounds)",
		loc.Name(), result.AvgConnectSeconds, result.AvgMbps, result.Successes, rounds)
	return result, true
}

// observeMbps records a measured rate; 0 means nothing was measured.
func observeMbps(mode string, mbps float64) {
	if mbps > 0 {
		metrics.DownloadMbps.WithLabelValues(mode).Observe(mbps)
	}
}
