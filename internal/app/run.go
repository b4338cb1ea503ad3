package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/m-lab/go/warnonerror"

	"vpnspeed/internal/bench"
	"vpnspeed/internal/config"
	"vpnspeed/internal/logging"
	"vpnspeed/internal/metrics"
	"vpnspeed/internal/results"
	"vpnspeed/internal/shell"
	"vpnspeed/internal/speedtest"
	"vpnspeed/internal/storage"
	"vpnspeed/internal/storage/models"
	"vpnspeed/internal/sysinfo"
	"vpnspeed/internal/vpn"
	"vpnspeed/internal/wait"
)

// RunOptions overrides settings for a single run. Zero values keep the
// environment and database settings.
type RunOptions struct {
	Repeats       int
	LocationsFile string
	AliasesFile   string
	OutputDir     string
	Console       io.Writer
	Progress      bench.ProgressFunc

	// Runner, Sleep and Now replace the real shell and clock in tests.
	Runner shell.Runner
	Sleep  wait.SleepFunc
	Now    func() time.Time
}

// RunOnce performs one complete test run: it opens the run's log file,
// loads the location and alias files, measures everything and writes the
// results file and the database rows.
func (a *App) RunOnce(ctx context.Context, opts RunOptions) (*models.Run, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now().Format(logging.StampLayout)

	outputDir := firstNonEmpty(opts.OutputDir, a.Settings.OutputDir)
	logger, closer, err := logging.New(logging.Options{
		Dir:     outputDir,
		Stamp:   stamp,
		Level:   firstNonEmpty(a.Settings.LogLevel, "info"),
		Console: opts.Console,
	})
	if err != nil {
		return nil, err
	}
	defer warnonerror.Close(closer, "Could not close log file")

	cfg := a.TesterConfig(ctx)
	if opts.Repeats > 0 {
		cfg.Repeats = opts.Repeats
	}
	cfg.Sleep = opts.Sleep
	cfg.Now = opts.Now
	retryDelay := a.durationSetting(ctx, storage.SettingRetryDelaySeconds, 5*time.Second)

	locations := config.LoadLocations(logger, firstNonEmpty(opts.LocationsFile, a.Settings.LocationsFile, config.DefaultLocationsFile))
	aliases := config.LoadAliases(logger, firstNonEmpty(opts.AliasesFile, a.Settings.AliasesFile, config.DefaultAliasesFile))

	runner := opts.Runner
	if runner == nil {
		runner = shell.NewExec(logger)
	}
	vpnOpts := []vpn.Option{
		vpn.WithCommand(firstNonEmpty(a.Settings.VPNCommand, config.DefaultVPNCommand)),
		vpn.WithRetryDelay(retryDelay),
		vpn.WithLogger(logger),
	}
	probeOpts := []speedtest.Option{
		speedtest.WithCommand(firstNonEmpty(a.Settings.SpeedtestCommand, config.DefaultSpeedtestCommand)),
		speedtest.WithRetryDelay(retryDelay),
		speedtest.WithLogger(logger),
	}
	if opts.Sleep != nil {
		vpnOpts = append(vpnOpts, vpn.WithSleep(opts.Sleep))
		probeOpts = append(probeOpts, speedtest.WithSleep(opts.Sleep))
	}

	saver := bench.Savers{
		&results.Saver{Dir: outputDir, Stamp: stamp, Log: logger},
		historySaver{a.Storage},
	}
	tester := bench.NewTester(
		vpn.New(runner, aliases, vpnOpts...),
		speedtest.New(runner, probeOpts...),
		saver, logger, cfg)

	run, err := tester.Run(ctx, sysinfo.Collect(), locations, opts.Progress)

	if a.Settings.MetricsFile != "" {
		if merr := metrics.WriteTextfile(a.Settings.MetricsFile); merr != nil {
			logger.WithError(merr).Warn("Could not write metrics file")
		}
	}
	logger.WithFields(log.Fields{
		"run":       run.ID,
		"measured":  len(run.Locations),
		"locations": len(locations),
	}).Info("Test run finished")
	return run, err
}

// historySaver records runs in the history database.
type historySaver struct {
	store storage.Storage
}

// Save implements bench.Saver.
func (h historySaver) Save(ctx context.Context, run *models.Run) error {
	if err := h.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run history: %w", err)
	}
	return nil
}

// Status reports the VPN client's connection state.
func (a *App) Status(ctx context.Context, logger log.Interface) vpn.Status {
	client := vpn.New(shell.NewExec(logger), nil,
		vpn.WithCommand(firstNonEmpty(a.Settings.VPNCommand, config.DefaultVPNCommand)),
		vpn.WithLogger(logger))
	return client.Status(ctx)
}

// TesterConfig reads the tester configuration from the settings table,
// falling back to the defaults for missing or malformed values.
func (a *App) TesterConfig(ctx context.Context) bench.TesterConfig {
	cfg := bench.DefaultTesterConfig()
	cfg.Repeats = a.intSetting(ctx, storage.SettingRepeatTests, cfg.Repeats)
	cfg.BaselineRetries = a.intSetting(ctx, storage.SettingBaselineRetries, cfg.BaselineRetries)
	cfg.SettleDelay = a.durationSetting(ctx, storage.SettingSettleSeconds, cfg.SettleDelay)
	cfg.DisconnectDelay = a.durationSetting(ctx, storage.SettingDisconnectSettleSeconds, cfg.DisconnectDelay)
	return cfg
}

func (a *App) intSetting(ctx context.Context, key string, def int) int {
	val, err := a.Storage.GetSetting(ctx, key)
	if err != nil {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func (a *App) durationSetting(ctx context.Context, key string, def time.Duration) time.Duration {
	secs := a.intSetting(ctx, key, -1)
	if secs < 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

// ValidateSetting checks that value is acceptable for key.
func ValidateSetting(key, value string) error {
	switch key {
	case storage.SettingRepeatTests, storage.SettingBaselineRetries:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
	case storage.SettingRetryDelaySeconds, storage.SettingSettleSeconds, storage.SettingDisconnectSettleSeconds:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative number of seconds, got %q", key, value)
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
