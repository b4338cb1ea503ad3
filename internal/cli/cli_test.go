package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vpnspeed/internal/app"
	"vpnspeed/internal/config"
	"vpnspeed/internal/storage/models"
)

// execute runs the root command with args against a database in dir and
// returns its standard output.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--db", filepath.Join(dir, "vpnspeed.db")))
	err := rootCmd.ExecuteContext(context.Background())
	// PersistentPostRunE does not run when a command fails.
	if appInstance != nil {
		appInstance.Close()
		appInstance = nil
	}
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, t.TempDir(), "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "vpnspeed dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestSettingsCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "settings")
	if err != nil {
		t.Fatalf("settings error = %v", err)
	}
	for _, key := range settingKeys {
		if !strings.Contains(out, key) {
			t.Errorf("settings output missing %s:\n%s", key, out)
		}
	}

	if _, err := execute(t, dir, "settings", "repeat_tests", "3"); err != nil {
		t.Fatalf("settings set error = %v", err)
	}
	out, err = execute(t, dir, "settings", "repeat_tests")
	if err != nil {
		t.Fatalf("settings get error = %v", err)
	}
	if strings.TrimSpace(out) != "3" {
		t.Errorf("repeat_tests = %q, want 3", out)
	}

	if _, err := execute(t, dir, "settings", "repeat_tests", "zero"); err == nil {
		t.Error("settings accepted a non-numeric repeat count")
	}
	if _, err := execute(t, dir, "settings", "no_such_key"); err == nil {
		t.Error("settings returned a value for an unknown key")
	}
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "vpnspeed.db")

	out, err := execute(t, dir, "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No test runs recorded yet.") {
		t.Errorf("history output = %q", out)
	}

	a, err := app.New(config.Settings{DBPath: dbPath})
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	run := &models.Run{ID: "0123456789abcdef", MachineName: "bench-host", OS: "Linux 6.1.0", BaselineMbps: 93.12, StartedAt: started}
	run.AddLocation(&models.LocationResult{
		Name: "Tokyo, Japan", Country: "Japan", City: "Tokyo",
		AvgConnectSeconds: 2.5, AvgMbps: 41, Successes: 3, Rounds: 5, TestedAt: started,
	})
	if err := a.Storage.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	a.Close()

	out, err = execute(t, dir, "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	for _, want := range []string{"01234567", "bench-host", "93.12 Mbps"} {
		if !strings.Contains(out, want) {
			t.Errorf("history output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, dir, "history", "Tokyo, Japan")
	if err != nil {
		t.Fatalf("history location error = %v", err)
	}
	for _, want := range []string{"Tokyo, Japan", "2.50 sec", "41.00 Mbps", "3/5"} {
		if !strings.Contains(out, want) {
			t.Errorf("location history missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, dir, "history", "show", run.ID)
	if err != nil {
		t.Fatalf("history show error = %v", err)
	}
	if !strings.Contains(out, "41.00 Mbps") {
		t.Errorf("history show output:\n%s", out)
	}
}

func TestCompleteSettingKeys(t *testing.T) {
	got, _ := completeSettingKeys(rootCmd, nil, "re")
	want := []string{"repeat_tests", "retry_delay_seconds"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("completeSettingKeys(re) = %v, want %v", got, want)
	}
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("United States - New Jersey - 1", 12); got != "United St..." {
		t.Errorf("truncateName() = %q", got)
	}
	if got := truncateName("Tokyo", 12); got != "Tokyo" {
		t.Errorf("truncateName() = %q", got)
	}
}

func TestCompletionCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "completion", "bash")
	if err != nil {
		t.Fatalf("completion error = %v", err)
	}
	if !strings.Contains(out, "vpnspeed") {
		t.Errorf("completion script does not mention vpnspeed")
	}
	if _, err := os.Stat(filepath.Join(dir, "vpnspeed.db")); !os.IsNotExist(err) {
		t.Errorf("completion opened the history database: %v", err)
	}

	if _, err := execute(t, dir, "completion", "tcsh"); err == nil {
		t.Error("completion accepted an unsupported shell")
	}
}
