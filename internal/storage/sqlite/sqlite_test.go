package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/m-lab/go/rtx"

	"vpnspeed/internal/storage"
	"vpnspeed/internal/storage/models"
	pkgerrors "vpnspeed/pkg/errors"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "vpnspeed.db"))
	rtx.Must(err, "Could not open database")
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRun(id string, started time.Time) *models.Run {
	finished := started.Add(10 * time.Minute)
	run := &models.Run{
		ID:           id,
		MachineName:  "bench-01",
		OS:           "Linux 6.1.0",
		BaselineMbps: 93.12,
		StartedAt:    started,
		FinishedAt:   &finished,
	}
	run.AddLocation(&models.LocationResult{
		Name: "Tokyo, Japan", Country: "Japan", City: "Tokyo",
		AvgConnectSeconds: 2.5, AvgMbps: 41, Successes: 3, Rounds: 5, TestedAt: started,
	})
	run.AddLocation(&models.LocationResult{
		Name: "Toronto, Canada", Country: "Canada", City: "Toronto",
		AvgConnectSeconds: 1.75, AvgMbps: 80.5, Successes: 5, Rounds: 5, TestedAt: started,
	})
	return run
}

var timeEqual = cmp.Comparer(func(a, b time.Time) bool { return a.Equal(b) })

func TestDB_SaveAndGetRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	run := sampleRun("run-1", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	rtx.Must(db.SaveRun(ctx, run), "Could not save run")

	got, err := db.GetRun(ctx, "run-1")
	rtx.Must(err, "Could not get run")

	if diff := cmp.Diff(run, got, timeEqual, cmpopts.IgnoreFields(models.LocationResult{}, "ID")); diff != "" {
		t.Errorf("GetRun() mismatch (-want +got):\n%s", diff)
	}
	if got.Locations[0].Name != "Tokyo, Japan" {
		t.Errorf("location order not preserved: %v", got.Locations[0].Name)
	}
}

func TestDB_SaveRunReplacesLocations(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	run := sampleRun("run-1", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	rtx.Must(db.SaveRun(ctx, run), "Could not save run")
	run.Locations = run.Locations[:1]
	rtx.Must(db.SaveRun(ctx, run), "Could not save run again")

	got, err := db.GetRun(ctx, "run-1")
	rtx.Must(err, "Could not get run")
	if len(got.Locations) != 1 {
		t.Errorf("got %d locations, want 1", len(got.Locations))
	}
}

func TestDB_GetRunNotFound(t *testing.T) {
	_, err := newTestDB(t).GetRun(context.Background(), "missing")
	if !errors.Is(err, pkgerrors.ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestDB_ListRunsAndHistory(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		rtx.Must(db.SaveRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))), "Could not save %s", id)
	}

	runs, err := db.ListRuns(ctx, 2)
	rtx.Must(err, "Could not list runs")
	if len(runs) != 2 || runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Errorf("ListRuns() = %v, want newest two", runIDs(runs))
	}

	history, err := db.GetLocationHistory(ctx, "Tokyo, Japan", 10)
	rtx.Must(err, "Could not get history")
	if len(history) != 3 {
		t.Fatalf("GetLocationHistory() returned %d entries, want 3", len(history))
	}
	if history[0].RunID != "run-c" {
		t.Errorf("newest history entry from %s, want run-c", history[0].RunID)
	}

	none, err := db.GetLocationHistory(ctx, "Nowhere, Atlantis", 10)
	rtx.Must(err, "Could not get history")
	if len(none) != 0 {
		t.Errorf("expected no history, got %d", len(none))
	}
}

func runIDs(runs []*models.Run) []string {
	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestDB_Settings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	value, err := db.GetSetting(ctx, storage.SettingRepeatTests)
	rtx.Must(err, "Could not get default setting")
	if value != "5" {
		t.Errorf("default %s = %q, want 5", storage.SettingRepeatTests, value)
	}

	rtx.Must(db.SetSetting(ctx, storage.SettingRepeatTests, "3"), "Could not set setting")
	value, err = db.GetSetting(ctx, storage.SettingRepeatTests)
	rtx.Must(err, "Could not get setting")
	if value != "3" {
		t.Errorf("%s = %q, want 3", storage.SettingRepeatTests, value)
	}

	if _, err := db.GetSetting(ctx, "nope"); !errors.Is(err, pkgerrors.ErrSettingNotFound) {
		t.Errorf("GetSetting(nope) error = %v, want ErrSettingNotFound", err)
	}

	all, err := db.GetAllSettings(ctx)
	rtx.Must(err, "Could not get all settings")
	for _, key := range []string{
		storage.SettingRepeatTests,
		storage.SettingBaselineRetries,
		storage.SettingRetryDelaySeconds,
		storage.SettingSettleSeconds,
		storage.SettingDisconnectSettleSeconds,
	} {
		if _, ok := all[key]; !ok {
			t.Errorf("GetAllSettings() missing %s", key)
		}
	}
}

func TestTx_Rollback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	tx, err := db.BeginTx(ctx)
	rtx.Must(err, "Could not begin transaction")
	rtx.Must(tx.SaveRun(ctx, sampleRun("run-tx", time.Now().UTC())), "Could not save in transaction")
	rtx.Must(tx.Rollback(), "Could not roll back")

	if _, err := db.GetRun(ctx, "run-tx"); !errors.Is(err, pkgerrors.ErrRunNotFound) {
		t.Errorf("run visible after rollback: %v", err)
	}

	tx, err = db.BeginTx(ctx)
	rtx.Must(err, "Could not begin transaction")
	defer tx.Rollback()
	if _, err := tx.BeginTx(ctx); err == nil {
		t.Error("nested BeginTx should fail")
	}
}
