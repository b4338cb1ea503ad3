package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"vpnspeed/internal/storage"
	"vpnspeed/internal/storage/models"
	pkgerrors "vpnspeed/pkg/errors"
)

// dbHandle is the common interface between *sql.DB and *sql.Tx.
type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A run is written by a single goroutine; one connection also keeps
	// ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	storage := &DB{db: db}

	// Run migrations
	if err := runMigrations(storage); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) handle() dbHandle { return d.db }

// BeginTx starts a new transaction
func (d *DB) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx implements the Transaction interface
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error    { return t.tx.Commit() }
func (t *Tx) Rollback() error  { return t.tx.Rollback() }
func (t *Tx) handle() dbHandle { return t.tx }

func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *Tx) Close() error { return nil }

// ─── Run operations ─────────────────────────────────────────────────────────

// SaveRun stores a run and its location results atomically.
func (d *DB) SaveRun(ctx context.Context, run *models.Run) error {
	tx, err := d.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := tx.SaveRun(ctx, run); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
func (t *Tx) SaveRun(ctx context.Context, run *models.Run) error {
	return saveRun(ctx, t.handle(), run)
}

func saveRun(ctx context.Context, h dbHandle, run *models.Run) error {
	query := `
		INSERT INTO runs (id, machine_name, os, baseline_mbps, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			machine_name = excluded.machine_name,
			os = excluded.os,
			baseline_mbps = excluded.baseline_mbps,
			finished_at = excluded.finished_at
	`
	_, err := h.ExecContext(ctx, query,
		run.ID, run.MachineName, run.OS, run.BaselineMbps, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := h.ExecContext(ctx, "DELETE FROM location_results WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("failed to replace location results: %w", err)
	}

	for i, loc := range run.Locations {
		loc.RunID = run.ID
		if err := insertLocationResult(ctx, h, i, loc); err != nil {
			return err
		}
	}
	return nil
}

func insertLocationResult(ctx context.Context, h dbHandle, position int, loc *models.LocationResult) error {
	query := `
		INSERT INTO location_results (run_id, position, name, country, city, avg_connect_seconds,
		                              avg_mbps, successes, rounds, tested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := h.ExecContext(ctx, query,
		loc.RunID, position, loc.Name, loc.Country, loc.City, loc.AvgConnectSeconds,
		loc.AvgMbps, loc.Successes, loc.Rounds, loc.TestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save location result: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	loc.ID = id
	return nil
}

func (d *DB) GetRun(ctx context.Context, id string) (*models.Run, error) {
	return getRun(ctx, d.handle(), id)
}
func (t *Tx) GetRun(ctx context.Context, id string) (*models.Run, error) {
	return getRun(ctx, t.handle(), id)
}

func getRun(ctx context.Context, h dbHandle, id string) (*models.Run, error) {
	query := `
		SELECT id, machine_name, os, baseline_mbps, started_at, finished_at
		FROM runs WHERE id = ?
	`
	run := &models.Run{}
	err := h.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.MachineName, &run.OS, &run.BaselineMbps, &run.StartedAt, &run.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	locations, err := queryLocationResults(ctx, h, `
		SELECT id, run_id, name, country, city, avg_connect_seconds, avg_mbps, successes, rounds, tested_at
		FROM location_results
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, err
	}
	run.Locations = locations
	return run, nil
}

func (d *DB) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	return listRuns(ctx, d.handle(), limit)
}
func (t *Tx) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	return listRuns(ctx, t.handle(), limit)
}

func listRuns(ctx context.Context, h dbHandle, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, machine_name, os, baseline_mbps, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := h.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		err := rows.Scan(
			&run.ID, &run.MachineName, &run.OS, &run.BaselineMbps, &run.StartedAt, &run.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ─── Location history ───────────────────────────────────────────────────────

func (d *DB) GetLocationHistory(ctx context.Context, name string, limit int) ([]*models.LocationResult, error) {
	return getLocationHistory(ctx, d.handle(), name, limit)
}
func (t *Tx) GetLocationHistory(ctx context.Context, name string, limit int) ([]*models.LocationResult, error) {
	return getLocationHistory(ctx, t.handle(), name, limit)
}

func getLocationHistory(ctx context.Context, h dbHandle, name string, limit int) ([]*models.LocationResult, error) {
	return queryLocationResults(ctx, h, `
		SELECT id, run_id, name, country, city, avg_connect_seconds, avg_mbps, successes, rounds, tested_at
		FROM location_results
		WHERE name = ?
		ORDER BY tested_at DESC
		LIMIT ?
	`, name, limit)
}

func queryLocationResults(ctx context.Context, h dbHandle, query string, args ...interface{}) ([]*models.LocationResult, error) {
	rows, err := h.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.LocationResult
	for rows.Next() {
		loc := &models.LocationResult{}
		err := rows.Scan(
			&loc.ID, &loc.RunID, &loc.Name, &loc.Country, &loc.City,
			&loc.AvgConnectSeconds, &loc.AvgMbps, &loc.Successes, &loc.Rounds, &loc.TestedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, loc)
	}
	return results, rows.Err()
}

// ─── Settings operations ────────────────────────────────────────────────────

func (d *DB) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, d.handle(), key)
}
func (t *Tx) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, t.handle(), key)
}

func getSetting(ctx context.Context, h dbHandle, key string) (string, error) {
	var value string
	err := h.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", pkgerrors.ErrSettingNotFound, key)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, d.handle(), key, value)
}
func (t *Tx) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, t.handle(), key, value)
}

func setSetting(ctx context.Context, h dbHandle, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := h.ExecContext(ctx, query, key, value)
	return err
}

func (d *DB) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, d.handle())
}
func (t *Tx) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, t.handle())
}

func getAllSettings(ctx context.Context, h dbHandle) (map[string]string, error) {
	rows, err := h.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}
