package sqlite

const schema = `
-- Test runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    machine_name TEXT NOT NULL,
    os TEXT NOT NULL,
    baseline_mbps REAL NOT NULL DEFAULT 0,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);

-- Per-location averages of a run
CREATE TABLE IF NOT EXISTS location_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    country TEXT NOT NULL,
    city TEXT NOT NULL,
    avg_connect_seconds REAL NOT NULL,
    avg_mbps REAL NOT NULL,
    successes INTEGER NOT NULL,
    rounds INTEGER NOT NULL,
    tested_at TIMESTAMP NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- Application settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_location_results_run_id ON location_results(run_id);
CREATE INDEX IF NOT EXISTS idx_location_results_name ON location_results(name);

-- Triggers for updated_at
CREATE TRIGGER IF NOT EXISTS update_settings_timestamp AFTER UPDATE ON settings
BEGIN
    UPDATE settings SET updated_at = CURRENT_TIMESTAMP WHERE key = NEW.key;
END;
`

const defaultData = `
-- Insert default settings
INSERT OR IGNORE INTO settings (key, value) VALUES
    ('repeat_tests', '5'),
    ('baseline_retries', '3'),
    ('retry_delay_seconds', '5'),
    ('settle_seconds', '3'),
    ('disconnect_settle_seconds', '5');
`

// RunMigrations executes the database schema and default data
func runMigrations(db *DB) error {
	// Execute schema
	if _, err := db.db.Exec(schema); err != nil {
		return err
	}

	// Insert default data
	if _, err := db.db.Exec(defaultData); err != nil {
		return err
	}

	return nil
}
