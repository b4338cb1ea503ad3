package app

import (
	"fmt"

	"vpnspeed/internal/config"
	"vpnspeed/internal/paths"
	"vpnspeed/internal/storage"
	"vpnspeed/internal/storage/sqlite"
)

// App represents the application context
type App struct {
	Storage  storage.Storage
	Settings config.Settings
	Config   *Config
}

// Config represents application configuration
type Config struct {
	DBPath string
}

// New creates a new application instance. An empty settings.DBPath selects
// the database in the per-user data directory.
func New(settings config.Settings) (*App, error) {
	dbPath := settings.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = paths.DBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// Initialize storage
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &App{
		Storage:  store,
		Settings: settings,
		Config: &Config{
			DBPath: dbPath,
		},
	}, nil
}

// Close closes the application and releases resources
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
