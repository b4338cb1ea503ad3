package storage

import (
	"context"

	"vpnspeed/internal/storage/models"
)

// Storage defines the interface for run history persistence
type Storage interface {
	// Run operations
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error) // newest first, without location results

	// Location history
	GetLocationHistory(ctx context.Context, name string, limit int) ([]*models.LocationResult, error)

	// Settings operations
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetAllSettings(ctx context.Context) (map[string]string, error)

	// Transactions
	BeginTx(ctx context.Context) (Transaction, error)

	// Close closes the storage connection
	Close() error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}

// Setting keys understood by the bench runner.
const (
	SettingRepeatTests             = "repeat_tests"
	SettingBaselineRetries         = "baseline_retries"
	SettingRetryDelaySeconds       = "retry_delay_seconds"
	SettingSettleSeconds           = "settle_seconds"
	SettingDisconnectSettleSeconds = "disconnect_settle_seconds"
)
