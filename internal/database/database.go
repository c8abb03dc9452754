package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fleetlab/ota-server/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Config holds database configuration options
type Config struct {
	// DatabasePath is the file path to the SQLite database
	// Example: "./data/ota.db" or ":memory:" for an in-memory database
	DatabasePath string

	// LogLevel sets GORM logging verbosity
	// Silent = no logs, Error = errors only, Warn = warnings + errors, Info = all queries
	LogLevel logger.LogLevel

	// MaxIdleConns sets the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxOpenConns sets the maximum number of open connections to the database
	MaxOpenConns int

	// ConnMaxLifetime sets the maximum amount of time a connection may be reused
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns sensible default configuration for production
func DefaultConfig(dbPath string) *Config {
	return &Config{
		DatabasePath:    dbPath,
		LogLevel:        logger.Warn,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
	}
}

// TestConfig returns configuration suitable for testing (in-memory database).
// The pool is pinned to a single connection: every connection to ":memory:"
// opens its own independent database.
func TestConfig() *Config {
	return &Config{
		DatabasePath:    ":memory:",
		LogLevel:        logger.Silent,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Minute * 30,
	}
}

// InitDB initializes the database connection and runs migrations.
// Returns a GORM DB instance or an error if initialization fails.
func InitDB(config *Config) (*gorm.DB, error) {
	if config == nil {
		config = DefaultConfig("./data/ota.db")
	}

	// Create database directory if it doesn't exist (for file-based databases)
	if config.DatabasePath != ":memory:" {
		dir := filepath.Dir(config.DatabasePath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
		NowFunc: func() time.Time {
			// All GORM timestamps use UTC
			return time.Now().UTC()
		},
	}

	// Open SQLite via the pure-Go driver (modernc.org/sqlite), no CGO needed
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: config.DatabasePath}, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database at %s: %w", config.DatabasePath, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	// SQLite disables foreign keys by default
	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign key constraints: %w", err)
	}

	// Write-Ahead Logging for better concurrency; non-fatal if unavailable
	_ = db.Exec("PRAGMA journal_mode = WAL;").Error

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// runMigrations executes GORM AutoMigrate for all models
func runMigrations(db *gorm.DB) error {
	// Order matters: create referenced tables first
	if err := db.AutoMigrate(
		&models.Label{},
		&models.Device{},
		&models.DeviceLabel{},
		&models.Firmware{},
		&models.Rollout{},
		&models.Schedule{},
		&models.DownloadLog{},
	); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	if err := createCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to create custom indexes: %w", err)
	}

	return nil
}

// createCustomIndexes creates indexes that aren't automatically created by GORM tags
func createCustomIndexes(db *gorm.DB) error {
	indexes := []string{
		// Targeting queries filter on eligibility on every check-in
		"CREATE INDEX IF NOT EXISTS idx_rollouts_eligible ON rollouts(status, is_active);",

		// Audit queries page the log per device, newest first
		"CREATE INDEX IF NOT EXISTS idx_download_log_device_created ON download_log(device_id, created_at);",

		// Fleet overview sorts devices by recency
		"CREATE INDEX IF NOT EXISTS idx_devices_last_seen ON devices(last_seen);",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create index: %w (SQL: %s)", err, indexSQL)
		}
	}

	return nil
}

// Close gracefully closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	return nil
}

// Ping checks if the database connection is alive
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying SQL database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
