package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	compositeIndex = "idx_documents_subject_start"
	activeIndex    = "idx_documents_active"
)

// Options configures the sqlite document store
type Options struct {
	Path string
	// CreateIndexes builds the composite (subject, start) index during migration.
	// Without it ranged queries fail with models.ErrIndexMissing.
	CreateIndexes bool
	Logger        *slog.Logger
	// LogSQL routes gorm's statement log into Logger at debug level
	LogSQL bool
}

// Open sets up the database connection and runs migrations
func Open(opts Options) (*DocumentStore, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Path != ":memory:" {
		// Ensure the directory exists
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	gormLogger := logger.Default.LogMode(logger.Silent) // Quiet by default
	if opts.LogSQL {
		gormLogger = logger.New(
			slog.NewLogLogger(opts.Logger.Handler(), slog.LevelDebug),
			logger.Config{SlowThreshold: 200 * time.Millisecond, LogLevel: logger.Info},
		)
	}

	gdb, err := gorm.Open(sqlite.Open(opts.Path), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(gdb, opts.CreateIndexes); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DocumentStore{
		db:     gdb,
		logger: opts.Logger.With("store", "documents"),
	}, nil
}

// DefaultPath returns the path to the SQLite database file
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".punchclock", "punchclock.db"), nil
}

// runMigrations creates/updates the database schema
func runMigrations(gdb *gorm.DB, createIndexes bool) error {
	if err := gdb.AutoMigrate(&document{}); err != nil {
		return err
	}

	// At most one open session per (subject, tenant)
	if err := gdb.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS " + activeIndex +
			" ON documents (subject_id, tenant_id) WHERE ended_at IS NULL",
	).Error; err != nil {
		return err
	}

	if createIndexes {
		return gdb.Exec(
			"CREATE INDEX IF NOT EXISTS " + compositeIndex +
				" ON documents (subject_id, started_at, id)",
		).Error
	}
	return nil
}

// Close closes the database connection
func (s *DocumentStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
