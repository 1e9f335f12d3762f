package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
)

// SetupDatabase initializes the database connection and runs migrations
func SetupDatabase(logger *logrus.Logger, cfg Config) (*gorm.DB, error) {
	logger.WithField("driver", cfg.Driver).Debug("Starting database setup")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		return OpenSQLite(logger, cfg.Path)
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	if err := RunMigrations(logger, cfg, projectRoot); err != nil {
		return nil, err
	}

	version, dirty, err := MigrationStatus(logger, cfg, projectRoot)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("Database schema migrated")

	logger.Debug("Establishing GORM database connection")

	db, err := gorm.Open(postgres.Open(cfg.postgresDSN()), &gorm.Config{
		Logger: NewGormLogrusLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	logger.Info("Database setup completed successfully")
	return db, nil
}

// OpenSQLite opens a SQLite database for local runs and tests. The pool is pinned to a
// single connection so an in-memory database survives between queries.
func OpenSQLite(logger *logrus.Logger, path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewGormLogrusLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	logger.WithField("path", path).Debug("SQLite database ready")
	return db, nil
}

// AutoMigrate brings the schema in line with the models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.WatchedAccount{}, &models.Item{}, &models.Draft{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}
	return nil
}
