package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(dbPath string) (*gorm.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Case{},
		&Order{},
		&ScrapeRun{},
	); err != nil {
		return err
	}

	return createIndexes(db)
}

// createIndexes creates database indexes
func createIndexes(db *gorm.DB) error {
	// Unique natural-key index. Case type is deliberately excluded:
	// the reconciler's lookup degrades to (diary, court, district)
	// when case type is unknown, and a concurrent insert race must be
	// rejected here regardless of which side knew the case type.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cases_natural_key
		ON cases(diary_number, court, district)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_orders_case_source
		ON orders(case_id, source_url)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_scrape_runs_started
		ON scrape_runs(started_at)
	`).Error; err != nil {
		return err
	}

	return nil
}
