package storage

import (
	"fmt"
	"time"

	"reviq-scraper/models"
	"reviq-scraper/utils"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store bundles the two database handles: sqlx for the read side
// (platforms, properties, historical store, statistics) and GORM for the
// write side (pricing records, scraping runs).
type Store struct {
	SQL *sqlx.DB
	ORM *gorm.DB
	log *utils.Logger
}

// Open connects both handles against the same DSN and pings the database
func Open(dsn string, logger *utils.Logger) (*Store, error) {
	sqlDB, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)

	ormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open DB (gorm): %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &Store{SQL: sqlDB, ORM: ormDB, log: logger}, nil
}

// EnsureSchema creates the scraper-owned tables if they don't exist. The
// rest of the schema (properties, platforms, old_records) belongs to the
// surrounding application.
func (s *Store) EnsureSchema() error {
	if err := s.ORM.AutoMigrate(&models.ScrapeRun{}, &models.PricingRecord{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	s.log.Info("Tables 'scraping_runs' and 'update_records' are ready")
	return nil
}

// Close closes the database connections
func (s *Store) Close() {
	if s.SQL != nil {
		_ = s.SQL.Close()
	}
	if s.ORM != nil {
		if db, err := s.ORM.DB(); err == nil {
			_ = db.Close()
		}
	}
}
