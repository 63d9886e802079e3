package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"reviq-scraper/models"
	"reviq-scraper/utils"

	"github.com/jmoiron/sqlx"
)

// StatsReader aggregates store-wide counts for the post-session report.
type StatsReader struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// NewStatsReader creates a new StatsReader
func NewStatsReader(db *sqlx.DB, logger *utils.Logger) *StatsReader {
	return &StatsReader{db: db, logger: logger}
}

// Stats counts properties, platforms, runs and records, plus the most
// recent run's timestamp and status.
func (r *StatsReader) Stats(ctx context.Context) (*models.StoreStats, error) {
	var stats models.StoreStats
	err := r.db.GetContext(ctx, &stats, `
		SELECT
		    (SELECT COUNT(*) FROM properties)                                          AS total_properties,
		    (SELECT COUNT(*) FROM hotel_pms_platforms)                                 AS total_platforms,
		    (SELECT COUNT(*) FROM hotel_pms_platforms WHERE status = 'active')         AS active_platforms,
		    (SELECT COUNT(*) FROM scraping_runs)                                       AS total_runs,
		    (SELECT COUNT(*) FROM scraping_runs WHERE status = 'completed')            AS successful_runs,
		    (SELECT COUNT(*) FROM update_records)                                      AS total_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store statistics: %w", err)
	}

	var last struct {
		StartedAt sql.NullTime   `db:"started_at"`
		Status    sql.NullString `db:"status"`
	}
	err = r.db.GetContext(ctx, &last, `
		SELECT started_at, status
		FROM scraping_runs
		ORDER BY started_at DESC
		LIMIT 1`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch last run: %w", err)
	}
	if last.StartedAt.Valid {
		t := last.StartedAt.Time
		stats.LastRunAt = &t
	}
	if last.Status.Valid {
		stats.LastRunStatus = last.Status.String
	}

	return &stats, nil
}
