package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reviq-scraper/models"
	"reviq-scraper/utils"

	"github.com/jmoiron/sqlx"
)

// searchOffsets expand around the target date: exact day first, then one
// day either side, out to three. Covers a full week, so a property with
// any data that week always matches.
var searchOffsets = []int{0, -1, 1, -2, 2, -3, 3}

// HistoryReader looks up prior-year reference rows in the old_records
// table. Read-only.
type HistoryReader struct {
	db     *sqlx.DB
	logger *utils.Logger
}

// NewHistoryReader creates a new HistoryReader
func NewHistoryReader(db *sqlx.DB, logger *utils.Logger) *HistoryReader {
	return &HistoryReader{db: db, logger: logger}
}

// FindSameDayLastYear returns the historical row nearest to recordDate
// minus 365 days, or nil when the property has nothing within three days
// of it. Absence is not an error; it must never abort the current row.
func (r *HistoryReader) FindSameDayLastYear(ctx context.Context, propertyID int64, recordDate time.Time) (*models.HistoricalRecord, error) {
	target := recordDate.AddDate(0, 0, -365)

	for _, offset := range searchOffsets {
		searchDate := target.AddDate(0, 0, offset)

		var rec models.HistoricalRecord
		err := r.db.GetContext(ctx, &rec, `
			SELECT property_id, date, dow, occupancy, adr, revenue
			FROM old_records
			WHERE property_id = $1
			  AND date = $2
			LIMIT 1`,
			propertyID, searchDate.Format("2006-01-02"))
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch historical data for property %d: %w", propertyID, err)
		}

		if offset != 0 {
			r.logger.Debug("Historical match for property %d on %s at offset %+d days",
				propertyID, searchDate.Format("2006-01-02"), offset)
		}
		return &rec, nil
	}

	r.logger.Debug("No historical data for property %d within 3 days of %s",
		propertyID, target.Format("2006-01-02"))
	return nil, nil
}
