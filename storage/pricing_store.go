package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviq-scraper/models"
	"reviq-scraper/services"
	"reviq-scraper/utils"

	"gorm.io/gorm"
)

// UpsertOutcome reports whether an upsert created a new row or replaced an
// existing one.
type UpsertOutcome int

const (
	OutcomeInserted UpsertOutcome = iota + 1
	OutcomeUpdated
)

// BatchResult is the tally of one property batch.
type BatchResult struct {
	Inserted int
	Updated  int
	Failed   int
}

// PersistenceError reports one row's write failing. It is logged and
// excluded from counts; the rest of the batch continues.
type PersistenceError struct {
	PropertyID int64
	Date       time.Time
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save record for property %d on %s: %v",
		e.PropertyID, e.Date.Format("2006-01-02"), e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// recordColumns are the mutable fields rewritten on every update; last
// write wins, including writing NULL over a previous value.
var recordColumns = []string{
	"scraping_run_id", "record_timestamp", "day_of_week",
	"algo_output_price", "standard_price", "standard_previous_price",
	"standard_price_change", "competitor_set_avg_price",
	"occupancy", "forecasted_occupancy", "on_the_books_occ", "updated_by_rm",
	"revenue_per_room", "ly_occupancy", "ly_adr",
	"arrivals_forecast", "departure_forecast",
	"total_rooms", "ooo", "otb_rooms", "avl_rooms",
	"updated_at",
}

// PricingStore persists canonical pricing records into update_records,
// keyed (property_id, record_date).
type PricingStore struct {
	db     *gorm.DB
	logger *utils.Logger
}

// NewPricingStore creates a new PricingStore
func NewPricingStore(db *gorm.DB, logger *utils.Logger) *PricingStore {
	return &PricingStore{db: db, logger: logger}
}

// Upsert inserts the record, or updates the existing row for the same
// (property, date). On update, the previously stored standard_price
// becomes the record's previous price and the price change is recomputed
// against it, so re-running ingestion yields the delta relative to what
// was stored, not to the export's own previous-price cell. Safe to call
// repeatedly for the same key; never creates a duplicate.
func (s *PricingStore) Upsert(ctx context.Context, rec *models.PricingRecord) (UpsertOutcome, error) {
	return s.upsert(s.db.WithContext(ctx), rec)
}

func (s *PricingStore) upsert(tx *gorm.DB, rec *models.PricingRecord) (UpsertOutcome, error) {
	var existing models.PricingRecord
	err := tx.
		Where("property_id = ? AND record_date = ?", rec.PropertyID, rec.RecordDate).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := tx.Create(rec).Error; err != nil {
			return 0, &PersistenceError{PropertyID: rec.PropertyID, Date: rec.RecordDate, Err: err}
		}
		return OutcomeInserted, nil
	}
	if err != nil {
		return 0, &PersistenceError{PropertyID: rec.PropertyID, Date: rec.RecordDate, Err: err}
	}

	// Work on a copy so the caller's record is never rewritten
	up := *rec
	if existing.StandardPrice != nil {
		up.StandardPreviousPrice = existing.StandardPrice
		up.StandardPriceChange = services.PriceChange(up.StandardPrice, existing.StandardPrice)
	}

	up.ID = existing.ID
	up.CreatedAt = existing.CreatedAt
	up.UpdatedAt = time.Now()

	err = tx.Model(&models.PricingRecord{}).
		Where("id = ?", existing.ID).
		Select(recordColumns).
		Updates(&up).Error
	if err != nil {
		return 0, &PersistenceError{PropertyID: rec.PropertyID, Date: rec.RecordDate, Err: err}
	}
	return OutcomeUpdated, nil
}

// BatchUpsert applies Upsert to each record inside one transaction per
// property batch. A single row's failure is rolled back to a savepoint,
// logged, and counted as failed; the remaining rows still commit.
func (s *PricingStore) BatchUpsert(ctx context.Context, recs []*models.PricingRecord) (BatchResult, error) {
	var result BatchResult
	if len(recs) == 0 {
		return result, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, rec := range recs {
			sp := fmt.Sprintf("sp_row_%d", i)
			tx.SavePoint(sp)

			outcome, err := s.upsert(tx, rec)
			if err != nil {
				tx.RollbackTo(sp)
				s.logger.Warn("%v", err)
				result.Failed++
				continue
			}

			switch outcome {
			case OutcomeInserted:
				result.Inserted++
			case OutcomeUpdated:
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to commit batch: %w", err)
	}

	s.logger.Info("Saved %d/%d records (%d inserted, %d updated, %d failed)",
		result.Inserted+result.Updated, len(recs), result.Inserted, result.Updated, result.Failed)
	return result, nil
}
