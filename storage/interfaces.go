package storage

import (
	"context"
	"time"

	"reviq-scraper/models"
)

// PricingWriter defines the interface for persisting canonical pricing
// records
type PricingWriter interface {
	Upsert(ctx context.Context, rec *models.PricingRecord) (UpsertOutcome, error)
	BatchUpsert(ctx context.Context, recs []*models.PricingRecord) (BatchResult, error)
}

// RunLedger defines the interface for per-run bookkeeping
type RunLedger interface {
	Start(ctx context.Context, platformID int64, startDate, endDate string, dayCount int) (int64, error)
	Finish(ctx context.Context, runID int64, status models.RunStatus, recordCount int, errText *string) error
}

// HistoricalReader defines the read interface over the prior-year store
type HistoricalReader interface {
	FindSameDayLastYear(ctx context.Context, propertyID int64, recordDate time.Time) (*models.HistoricalRecord, error)
}

var (
	_ PricingWriter    = (*PricingStore)(nil)
	_ RunLedger        = (*RunTracker)(nil)
	_ HistoricalReader = (*HistoryReader)(nil)
)
