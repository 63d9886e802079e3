package storage

import (
	"context"
	"testing"
	"time"

	"reviq-scraper/models"
	"reviq-scraper/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	if err := db.AutoMigrate(&models.ScrapeRun{}, &models.PricingRecord{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

func fv(v float64) *float64 { return &v }

func testRecord(propertyID int64, date time.Time, price float64) *models.PricingRecord {
	return &models.PricingRecord{
		PropertyID:      propertyID,
		RecordTimestamp: time.Now().UTC(),
		RecordDate:      date,
		DayOfWeek:       date.Weekday().String(),
		StandardPrice:   fv(price),
	}
}

func TestUpsertInsertsNewRecord(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	outcome, err := store.Upsert(ctx, testRecord(1, date, 150))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeInserted {
		t.Fatalf("outcome = %v, want OutcomeInserted", outcome)
	}

	var count int64
	store.db.Model(&models.PricingRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("record count = %d, want 1", count)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	if _, err := store.Upsert(ctx, testRecord(1, date, 150)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	outcome, err := store.Upsert(ctx, testRecord(1, date, 150))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("outcome = %v, want OutcomeUpdated", outcome)
	}

	var count int64
	store.db.Model(&models.PricingRecord{}).Count(&count)
	if count != 1 {
		t.Fatalf("record count = %d, want 1 (no duplicate for same key)", count)
	}
}

func TestUpsertRecomputesChangeAgainstStoredPrice(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	if _, err := store.Upsert(ctx, testRecord(1, date, 150)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// The fresh export claims its own previous price; the stored price
	// must win.
	rec := testRecord(1, date, 160)
	rec.StandardPreviousPrice = fv(100)
	rec.StandardPriceChange = fv(60)
	if _, err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var stored models.PricingRecord
	if err := store.db.Where("property_id = ?", 1).First(&stored).Error; err != nil {
		t.Fatalf("failed to read back record: %v", err)
	}
	if stored.StandardPrice == nil || *stored.StandardPrice != 160 {
		t.Errorf("standard price = %v, want 160", stored.StandardPrice)
	}
	if stored.StandardPreviousPrice == nil || *stored.StandardPreviousPrice != 150 {
		t.Errorf("previous price = %v, want 150 (stored value, not export cell)", stored.StandardPreviousPrice)
	}
	if stored.StandardPriceChange == nil || *stored.StandardPriceChange != 10 {
		t.Errorf("price change = %v, want 10", stored.StandardPriceChange)
	}
}

func TestUpsertWritesNullOverOldValue(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	first := testRecord(1, date, 150)
	first.CompetitorSetAvgPrice = fv(170)
	if _, err := store.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := testRecord(1, date, 150)
	if _, err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var stored models.PricingRecord
	if err := store.db.Where("property_id = ?", 1).First(&stored).Error; err != nil {
		t.Fatalf("failed to read back record: %v", err)
	}
	if stored.CompetitorSetAvgPrice != nil {
		t.Errorf("competitor price = %v, want nil (last write wins)", *stored.CompetitorSetAvgPrice)
	}
}

func TestUpsertSeparateKeysStaySeparate(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	if _, err := store.Upsert(ctx, testRecord(1, date, 150)); err != nil {
		t.Fatalf("property 1: %v", err)
	}
	outcome, err := store.Upsert(ctx, testRecord(2, date, 150))
	if err != nil {
		t.Fatalf("property 2: %v", err)
	}
	if outcome != OutcomeInserted {
		t.Fatalf("outcome = %v, want OutcomeInserted for a different property", outcome)
	}

	outcome, err = store.Upsert(ctx, testRecord(1, date.AddDate(0, 0, 1), 150))
	if err != nil {
		t.Fatalf("next day: %v", err)
	}
	if outcome != OutcomeInserted {
		t.Fatalf("outcome = %v, want OutcomeInserted for a different date", outcome)
	}
}

func TestBatchUpsertCountsOutcomes(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	// Pre-existing row for the first date
	if _, err := store.Upsert(ctx, testRecord(1, date, 150)); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	var batch []*models.PricingRecord
	for i := 0; i < 5; i++ {
		batch = append(batch, testRecord(1, date.AddDate(0, 0, i), 160))
	}

	result, err := store.BatchUpsert(ctx, batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inserted != 4 || result.Updated != 1 || result.Failed != 0 {
		t.Fatalf("result = %+v, want 4 inserted, 1 updated, 0 failed", result)
	}

	var count int64
	store.db.Model(&models.PricingRecord{}).Count(&count)
	if count != 5 {
		t.Fatalf("record count = %d, want 5", count)
	}
}

func TestUpsertLeavesCallerRecordUntouched(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	if _, err := store.Upsert(ctx, testRecord(1, date, 150)); err != nil {
		t.Fatalf("seed upsert: %v", err)
	}

	rec := testRecord(1, date, 160)
	rec.StandardPreviousPrice = fv(100)
	rec.StandardPriceChange = fv(60)
	if _, err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	// The stored row gets the recomputed delta; the caller's record keeps
	// its own values.
	if rec.ID != 0 {
		t.Errorf("record ID = %d, want 0", rec.ID)
	}
	if rec.StandardPreviousPrice == nil || *rec.StandardPreviousPrice != 100 {
		t.Errorf("previous price = %v, want 100", rec.StandardPreviousPrice)
	}
	if rec.StandardPriceChange == nil || *rec.StandardPriceChange != 60 {
		t.Errorf("price change = %v, want 60", rec.StandardPriceChange)
	}
}

func TestBatchUpsertIsolatesRowFailures(t *testing.T) {
	db := openTestDB(t)
	// A trigger forces a write failure for one row mid-batch
	err := db.Exec(`
		CREATE TRIGGER reject_negative_price
		BEFORE INSERT ON update_records
		WHEN NEW.standard_price < 0
		BEGIN
			SELECT RAISE(ABORT, 'negative standard_price');
		END`).Error
	if err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}

	store := NewPricingStore(db, utils.NewLogger())
	ctx := context.Background()
	date := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

	batch := []*models.PricingRecord{
		testRecord(1, date, 150),
		testRecord(1, date.AddDate(0, 0, 1), -1),
		testRecord(1, date.AddDate(0, 0, 2), 170),
	}

	result, err := store.BatchUpsert(ctx, batch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Inserted != 2 || result.Updated != 0 || result.Failed != 1 {
		t.Fatalf("result = %+v, want 2 inserted, 0 updated, 1 failed", result)
	}

	// The rows around the failure still committed; the bad one left no trace
	var count int64
	store.db.Model(&models.PricingRecord{}).Count(&count)
	if count != 2 {
		t.Fatalf("record count = %d, want 2", count)
	}
	var bad int64
	store.db.Model(&models.PricingRecord{}).
		Where("record_date = ?", date.AddDate(0, 0, 1)).
		Count(&bad)
	if bad != 0 {
		t.Fatalf("rejected row persisted anyway (count = %d)", bad)
	}
}

func TestBatchUpsertEmptyBatch(t *testing.T) {
	store := NewPricingStore(openTestDB(t), utils.NewLogger())

	result, err := store.BatchUpsert(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != (BatchResult{}) {
		t.Fatalf("result = %+v, want zero", result)
	}
}
