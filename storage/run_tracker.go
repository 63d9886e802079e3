package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviq-scraper/models"
	"reviq-scraper/utils"

	"gorm.io/gorm"
)

// ErrRunAlreadyFinished means Finish was called on a run that is no
// longer in the running state.
var ErrRunAlreadyFinished = errors.New("scraping run already finished")

// RunTracker records the lifecycle of scraping runs: started as running,
// finished exactly once as completed or failed.
type RunTracker struct {
	db     *gorm.DB
	logger *utils.Logger
}

// NewRunTracker creates a new RunTracker
func NewRunTracker(db *gorm.DB, logger *utils.Logger) *RunTracker {
	return &RunTracker{db: db, logger: logger}
}

// Start opens a run in the running state and returns its ID.
func (t *RunTracker) Start(ctx context.Context, platformID int64, startDate, endDate string, dayCount int) (int64, error) {
	run := models.ScrapeRun{
		PlatformID:  platformID,
		StartedAt:   time.Now(),
		Status:      models.RunStatusRunning,
		StartDate:   startDate,
		EndDate:     endDate,
		DaysScraped: dayCount,
	}
	if err := t.db.WithContext(ctx).Create(&run).Error; err != nil {
		return 0, fmt.Errorf("failed to create scraping run: %w", err)
	}
	t.logger.Info("Started scraping run %d for platform %d (%s to %s)",
		run.ID, platformID, startDate, endDate)
	return run.ID, nil
}

// Finish closes the run with a terminal status, its record count and, on
// failure, the error text. Only a running run can be finished; a second
// call returns ErrRunAlreadyFinished and leaves the row untouched.
func (t *RunTracker) Finish(ctx context.Context, runID int64, status models.RunStatus, recordCount int, errText *string) error {
	if status != models.RunStatusCompleted && status != models.RunStatusFailed {
		return fmt.Errorf("invalid terminal status %q for run %d", status, runID)
	}

	now := time.Now()
	res := t.db.WithContext(ctx).
		Model(&models.ScrapeRun{}).
		Where("id = ? AND status = ?", runID, models.RunStatusRunning).
		Updates(map[string]interface{}{
			"status":          status,
			"completed_at":    now,
			"records_created": recordCount,
			"error_message":   errText,
			"updated_at":      now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finish scraping run %d: %w", runID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrRunAlreadyFinished)
	}

	if status == models.RunStatusFailed && errText != nil {
		t.logger.Warn("Run %d failed: %s", runID, *errText)
	} else {
		t.logger.Info("Run %d finished as %s with %d record(s)", runID, status, recordCount)
	}
	return nil
}
