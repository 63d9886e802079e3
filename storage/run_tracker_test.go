package storage

import (
	"context"
	"errors"
	"testing"

	"reviq-scraper/models"
	"reviq-scraper/utils"
)

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	tracker := NewRunTracker(db, utils.NewLogger())
	ctx := context.Background()

	runID, err := tracker.Start(ctx, 3, "2025-12-26", "2026-01-24", 30)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	var run models.ScrapeRun
	if err := db.First(&run, runID).Error; err != nil {
		t.Fatalf("failed to read run: %v", err)
	}
	if run.Status != models.RunStatusRunning {
		t.Fatalf("status = %s, want running", run.Status)
	}
	if run.PlatformID != 3 || run.DaysScraped != 30 {
		t.Fatalf("run = %+v, want platform 3 over 30 days", run)
	}

	if err := tracker.Finish(ctx, runID, models.RunStatusCompleted, 29, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if err := db.First(&run, runID).Error; err != nil {
		t.Fatalf("failed to re-read run: %v", err)
	}
	if run.Status != models.RunStatusCompleted {
		t.Errorf("status = %s, want completed", run.Status)
	}
	if run.RecordsCreated != 29 {
		t.Errorf("records created = %d, want 29", run.RecordsCreated)
	}
	if run.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if run.ErrorMessage != nil {
		t.Errorf("error message = %q, want nil", *run.ErrorMessage)
	}
}

func TestFinishFailedKeepsErrorMessage(t *testing.T) {
	db := openTestDB(t)
	tracker := NewRunTracker(db, utils.NewLogger())
	ctx := context.Background()

	runID, err := tracker.Start(ctx, 3, "2025-12-26", "2026-01-24", 30)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	msg := "login failed: portal did not reach the dashboard after login"
	if err := tracker.Finish(ctx, runID, models.RunStatusFailed, 0, &msg); err != nil {
		t.Fatalf("finish: %v", err)
	}

	var run models.ScrapeRun
	if err := db.First(&run, runID).Error; err != nil {
		t.Fatalf("failed to read run: %v", err)
	}
	if run.Status != models.RunStatusFailed {
		t.Errorf("status = %s, want failed", run.Status)
	}
	if run.ErrorMessage == nil || *run.ErrorMessage != msg {
		t.Errorf("error message = %v, want %q", run.ErrorMessage, msg)
	}
}

func TestFinishTwiceFails(t *testing.T) {
	db := openTestDB(t)
	tracker := NewRunTracker(db, utils.NewLogger())
	ctx := context.Background()

	runID, err := tracker.Start(ctx, 3, "2025-12-26", "2026-01-24", 30)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tracker.Finish(ctx, runID, models.RunStatusCompleted, 10, nil); err != nil {
		t.Fatalf("first finish: %v", err)
	}

	err = tracker.Finish(ctx, runID, models.RunStatusFailed, 0, nil)
	if !errors.Is(err, ErrRunAlreadyFinished) {
		t.Fatalf("second finish error = %v, want ErrRunAlreadyFinished", err)
	}

	// The second call must not have touched the row
	var run models.ScrapeRun
	if err := db.First(&run, runID).Error; err != nil {
		t.Fatalf("failed to read run: %v", err)
	}
	if run.Status != models.RunStatusCompleted || run.RecordsCreated != 10 {
		t.Errorf("run = %+v, want completed with 10 records", run)
	}
}

func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	db := openTestDB(t)
	tracker := NewRunTracker(db, utils.NewLogger())
	ctx := context.Background()

	runID, err := tracker.Start(ctx, 3, "2025-12-26", "2026-01-24", 30)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tracker.Finish(ctx, runID, models.RunStatusRunning, 0, nil); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestFinishUnknownRun(t *testing.T) {
	db := openTestDB(t)
	tracker := NewRunTracker(db, utils.NewLogger())

	err := tracker.Finish(context.Background(), 9999, models.RunStatusCompleted, 0, nil)
	if !errors.Is(err, ErrRunAlreadyFinished) {
		t.Fatalf("error = %v, want ErrRunAlreadyFinished for unknown run", err)
	}
}
