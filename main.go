package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"reviq-scraper/config"
	"reviq-scraper/models"
	"reviq-scraper/scraper/reviq"
	"reviq-scraper/services"
	"reviq-scraper/storage"
	"reviq-scraper/utils"
)

func main() {
	// ================== Bootstrap ====================
	logger := utils.NewLogger()
	defer logger.Sync()
	cfg := config.Load()

	logger.Info("Hotel Portal Pricing Scraper")
	logger.Info("Platform: %s | Window: %s + %d days | Retries: %d",
		cfg.PlatformName, cfg.StartDate, cfg.Days, cfg.MaxRetries)

	ctx := context.Background()

	// =================== PostgreSQL Setup ========================================
	store, err := storage.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Cannot connect to PostgreSQL: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.EnsureSchema(); err != nil {
		logger.Error("Failed to prepare DB schema: %v", err)
		os.Exit(1)
	}

	platforms := storage.NewPlatformReader(store.SQL, logger)
	history := storage.NewHistoryReader(store.SQL, logger)
	pricing := storage.NewPricingStore(store.ORM, logger)
	tracker := storage.NewRunTracker(store.ORM, logger)
	csvWriter := storage.NewCSVWriter(cfg.CSVBackupDir, logger)

	enricher := services.NewEnricher(cfg, history, logger)
	scraper := reviq.NewPortalScraper(cfg, logger)
	exports := reviq.NewExportReader(logger)

	// =============== Credential discovery ===================================
	sets, err := platforms.ActiveCredentialSets(ctx, cfg.PlatformName)
	if err != nil {
		logger.Error("Failed to load platform credentials: %v", err)
		os.Exit(1)
	}
	if len(sets) == 0 {
		logger.Warn("No active %q platforms with credentials, nothing to do", cfg.PlatformName)
		os.Exit(0)
	}

	startDate, endDate := scrapeWindow(cfg)

	// =============== Scraping ===================================
	var summaries []models.RunSummary
	for _, set := range sets {
		summaries = append(summaries,
			scrapeCredentialSet(ctx, cfg, set, startDate, endDate,
				scraper, exports, csvWriter, enricher, pricing, tracker, logger)...)

		if err := platforms.TouchLastScraped(ctx, set.PlatformID); err != nil {
			logger.Warn("Failed to stamp platform %d: %v", set.PlatformID, err)
		}
	}

	// ==== Reports ============================
	services.PrintSessionReport(summaries)

	stats, err := storage.NewStatsReader(store.SQL, logger).Stats(ctx)
	if err != nil {
		logger.Warn("Failed to fetch store statistics: %v", err)
	} else {
		services.PrintStoreStats(stats)
	}

	fmt.Println(" Done! Raw exports backed up under", cfg.CSVBackupDir)
}

// scrapeWindow resolves the configured start date and day count into an
// inclusive yyyy-mm-dd range
func scrapeWindow(cfg *config.Config) (string, string) {
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		start = time.Now()
	}
	end := start.AddDate(0, 0, cfg.Days-1)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

// scrapeCredentialSet runs one browser session: login once, then one run
// per property. A login failure fails every property's run up front; a
// single property's failure never stops the others.
func scrapeCredentialSet(
	ctx context.Context,
	cfg *config.Config,
	set models.CredentialSet,
	startDate, endDate string,
	scraper *reviq.PortalScraper,
	exports *reviq.ExportReader,
	csvWriter *storage.CSVWriter,
	enricher *services.Enricher,
	pricing storage.PricingWriter,
	tracker storage.RunLedger,
	logger *utils.Logger,
) []models.RunSummary {
	var summaries []models.RunSummary

	browserCtx, cancel := scraper.NewSession()
	defer cancel()

	if err := scraper.Login(browserCtx, set); err != nil {
		logger.Error("Login failed for platform %d: %v", set.PlatformID, err)
		msg := fmt.Sprintf("login failed: %v", err)
		for _, prop := range set.Properties {
			runID, startErr := tracker.Start(ctx, set.PlatformID, startDate, endDate, cfg.Days)
			if startErr != nil {
				logger.Error("Failed to open run for %s: %v", prop.HotelName, startErr)
				continue
			}
			finishRun(ctx, tracker, logger, runID, models.RunStatusFailed, 0, &msg)
			summaries = append(summaries, models.RunSummary{RunID: runID, Property: prop.HotelName})
		}
		return summaries
	}

	for i := range set.Properties {
		prop := &set.Properties[i]
		summaries = append(summaries,
			scrapeProperty(ctx, browserCtx, cfg, set, prop, startDate, endDate,
				scraper, exports, csvWriter, enricher, pricing, tracker, logger))
	}
	return summaries
}

// scrapeProperty downloads one property's export, enriches its rows and
// persists them under a fresh scraping run.
func scrapeProperty(
	ctx context.Context,
	browserCtx context.Context,
	cfg *config.Config,
	set models.CredentialSet,
	prop *models.Property,
	startDate, endDate string,
	scraper *reviq.PortalScraper,
	exports *reviq.ExportReader,
	csvWriter *storage.CSVWriter,
	enricher *services.Enricher,
	pricing storage.PricingWriter,
	tracker storage.RunLedger,
	logger *utils.Logger,
) models.RunSummary {
	logger.Info("Scraping property: %s (%s)", prop.HotelName, prop.PropertyCode)

	runID, err := tracker.Start(ctx, set.PlatformID, startDate, endDate, cfg.Days)
	if err != nil {
		logger.Error("Failed to open run for %s: %v", prop.HotelName, err)
		return models.RunSummary{Property: prop.HotelName}
	}
	summary := models.RunSummary{RunID: runID, Property: prop.HotelName}

	fail := func(stage string, cause error) models.RunSummary {
		logger.Error("%s failed for %s: %v", stage, prop.HotelName, cause)
		msg := fmt.Sprintf("%s failed: %v", stage, cause)
		finishRun(ctx, tracker, logger, runID, models.RunStatusFailed, 0, &msg)
		return summary
	}

	if err := scraper.SelectProperty(browserCtx, prop.PropertyCode); err != nil {
		return fail("property selection", err)
	}

	exportPath, err := scraper.DownloadExport(browserCtx, prop.PropertyCode)
	if err != nil {
		return fail("export download", err)
	}

	rawRows, err := exports.ReadFile(exportPath)
	if err != nil {
		return fail("export parsing", err)
	}
	if err := os.Remove(exportPath); err != nil {
		logger.Warn("Failed to remove export file %s: %v", exportPath, err)
	}
	if len(rawRows) == 0 {
		msg := "export contained no data rows"
		logger.Warn("%s for %s", msg, prop.HotelName)
		finishRun(ctx, tracker, logger, runID, models.RunStatusFailed, 0, &msg)
		return summary
	}
	summary.Attempted = len(rawRows)

	// Backup failures are logged but never block persistence
	if _, err := csvWriter.WriteRawRows(prop.PropertyCode, rawRows); err != nil {
		logger.Error("Failed to back up raw export for %s: %v", prop.HotelName, err)
	}

	var records []*models.PricingRecord
	for _, raw := range rawRows {
		rec, err := enricher.Enrich(ctx, raw, prop, &runID)
		if err != nil {
			var rejected *services.RowRejected
			if errors.As(err, &rejected) {
				logger.Warn("Skipping row %q for %s: %v", raw.DateText, prop.HotelName, err)
				summary.Rejected++
				continue
			}
			return fail("row enrichment", err)
		}
		records = append(records, rec)
	}

	result, err := pricing.BatchUpsert(ctx, records)
	if err != nil {
		return fail("batch persistence", err)
	}
	summary.Inserted = result.Inserted
	summary.Updated = result.Updated
	summary.Failed = result.Failed

	finishRun(ctx, tracker, logger, runID, models.RunStatusCompleted,
		result.Inserted+result.Updated, nil)
	return summary
}

func finishRun(ctx context.Context, tracker storage.RunLedger, logger *utils.Logger,
	runID int64, status models.RunStatus, count int, errText *string) {
	if err := tracker.Finish(ctx, runID, status, count, errText); err != nil {
		logger.Error("Failed to finish run %d: %v", runID, err)
	}
}
