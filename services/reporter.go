package services

import (
	"fmt"
	"strings"

	"reviq-scraper/models"
)

// PrintSessionReport formats and prints the per-run results of a scraping
// session to the terminal
func PrintSessionReport(summaries []models.RunSummary) {
	border := strings.Repeat("=", 70)

	fmt.Printf("\n%s\n", border)
	fmt.Println("SCRAPING SESSION SUMMARY")
	fmt.Println(border)

	if len(summaries) == 0 {
		fmt.Println("  No runs executed")
		fmt.Printf("%s\n", border)
		return
	}

	var attempted, inserted, updated, rejected, failed int
	for _, s := range summaries {
		fmt.Printf("\n  Run #%d  %s\n", s.RunID, s.Property)
		fmt.Printf("    Rows attempted : %d\n", s.Attempted)
		fmt.Printf("    Inserted       : %d\n", s.Inserted)
		fmt.Printf("    Updated        : %d\n", s.Updated)
		fmt.Printf("    Rejected       : %d\n", s.Rejected)
		fmt.Printf("    Write failures : %d\n", s.Failed)

		attempted += s.Attempted
		inserted += s.Inserted
		updated += s.Updated
		rejected += s.Rejected
		failed += s.Failed
	}

	fmt.Printf("\n  TOTALS: %d attempted, %d inserted, %d updated, %d rejected, %d write failures\n",
		attempted, inserted, updated, rejected, failed)
	fmt.Printf("%s\n", border)
}

// PrintStoreStats prints aggregate pricing-store statistics
func PrintStoreStats(stats *models.StoreStats) {
	border := strings.Repeat("=", 70)

	fmt.Printf("\n%s\n", border)
	fmt.Println("DATABASE STATISTICS")
	fmt.Println(border)
	fmt.Printf("  Total Properties     : %d\n", stats.TotalProperties)
	fmt.Printf("  Total Platforms      : %d\n", stats.TotalPlatforms)
	fmt.Printf("  Active Platforms     : %d\n", stats.ActivePlatforms)
	fmt.Printf("  Total Scraping Runs  : %d\n", stats.TotalRuns)
	fmt.Printf("  Successful Runs      : %d\n", stats.SuccessfulRuns)
	fmt.Printf("  Total Pricing Records: %d\n", stats.TotalRecords)

	if stats.LastRunAt != nil {
		fmt.Printf("\n  Last Run: %s (%s)\n",
			stats.LastRunAt.Format("2006-01-02 15:04:05"), stats.LastRunStatus)
	}
	fmt.Printf("%s\n", border)
}
