package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reviq-scraper/models"
	"reviq-scraper/utils"
)

// CSVWriter backs up raw export rows to disk before any parsing, so a bad
// ingestion can be replayed from the exact cells the portal served.
type CSVWriter struct {
	dir    string
	logger *utils.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(dir string, logger *utils.Logger) *CSVWriter {
	return &CSVWriter{dir: dir, logger: logger}
}

// WriteRawRows writes a property's raw rows to a timestamped CSV file and
// returns its path.
func (w *CSVWriter) WriteRawRows(propertyCode string, rows []*models.RawExportRow) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.csv", propertyCode, time.Now().Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"date", "day_of_week", "current_price", "system_price",
		"previous_price", "competitor_avg_price", "occ_on_books",
		"occ_forecast", "occ_ly", "adr", "stly_adr", "revenue",
		"stly_revenue", "arrivals", "departures", "available_rooms",
		"total_rooms", "ooo_rooms", "otb_rooms", "room_class",
		"property_code",
	}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range rows {
		row := []string{
			r.DateText, r.DayOfWeek, r.CurrentPrice, r.SystemPrice,
			r.PreviousPrice, r.CompetitorAvgPrice, r.OccOnBooks,
			r.OccForecast, r.OccLY, r.ADR, r.STLYADR, r.Revenue,
			r.STLYRevenue, r.Arrivals, r.Departures, r.AvailableRooms,
			r.TotalRooms, r.OOORooms, r.OTBRooms, r.RoomClass,
			r.PropertyCode,
		}
		if err := writer.Write(row); err != nil {
			w.logger.Error("Failed to write CSV row for '%s': %v", r.DateText, err)
		}
	}

	w.logger.Info("Raw export backed up to: %s (%d rows)", path, len(rows))
	return path, nil
}
