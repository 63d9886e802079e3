package reviq

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"reviq-scraper/models"
	"reviq-scraper/utils"

	"github.com/xuri/excelize/v2"
)

// columnFields maps normalized export headers to row-field setters. The
// portal renames columns occasionally, so common aliases map to the same
// field; unrecognized columns are ignored.
var columnFields = map[string]func(*models.RawExportRow, string){
	"date":                 func(r *models.RawExportRow, v string) { r.DateText = v },
	"date only":            func(r *models.RawExportRow, v string) { r.DateText = v },
	"day of week":          func(r *models.RawExportRow, v string) { r.DayOfWeek = v },
	"dow":                  func(r *models.RawExportRow, v string) { r.DayOfWeek = v },
	"current price":        func(r *models.RawExportRow, v string) { r.CurrentPrice = v },
	"system price":         func(r *models.RawExportRow, v string) { r.SystemPrice = v },
	"previous price":       func(r *models.RawExportRow, v string) { r.PreviousPrice = v },
	"competitor avg price": func(r *models.RawExportRow, v string) { r.CompetitorAvgPrice = v },
	"comp set avg":         func(r *models.RawExportRow, v string) { r.CompetitorAvgPrice = v },
	"occ. on books":        func(r *models.RawExportRow, v string) { r.OccOnBooks = v },
	"occ on books":         func(r *models.RawExportRow, v string) { r.OccOnBooks = v },
	"occ. forecast":        func(r *models.RawExportRow, v string) { r.OccForecast = v },
	"occ forecast":         func(r *models.RawExportRow, v string) { r.OccForecast = v },
	"occ. ly":              func(r *models.RawExportRow, v string) { r.OccLY = v },
	"occ ly":               func(r *models.RawExportRow, v string) { r.OccLY = v },
	"adr":                  func(r *models.RawExportRow, v string) { r.ADR = v },
	"stly adr":             func(r *models.RawExportRow, v string) { r.STLYADR = v },
	"revenue":              func(r *models.RawExportRow, v string) { r.Revenue = v },
	"stly revenue":         func(r *models.RawExportRow, v string) { r.STLYRevenue = v },
	"arrivals":             func(r *models.RawExportRow, v string) { r.Arrivals = v },
	"departures":           func(r *models.RawExportRow, v string) { r.Departures = v },
	"available rooms":      func(r *models.RawExportRow, v string) { r.AvailableRooms = v },
	"total rooms":          func(r *models.RawExportRow, v string) { r.TotalRooms = v },
	"ooo rooms":            func(r *models.RawExportRow, v string) { r.OOORooms = v },
	"otb rooms":            func(r *models.RawExportRow, v string) { r.OTBRooms = v },
	"room class":           func(r *models.RawExportRow, v string) { r.RoomClass = v },
	"property code":        func(r *models.RawExportRow, v string) { r.PropertyCode = v },
}

// ExportReader turns a downloaded export file into raw rows, every cell
// kept as the string the portal printed.
type ExportReader struct {
	logger *utils.Logger
}

// NewExportReader creates a new ExportReader
func NewExportReader(logger *utils.Logger) *ExportReader {
	return &ExportReader{logger: logger}
}

// ReadFile dispatches on the file extension. The portal serves .xlsx for
// the historical export and .csv for the grid export.
func (e *ExportReader) ReadFile(path string) ([]*models.RawExportRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return e.readXLSX(path)
	case ".csv":
		return e.readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", path)
	}
}

func (e *ExportReader) readXLSX(path string) ([]*models.RawExportRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("export file has no sheets: %s", path)
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	rows := e.parseGrid(cells)
	e.logger.Info("Read %d rows from %s", len(rows), filepath.Base(path))
	return rows, nil
}

func (e *ExportReader) readCSV(path string) ([]*models.RawExportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // the portal pads trailing columns inconsistently

	var cells [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read export CSV: %w", err)
		}
		cells = append(cells, record)
	}

	rows := e.parseGrid(cells)
	e.logger.Info("Read %d rows from %s", len(rows), filepath.Base(path))
	return rows, nil
}

// parseGrid maps a header row plus data rows into raw rows. Rows with no
// date cell are footer or padding and are dropped here; every other row
// passes through untouched for the enricher to judge.
func (e *ExportReader) parseGrid(cells [][]string) []*models.RawExportRow {
	if len(cells) < 2 {
		return nil
	}

	setters := make(map[int]func(*models.RawExportRow, string))
	for i, header := range cells[0] {
		key := strings.ToLower(strings.TrimSpace(header))
		if set, ok := columnFields[key]; ok {
			setters[i] = set
		}
	}
	if len(setters) == 0 {
		e.logger.Warn("No recognized columns in export header: %v", cells[0])
		return nil
	}

	var rows []*models.RawExportRow
	for _, line := range cells[1:] {
		row := &models.RawExportRow{}
		for i, cell := range line {
			if set, ok := setters[i]; ok {
				set(row, strings.TrimSpace(cell))
			}
		}
		if row.DateText == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}
