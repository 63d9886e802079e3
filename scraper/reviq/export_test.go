package reviq

import (
	"os"
	"path/filepath"
	"testing"

	"reviq-scraper/utils"

	"github.com/xuri/excelize/v2"
)

func TestReadCSVExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	content := "Date,Day of Week,Current Price,System Price,Occ. on Books,Total Rooms,Mystery Column\n" +
		"December 26, 2025,Friday,$160.00,$158.00,91 (45.5%),200,ignored\n" +
		"December 27, 2025,Saturday,$170.00,,nan,200,ignored\n" +
		",,,,,,footer row without a date\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test CSV: %v", err)
	}

	rows, err := NewExportReader(utils.NewLogger()).ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2 (dateless footer dropped)", len(rows))
	}

	first := rows[0]
	if first.DateText != "December 26, 2025" {
		t.Errorf("date = %q, want December 26, 2025", first.DateText)
	}
	if first.DayOfWeek != "Friday" {
		t.Errorf("day of week = %q, want Friday", first.DayOfWeek)
	}
	if first.CurrentPrice != "$160.00" || first.SystemPrice != "$158.00" {
		t.Errorf("prices = (%q, %q), want raw dollar strings", first.CurrentPrice, first.SystemPrice)
	}
	if first.OccOnBooks != "91 (45.5%)" {
		t.Errorf("occ on books = %q, want raw annotated cell", first.OccOnBooks)
	}
	if first.TotalRooms != "200" {
		t.Errorf("total rooms = %q, want 200", first.TotalRooms)
	}
	// Unmapped columns never leak into the row
	if first.PropertyCode != "" {
		t.Errorf("property code = %q, want empty", first.PropertyCode)
	}

	second := rows[1]
	if second.SystemPrice != "" {
		t.Errorf("missing cell = %q, want empty string", second.SystemPrice)
	}
	if second.OccOnBooks != "nan" {
		t.Errorf("placeholder cell = %q, want untouched nan", second.OccOnBooks)
	}
}

func TestReadXLSXExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	grid := [][]interface{}{
		{"Date Only", "Current Price", "Previous Price", "OTB Rooms"},
		{"26/12/2025", "$160.00", "$150.00", "91"},
		{"27/12/2025", "$165.00", "$160.00", "88"},
	}
	for i, row := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("failed to build cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("failed to write sheet row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save test XLSX: %v", err)
	}

	rows, err := NewExportReader(utils.NewLogger()).ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2", len(rows))
	}
	if rows[0].DateText != "26/12/2025" || rows[0].CurrentPrice != "$160.00" {
		t.Errorf("first row = %+v, want date 26/12/2025 at $160.00", rows[0])
	}
	if rows[1].PreviousPrice != "$160.00" || rows[1].OTBRooms != "88" {
		t.Errorf("second row = %+v, want previous $160.00 with 88 OTB", rows[1])
	}
}

func TestReadFileRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := NewExportReader(utils.NewLogger()).ReadFile(path); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestParseGridWithoutRecognizedColumns(t *testing.T) {
	reader := NewExportReader(utils.NewLogger())
	rows := reader.parseGrid([][]string{
		{"Foo", "Bar"},
		{"1", "2"},
	})
	if rows != nil {
		t.Fatalf("rows = %v, want nil for unknown header", rows)
	}
}
