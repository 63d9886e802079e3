package models

import "time"

// RawExportRow is one row of the portal export exactly as extracted: every
// cell still a string, currency symbols and percentage annotations intact.
type RawExportRow struct {
	DateText  string // mandatory; e.g. "December 26, 2025" or "26/12/2025"
	DayOfWeek string

	CurrentPrice       string // e.g. "$150.00"
	SystemPrice        string
	PreviousPrice      string
	CompetitorAvgPrice string

	OccOnBooks  string // e.g. "45 (67.5%)"
	OccForecast string
	OccLY       string

	ADR         string
	STLYADR     string
	Revenue     string
	STLYRevenue string

	Arrivals       string
	Departures     string
	AvailableRooms string
	TotalRooms     string
	OOORooms       string
	OTBRooms       string

	RoomClass    string
	PropertyCode string
}

// Occupancy is a parsed "rooms (percentage%)" cell.
type Occupancy struct {
	Rooms   int
	Percent float64 // 0-100, as printed in the export
}

// HistoricalRecord is a read-only prior-year reference row, consulted for
// year-over-year enrichment but never written by this pipeline.
type HistoricalRecord struct {
	PropertyID int64     `db:"property_id"`
	Date       time.Time `db:"date"`
	DayOfWeek  string    `db:"dow"`
	Occupancy  *float64  `db:"occupancy"` // fraction 0-1
	ADR        *float64  `db:"adr"`
	Revenue    *float64  `db:"revenue"`
}

// PricingRecord is the canonical enriched row, keyed (property_id,
// record_date). All occupancy values are fractions 0-1, not percentages.
type PricingRecord struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	PropertyID int64  `gorm:"column:property_id;not null;uniqueIndex:idx_update_records_property_date,priority:1"`
	RunID      *int64 `gorm:"column:scraping_run_id"` // nil for manual entry

	RecordTimestamp time.Time `gorm:"column:record_timestamp"`
	RecordDate      time.Time `gorm:"column:record_date;type:date;not null;uniqueIndex:idx_update_records_property_date,priority:2"`
	DayOfWeek       string    `gorm:"column:day_of_week;type:varchar(10)"`

	AlgoOutputPrice       *float64 `gorm:"column:algo_output_price;type:numeric(10,2)"`
	StandardPrice         *float64 `gorm:"column:standard_price;type:numeric(10,2)"`
	StandardPreviousPrice *float64 `gorm:"column:standard_previous_price;type:numeric(10,2)"`
	StandardPriceChange   *float64 `gorm:"column:standard_price_change;type:numeric(10,2)"`
	CompetitorSetAvgPrice *float64 `gorm:"column:competitor_set_avg_price;type:numeric(10,2)"`

	Occupancy           *float64 `gorm:"column:occupancy;type:numeric(5,4)"`
	ForecastedOccupancy *float64 `gorm:"column:forecasted_occupancy;type:numeric(5,4)"`
	OnTheBooksOcc       *float64 `gorm:"column:on_the_books_occ;type:numeric(5,4)"`
	UpdatedByRM         bool     `gorm:"column:updated_by_rm;not null;default:false"`

	RevenuePerRoom *float64 `gorm:"column:revenue_per_room;type:numeric(10,2)"`

	LYOccupancy *float64 `gorm:"column:ly_occupancy;type:numeric(5,4)"`
	LYADR       *float64 `gorm:"column:ly_adr;type:numeric(10,2)"`

	ArrivalsForecast  *int `gorm:"column:arrivals_forecast"`
	DepartureForecast *int `gorm:"column:departure_forecast"`

	// Room inventory breakdown. total = ooo + otb + avl is advisory, not
	// enforced at write time.
	TotalRooms *int `gorm:"column:total_rooms"`
	OOORooms   *int `gorm:"column:ooo"`
	OTBRooms   *int `gorm:"column:otb_rooms"`
	AvlRooms   *int `gorm:"column:avl_rooms"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (PricingRecord) TableName() string {
	return "update_records"
}
