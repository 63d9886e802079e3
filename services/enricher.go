package services

import (
	"context"
	"time"

	"reviq-scraper/config"
	"reviq-scraper/models"
	"reviq-scraper/utils"
)

// HistoricalSource looks up the prior-year reference row for a property
// and date. A missing row is (nil, nil), never an error.
type HistoricalSource interface {
	FindSameDayLastYear(ctx context.Context, propertyID int64, recordDate time.Time) (*models.HistoricalRecord, error)
}

// Enricher turns one raw export row into one canonical PricingRecord:
// parsers on every cell, derived metrics, year-over-year fields from the
// historical store. It is a pure transform; persistence is a separate step.
type Enricher struct {
	cfg     *config.Config
	history HistoricalSource
	logger  *utils.Logger
}

// NewEnricher creates a new Enricher
func NewEnricher(cfg *config.Config, history HistoricalSource, logger *utils.Logger) *Enricher {
	return &Enricher{cfg: cfg, history: history, logger: logger}
}

// Enrich builds a PricingRecord from a raw row. A single unparseable field
// becomes nil and processing continues; a missing or unparseable date
// rejects the whole row with *RowRejected.
func (e *Enricher) Enrich(ctx context.Context, raw *models.RawExportRow, prop *models.Property, runID *int64) (*models.PricingRecord, error) {
	recordDate, err := ParseDate(raw.DateText, e.cfg.ExportDateHint)
	if err != nil {
		return nil, &RowRejected{Reason: "record date missing or unparseable", Err: err}
	}

	dayOfWeek := raw.DayOfWeek
	if dayOfWeek == "" {
		dayOfWeek = recordDate.Weekday().String()
	}

	currentPrice := e.money(raw.CurrentPrice, "standard price")
	systemPrice := e.money(raw.SystemPrice, "system price")
	previousPrice := e.money(raw.PreviousPrice, "previous price")
	compAvgPrice := e.money(raw.CompetitorAvgPrice, "competitor avg price")
	revenue := e.money(raw.Revenue, "revenue")
	stlyADR := e.money(raw.STLYADR, "stly adr")

	occOnBooks := e.occupancy(raw.OccOnBooks, "occ on books")
	occForecast := e.occupancy(raw.OccForecast, "occ forecast")
	occLY := e.occupancy(raw.OccLY, "occ ly")

	arrivals := e.count(raw.Arrivals, "arrivals")
	departures := e.count(raw.Departures, "departures")
	availableRooms := e.count(raw.AvailableRooms, "available rooms")
	totalRooms := e.count(raw.TotalRooms, "total rooms")
	oooRooms := e.count(raw.OOORooms, "ooo rooms")
	otbRooms := e.count(raw.OTBRooms, "otb rooms")

	// Room capacity: the row's own total, else the property's latest
	// saleable-rooms snapshot, else the configured default.
	capacity := totalRooms
	if capacity == nil {
		capacity = prop.SaleableRooms
	}
	if capacity == nil && e.cfg.DefaultRoomCapacity > 0 {
		d := e.cfg.DefaultRoomCapacity
		capacity = &d
	}

	if availableRooms == nil && capacity != nil && oooRooms != nil && otbRooms != nil {
		avl := *capacity - *oooRooms - *otbRooms
		availableRooms = &avl
	}

	occupancy := occupancyFromCell(occOnBooks)
	if occupancy == nil {
		occupancy = OccupancyFraction(otbRooms, capacity)
	}
	forecasted := occupancyFromCell(occForecast)

	rprRooms := availableRooms
	if rprRooms == nil {
		rprRooms = capacity
	}

	lyOccupancy, lyADR := e.lastYear(ctx, prop, recordDate, occLY, stlyADR, capacity)

	return &models.PricingRecord{
		PropertyID: prop.ID,
		RunID:      runID,

		RecordTimestamp: time.Now().UTC(),
		RecordDate:      recordDate,
		DayOfWeek:       dayOfWeek,

		AlgoOutputPrice:       systemPrice,
		StandardPrice:         currentPrice,
		StandardPreviousPrice: previousPrice,
		StandardPriceChange:   PriceChange(currentPrice, previousPrice),
		CompetitorSetAvgPrice: compAvgPrice,

		Occupancy:           occupancy,
		ForecastedOccupancy: forecasted,
		OnTheBooksOcc:       occupancy,

		RevenuePerRoom: RevenuePerRoom(revenue, rprRooms),

		LYOccupancy: lyOccupancy,
		LYADR:       lyADR,

		ArrivalsForecast:  arrivals,
		DepartureForecast: departures,

		TotalRooms: capacity,
		OOORooms:   oooRooms,
		OTBRooms:   otbRooms,
		AvlRooms:   availableRooms,
	}, nil
}

// lastYear fills the year-over-year fields: export cells win when present,
// the historical store backfills the rest. Absence of history never fails
// the row.
func (e *Enricher) lastYear(ctx context.Context, prop *models.Property, recordDate time.Time, occLY *models.Occupancy, stlyADR *float64, capacity *int) (*float64, *float64) {
	lyOccupancy := occupancyFromCell(occLY)
	lyADR := stlyADR

	if lyOccupancy != nil && lyADR != nil {
		return lyOccupancy, lyADR
	}

	hist, err := e.history.FindSameDayLastYear(ctx, prop.ID, recordDate)
	if err != nil {
		e.logger.Warn("Historical lookup failed for property %d on %s: %v",
			prop.ID, recordDate.Format("2006-01-02"), err)
		return lyOccupancy, lyADR
	}
	if hist == nil {
		return lyOccupancy, lyADR
	}

	if lyOccupancy == nil {
		lyOccupancy = hist.Occupancy
	}
	if lyADR == nil {
		lyADR = hist.ADR
	}
	if lyADR == nil && hist.Revenue != nil && lyOccupancy != nil && capacity != nil && *capacity > 0 {
		// No stored ADR: derive it from last year's revenue and the rooms
		// that were occupied then.
		occupied := *lyOccupancy * float64(*capacity)
		if occupied > 0 {
			adr := *hist.Revenue / occupied
			lyADR = &adr
		}
	}
	return lyOccupancy, lyADR
}

func (e *Enricher) money(text, field string) *float64 {
	val, err := ParseMoney(text)
	if err != nil {
		e.logger.Debug("Dropping %s %q: %v", field, text, err)
		return nil
	}
	return val
}

func (e *Enricher) occupancy(text, field string) *models.Occupancy {
	occ, err := ParseOccupancy(text)
	if err != nil {
		e.logger.Debug("Dropping %s %q: %v", field, text, err)
		return nil
	}
	return occ
}

func (e *Enricher) count(text, field string) *int {
	n, err := ParseCount(text)
	if err != nil {
		e.logger.Debug("Dropping %s %q: %v", field, text, err)
		return nil
	}
	return n
}

func occupancyFromCell(occ *models.Occupancy) *float64 {
	if occ == nil {
		return nil
	}
	pct := occ.Percent
	return PercentToFraction(&pct)
}
