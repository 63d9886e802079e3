package services

// Derived metrics over parsed fields. Every function returns nil instead
// of guessing when an input is missing, and occupancy outputs are fractions
// (0-1), never percentages.

// PriceChange returns current - previous, or nil if either side is missing.
// Positive means the price went up.
func PriceChange(current, previous *float64) *float64 {
	if current == nil || previous == nil {
		return nil
	}
	change := *current - *previous
	return &change
}

// OccupancyFraction returns booked/total as a fraction, or nil when total
// is missing or zero.
func OccupancyFraction(booked, total *int) *float64 {
	if booked == nil || total == nil || *total <= 0 {
		return nil
	}
	frac := float64(*booked) / float64(*total)
	return &frac
}

// RevenuePerRoom returns revenue/rooms, or nil when rooms is missing or
// zero.
func RevenuePerRoom(revenue *float64, rooms *int) *float64 {
	if revenue == nil || rooms == nil || *rooms <= 0 {
		return nil
	}
	rpr := *revenue / float64(*rooms)
	return &rpr
}

// PercentToFraction converts a percentage (e.g. 45.5) to a fraction
// (0.455).
func PercentToFraction(pct *float64) *float64 {
	if pct == nil {
		return nil
	}
	frac := *pct / 100
	return &frac
}
