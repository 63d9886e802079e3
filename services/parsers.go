package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"reviq-scraper/models"
)

var (
	moneyRegex     = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	occupancyRegex = regexp.MustCompile(`^(\d[\d,]*)\s*\((-?\d+(?:\.\d+)?)%\)$`)
)

// dateLayouts are every date shape the portals are known to emit. The
// caller's hint layout is tried first.
var dateLayouts = []string{
	"January 2, 2006",   // December 26, 2025
	"Jan 2, 2006",       // Dec 26, 2025
	"2006-01-02",        // 2025-12-26
	"02/01/2006",        // 26/12/2025
	"Mon, 02 Jan, 2006", // Mon, 01 Sep, 2025
}

// isEmptyCell reports whether a cell is one of the export's placeholder
// markers for "no value"
func isEmptyCell(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "-", "n/a":
		return true
	}
	return false
}

// ParseMoney converts a formatted price cell like "$1,234.56" to a number.
// Placeholder cells yield nil; anything else non-numeric is a ParseError.
func ParseMoney(text string) (*float64, error) {
	trimmed := strings.TrimSpace(text)
	if isEmptyCell(trimmed) {
		return nil, nil
	}

	cleaned := strings.TrimPrefix(trimmed, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, nil
	}

	if !moneyRegex.MatchString(cleaned) {
		return nil, &ParseError{Field: "money", Value: text}
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, &ParseError{Field: "money", Value: text}
	}
	return &val, nil
}

// ParseOccupancy converts a "45 (67.5%)" cell into its room count and
// percentage. Placeholder cells yield nil.
func ParseOccupancy(text string) (*models.Occupancy, error) {
	trimmed := strings.TrimSpace(text)
	if isEmptyCell(trimmed) {
		return nil, nil
	}

	matches := occupancyRegex.FindStringSubmatch(trimmed)
	if len(matches) != 3 {
		return nil, &ParseError{Field: "occupancy", Value: text}
	}

	rooms, err := strconv.Atoi(strings.ReplaceAll(matches[1], ",", ""))
	if err != nil {
		return nil, &ParseError{Field: "occupancy", Value: text}
	}
	percent, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return nil, &ParseError{Field: "occupancy", Value: text}
	}

	return &models.Occupancy{Rooms: rooms, Percent: percent}, nil
}

// ParseDate parses a date cell. Different sources use different shapes
// (long month-name form, numeric day/month/year, the calendar grid's
// "Mon, 02 Jan, 2006"), so the hint layout is tried first and the known
// layouts after it. There is no null outcome: a date either parses or the
// row is unusable.
func ParseDate(text string, hint string) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if isEmptyCell(trimmed) {
		return time.Time{}, &ParseError{Field: "date", Value: text}
	}

	layouts := dateLayouts
	if hint != "" {
		layouts = append([]string{hint}, dateLayouts...)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, &ParseError{Field: "date", Value: text}
}

// ParseCount converts an integer cell, tolerating thousands separators.
func ParseCount(text string) (*int, error) {
	trimmed := strings.TrimSpace(text)
	if isEmptyCell(trimmed) {
		return nil, nil
	}

	cleaned := strings.ReplaceAll(trimmed, ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil, &ParseError{Field: "count", Value: text}
	}
	return &n, nil
}
