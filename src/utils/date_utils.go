package utils

import (
	"strings"
	"time"

	"github.com/username/settlementdash/backend/src/logger"
)

// dateLayouts lists the formats seen in settlement exports: plain dates,
// Postgres date/timestamp text casts, ISO timestamps and Brazilian dd/mm/yyyy.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/2006 15:04:05",
	"02-01-2006",
}

// ParseDate tries every known layout and reports whether one matched.
// Failure is not an error: callers treat the value as missing.
func ParseDate(dateStr string) (time.Time, bool) {
	s := strings.TrimSpace(dateStr)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nat") {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if logger.L != nil {
		logger.L.Debug("Unparsable date, treating as null", "value", s)
	}
	return time.Time{}, false
}

// Today returns the current calendar day in loc.
func Today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
