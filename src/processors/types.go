package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/settlementdash/backend/src/models"
)

// DailyPoint is one day of the gross vs settled line chart.
type DailyPoint struct {
	Date    models.Date     `json:"date"`
	Gross   decimal.Decimal `json:"gross"`
	Settled decimal.Decimal `json:"settled"`
}

// PaymentSplit partitions settled amounts into paid and everything else.
type PaymentSplit struct {
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
}

// ScheduleItem is one bar of the pending settlement timeline.
type ScheduleItem struct {
	Client        string          `json:"client"`
	Project       string          `json:"project"`
	Start         models.Date     `json:"start"`
	Finish        models.Date     `json:"finish"`
	SettledAmount decimal.Decimal `json:"settled_amount"`
	Status        string          `json:"status"`
}

type ScheduleStatus string

const (
	ScheduleOK          ScheduleStatus = "ok"
	ScheduleInvalidRows ScheduleStatus = "invalid_rows"
	ScheduleNoData      ScheduleStatus = "no_data"
)

// Schedule holds pending settlements. Rows missing a start or finish date are
// kept apart in Invalid. Status is no_data whenever Valid is empty, even if
// Invalid is not.
type Schedule struct {
	Valid   []ScheduleItem `json:"valid"`
	Invalid []ScheduleItem `json:"invalid"`
	Status  ScheduleStatus `json:"status"`
}

// WeekdayPoint is the mean daily gross for one weekday. Average is null
// when no date fell on that weekday.
type WeekdayPoint struct {
	Weekday string              `json:"weekday"`
	Average decimal.NullDecimal `json:"average"`
	Days    int                 `json:"days"`
}
