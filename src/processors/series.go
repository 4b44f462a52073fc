package processors

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/settlementdash/backend/src/models"
)

// DailySeries sums gross and settled per transaction date, ascending.
// Undated rows have no place on the axis and are skipped.
func DailySeries(view []models.Transaction) []DailyPoint {
	byDay := make(map[models.Date]*DailyPoint)
	for _, t := range view {
		if t.TransactionDate.IsNull() {
			continue
		}
		p, ok := byDay[t.TransactionDate]
		if !ok {
			p = &DailyPoint{Date: t.TransactionDate, Gross: decimal.Zero, Settled: decimal.Zero}
			byDay[t.TransactionDate] = p
		}
		p.Gross = p.Gross.Add(t.GrossAmount)
		p.Settled = p.Settled.Add(t.SettledAmount)
	}

	out := make([]DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// weekdayOrder is Monday first regardless of locale.
var weekdayOrder = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// WeekdayAverage sums gross per calendar date, then averages those daily
// sums per weekday. A busy day with many small rows weighs the same as a
// quiet day with one large row.
func WeekdayAverage(fullData []models.Transaction) []WeekdayPoint {
	daily := make(map[models.Date]decimal.Decimal)
	for _, t := range fullData {
		if t.TransactionDate.IsNull() {
			continue
		}
		daily[t.TransactionDate] = daily[t.TransactionDate].Add(t.GrossAmount)
	}

	sums := make(map[time.Weekday]decimal.Decimal)
	days := make(map[time.Weekday]int)
	for d, total := range daily {
		wd := d.Weekday()
		sums[wd] = sums[wd].Add(total)
		days[wd]++
	}

	out := make([]WeekdayPoint, 0, len(weekdayOrder))
	for _, wd := range weekdayOrder {
		avg := WeekdayPoint{Weekday: wd.String(), Days: days[wd]}
		if n := days[wd]; n > 0 {
			avg.Average = decimal.NewNullDecimal(sums[wd].Div(decimal.NewFromInt(int64(n))))
		}
		out = append(out, avg)
	}
	return out
}
