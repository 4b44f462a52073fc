// Package filters turns the loaded transaction table into the views a report
// is computed from. No function here mutates its input: every view is a new
// slice.
package filters

import (
	"sort"

	"github.com/username/settlementdash/backend/src/models"
)

// All is the selector value that stands for every available option.
const All = "All"

const (
	// DefaultLookbackDays sizes the default range: end-6 .. end is one week.
	DefaultLookbackDays = 6
	// TrailingWindowDays is the fixed "recent activity" window.
	TrailingWindowDays = 31
)

// DateRange is an inclusive [Start, End] range on transaction date. A range
// with a null bound is empty.
type DateRange struct {
	Start models.Date `json:"start"`
	End   models.Date `json:"end"`
}

func (r DateRange) IsEmpty() bool {
	return r.Start.IsNull() || r.End.IsNull() || r.Start.After(r.End)
}

func (r DateRange) Contains(d models.Date) bool {
	if d.IsNull() || r.IsEmpty() {
		return false
	}
	return !d.Before(r.Start) && !d.After(r.End)
}

// DefaultDateRange is the week ending at min(today, last transaction date),
// clipped to the first transaction date. Data without any dated row yields an
// empty range.
func DefaultDateRange(data []models.Transaction, today models.Date) DateRange {
	var first, last models.Date
	for _, t := range data {
		first = models.MinDate(first, t.TransactionDate)
		last = models.MaxDate(last, t.TransactionDate)
	}
	if last.IsNull() {
		return DateRange{}
	}
	end := last
	if !today.IsNull() && today.Before(end) {
		end = today
	}
	start := models.MaxDate(end.AddDays(-DefaultLookbackDays), first)
	return DateRange{Start: start, End: end}
}

// ResolveDateRange applies the user's dates: none supplied falls back to the
// default range, a single date becomes a one-day range.
func ResolveDateRange(start, end models.Date, data []models.Transaction, today models.Date) DateRange {
	switch {
	case start.IsNull() && end.IsNull():
		return DefaultDateRange(data, today)
	case start.IsNull():
		return DateRange{Start: end, End: end}
	case end.IsNull():
		return DateRange{Start: start, End: start}
	default:
		return DateRange{Start: start, End: end}
	}
}

// ApplyDateFilter keeps rows whose transaction date lies in r. Rows without a
// transaction date never match.
func ApplyDateFilter(data []models.Transaction, r DateRange) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, t := range data {
		if r.Contains(t.TransactionDate) {
			out = append(out, t)
		}
	}
	return out
}

// TrailingWindow keeps rows dated on or after today minus TrailingWindowDays.
// It ignores every user selection.
func TrailingWindow(data []models.Transaction, today models.Date) []models.Transaction {
	out := make([]models.Transaction, 0)
	if today.IsNull() {
		return out
	}
	from := today.AddDays(-TrailingWindowDays)
	for _, t := range data {
		if !t.TransactionDate.IsNull() && !t.TransactionDate.Before(from) {
			out = append(out, t)
		}
	}
	return out
}

// IsAll reports whether a selection means "everything": empty, or containing
// the All sentinel.
func IsAll(selection []string) bool {
	if len(selection) == 0 {
		return true
	}
	for _, s := range selection {
		if s == All {
			return true
		}
	}
	return false
}

func distinctSorted(data []models.Transaction, key func(models.Transaction) string) []string {
	seen := make(map[string]struct{})
	for _, t := range data {
		seen[key(t)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func withAll(values []string) []string {
	return append([]string{All}, values...)
}

func client(t models.Transaction) string { return t.ClientName }
func project(t models.Transaction) string { return t.ProjectName }

// ClientOptions lists every client in data, ascending, after All.
func ClientOptions(data []models.Transaction) []string {
	return withAll(distinctSorted(data, client))
}

// DrilldownOptions lists every client in data, ascending, without All.
func DrilldownOptions(data []models.Transaction) []string {
	return distinctSorted(data, client)
}

// ProjectOptions lists the projects present in clientFiltered, ascending,
// after All.
func ProjectOptions(clientFiltered []models.Transaction) []string {
	return withAll(distinctSorted(clientFiltered, project))
}

func applyMembership(data []models.Transaction, selection []string, key func(models.Transaction) string) []models.Transaction {
	if IsAll(selection) {
		out := make([]models.Transaction, len(data))
		copy(out, data)
		return out
	}
	want := make(map[string]struct{}, len(selection))
	for _, s := range selection {
		want[s] = struct{}{}
	}
	out := make([]models.Transaction, 0)
	for _, t := range data {
		if _, ok := want[key(t)]; ok {
			out = append(out, t)
		}
	}
	return out
}

func ApplyClientFilter(data []models.Transaction, selection []string) []models.Transaction {
	return applyMembership(data, selection, client)
}

func ApplyProjectFilter(data []models.Transaction, selection []string) []models.Transaction {
	return applyMembership(data, selection, project)
}
