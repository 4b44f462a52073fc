package filters

import "github.com/username/settlementdash/backend/src/models"

// Selection is what the user picked. Null dates and empty lists mean
// "use the default".
type Selection struct {
	Start    models.Date
	End      models.Date
	Clients  []string
	Projects []string
}

// Views is everything a report needs from the filter stage.
type Views struct {
	Main     []models.Transaction
	Trailing []models.Transaction

	Range            DateRange
	ClientOptions    []string
	ProjectOptions   []string
	DrilldownOptions []string

	// Selections echoed back with All made explicit.
	Clients  []string
	Projects []string
}

// Resolve reduces data by date, then client, then project into the main
// view. The trailing view comes from the unfiltered data. Project options are
// derived from the client-filtered data, independent of the date range.
func Resolve(data []models.Transaction, sel Selection, today models.Date) Views {
	r := ResolveDateRange(sel.Start, sel.End, data, today)

	clientFiltered := ApplyClientFilter(data, sel.Clients)

	main := ApplyDateFilter(data, r)
	main = ApplyClientFilter(main, sel.Clients)
	main = ApplyProjectFilter(main, sel.Projects)

	return Views{
		Main:             main,
		Trailing:         TrailingWindow(data, today),
		Range:            r,
		ClientOptions:    ClientOptions(data),
		ProjectOptions:   ProjectOptions(clientFiltered),
		DrilldownOptions: DrilldownOptions(data),
		Clients:          echo(sel.Clients),
		Projects:         echo(sel.Projects),
	}
}

func echo(selection []string) []string {
	if IsAll(selection) {
		return []string{All}
	}
	out := make([]string, len(selection))
	copy(out, selection)
	return out
}
