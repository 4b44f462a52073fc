package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/settlementdash/backend/src/filters"
	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/parsers"
	"github.com/username/settlementdash/backend/src/processors"
)

var (
	ErrDataSource        = errors.New("failed to load transactions")
	ErrParsingFailed     = errors.New("failed to parse import file")
	ErrImportUnsupported = errors.New("imports are only available for the sqlite data source")
	ErrEmptyImport       = errors.New("import file contains no transactions")
)

// TransactionWriter persists imported rows. datasource.Writer implements it.
type TransactionWriter interface {
	Insert(ctx context.Context, rows []models.Transaction, replace bool) (int, error)
}

// SnapshotInfo describes the dataset a report was computed from.
type SnapshotInfo struct {
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// FilterEcho tells the client which filters were applied and what it may
// pick next.
type FilterEcho struct {
	DateRange        filters.DateRange `json:"date_range"`
	ClientOptions    []string          `json:"client_options"`
	ProjectOptions   []string          `json:"project_options"`
	SelectedClients  []string          `json:"selected_clients"`
	SelectedProjects []string          `json:"selected_projects"`
}

// Report is the full output of one recompute. Every field comes from the
// same dataset snapshot.
type Report struct {
	TotalGrossPeriod         decimal.Decimal            `json:"total_gross_period"`
	TotalSettled             decimal.Decimal            `json:"total_settled"`
	TotalGross30d            decimal.Decimal            `json:"total_gross_30d"`
	ByClient                 map[string]decimal.Decimal `json:"by_client"`
	ByBrand                  map[string]decimal.Decimal `json:"by_brand"`
	DailySeries              []processors.DailyPoint    `json:"daily_series"`
	PaymentSplit             processors.PaymentSplit    `json:"payment_split"`
	Schedule                 processors.Schedule        `json:"schedule"`
	WeekdayAverages          []processors.WeekdayPoint  `json:"weekday_averages"`
	DrilldownSelectorOptions []string                   `json:"drilldown_selector_options"`
	Filters                  FilterEcho                 `json:"filters"`
	Snapshot                 SnapshotInfo               `json:"snapshot"`
}

// Options is the selector state for a client selection.
type Options struct {
	ClientOptions    []string `json:"client_options"`
	ProjectOptions   []string `json:"project_options"`
	DrilldownOptions []string `json:"drilldown_options"`
}

type ImportResult struct {
	Inserted    int                  `json:"inserted"`
	SkippedRows int                  `json:"skipped_rows"`
	Warnings    []parsers.RowWarning `json:"warnings"`
	Replaced    bool                 `json:"replaced"`
}
