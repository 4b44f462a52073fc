package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/settlementdash/backend/src/datasource"
	"github.com/username/settlementdash/backend/src/filters"
	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/parsers"
	"github.com/username/settlementdash/backend/src/processors"
	"github.com/username/settlementdash/backend/src/security"
	"github.com/username/settlementdash/backend/src/utils"
	"golang.org/x/sync/singleflight"
)

// DatasetCacheKey is the single cache entry holding the loaded table.
const DatasetCacheKey = "dataset:current_full_table"

type snapshot struct {
	rows     []models.Transaction
	loadedAt time.Time
	gen      uint64
}

func (s *snapshot) info() SnapshotInfo {
	return SnapshotInfo{Rows: len(s.rows), LoadedAt: s.loadedAt}
}

type ReportServiceOptions struct {
	// DatasetTTL bounds how long a loaded table is served. Zero keeps it until
	// InvalidateDataset is called.
	DatasetTTL time.Duration
	// Location defines "today" for default ranges and the trailing window.
	Location *time.Location
	// Writer enables imports. Nil when the table lives in an external database.
	Writer TransactionWriter
}

// ReportService loads the transaction table once per cache window and builds
// reports from that snapshot.
type ReportService struct {
	source   datasource.Source
	cache    *cache.Cache
	ttl      time.Duration
	location *time.Location
	writer   TransactionWriter
	loads    singleflight.Group
	now      func() time.Time

	// mu guards gen and the cache writes that depend on it. gen is bumped
	// on every invalidation; a load started under an older gen is never
	// cached.
	mu  sync.Mutex
	gen uint64
}

func NewReportService(source datasource.Source, datasetCache *cache.Cache, opts ReportServiceOptions) *ReportService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := opts.DatasetTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &ReportService{
		source:   source,
		cache:    datasetCache,
		ttl:      ttl,
		location: loc,
		writer:   opts.Writer,
		now:      time.Now,
	}
}

// Today is the current calendar day in the configured location.
func (s *ReportService) Today() models.Date {
	return models.DateOf(utils.Today(s.location))
}

func (s *ReportService) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// snapshot returns the cached table, loading it on a miss. Concurrent misses
// share one load. The load is detached from the caller's cancellation so a
// dropped request does not fail the others waiting on it. A caller that
// joined a load started before an invalidation it has already seen loads
// again.
func (s *ReportService) snapshot(ctx context.Context) (*snapshot, error) {
	log := logger.FromContext(ctx)
	for {
		if cached, found := s.cache.Get(DatasetCacheKey); found {
			return cached.(*snapshot), nil
		}

		gen := s.generation()
		v, err, shared := s.loads.Do(DatasetCacheKey, func() (interface{}, error) {
			if cached, found := s.cache.Get(DatasetCacheKey); found {
				return cached, nil
			}
			log.Info("Dataset cache miss, loading transactions")
			rows, err := s.source.Load(context.WithoutCancel(ctx))
			if err != nil {
				log.Error("Dataset load failed", "error", err)
				return nil, fmt.Errorf("%w: %v", ErrDataSource, err)
			}
			snap := &snapshot{rows: rows, loadedAt: s.now(), gen: gen}

			s.mu.Lock()
			if s.gen == gen {
				s.cache.Set(DatasetCacheKey, snap, s.ttl)
			} else {
				log.Info("Dataset invalidated during load, result not cached", "rows", len(rows))
			}
			s.mu.Unlock()
			return snap, nil
		})
		if err != nil {
			return nil, err
		}
		snap := v.(*snapshot)
		if snap.gen >= gen {
			if shared {
				log.Debug("Joined in-flight dataset load")
			}
			return snap, nil
		}
		log.Debug("Joined a dataset load that predates an invalidation, reloading")
	}
}

// Recompute produces the full report for sel. The session must be logged in.
func (s *ReportService) Recompute(ctx context.Context, session security.Session, sel filters.Selection) (*Report, error) {
	if !session.Authorized() {
		return nil, security.ErrUnauthorized
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	views := filters.Resolve(snap.rows, sel, s.Today())
	return &Report{
		TotalGrossPeriod:         processors.TotalGross(views.Main),
		TotalSettled:             processors.TotalSettled(views.Main),
		TotalGross30d:            processors.TotalGross(views.Trailing),
		ByClient:                 processors.GrossByClient(views.Main),
		ByBrand:                  processors.GrossByBrand(views.Main),
		DailySeries:              processors.DailySeries(views.Main),
		PaymentSplit:             processors.PaymentStatusSplit(views.Main),
		Schedule:                 processors.PendingSchedule(views.Main),
		WeekdayAverages:          processors.WeekdayAverage(snap.rows),
		DrilldownSelectorOptions: views.DrilldownOptions,
		Filters: FilterEcho{
			DateRange:        views.Range,
			ClientOptions:    views.ClientOptions,
			ProjectOptions:   views.ProjectOptions,
			SelectedClients:  views.Clients,
			SelectedProjects: views.Projects,
		},
		Snapshot: snap.info(),
	}, nil
}

// Options returns the selector lists for a client selection without
// computing a report.
func (s *ReportService) Options(ctx context.Context, session security.Session, clients []string) (*Options, error) {
	if !session.Authorized() {
		return nil, security.ErrUnauthorized
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &Options{
		ClientOptions:    filters.ClientOptions(snap.rows),
		ProjectOptions:   filters.ProjectOptions(filters.ApplyClientFilter(snap.rows, clients)),
		DrilldownOptions: filters.DrilldownOptions(snap.rows),
	}, nil
}

// Drilldown returns every row of client, ignoring all filters.
func (s *ReportService) Drilldown(ctx context.Context, session security.Session, client string) ([]models.Transaction, error) {
	if !session.Authorized() {
		return nil, security.ErrUnauthorized
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return processors.ClientDrilldown(snap.rows, client), nil
}

// InvalidateDataset drops the cached table; the next request reloads it.
// Loads already in flight finish for their callers but are not cached.
func (s *ReportService) InvalidateDataset(ctx context.Context) {
	s.mu.Lock()
	s.gen++
	s.cache.Delete(DatasetCacheKey)
	s.loads.Forget(DatasetCacheKey)
	s.mu.Unlock()
	logger.FromContext(ctx).Info("Invalidated dataset cache", "key", DatasetCacheKey)
}

// Refresh invalidates and reloads the table immediately.
func (s *ReportService) Refresh(ctx context.Context, session security.Session) (*SnapshotInfo, error) {
	if !session.Authorized() {
		return nil, security.ErrUnauthorized
	}
	s.InvalidateDataset(ctx)
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	info := snap.info()
	return &info, nil
}

// CanImport reports whether a writer is configured.
func (s *ReportService) CanImport() bool {
	return s.writer != nil
}

// Import parses a settlement CSV, stores its rows and invalidates the cached
// table. With replace set the stored table is emptied first.
func (s *ReportService) Import(ctx context.Context, session security.Session, file io.Reader, format string, replace bool) (*ImportResult, error) {
	if !session.Authorized() {
		return nil, security.ErrUnauthorized
	}
	if s.writer == nil {
		return nil, ErrImportUnsupported
	}
	start := time.Now()
	log := logger.FromContext(ctx)

	parser, err := parsers.GetParser(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	parsed, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	if len(parsed.Transactions) == 0 {
		return nil, ErrEmptyImport
	}

	n, err := s.writer.Insert(ctx, parsed.Transactions, replace)
	if err != nil {
		return nil, fmt.Errorf("store imported transactions: %w", err)
	}
	s.InvalidateDataset(ctx)

	log.Info("Import finished", "user", session.Username, "inserted", n,
		"warnings", len(parsed.Warnings), "replace", replace, "duration", time.Since(start).String())
	return &ImportResult{
		Inserted:    n,
		SkippedRows: parsed.SkippedRows,
		Warnings:    parsed.Warnings,
		Replaced:    replace,
	}, nil
}
