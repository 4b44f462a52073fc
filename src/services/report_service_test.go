package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/settlementdash/backend/src/datasource"
	"github.com/username/settlementdash/backend/src/filters"
	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/processors"
	"github.com/username/settlementdash/backend/src/security"
	"github.com/xuri/excelize/v2"
)

var loggedIn = security.Session{State: security.LoggedIn, Username: "analyst"}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func todayRows(today models.Date) []models.Transaction {
	return []models.Transaction{
		{ClientName: "A", ProjectName: "A1", CardBrand: "VISA", TransactionDate: today, SettlementDate: today.AddDays(30), GrossAmount: d("100"), SettledAmount: d("95"), SettlementStatus: models.StatusOpen},
		{ClientName: "A", ProjectName: "A2", CardBrand: "MASTER", TransactionDate: today.AddDays(-1), GrossAmount: d("50"), SettledAmount: d("48"), SettlementStatus: models.StatusPaid},
		{ClientName: "B", ProjectName: "B1", CardBrand: "VISA", TransactionDate: today.AddDays(-20), GrossAmount: d("70"), SettledAmount: d("66"), SettlementStatus: models.StatusProcessingSettlement},
		{ClientName: "B", ProjectName: "B1", CardBrand: "ELO", TransactionDate: today.AddDays(-60), GrossAmount: d("1000"), SettledAmount: d("990"), SettlementStatus: models.StatusPaid},
		{ClientName: "C", ProjectName: "C1", CardBrand: "VISA", GrossAmount: d("5"), SettledAmount: d("5"), SettlementStatus: models.StatusOpen},
	}
}

func newService(src datasource.Source) *ReportService {
	return NewReportService(src, cache.New(cache.NoExpiration, time.Minute), ReportServiceOptions{Location: time.UTC})
}

func TestRecompute_RejectsLoggedOutSession(t *testing.T) {
	src := &datasource.Static{}
	svc := newService(src)
	if _, err := svc.Recompute(context.Background(), security.Session{}, filters.Selection{}); !errors.Is(err, security.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Drilldown(context.Background(), security.Session{}, "A"); !errors.Is(err, security.ErrUnauthorized) {
		t.Fatalf("drilldown err = %v", err)
	}
	if src.Loads() != 0 {
		t.Error("data was loaded for an unauthorized session")
	}
}

func TestRecompute_DefaultSelection(t *testing.T) {
	svc := newService(nil)
	today := svc.Today()
	svc.source = &datasource.Static{Rows: todayRows(today)}

	r, err := svc.Recompute(context.Background(), loggedIn, filters.Selection{})
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	// Default range is the last week up to today: the rows dated today and yesterday.
	if !r.TotalGrossPeriod.Equal(d("150")) || !r.TotalSettled.Equal(d("143")) {
		t.Errorf("period totals = %s / %s", r.TotalGrossPeriod, r.TotalSettled)
	}
	if !r.TotalGross30d.Equal(d("220")) {
		t.Errorf("30d total = %s, want 220", r.TotalGross30d)
	}
	if !r.PaymentSplit.Paid.Equal(d("48")) || !r.PaymentSplit.Pending.Equal(d("95")) {
		t.Errorf("split = %+v", r.PaymentSplit)
	}
	if r.Schedule.Status != processors.ScheduleOK || len(r.Schedule.Valid) != 1 {
		t.Errorf("schedule = %+v", r.Schedule)
	}
	if len(r.DailySeries) != 2 || len(r.WeekdayAverages) != 7 {
		t.Errorf("series = %d points, weekdays = %d", len(r.DailySeries), len(r.WeekdayAverages))
	}
	if got := strings.Join(r.DrilldownSelectorOptions, ","); got != "A,B,C" {
		t.Errorf("drilldown options = %s", got)
	}
	if got := strings.Join(r.Filters.ClientOptions, ","); got != "All,A,B,C" {
		t.Errorf("client options = %s", got)
	}
	if !r.Filters.DateRange.End.Equal(today) || !r.Filters.DateRange.Start.Equal(today.AddDays(-6)) {
		t.Errorf("date range = %+v", r.Filters.DateRange)
	}
	if r.Snapshot.Rows != 5 {
		t.Errorf("snapshot rows = %d", r.Snapshot.Rows)
	}
}

func TestRecompute_TrailingTotalIgnoresFilters(t *testing.T) {
	svc := newService(nil)
	today := svc.Today()
	svc.source = &datasource.Static{Rows: todayRows(today)}

	selections := []filters.Selection{
		{},
		{Clients: []string{"B"}},
		{Clients: []string{"A"}, Projects: []string{"A2"}},
		{Start: today.AddDays(-100), End: today.AddDays(-90)},
	}
	for _, sel := range selections {
		r, err := svc.Recompute(context.Background(), loggedIn, sel)
		if err != nil {
			t.Fatal(err)
		}
		if !r.TotalGross30d.Equal(d("220")) {
			t.Errorf("selection %+v: 30d total = %s", sel, r.TotalGross30d)
		}
	}
}

func TestRecompute_ProjectFilterAndCascade(t *testing.T) {
	svc := newService(nil)
	today := svc.Today()
	svc.source = &datasource.Static{Rows: todayRows(today)}

	r, err := svc.Recompute(context.Background(), loggedIn, filters.Selection{
		Start:    today.AddDays(-90),
		End:      today,
		Clients:  []string{"A"},
		Projects: []string{"A1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !r.TotalGrossPeriod.Equal(d("100")) {
		t.Errorf("total = %s", r.TotalGrossPeriod)
	}
	if got := strings.Join(r.Filters.ProjectOptions, ","); got != "All,A1,A2" {
		t.Errorf("project options = %s", got)
	}
}

func TestSnapshotIsMemoizedAndInvalidated(t *testing.T) {
	src := &datasource.Static{Rows: todayRows(models.NewDate(2024, 5, 1))}
	svc := newService(src)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Recompute(ctx, loggedIn, filters.Selection{}); err != nil {
			t.Fatal(err)
		}
	}
	if src.Loads() != 1 {
		t.Fatalf("loads = %d, want 1", src.Loads())
	}

	svc.InvalidateDataset(ctx)
	if _, err := svc.Drilldown(ctx, loggedIn, "A"); err != nil {
		t.Fatal(err)
	}
	if src.Loads() != 2 {
		t.Fatalf("loads after invalidation = %d, want 2", src.Loads())
	}

	info, err := svc.Refresh(ctx, loggedIn)
	if err != nil || info.Rows != 5 || src.Loads() != 3 {
		t.Fatalf("Refresh = %+v, %v (loads %d)", info, err, src.Loads())
	}
}

type slowSource struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (s *slowSource) Load(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	<-s.release
	return []models.Transaction{{ClientName: "A"}}, nil
}

func TestSnapshot_ConcurrentMissesShareOneLoad(t *testing.T) {
	src := &slowSource{release: make(chan struct{})}
	svc := newService(src)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Drilldown(context.Background(), loggedIn, "A")
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls != 1 {
		t.Errorf("source loaded %d times, want 1", src.calls)
	}
}

// gatedSource snapshots its table when Load starts. The first Load then
// blocks until gate is closed.
type gatedSource struct {
	mu      sync.Mutex
	rows    []models.Transaction
	calls   int
	started chan struct{}
	gate    chan struct{}
}

func (s *gatedSource) Load(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	rows := append([]models.Transaction(nil), s.rows...)
	s.mu.Unlock()
	if n == 1 {
		close(s.started)
		<-s.gate
	}
	return rows, nil
}

func (s *gatedSource) add(t models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, t)
}

func TestRefresh_SupersedesInFlightLoad(t *testing.T) {
	src := &gatedSource{
		rows:    []models.Transaction{{ClientName: "A", GrossAmount: d("1")}},
		started: make(chan struct{}),
		gate:    make(chan struct{}),
	}
	svc := newService(src)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Drilldown(ctx, loggedIn, "A")
		firstDone <- err
	}()
	<-src.started

	src.add(models.Transaction{ClientName: "B", GrossAmount: d("2")})
	info, err := svc.Refresh(ctx, loggedIn)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if info.Rows != 2 {
		t.Fatalf("refresh rows = %d, want 2", info.Rows)
	}

	close(src.gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first load: %v", err)
	}

	// The stale load finished after the refresh and must not replace it.
	r, err := svc.Recompute(ctx, loggedIn, filters.Selection{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Snapshot.Rows != 2 {
		t.Errorf("cached rows = %d, want 2", r.Snapshot.Rows)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	if src.calls != 2 {
		t.Errorf("source loaded %d times, want 2", src.calls)
	}
}

func TestSnapshot_FailureIsNotCached(t *testing.T) {
	src := &datasource.Static{Err: errors.New("connection refused")}
	svc := newService(src)

	_, err := svc.Recompute(context.Background(), loggedIn, filters.Selection{})
	if !errors.Is(err, ErrDataSource) {
		t.Fatalf("err = %v, want ErrDataSource", err)
	}
	src.Err = nil
	if _, err := svc.Recompute(context.Background(), loggedIn, filters.Selection{}); err != nil {
		t.Fatalf("recovery failed: %v", err)
	}
	if src.Loads() != 2 {
		t.Errorf("loads = %d, want 2", src.Loads())
	}
}

func TestRecompute_EmptyDataset(t *testing.T) {
	svc := newService(&datasource.Static{})
	r, err := svc.Recompute(context.Background(), loggedIn, filters.Selection{})
	if err != nil {
		t.Fatal(err)
	}
	if !r.TotalGrossPeriod.IsZero() || !r.TotalGross30d.IsZero() || len(r.ByClient) != 0 {
		t.Errorf("report = %+v", r)
	}
	if r.Schedule.Status != processors.ScheduleNoData {
		t.Errorf("schedule status = %s", r.Schedule.Status)
	}
	for _, a := range r.WeekdayAverages {
		if a.Average.Valid {
			t.Errorf("%s average present on empty data", a.Weekday)
		}
	}
	if !r.Filters.DateRange.IsEmpty() {
		t.Errorf("date range = %+v", r.Filters.DateRange)
	}
}

func TestOptions(t *testing.T) {
	svc := newService(&datasource.Static{Rows: todayRows(models.NewDate(2024, 5, 1))})
	opts, err := svc.Options(context.Background(), loggedIn, []string{"B"})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(opts.ProjectOptions, ","); got != "All,B1" {
		t.Errorf("project options = %s", got)
	}
}

type recordingWriter struct {
	rows    []models.Transaction
	replace bool
}

func (w *recordingWriter) Insert(_ context.Context, rows []models.Transaction, replace bool) (int, error) {
	w.rows = append(w.rows, rows...)
	w.replace = replace
	return len(rows), nil
}

func TestImport(t *testing.T) {
	src := &datasource.Static{}
	writer := &recordingWriter{}
	svc := NewReportService(src, cache.New(cache.NoExpiration, time.Minute), ReportServiceOptions{Writer: writer})
	ctx := context.Background()

	if _, err := svc.Recompute(ctx, loggedIn, filters.Selection{}); err != nil {
		t.Fatal(err)
	}

	csv := "DATA_DA_TRANSACAO;FANTASIA_SUBADQUIRIDO;VALOR_BRUTO_TRANSACIONADO;DINHEIRO_REPASSADO\n" +
		"01/05/2024;Loja Azul;10,50;PAGO\n" +
		"02/05/2024;Loja Azul;zz;ABERTO\n"
	res, err := svc.Import(ctx, loggedIn, strings.NewReader(csv), "", true)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Inserted != 2 || len(res.Warnings) != 1 || !writer.replace {
		t.Errorf("result = %+v, replace = %v", res, writer.replace)
	}
	if writer.rows[0].SettlementStatus != models.StatusPaid || !writer.rows[0].GrossAmount.Equal(d("10.5")) {
		t.Errorf("first row = %+v", writer.rows[0])
	}

	// The import invalidated the cached table.
	if _, err := svc.Recompute(ctx, loggedIn, filters.Selection{}); err != nil {
		t.Fatal(err)
	}
	if src.Loads() != 2 {
		t.Errorf("loads = %d, want 2 after import", src.Loads())
	}

	if _, err := svc.Import(ctx, loggedIn, strings.NewReader("FANTASIA_SUBADQUIRIDO\nx\n"), "", false); !errors.Is(err, ErrParsingFailed) {
		t.Errorf("bad header err = %v", err)
	}
	header := "DATA_DA_TRANSACAO,FANTASIA_SUBADQUIRIDO,VALOR_BRUTO_TRANSACIONADO\n"
	if _, err := svc.Import(ctx, loggedIn, strings.NewReader(header), "", false); !errors.Is(err, ErrEmptyImport) {
		t.Errorf("empty import err = %v", err)
	}
}

func TestImport_Unsupported(t *testing.T) {
	svc := newService(&datasource.Static{})
	if svc.CanImport() {
		t.Fatal("service without writer reports CanImport")
	}
	if _, err := svc.Import(context.Background(), loggedIn, strings.NewReader(""), "", false); !errors.Is(err, ErrImportUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func TestWriteDrilldownXLSX(t *testing.T) {
	rows := []models.Transaction{
		{TransactionDate: models.NewDate(2024, 5, 1), ClientName: "=HYPERLINK()", ProjectName: "P", CardBrand: "VISA", GrossAmount: d("12.34"), SettledAmount: d("12"), SettlementStatus: models.StatusPaid},
		{ClientName: "=HYPERLINK()", GrossAmount: d("1"), SettlementStatus: models.StatusOpen},
	}
	var buf bytes.Buffer
	if err := WriteDrilldownXLSX(&buf, "=HYPERLINK()", rows); err != nil {
		t.Fatalf("WriteDrilldownXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows(drilldownSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d rows, want title + header + 2", len(got))
	}
	if got[0][0] != "'=HYPERLINK()" {
		t.Errorf("title cell = %q, want sanitized", got[0][0])
	}
	if got[1][0] != "Transaction date" || got[2][0] != "2024-05-01" || got[2][3] != "'=HYPERLINK()" {
		t.Errorf("rows = %v", got)
	}
	if got[3][0] != "" {
		t.Errorf("null date exported as %q", got[3][0])
	}
}
