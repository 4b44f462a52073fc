package datasource

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/username/settlementdash/backend/src/database"
	"github.com/username/settlementdash/backend/src/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.db")
	if err := database.RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteSource_TolerantLoad(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`INSERT INTO vendas
		(DATA_DA_TRANSACAO, DATA_DO_REPASSE, DATA_DA_ANTECIPACAO, FANTASIA_SUBADQUIRIDO,
		 PROJETO_SUBADQUIRIDO, BANDEIRA, VALOR_BRUTO_TRANSACIONADO, VALOR_DE_REPASSE, DINHEIRO_REPASSADO)
		VALUES
		('2024-05-06 10:00:00', '2024-06-05', NULL, ' Loja  Azul ', 'P1', 'VISA', '1.234,56', '1200.10', 'PAGO'),
		('not-a-date', NULL, NULL, 'Loja Azul', 'P2', 'MASTER', NULL, '-5', 'ESTORNADO')`)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	rows, err := NewSQLiteSource(db, "vendas").Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.TransactionDate.String() != "2024-05-06" || first.SettlementDate.String() != "2024-06-05" {
		t.Errorf("dates = %s / %s", first.TransactionDate, first.SettlementDate)
	}
	if !first.AnticipationDate.IsNull() {
		t.Errorf("anticipation date should be null, got %s", first.AnticipationDate)
	}
	if first.ClientName != "Loja Azul" {
		t.Errorf("client = %q", first.ClientName)
	}
	if !first.GrossAmount.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("gross = %s", first.GrossAmount)
	}
	if first.SettlementStatus != models.StatusPaid {
		t.Errorf("status = %q", first.SettlementStatus)
	}

	second := rows[1]
	if !second.TransactionDate.IsNull() {
		t.Errorf("unparsable date should be null, got %s", second.TransactionDate)
	}
	if !second.GrossAmount.IsZero() || !second.SettledAmount.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("amounts = %s / %s", second.GrossAmount, second.SettledAmount)
	}
	if second.SettlementStatus != "ESTORNADO" {
		t.Errorf("unknown status must pass through, got %q", second.SettlementStatus)
	}
}

func TestWriter_InsertAndReplace(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	w := NewWriter(db, "vendas")
	src := NewSQLiteSource(db, "vendas")

	batch := []models.Transaction{
		{
			TransactionDate:  models.NewDate(2024, 5, 1),
			SettlementDate:   models.NewDate(2024, 5, 31),
			ClientName:       "Loja Azul",
			ProjectName:      "Site",
			CardBrand:        "VISA",
			GrossAmount:      decimal.RequireFromString("100.10"),
			SettledAmount:    decimal.RequireFromString("97.5"),
			SettlementStatus: models.StatusOpen,
		},
		{
			ClientName:       "Mercado Sol",
			GrossAmount:      decimal.NewFromInt(50),
			SettlementStatus: models.StatusPaid,
		},
	}

	n, err := w.Insert(ctx, batch, false)
	if err != nil || n != 2 {
		t.Fatalf("Insert = %d, %v", n, err)
	}
	var stored string
	if err := db.QueryRow(`SELECT DINHEIRO_REPASSADO FROM vendas WHERE FANTASIA_SUBADQUIRIDO = 'Loja Azul'`).Scan(&stored); err != nil || stored != "ABERTO" {
		t.Errorf("stored status = %q, %v; want source code ABERTO", stored, err)
	}

	got, err := src.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].GrossAmount.Equal(batch[0].GrossAmount) || got[0].SettlementStatus != models.StatusOpen {
		t.Fatalf("round trip = %+v", got)
	}
	if !got[1].TransactionDate.IsNull() {
		t.Errorf("null date stored as %s", got[1].TransactionDate)
	}

	if _, err := w.Insert(ctx, batch[:1], true); err != nil {
		t.Fatal(err)
	}
	got, _ = src.Load(ctx)
	if len(got) != 1 {
		t.Fatalf("replace left %d rows, want 1", len(got))
	}
}

func TestStatic(t *testing.T) {
	s := &Static{Rows: []models.Transaction{{ClientName: "A"}}}
	rows, err := s.Load(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("Load = %v, %v", rows, err)
	}
	rows[0].ClientName = "mutated"
	if s.Rows[0].ClientName != "A" {
		t.Error("Load must return a copy")
	}

	boom := errors.New("boom")
	s.Err = boom
	if _, err := s.Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if s.Loads() != 2 {
		t.Errorf("Loads() = %d", s.Loads())
	}
}

func TestSelectAllQuotesIdentifiers(t *testing.T) {
	q := selectAll(`ven"das`, func(c string) string { return c + "::text" })
	want := `SELECT "DATA_DA_TRANSACAO"::text, "DATA_DO_REPASSE"::text, "DATA_DA_ANTECIPACAO"::text, ` +
		`"FANTASIA_SUBADQUIRIDO"::text, "PROJETO_SUBADQUIRIDO"::text, "BANDEIRA"::text, ` +
		`"VALOR_BRUTO_TRANSACIONADO"::text, "VALOR_DE_REPASSE"::text, "DINHEIRO_REPASSADO"::text FROM "ven""das"`
	if q != want {
		t.Errorf("query =\n%s\nwant\n%s", q, want)
	}
}

func TestWriter_FailedRowInsertsNothing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`CREATE TABLE strict_vendas (
		DATA_DA_TRANSACAO TEXT, DATA_DO_REPASSE TEXT, DATA_DA_ANTECIPACAO TEXT,
		FANTASIA_SUBADQUIRIDO TEXT CHECK (FANTASIA_SUBADQUIRIDO <> 'REJECT'),
		PROJETO_SUBADQUIRIDO TEXT, BANDEIRA TEXT, VALOR_BRUTO_TRANSACIONADO TEXT,
		VALOR_DE_REPASSE TEXT, DINHEIRO_REPASSADO TEXT)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	rows := []models.Transaction{
		{ClientName: "Loja Azul", GrossAmount: decimal.NewFromInt(10)},
		{ClientName: "REJECT", GrossAmount: decimal.NewFromInt(20)},
		{ClientName: "Mercado Sol", GrossAmount: decimal.NewFromInt(30)},
	}
	n, err := NewWriter(db, "strict_vendas").Insert(context.Background(), rows, false)
	if err == nil {
		t.Fatal("Insert succeeded despite a rejected row")
	}
	if n != 0 {
		t.Errorf("inserted = %d, want 0 after rollback", n)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM strict_vendas").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("table holds %d rows after a failed import", count)
	}
}
