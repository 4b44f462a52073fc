package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/settlementdash/backend/src/models"
)

// Writer stores imported transactions in the sqlite table using the
// acquirer's column layout and status codes.
type Writer struct {
	db    *sql.DB
	table string
}

func NewWriter(db *sql.DB, table string) *Writer {
	return &Writer{db: db, table: table}
}

// Insert writes rows in one SQL transaction. With replace set, the existing
// contents of the table are removed first.
func (w *Writer) Insert(ctx context.Context, rows []models.Transaction, replace bool) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(w.table)); err != nil {
			return 0, fmt.Errorf("clear %s: %w", w.table, err)
		}
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(w.table), strings.Join(quoted, ", "), placeholders))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range rows {
		_, err := stmt.ExecContext(ctx,
			t.TransactionDate, t.SettlementDate, t.AnticipationDate,
			t.ClientName, t.ProjectName, t.CardBrand,
			t.GrossAmount.String(), t.SettledAmount.String(),
			models.SourceStatusCode(t.SettlementStatus),
		)
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(rows), nil
}
