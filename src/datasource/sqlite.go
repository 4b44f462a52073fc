package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/models"
)

// SQLiteSource reads the transaction table from the application database.
type SQLiteSource struct {
	db    *sql.DB
	table string
}

func NewSQLiteSource(db *sql.DB, table string) *SQLiteSource {
	return &SQLiteSource{db: db, table: table}
}

func (s *SQLiteSource) Load(ctx context.Context) ([]models.Transaction, error) {
	start := time.Now()
	query := selectAll(s.table, func(col string) string { return "CAST(" + col + " AS TEXT)" })

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var raw rawRow
		if err := rows.Scan(raw.dest()...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.table, err)
		}
		out = append(out, raw.toTransaction())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", s.table, err)
	}

	logger.FromContext(ctx).Info("Loaded transactions", "source", "sqlite", "table", s.table,
		"rows", len(out), "duration", time.Since(start).String())
	return out, nil
}
