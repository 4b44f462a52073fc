package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/models"
)

// PostgresSource reads the acquirer's transaction table over a pgx pool.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSource connects and pings before returning.
func NewPostgresSource(ctx context.Context, connURL, table string) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresSource{pool: pool, table: table}, nil
}

func (s *PostgresSource) Close() {
	s.pool.Close()
}

func (s *PostgresSource) Load(ctx context.Context) ([]models.Transaction, error) {
	start := time.Now()
	query := selectAll(s.table, func(col string) string { return col + "::text" })

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		var raw rawRow
		if err := row.Scan(raw.dest()...); err != nil {
			return models.Transaction{}, err
		}
		return raw.toTransaction(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s rows: %w", s.table, err)
	}

	logger.FromContext(ctx).Info("Loaded transactions", "source", "postgres", "table", s.table,
		"rows", len(out), "duration", time.Since(start).String())
	return out, nil
}
