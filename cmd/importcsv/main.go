// Command importcsv loads a settlement CSV export into the local sqlite
// transactions table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/username/settlementdash/backend/src/config"
	"github.com/username/settlementdash/backend/src/database"
	"github.com/username/settlementdash/backend/src/datasource"
	"github.com/username/settlementdash/backend/src/logger"
	"github.com/username/settlementdash/backend/src/parsers"
)

func main() {
	config.LoadConfig()
	dbPath := flag.String("db", config.Cfg.DatabasePath, "path to the application sqlite database")
	table := flag.String("table", config.Cfg.TransactionsTable, "transactions table to write into")
	format := flag.String("format", "vendas", "input format")
	replace := flag.Bool("replace", false, "empty the table before inserting")
	flag.Parse()

	logger.InitLogger(config.Cfg.LogLevel)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: importcsv [-db PATH] [-table NAME] [-replace] FILE.csv")
		os.Exit(2)
	}
	if err := run(context.Background(), *dbPath, *table, *format, flag.Arg(0), *replace); err != nil {
		logger.L.Error("Import failed", "file", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath, table, format, path string, replace bool) error {
	start := time.Now()
	parser, err := parsers.GetParser(format)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	result, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, w := range result.Warnings {
		logger.L.Warn("Row warning", "line", w.Line, "column", w.Column, "value", w.Value, "message", w.Message)
	}
	if len(result.Transactions) == 0 {
		return fmt.Errorf("%s contains no transactions", path)
	}

	database.InitDB(dbPath)
	defer database.DB.Close()

	n, err := datasource.NewWriter(database.DB, table).Insert(ctx, result.Transactions, replace)
	if err != nil {
		return err
	}
	logger.L.Info("Import finished", "file", path, "table", table, "inserted", n,
		"skipped", result.SkippedRows, "warnings", len(result.Warnings), "replace", replace,
		"duration", time.Since(start).String())
	return nil
}
