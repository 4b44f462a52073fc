package parsers

import (
	"fmt"
	"io"
	"strings"

	"github.com/username/settlementdash/backend/src/models"
)

// RowWarning describes a value that could not be read and was replaced by
// null (dates) or zero (amounts).
type RowWarning struct {
	Line    int    `json:"line"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ParseResult struct {
	Transactions []models.Transaction
	Warnings     []RowWarning
	SkippedRows  int
}

type Parser interface {
	Parse(file io.Reader) (*ParseResult, error)
}

// GetParser returns the parser for an import format. An empty format means
// the acquirer's own settlement export.
func GetParser(format string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "vendas", "csv":
		return NewVendasCSVParser(), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}
