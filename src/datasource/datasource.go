// Package datasource loads the settlement transaction table into typed
// records. Every backend returns the complete table; filtering happens in
// memory.
package datasource

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/security/validation"
	"github.com/username/settlementdash/backend/src/utils"
)

// Source returns the complete transaction dataset.
type Source interface {
	Load(ctx context.Context) ([]models.Transaction, error)
}

// Stored column names, in scan order.
var columns = []string{
	"DATA_DA_TRANSACAO",
	"DATA_DO_REPASSE",
	"DATA_DA_ANTECIPACAO",
	"FANTASIA_SUBADQUIRIDO",
	"PROJETO_SUBADQUIRIDO",
	"BANDEIRA",
	"VALOR_BRUTO_TRANSACIONADO",
	"VALOR_DE_REPASSE",
	"DINHEIRO_REPASSADO",
}

// rawRow holds one row as text; nil means SQL NULL.
type rawRow [9]*string

func (r *rawRow) dest() []any {
	out := make([]any, len(r))
	for i := range r {
		out[i] = &r[i]
	}
	return out
}

func (r *rawRow) get(i int) string {
	if r[i] == nil {
		return ""
	}
	return *r[i]
}

// toTransaction converts text columns tolerantly: bad dates become null and
// bad or missing amounts become zero.
func (r *rawRow) toTransaction() models.Transaction {
	gross, _ := utils.ParseAmount(r.get(6))
	settled, _ := utils.ParseAmount(r.get(7))
	return models.Transaction{
		TransactionDate:  models.ParseDate(r.get(0)),
		SettlementDate:   models.ParseDate(r.get(1)),
		AnticipationDate: models.ParseDate(r.get(2)),
		ClientName:       validation.CleanCategory(r.get(3)),
		ProjectName:      validation.CleanCategory(r.get(4)),
		CardBrand:        validation.CleanCategory(r.get(5)),
		GrossAmount:      gross,
		SettledAmount:    settled,
		SettlementStatus: models.NormalizeStatus(r.get(8)),
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// selectAll builds the load query; castText renders one column as text in the
// target dialect.
func selectAll(table string, castText func(col string) string) string {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = castText(quoteIdent(c))
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + quoteIdent(table)
}

// Static serves a fixed dataset. Used by tests and local demos.
type Static struct {
	Rows  []models.Transaction
	Err   error
	loads atomic.Int64
}

// Loads reports how many times Load was called.
func (s *Static) Loads() int {
	return int(s.loads.Load())
}

func (s *Static) Load(ctx context.Context) ([]models.Transaction, error) {
	s.loads.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Transaction, len(s.Rows))
	copy(out, s.Rows)
	return out, nil
}
