package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Settlement status values. The set is open: any other value is kept as-is
// and counts as pending wherever a paid/pending split is made.
const (
	StatusPaid                 = "PAID"
	StatusOpen                 = "OPEN"
	StatusProcessingSettlement = "PROCESSING_SETTLEMENT"
)

// sourceStatusCodes maps the codes stored in the acquirer table to the
// canonical status names.
var sourceStatusCodes = map[string]string{
	"PAGO":                StatusPaid,
	"ABERTO":              StatusOpen,
	"PROCESSANDO_REPASSE": StatusProcessingSettlement,
}

// NormalizeStatus translates source status codes. Unknown values pass
// through untouched so that new upstream states are never lost.
func NormalizeStatus(raw string) string {
	s := strings.TrimSpace(raw)
	if canonical, ok := sourceStatusCodes[strings.ToUpper(s)]; ok {
		return canonical
	}
	return s
}

// Transaction is one row of the settlement table.
type Transaction struct {
	TransactionDate  Date            `json:"transaction_date"`
	SettlementDate   Date            `json:"settlement_date"`
	AnticipationDate Date            `json:"anticipation_date"`
	ClientName       string          `json:"client_name"`  // subacquirer display name
	ProjectName      string          `json:"project_name"` // subacquirer project
	CardBrand        string          `json:"card_brand"`
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	SettledAmount    decimal.Decimal `json:"settled_amount"`
	SettlementStatus string          `json:"settlement_status"`
}

// SourceStatusCode maps a canonical status back to the acquirer code used in
// the stored table. Unknown statuses are stored as-is.
func SourceStatusCode(status string) string {
	for code, canonical := range sourceStatusCodes {
		if canonical == status {
			return code
		}
	}
	return status
}
