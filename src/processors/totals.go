package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/settlementdash/backend/src/models"
)

func TotalGross(view []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range view {
		total = total.Add(t.GrossAmount)
	}
	return total
}

func TotalSettled(view []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range view {
		total = total.Add(t.SettledAmount)
	}
	return total
}

func sumBy(view []models.Transaction, key func(models.Transaction) string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range view {
		k := key(t)
		out[k] = out[k].Add(t.GrossAmount)
	}
	return out
}

// GrossByClient sums gross amount per client. Ordering is left to the caller.
func GrossByClient(view []models.Transaction) map[string]decimal.Decimal {
	return sumBy(view, func(t models.Transaction) string { return t.ClientName })
}

// GrossByBrand sums gross amount per card brand.
func GrossByBrand(view []models.Transaction) map[string]decimal.Decimal {
	return sumBy(view, func(t models.Transaction) string { return t.CardBrand })
}

// PaymentStatusSplit counts a row as paid only on an exact PAID status.
// Every other status, known or not, is pending.
func PaymentStatusSplit(view []models.Transaction) PaymentSplit {
	split := PaymentSplit{Paid: decimal.Zero, Pending: decimal.Zero}
	for _, t := range view {
		if t.SettlementStatus == models.StatusPaid {
			split.Paid = split.Paid.Add(t.SettledAmount)
		} else {
			split.Pending = split.Pending.Add(t.SettledAmount)
		}
	}
	return split
}

// ClientDrilldown returns every row of client from the full dataset, in
// source order and regardless of any filter.
func ClientDrilldown(fullData []models.Transaction, client string) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, t := range fullData {
		if t.ClientName == client {
			out = append(out, t)
		}
	}
	return out
}
