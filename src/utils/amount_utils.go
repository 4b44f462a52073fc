package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a monetary value written either with a dot decimal
// separator ("1234.56") or the Brazilian style ("R$ 1.234,56"). Empty input
// and "null" report ok=false.
func ParseAmount(s string) (decimal.Decimal, bool) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "R$")
	v = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
	if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "nan") {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(v, ",")
	lastDot := strings.LastIndex(v, ".")
	switch {
	case lastComma >= 0 && lastComma > lastDot:
		// comma is the decimal separator, dots group thousands
		v = strings.ReplaceAll(v, ".", "")
		v = strings.Replace(v, ",", ".", 1)
	case lastComma >= 0:
		v = strings.ReplaceAll(v, ",", "")
	}

	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
