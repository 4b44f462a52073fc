package services

import (
	"fmt"
	"io"

	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/security/validation"
	"github.com/xuri/excelize/v2"
)

const drilldownSheet = "Transactions"

var drilldownHeaders = []string{
	"Transaction date", "Settlement date", "Anticipation date", "Client", "Project",
	"Card brand", "Gross amount", "Settled amount", "Status",
}

// WriteDrilldownXLSX renders a client's drill-down rows as a workbook. Dates
// are written as text (blank when null), amounts as numbers.
func WriteDrilldownXLSX(w io.Writer, client string, rows []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", drilldownSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E4057"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}

	if err := f.SetCellValue(drilldownSheet, "A1", validation.SanitizeForFormulaInjection(client)); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	if err := f.SetCellStyle(drilldownSheet, "A1", "A1", headerStyle); err != nil {
		return fmt.Errorf("style title: %w", err)
	}

	header := make([]interface{}, len(drilldownHeaders))
	for i, h := range drilldownHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(drilldownSheet, "A2", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(drilldownSheet, "A2", "I2", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, t := range rows {
		row := i + 3
		gross, _ := t.GrossAmount.Float64()
		settled, _ := t.SettledAmount.Float64()
		values := []interface{}{
			t.TransactionDate.String(),
			t.SettlementDate.String(),
			t.AnticipationDate.String(),
			validation.SanitizeForFormulaInjection(t.ClientName),
			validation.SanitizeForFormulaInjection(t.ProjectName),
			validation.SanitizeForFormulaInjection(t.CardBrand),
			gross,
			settled,
			validation.SanitizeForFormulaInjection(t.SettlementStatus),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", row, err)
		}
		if err := f.SetSheetRow(drilldownSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	if len(rows) > 0 {
		last := len(rows) + 2
		if err := f.SetCellStyle(drilldownSheet, "G3", fmt.Sprintf("H%d", last), amountStyle); err != nil {
			return fmt.Errorf("style amounts: %w", err)
		}
	}

	for _, cw := range []struct {
		from, to string
		width    float64
	}{
		{"A", "C", 16},
		{"D", "F", 24},
		{"G", "H", 16},
		{"I", "I", 24},
	} {
		if err := f.SetColWidth(drilldownSheet, cw.from, cw.to, cw.width); err != nil {
			return fmt.Errorf("set width %s:%s: %w", cw.from, cw.to, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
