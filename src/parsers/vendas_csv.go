package parsers

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/settlementdash/backend/src/models"
	"github.com/username/settlementdash/backend/src/security/validation"
	"github.com/username/settlementdash/backend/src/utils"
)

var ErrMissingColumns = errors.New("required columns missing from CSV header")

type field int

const (
	fTransactionDate field = iota
	fSettlementDate
	fAnticipationDate
	fClient
	fProject
	fBrand
	fGross
	fSettled
	fStatus
	fieldCount
)

// headerAliases maps normalized header names to fields. Both the acquirer's
// column names and the JSON names of Transaction are accepted.
var headerAliases = map[string]field{
	"data_da_transacao":         fTransactionDate,
	"transaction_date":          fTransactionDate,
	"data_do_repasse":           fSettlementDate,
	"settlement_date":           fSettlementDate,
	"data_da_antecipacao":       fAnticipationDate,
	"anticipation_date":         fAnticipationDate,
	"fantasia_subadquirido":     fClient,
	"client_name":               fClient,
	"projeto_subadquirido":      fProject,
	"project_name":              fProject,
	"bandeira":                  fBrand,
	"card_brand":                fBrand,
	"valor_bruto_transacionado": fGross,
	"gross_amount":              fGross,
	"valor_de_repasse":          fSettled,
	"settled_amount":            fSettled,
	"dinheiro_repassado":        fStatus,
	"settlement_status":         fStatus,
}

var fieldNames = [fieldCount]string{
	"DATA_DA_TRANSACAO", "DATA_DO_REPASSE", "DATA_DA_ANTECIPACAO",
	"FANTASIA_SUBADQUIRIDO", "PROJETO_SUBADQUIRIDO", "BANDEIRA",
	"VALOR_BRUTO_TRANSACIONADO", "VALOR_DE_REPASSE", "DINHEIRO_REPASSADO",
}

var requiredFields = []field{fTransactionDate, fClient, fGross}

// VendasCSVParser reads CSV exports of the settlement table. The delimiter
// (comma or semicolon) is detected from the header line.
type VendasCSVParser struct{}

func NewVendasCSVParser() *VendasCSVParser {
	return &VendasCSVParser{}
}

func (p *VendasCSVParser) Parse(file io.Reader) (*ParseResult, error) {
	br := bufio.NewReader(file)
	delimiter, err := sniffDelimiter(br)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		if isBlank(record) {
			result.SkippedRows++
			continue
		}
		result.Transactions = append(result.Transactions, p.toTransaction(record, index, line, result))
	}
	return result, nil
}

func (p *VendasCSVParser) toTransaction(record []string, index [fieldCount]int, line int, result *ParseResult) models.Transaction {
	value := func(f field) string {
		i := index[f]
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	date := func(f field) models.Date {
		raw := value(f)
		d := models.ParseDate(raw)
		if d.IsNull() && raw != "" {
			result.Warnings = append(result.Warnings, RowWarning{Line: line, Column: fieldNames[f], Value: raw, Message: "unparsable date, stored as null"})
		}
		return d
	}
	amount := func(f field) decimal.Decimal {
		raw := value(f)
		d, ok := utils.ParseAmount(raw)
		if !ok && raw != "" {
			result.Warnings = append(result.Warnings, RowWarning{Line: line, Column: fieldNames[f], Value: raw, Message: "unparsable amount, stored as 0"})
		}
		return d
	}

	return models.Transaction{
		TransactionDate:  date(fTransactionDate),
		SettlementDate:   date(fSettlementDate),
		AnticipationDate: date(fAnticipationDate),
		ClientName:       validation.CleanCategory(value(fClient)),
		ProjectName:      validation.CleanCategory(value(fProject)),
		CardBrand:        validation.CleanCategory(value(fBrand)),
		GrossAmount:      amount(fGross),
		SettledAmount:    amount(fSettled),
		SettlementStatus: models.NormalizeStatus(value(fStatus)),
	}
}

func sniffDelimiter(br *bufio.Reader) (rune, error) {
	// Drop a UTF-8 BOM left by spreadsheet exports.
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	head, err := br.Peek(br.Size())
	if err != nil && len(head) == 0 {
		if err == io.EOF {
			return 0, errors.New("CSV file is empty")
		}
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';', nil
	}
	return ',', nil
}

func mapHeader(header []string) ([fieldCount]int, error) {
	var index [fieldCount]int
	for i := range index {
		index[i] = -1
	}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(validation.StripUnprintable(h)))
		if f, ok := headerAliases[key]; ok && index[f] < 0 {
			index[f] = i
		}
	}

	var missing []string
	for _, f := range requiredFields {
		if index[f] < 0 {
			missing = append(missing, fieldNames[f])
		}
	}
	if len(missing) > 0 {
		return index, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return index, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
