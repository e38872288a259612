package extract

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// BankExtractor parses OCR-extracted bank statement text into
// transactions. Statement lines carry a month-abbrev/day date, a
// description, zero to two amount columns and a running balance; the
// statement year comes from the period header.
type BankExtractor struct {
	config *BankConfig
	log    logger.Logger
}

// NewBankExtractor creates a bank statement extractor.
func NewBankExtractor(config *BankConfig) (*BankExtractor, error) {
	if config == nil {
		config = DefaultBankConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "bank_extractor", nil, err)
	}
	return &BankExtractor{
		config: config,
		log:    logger.WithComponent("bank_extractor"),
	}, nil
}

var (
	periodLine = regexp.MustCompile(`(?i)statement period.*\b(\d{4})\b`)
	txLine     = regexp.MustCompile(`^([A-Z][a-z]{2}) (\d{2})\s+(.+)$`)
	amountTok  = regexp.MustCompile(`[\d,]+\.\d{2}`)
	zelleRecip = regexp.MustCompile(`INTERNETTRANSFER#\d+TO([A-Z\-]+?)\(ZELLE\)`)
)

var errUnrecognizedLine = errors.New("line does not match any statement grammar")

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if year < 2000 || year > 2100 {
		return 0, errors.New("implausible statement year")
	}
	return year, nil
}

// Extract parses statement lines into transactions. Every line that
// matches no grammar is counted and sampled, not fatal. Balance-carry
// and interest lines become records with their own kinds so totals can
// exclude them explicitly.
func (e *BankExtractor) Extract(lines []string, sourceFile string) ([]*models.BankTransaction, *Diagnostics) {
	diag := &Diagnostics{}
	var transactions []*models.BankTransaction
	year := e.config.DefaultYear

	for i, line := range lines {
		diag.LinesRead++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if groups := periodLine.FindStringSubmatch(trimmed); groups != nil {
			parsed, err := parseYear(groups[1])
			if err == nil {
				year = parsed
			}
			continue
		}

		groups := txLine.FindStringSubmatch(trimmed)
		if groups == nil {
			diag.LinesSkipped++
			continue
		}

		records, err := e.parseTransactionLine(groups[1], groups[2], groups[3], year)
		if err != nil {
			diag.LinesSkipped++
			diag.RecordError(apperrors.ParseError(sourceFile, i+1, trimmed, err))
			continue
		}

		for _, tx := range records {
			tx.SourceFile = sourceFile
			if err := tx.Validate(); err != nil {
				diag.ValidationDropped++
				diag.RecordError(apperrors.ValidationError(apperrors.CodeInvalidData, "transaction", tx.String(), err))
				continue
			}
			transactions = append(transactions, tx)
			diag.RecordsExtracted++
		}
	}

	e.log.WithFields(logger.Fields{
		"source":       sourceFile,
		"lines":        diag.LinesRead,
		"transactions": diag.RecordsExtracted,
		"skipped":      diag.LinesSkipped,
	}).Info("bank statement extracted")

	return transactions, diag
}

// parseTransactionLine splits the remainder of a statement line into
// description and amount columns. The trailing amount is always the
// running balance; a single leading amount is signed by the withdrawal
// markers, two leading amounts are the withdrawal and deposit columns.
func (e *BankExtractor) parseTransactionLine(monthAbbrev, day, rest string, year int) ([]*models.BankTransaction, error) {
	date, err := models.ParseStatementDate(monthAbbrev, day, year)
	if err != nil {
		return nil, err
	}

	amountStrs := amountTok.FindAllString(rest, -1)
	description := strings.TrimSpace(amountTok.ReplaceAllString(rest, ""))

	if len(amountStrs) == 0 {
		return nil, errUnrecognizedLine
	}

	amounts := make([]decimal.Decimal, 0, len(amountStrs))
	for _, s := range amountStrs {
		d, err := models.ParseAmount(s)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, d)
	}

	balance := decimal.NullDecimal{Decimal: amounts[len(amounts)-1], Valid: true}
	values := amounts[:len(amounts)-1]

	if isBalanceCarry(description) {
		tx := e.newTransaction(date, balance.Decimal, description, balance)
		tx.Kind = models.KindBalanceCarry
		return []*models.BankTransaction{tx}, nil
	}

	switch len(values) {
	case 0:
		return nil, errUnrecognizedLine
	case 1:
		amount := values[0]
		if e.isWithdrawal(description) {
			amount = amount.Neg()
		}
		return []*models.BankTransaction{e.newTransaction(date, amount, description, balance)}, nil
	case 2:
		// Withdrawal column first, deposit column second. OCR keeps a
		// 0.00 in the unused column.
		var out []*models.BankTransaction
		if !values[0].IsZero() {
			out = append(out, e.newTransaction(date, values[0].Neg(), description, balance))
		}
		if !values[1].IsZero() {
			out = append(out, e.newTransaction(date, values[1], description, balance))
		}
		if len(out) == 0 {
			return nil, errUnrecognizedLine
		}
		return out, nil
	default:
		return nil, errUnrecognizedLine
	}
}

// newTransaction builds a transaction and classifies it.
func (e *BankExtractor) newTransaction(date time.Time, amount decimal.Decimal, description string, balance decimal.NullDecimal) *models.BankTransaction {
	tx := &models.BankTransaction{
		Date:        date,
		Amount:      amount,
		Description: description,
		Balance:     balance,
	}
	e.classify(tx)
	return tx
}

// classify assigns the transaction kind by explicit rules. Anything
// that matches no rule is KindOther, never silently a deposit.
func (e *BankExtractor) classify(tx *models.BankTransaction) {
	lower := strings.ToLower(tx.Description)

	switch {
	case isBalanceCarry(tx.Description):
		tx.Kind = models.KindBalanceCarry
	case strings.Contains(lower, "interest"):
		tx.Kind = models.KindInterest
	case strings.Contains(lower, "service charge") || strings.Contains(lower, "fee"):
		tx.Kind = models.KindFee
	case tx.Amount.IsNegative() && e.isWithdrawal(tx.Description):
		tx.Kind = models.KindDriverWithdrawal
		tx.Recipient = e.extractRecipient(tx.Description)
	case tx.Amount.IsPositive() && strings.Contains(lower, strings.ToLower(e.config.CounterpartyToken)):
		if ref, ok := e.config.Matcher.ExtractFromDescription(tx.Description); ok {
			tx.Kind = models.KindLoadDeposit
			tx.LoadRef = ref
		} else {
			tx.Kind = models.KindOther
		}
	default:
		tx.Kind = models.KindOther
		if ref, ok := e.config.Matcher.ExtractFromDescription(tx.Description); ok {
			tx.LoadRef = ref
		}
	}
}

// isWithdrawal reports whether the description carries a driver payout
// marker: an ACH transfer through the payment processor, or a Zelle
// transfer.
func (e *BankExtractor) isWithdrawal(description string) bool {
	lower := strings.ToLower(description)
	if strings.Contains(lower, "ach transfer") && strings.Contains(lower, strings.ToLower(e.config.ProcessorLabel)) {
		return true
	}
	return zelleRecip.MatchString(collapse(description))
}

// extractRecipient pulls the payout recipient out of the description.
// ACH descriptions lead with the payee before the pipe; Zelle
// descriptions embed the name in the transfer token.
func (e *BankExtractor) extractRecipient(description string) string {
	if groups := zelleRecip.FindStringSubmatch(collapse(description)); groups != nil {
		return strings.TrimSpace(groups[1])
	}
	if idx := strings.Index(description, "|"); idx >= 0 {
		return strings.TrimSpace(description[:idx])
	}
	return ""
}

func isBalanceCarry(description string) bool {
	lower := strings.ToLower(description)
	return strings.Contains(lower, "beginning balance") ||
		strings.Contains(lower, "ending balance") ||
		strings.Contains(lower, "opening balance") ||
		strings.Contains(lower, "closing balance") ||
		strings.Contains(lower, "balance forward")
}

// collapse removes whitespace and upper-cases, matching the OCR habit
// of dropping or inserting spaces inside transfer tokens.
func collapse(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}
