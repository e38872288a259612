package extract

import (
	"regexp"
	"strings"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// RemittanceExtractor parses client payment remittance text. A
// remittance starts at a Payment Date header and collects its header
// fields and invoice detail lines until the next one; page rules
// between header and detail pages are ignored, so remittances spanning
// pages parse whole.
type RemittanceExtractor struct {
	config *RemittanceConfig
	log    logger.Logger
}

// NewRemittanceExtractor creates a payment remittance extractor.
func NewRemittanceExtractor(config *RemittanceConfig) (*RemittanceExtractor, error) {
	if config == nil {
		config = DefaultRemittanceConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "remittance_extractor", nil, err)
	}
	return &RemittanceExtractor{
		config: config,
		log:    logger.WithComponent("remittance_extractor"),
	}, nil
}

var (
	pageRule       = regexp.MustCompile(`^={4,}\s*$`)
	paymentDateHdr = regexp.MustCompile(`(?i)payment date[:\s]+([A-Za-z]+\s+\d{1,2},\s+\d{4})`)
	referenceHdr   = regexp.MustCompile(`(?i)(?:payment )?reference number[:\s]+(\S+)`)
	paperDocHdr    = regexp.MustCompile(`(?i)paper document number[:\s]+(\S+)`)
	paymentAmtHdr  = regexp.MustCompile(`(?i)payment amount[:\s]+\$?([\d,]+(?:\.\d{2})?)`)
	// e.g. "10334718517 Jan 2, 74.23 USD .00 74.23 JN1CF0BB7RM738879:From DENVER"
	invoiceDetail = regexp.MustCompile(`(\d+)\s+([A-Za-z]+ \d{1,2},?)\s+([\d,]+(?:\.\d{2})?)\s+USD\s+([\d,]*\.?\d{2})\s+([\d,]*\.?\d{2})\s+([A-Z0-9]+):From\s+(.+)$`)
)

// Extract parses remittance lines. A remittance missing its required
// header fields is dropped and counted; invoice totals diverging from
// the stated payment amount are logged as warnings, never dropped.
func (e *RemittanceExtractor) Extract(lines []string, sourceFile string) ([]*models.Remittance, *Diagnostics) {
	diag := &Diagnostics{}
	var remittances []*models.Remittance
	var current *models.Remittance

	flush := func() {
		if current == nil {
			return
		}
		if err := current.Validate(); err != nil {
			diag.ValidationDropped++
			diag.RecordError(apperrors.ValidationError(apperrors.CodeInvalidData, "remittance", current.PaymentReference, err))
			current = nil
			return
		}
		if !models.AmountsWithinTolerance(current.InvoiceTotal(), current.PaymentAmount, e.config.AmountTolerance) {
			e.log.WithFields(logger.Fields{
				"reference":      current.PaymentReference,
				"payment_amount": current.PaymentAmount.String(),
				"invoice_total":  current.InvoiceTotal().String(),
			}).Warn("remittance invoice total diverges from payment amount")
		}
		remittances = append(remittances, current)
		diag.RecordsExtracted++
		current = nil
	}

	for i, line := range lines {
		diag.LinesRead++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || pageRule.MatchString(trimmed) {
			continue
		}

		if groups := paymentDateHdr.FindStringSubmatch(trimmed); groups != nil {
			flush()
			date, err := models.ParseRemittanceDate(groups[1])
			if err != nil {
				diag.LinesSkipped++
				diag.RecordError(apperrors.ParseError(sourceFile, i+1, trimmed, err))
				continue
			}
			current = &models.Remittance{PaymentDate: date, SourceFile: sourceFile}
			continue
		}

		if current == nil {
			diag.LinesSkipped++
			continue
		}

		if groups := referenceHdr.FindStringSubmatch(trimmed); groups != nil {
			current.PaymentReference = groups[1]
			continue
		}
		if groups := paperDocHdr.FindStringSubmatch(trimmed); groups != nil {
			current.PaperDocumentNumber = groups[1]
			continue
		}
		if groups := paymentAmtHdr.FindStringSubmatch(trimmed); groups != nil {
			amount, err := models.ParseAmount(groups[1])
			if err != nil {
				diag.LinesSkipped++
				diag.RecordError(apperrors.ParseError(sourceFile, i+1, trimmed, err))
				continue
			}
			current.PaymentAmount = amount
			continue
		}
		if groups := invoiceDetail.FindStringSubmatch(trimmed); groups != nil {
			inv, err := parseInvoiceLine(groups)
			if err != nil {
				diag.LinesSkipped++
				diag.RecordError(apperrors.ParseError(sourceFile, i+1, trimmed, err))
				continue
			}
			current.Invoices = append(current.Invoices, *inv)
			continue
		}

		diag.LinesSkipped++
	}
	flush()

	e.log.WithFields(logger.Fields{
		"source":      sourceFile,
		"remittances": diag.RecordsExtracted,
		"skipped":     diag.LinesSkipped,
	}).Info("payment remittances extracted")

	return remittances, diag
}

func parseInvoiceLine(groups []string) (*models.InvoiceLine, error) {
	invoiceAmount, err := models.ParseAmount(groups[3])
	if err != nil {
		return nil, err
	}
	discount, err := models.ParseAmount(groups[4])
	if err != nil {
		return nil, err
	}
	amountPaid, err := models.ParseAmount(groups[5])
	if err != nil {
		return nil, err
	}
	return &models.InvoiceLine{
		InvoiceNumber: groups[1],
		InvoiceDate:   strings.TrimSuffix(groups[2], ","),
		InvoiceAmount: invoiceAmount,
		Discount:      discount,
		AmountPaid:    amountPaid,
		VIN:           groups[6],
		Location:      strings.TrimSpace(groups[7]),
	}, nil
}
