package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// ScheduleExtractor parses one driver's schedule text into entries.
// The driver identity comes from the caller: each schedule source
// belongs to exactly one driver.
type ScheduleExtractor struct {
	config *ScheduleConfig
	log    logger.Logger
}

// NewScheduleExtractor creates a driver schedule extractor.
func NewScheduleExtractor(config *ScheduleConfig) (*ScheduleExtractor, error) {
	if config == nil {
		config = DefaultScheduleConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "schedule_extractor", nil, err)
	}
	return &ScheduleExtractor{
		config: config,
		log:    logger.WithComponent("schedule_extractor"),
	}, nil
}

var (
	scheduleDate = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	amountColumn = regexp.MustCompile(`^\$?[\d,]+\.\d{2}$`)
	monthHeader  = regexp.MustCompile(`^[A-Z][a-z]+$`)
)

// Extract parses schedule lines for the named driver. Month headers,
// page markers and column headers are skipped silently; lines that look
// like entries but do not parse are counted and sampled.
func (e *ScheduleExtractor) Extract(driver string, lines []string, sourceFile string) ([]*models.ScheduleEntry, *Diagnostics) {
	diag := &Diagnostics{}
	var entries []*models.ScheduleEntry

	for i, line := range lines {
		diag.LinesRead++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isStructuralLine(trimmed) {
			continue
		}

		tokens := strings.Fields(trimmed)
		if !scheduleDate.MatchString(tokens[0]) {
			diag.LinesSkipped++
			continue
		}

		entry, err := e.parseEntryTokens(driver, tokens)
		if err != nil {
			diag.LinesSkipped++
			diag.RecordError(apperrors.ParseError(sourceFile, i+1, trimmed, err))
			continue
		}

		entry.SourceFile = sourceFile
		if err := entry.Validate(); err != nil {
			diag.ValidationDropped++
			diag.RecordError(apperrors.ValidationError(apperrors.CodeInvalidData, "schedule_entry", entry.String(), err))
			continue
		}
		entries = append(entries, entry)
		diag.RecordsExtracted++
	}

	e.log.WithFields(logger.Fields{
		"source":  sourceFile,
		"driver":  driver,
		"lines":   diag.LinesRead,
		"entries": diag.RecordsExtracted,
		"skipped": diag.LinesSkipped,
	}).Info("driver schedule extracted")

	return entries, diag
}

// isStructuralLine reports layout noise that carries no entry data:
// bare month names, page markers, rule lines and the column header.
func isStructuralLine(line string) bool {
	if monthHeader.MatchString(line) {
		return true
	}
	if strings.HasPrefix(line, "Page ") || strings.HasPrefix(line, "====") {
		return true
	}
	return strings.Contains(line, "Date") && strings.Contains(line, "Company")
}

// parseEntryTokens maps the whitespace-split columns after the date:
// company (one or more tokens), pickup, dropoff, load number, optional
// amount, optional trailing notes. The amount column anchors the split
// so multi-word company names parse correctly; without one the load
// number is the final token.
func (e *ScheduleExtractor) parseEntryTokens(driver string, tokens []string) (*models.ScheduleEntry, error) {
	date, err := models.ParseScheduleDate(tokens[0])
	if err != nil {
		return nil, err
	}
	cols := tokens[1:]

	amtIdx := -1
	for i, tok := range cols {
		if amountColumn.MatchString(tok) {
			amtIdx = i
			break
		}
	}

	var fields []string
	amount := decimal.NullDecimal{}
	notes := ""
	if amtIdx >= 0 {
		parsed, err := models.ParseAmount(cols[amtIdx])
		if err != nil {
			return nil, err
		}
		amount = decimal.NullDecimal{Decimal: parsed, Valid: true}
		fields = cols[:amtIdx]
		notes = strings.Join(cols[amtIdx+1:], " ")
	} else {
		fields = cols
	}

	// company... pickup dropoff loadNumber
	if len(fields) < 4 {
		return nil, errUnrecognizedLine
	}
	loadNumber := fields[len(fields)-1]
	dropoff := fields[len(fields)-2]
	pickup := fields[len(fields)-3]
	company := strings.Join(fields[:len(fields)-3], " ")

	entry := &models.ScheduleEntry{
		Date:       date,
		Driver:     driver,
		Company:    company,
		Pickup:     pickup,
		Dropoff:    dropoff,
		LoadNumber: loadNumber,
		Amount:     amount,
		Notes:      notes,
	}
	// LoadRef is only set for tokens with a recognized carrier
	// reference shape; internal tokens like 31594-20217 stay raw. The
	// notes column is scanned as a fallback because some schedules put
	// the broker reference there.
	if _, ok := e.config.Matcher.MatchToken(loadNumber); ok {
		entry.LoadRef = strings.ToUpper(loadNumber)
	} else {
		for _, tok := range strings.Fields(notes) {
			if _, ok := e.config.Matcher.MatchToken(tok); ok {
				entry.LoadRef = strings.ToUpper(tok)
				break
			}
		}
	}
	return entry, nil
}
