// Package reconciler orchestrates a reconciliation run: extract all
// inputs, dedup, normalize driver names, match, attach remittances,
// build the report. Runs are batch and all-or-nothing; per-record
// problems accumulate into diagnostics while only configuration errors
// abort.
package reconciler

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"freight-reconciliation-service/internal/dedup"
	"freight-reconciliation-service/internal/extract"
	"freight-reconciliation-service/internal/matcher"
	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/internal/names"
	"freight-reconciliation-service/internal/reporter"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// Config assembles the per-stage configurations. Names is required;
// the other stages fall back to their defaults when nil.
type Config struct {
	Bank       *extract.BankConfig
	Schedule   *extract.ScheduleConfig
	Remittance *extract.RemittanceConfig
	Matcher    *matcher.Config
	Names      *names.Config
}

// ScheduleSource is one driver's schedule text. Driver identity is
// per-source: a schedule file belongs to exactly one driver.
type ScheduleSource struct {
	Driver     string
	Lines      []string
	SourceFile string
}

// Source is a statement or remittance text input.
type Source struct {
	Lines      []string
	SourceFile string
}

// Request carries all inputs for one run. Everything is materialized
// before matching starts.
type Request struct {
	Schedules   []ScheduleSource
	Statements  []Source
	Remittances []Source
	// AsOf anchors aging buckets; zero means today.
	AsOf time.Time
}

// RunResult is the complete output of a run.
type RunResult struct {
	RunID                 string
	Report                *reporter.Report
	MatchResult           *matcher.Result
	Entries               []*models.ScheduleEntry
	Transactions          []*models.BankTransaction
	Remittances           []*models.Remittance
	Diagnostics           *extract.Diagnostics
	DuplicateEntries      int
	DuplicateTransactions int
	// UnresolvedNames lists raw driver names the normalizer could not
	// resolve, sorted and unique.
	UnresolvedNames []string
}

// Service runs reconciliations.
type Service struct {
	config     *Config
	bank       *extract.BankExtractor
	schedule   *extract.ScheduleExtractor
	remittance *extract.RemittanceExtractor
	normalizer *names.Normalizer
	engine     *matcher.Engine
	log        logger.Logger
}

// NewService wires the pipeline. The alias table is required up front:
// without it driver partitioning would silently degrade, so a missing
// table is a configuration error, not a per-record one.
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = &Config{}
	}

	normalizer, err := names.NewNormalizer(config.Names)
	if err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeMissingConfig, "driver_aliases", nil, err)
	}

	bank, err := extract.NewBankExtractor(config.Bank)
	if err != nil {
		return nil, err
	}
	schedule, err := extract.NewScheduleExtractor(config.Schedule)
	if err != nil {
		return nil, err
	}
	remittance, err := extract.NewRemittanceExtractor(config.Remittance)
	if err != nil {
		return nil, err
	}
	engine, err := matcher.NewEngine(config.Matcher)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:     config,
		bank:       bank,
		schedule:   schedule,
		remittance: remittance,
		normalizer: normalizer,
		engine:     engine,
		log:        logger.WithComponent("reconciler"),
	}, nil
}

// Run executes the pipeline over the request's inputs.
func (s *Service) Run(req *Request) (*RunResult, error) {
	runID := uuid.New().String()
	log := s.log.WithField("run_id", runID)
	log.Info("reconciliation run started")

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC().Truncate(24 * time.Hour)
	}

	diag := &extract.Diagnostics{}

	var entries []*models.ScheduleEntry
	for _, src := range req.Schedules {
		extracted, srcDiag := s.schedule.Extract(src.Driver, src.Lines, src.SourceFile)
		entries = append(entries, extracted...)
		diag.Merge(srcDiag)
	}

	var transactions []*models.BankTransaction
	for _, src := range req.Statements {
		extracted, srcDiag := s.bank.Extract(src.Lines, src.SourceFile)
		transactions = append(transactions, extracted...)
		diag.Merge(srcDiag)
	}

	var remittances []*models.Remittance
	for _, src := range req.Remittances {
		extracted, srcDiag := s.remittance.Extract(src.Lines, src.SourceFile)
		remittances = append(remittances, extracted...)
		diag.Merge(srcDiag)
	}

	entries, dupEntries := dedup.ScheduleEntries(entries)
	transactions, dupTransactions := dedup.BankTransactions(transactions)

	// IDs are assigned after dedup in input order so tie-breaking by
	// lowest ID is reproducible for a given input snapshot.
	for i, entry := range entries {
		entry.ID = i + 1
	}
	for i, tx := range transactions {
		tx.ID = i + 1
	}

	unresolved := s.normalizeNames(entries, transactions)

	result := s.engine.Match(entries, transactions)
	s.engine.AttachRemittances(result, transactions, remittances)

	report := reporter.BuildReport(runID, asOf, entries, transactions, remittances, result)

	log.WithFields(logger.Fields{
		"entries":      len(entries),
		"transactions": len(transactions),
		"remittances":  len(remittances),
		"matches":      len(result.Matches),
		"parse_errors": diag.LinesSkipped,
	}).Info("reconciliation run complete")

	return &RunResult{
		RunID:                 runID,
		Report:                report,
		MatchResult:           result,
		Entries:               entries,
		Transactions:          transactions,
		Remittances:           remittances,
		Diagnostics:           diag,
		DuplicateEntries:      dupEntries,
		DuplicateTransactions: dupTransactions,
		UnresolvedNames:       unresolved,
	}, nil
}

// normalizeNames rewrites entry drivers and withdrawal recipients to
// canonical names, collecting what could not be resolved.
func (s *Service) normalizeNames(entries []*models.ScheduleEntry, transactions []*models.BankTransaction) []string {
	unresolvedSet := make(map[string]bool)

	for _, entry := range entries {
		canonical, ok := s.normalizer.Normalize(entry.Driver)
		if !ok {
			unresolvedSet[entry.Driver] = true
			continue
		}
		entry.Driver = canonical
	}
	for _, tx := range transactions {
		if tx.Recipient == "" {
			continue
		}
		canonical, ok := s.normalizer.Normalize(tx.Recipient)
		if !ok {
			unresolvedSet[tx.Recipient] = true
			continue
		}
		tx.Recipient = canonical
	}

	unresolved := make([]string, 0, len(unresolvedSet))
	for name := range unresolvedSet {
		unresolved = append(unresolved, name)
	}
	sort.Strings(unresolved)
	return unresolved
}
