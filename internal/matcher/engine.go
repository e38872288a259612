// Package matcher links schedule entries to the bank deposits that
// paid them. Matching is two-pass: reference equality first (FULL,
// authoritative regardless of date), then an amount+date heuristic
// (PARTIAL) inside the lookback window. A deposit is consumed by at
// most one match, an entry holds at most one non-manual match, and for
// a fixed input snapshot the result is identical across runs.
package matcher

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/models"
	apperrors "freight-reconciliation-service/pkg/errors"
	"freight-reconciliation-service/pkg/logger"
)

// Engine is the matching engine. Entries handed to Match must carry
// normalized driver names; the engine never consults the alias table.
type Engine struct {
	config *Config
	log    logger.Logger
}

// NewEngine creates a matching engine with the given configuration.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "matcher", nil, err)
	}
	return &Engine{
		config: config,
		log:    logger.WithComponent("matcher"),
	}, nil
}

// ManualCase is an ambiguity the engine refuses to auto-resolve:
// several schedule entries tie exactly on reference, amount and date
// for the same candidate deposits.
type ManualCase struct {
	LoadRef        string                     `json:"load_ref"`
	EntryIDs       []int                      `json:"entry_ids"`
	TransactionIDs []int                      `json:"transaction_ids"`
	Reason         string                     `json:"reason"`
	Err            *apperrors.ReconcilerError `json:"-"`
}

// Summary counts the outcome of a matching run.
type Summary struct {
	TotalEntries      int `json:"total_entries"`
	TotalDeposits     int `json:"total_deposits"`
	FullMatches       int `json:"full_matches"`
	PartialMatches    int `json:"partial_matches"`
	ManualCases       int `json:"manual_cases"`
	UnmatchedEntries  int `json:"unmatched_entries"`
	UnmatchedDeposits int `json:"unmatched_deposits"`
}

// Result is the complete outcome of a matching run.
type Result struct {
	Matches           []*models.Match           `json:"matches"`
	ManualReview      []*ManualCase             `json:"manual_review,omitempty"`
	UnmatchedEntries  []*models.ScheduleEntry   `json:"unmatched_entries,omitempty"`
	UnmatchedDeposits []*models.BankTransaction `json:"unmatched_deposits,omitempty"`
	OrphanRemittances []*models.Remittance      `json:"orphan_remittances,omitempty"`
	Summary           Summary                   `json:"summary"`
}

// Match runs both passes over the entries and transactions. Load
// deposits participate in both passes; unclassified credits take part
// in the amount+date pass only, since a payment can arrive without a
// recognizable reference. Withdrawals, interest, fees and balance
// carries are invisible to matching, and deposit totals still count
// load deposits alone.
func (e *Engine) Match(entries []*models.ScheduleEntry, transactions []*models.BankTransaction) *Result {
	sorted := make([]*models.ScheduleEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Driver != b.Driver {
			return a.Driver < b.Driver
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.ID < b.ID
	})

	idx := newDepositIndex(transactions)
	result := &Result{}
	settled := make(map[int]bool)

	e.referencePass(sorted, idx, result, settled)
	e.amountDatePass(sorted, idx, result, settled)

	for _, entry := range sorted {
		if !settled[entry.ID] {
			result.UnmatchedEntries = append(result.UnmatchedEntries, entry)
		}
	}
	for _, tx := range transactions {
		if tx.Kind == models.KindLoadDeposit && !idx.isConsumed(tx) {
			result.UnmatchedDeposits = append(result.UnmatchedDeposits, tx)
			result.Summary.TotalDeposits++
		} else if tx.Kind == models.KindLoadDeposit {
			result.Summary.TotalDeposits++
		}
	}

	sort.Slice(result.Matches, func(i, j int) bool {
		return result.Matches[i].ScheduleEntryID < result.Matches[j].ScheduleEntryID
	})

	result.Summary.TotalEntries = len(entries)
	result.Summary.ManualCases = len(result.ManualReview)
	result.Summary.UnmatchedEntries = len(result.UnmatchedEntries)
	result.Summary.UnmatchedDeposits = len(result.UnmatchedDeposits)

	e.log.WithFields(logger.Fields{
		"entries":  result.Summary.TotalEntries,
		"deposits": result.Summary.TotalDeposits,
		"full":     result.Summary.FullMatches,
		"partial":  result.Summary.PartialMatches,
		"manual":   result.Summary.ManualCases,
	}).Info("matching complete")

	return result
}

// referencePass matches entries to deposits by exact load reference.
// Exact ties on reference+amount+date are surfaced for manual review
// instead of being resolved by arbitrary order.
func (e *Engine) referencePass(entries []*models.ScheduleEntry, idx *depositIndex, result *Result, settled map[int]bool) {
	byRef := make(map[string][]*models.ScheduleEntry)
	var refs []string
	for _, entry := range entries {
		if entry.LoadRef == "" {
			continue
		}
		if _, seen := byRef[entry.LoadRef]; !seen {
			refs = append(refs, entry.LoadRef)
		}
		byRef[entry.LoadRef] = append(byRef[entry.LoadRef], entry)
	}
	sort.Strings(refs)

	for _, ref := range refs {
		group := byRef[ref]
		candidates := idx.forReference(ref)
		if len(candidates) == 0 {
			continue
		}

		ambiguous := exactTies(group)
		for _, tied := range ambiguous {
			ids := entryIDs(tied)
			manual := &ManualCase{
				LoadRef:        ref,
				EntryIDs:       ids,
				TransactionIDs: transactionIDs(candidates),
				Reason:         fmt.Sprintf("%d entries tie exactly on reference %s", len(tied), ref),
				Err:            apperrors.AmbiguousMatchError(ref, ids),
			}
			result.ManualReview = append(result.ManualReview, manual)
			for _, entry := range tied {
				settled[entry.ID] = true
			}
		}

		for _, entry := range group {
			if settled[entry.ID] {
				continue
			}
			candidates = idx.forReference(ref)
			tx := closestCandidate(entry, candidates)
			if tx == nil {
				continue
			}
			idx.consume(tx)
			settled[entry.ID] = true
			result.Matches = append(result.Matches, e.fullMatch(entry, tx))
			result.Summary.FullMatches++
		}
	}
}

// amountDatePass matches the remaining priced entries to unconsumed
// credits by amount within tolerance and date within the window. The
// driver's own credits are offered before the shared pool.
func (e *Engine) amountDatePass(entries []*models.ScheduleEntry, idx *depositIndex, result *Result, settled map[int]bool) {
	for _, entry := range entries {
		if settled[entry.ID] || !entry.HasAmount() {
			continue
		}

		var candidates []*models.BankTransaction
		for _, tx := range idx.forDriver(entry.Driver) {
			if !models.AmountsWithinTolerance(tx.Amount, entry.Amount.Decimal, e.config.AmountTolerance) {
				continue
			}
			if !e.config.WithinWindow(models.DateDistanceDays(tx.Date, entry.Date)) {
				continue
			}
			candidates = append(candidates, tx)
		}

		tx := closestCandidate(entry, candidates)
		if tx == nil {
			continue
		}
		idx.consume(tx)
		settled[entry.ID] = true
		result.Matches = append(result.Matches, e.partialMatch(entry, tx))
		result.Summary.PartialMatches++
	}
}

func (e *Engine) fullMatch(entry *models.ScheduleEntry, tx *models.BankTransaction) *models.Match {
	return &models.Match{
		ScheduleEntryID:   entry.ID,
		BankTransactionID: tx.ID,
		Kind:              models.MatchFull,
		AmountDifference:  amountDifference(entry, tx),
		DateDistanceDays:  models.DateDistanceDays(tx.Date, entry.Date),
		Confidence:        e.config.FullMatchConfidence,
		Reason:            fmt.Sprintf("reference %s", tx.LoadRef),
	}
}

func (e *Engine) partialMatch(entry *models.ScheduleEntry, tx *models.BankTransaction) *models.Match {
	dist := models.DateDistanceDays(tx.Date, entry.Date)
	return &models.Match{
		ScheduleEntryID:   entry.ID,
		BankTransactionID: tx.ID,
		Kind:              models.MatchPartial,
		AmountDifference:  amountDifference(entry, tx),
		DateDistanceDays:  dist,
		Confidence:        e.config.PartialConfidence(dist),
		Reason:            fmt.Sprintf("amount %s within tolerance, %d days apart", tx.Amount.String(), dist),
	}
}

// AttachRemittances links remittances to matched deposits for audit.
// A remittance attaches to the closest-dated match whose deposit amount
// equals the payment amount within tolerance and whose date falls
// inside the window. Remittances never create or veto matches;
// unattached ones are reported as orphans.
func (e *Engine) AttachRemittances(result *Result, transactions []*models.BankTransaction, remittances []*models.Remittance) {
	byID := make(map[int]*models.BankTransaction, len(transactions))
	for _, tx := range transactions {
		byID[tx.ID] = tx
	}

	sorted := make([]*models.Remittance, len(remittances))
	copy(sorted, remittances)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].PaymentDate.Equal(sorted[j].PaymentDate) {
			return sorted[i].PaymentDate.Before(sorted[j].PaymentDate)
		}
		return sorted[i].PaymentReference < sorted[j].PaymentReference
	})

	for _, rem := range sorted {
		var best *models.Match
		bestDist := 0
		for _, match := range result.Matches {
			if match.RemittanceRef != "" {
				continue
			}
			tx := byID[match.BankTransactionID]
			if tx == nil {
				continue
			}
			if !models.AmountsWithinTolerance(tx.Amount, rem.PaymentAmount, e.config.AmountTolerance) {
				continue
			}
			dist := models.DateDistanceDays(tx.Date, rem.PaymentDate)
			if !e.config.WithinWindow(dist) {
				continue
			}
			if best == nil || dist < bestDist {
				best = match
				bestDist = dist
			}
		}
		if best != nil {
			best.RemittanceRef = rem.PaymentReference
		} else {
			result.OrphanRemittances = append(result.OrphanRemittances, rem)
		}
	}
}

// exactTies groups entries that share amount and date, returning the
// groups with more than one member.
func exactTies(group []*models.ScheduleEntry) [][]*models.ScheduleEntry {
	byKey := make(map[string][]*models.ScheduleEntry)
	var keys []string
	for _, entry := range group {
		amount := ""
		if entry.Amount.Valid {
			amount = entry.Amount.Decimal.String()
		}
		key := entry.Date.Format("2006-01-02") + "|" + amount
		if _, seen := byKey[key]; !seen {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], entry)
	}
	sort.Strings(keys)

	var ties [][]*models.ScheduleEntry
	for _, key := range keys {
		if len(byKey[key]) > 1 {
			ties = append(ties, byKey[key])
		}
	}
	return ties
}

// closestCandidate picks the deposit with the smallest date distance to
// the entry. Candidates arrive sorted by date then ID, so on equal
// distance the earlier transaction, then the lower ID, wins.
func closestCandidate(entry *models.ScheduleEntry, candidates []*models.BankTransaction) *models.BankTransaction {
	var best *models.BankTransaction
	bestDist := 0
	for _, tx := range candidates {
		dist := models.DateDistanceDays(tx.Date, entry.Date)
		if best == nil || dist < bestDist {
			best = tx
			bestDist = dist
		}
	}
	return best
}

func amountDifference(entry *models.ScheduleEntry, tx *models.BankTransaction) decimal.Decimal {
	if !entry.Amount.Valid {
		return decimal.Zero
	}
	return tx.Amount.Sub(entry.Amount.Decimal).Abs()
}

func entryIDs(entries []*models.ScheduleEntry) []int {
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	sort.Ints(ids)
	return ids
}

func transactionIDs(transactions []*models.BankTransaction) []int {
	ids := make([]int, 0, len(transactions))
	for _, tx := range transactions {
		ids = append(ids, tx.ID)
	}
	sort.Ints(ids)
	return ids
}
