// Package reporter turns a matching result into the reconciliation
// report: per-driver rollups, unpaid-load aging buckets and global
// totals. Totals only count load-deposit transactions; balance carries,
// interest and fees never inflate deposits.
package reporter

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/matcher"
	"freight-reconciliation-service/internal/models"
)

// DriverRollup aggregates one driver's scheduled, paid and unpaid loads.
type DriverRollup struct {
	Driver           string          `json:"driver"`
	ScheduledCount   int             `json:"scheduled_count"`
	ScheduledAmount  decimal.Decimal `json:"scheduled_amount"`
	PaidCount        int             `json:"paid_count"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	UnpaidCount      int             `json:"unpaid_count"`
	UnpaidAmount     decimal.Decimal `json:"unpaid_amount"`
	OldestUnpaidDays int             `json:"oldest_unpaid_days"`
}

// AgingBucket groups unpaid loads by age as of the report date.
type AgingBucket struct {
	Label  string          `json:"label"`
	MinAge int             `json:"min_age"`
	MaxAge int             `json:"max_age"` // -1 means unbounded
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// GlobalRollup holds run-wide totals.
type GlobalRollup struct {
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	TotalScheduled   decimal.Decimal `json:"total_scheduled"`
	TotalRemitted    decimal.Decimal `json:"total_remitted"`
	MatchRate        float64         `json:"match_rate"`
}

// Report is the full reconciliation report.
type Report struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	AsOf        time.Time       `json:"as_of"`
	Drivers     []*DriverRollup `json:"drivers"`
	Aging       []*AgingBucket  `json:"aging"`
	Global      GlobalRollup    `json:"global"`
	Summary     matcher.Summary `json:"summary"`
}

// BuildReport assembles the report from the matching result and the
// records that fed it. asOf anchors the aging buckets; entries must
// carry normalized driver names.
func BuildReport(runID string, asOf time.Time, entries []*models.ScheduleEntry, transactions []*models.BankTransaction, remittances []*models.Remittance, result *matcher.Result) *Report {
	report := &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		AsOf:        asOf,
		Summary:     result.Summary,
		Global: GlobalRollup{
			TotalDeposits:    decimal.Zero,
			TotalWithdrawals: decimal.Zero,
			TotalScheduled:   decimal.Zero,
			TotalRemitted:    decimal.Zero,
		},
	}

	matchedEntry := make(map[int]*models.Match, len(result.Matches))
	txByID := make(map[int]*models.BankTransaction, len(transactions))
	for _, tx := range transactions {
		txByID[tx.ID] = tx
	}
	for _, match := range result.Matches {
		matchedEntry[match.ScheduleEntryID] = match
	}

	rollups := make(map[string]*DriverRollup)
	var driverOrder []string
	for _, entry := range entries {
		rollup, ok := rollups[entry.Driver]
		if !ok {
			rollup = &DriverRollup{
				Driver:          entry.Driver,
				ScheduledAmount: decimal.Zero,
				PaidAmount:      decimal.Zero,
				UnpaidAmount:    decimal.Zero,
			}
			rollups[entry.Driver] = rollup
			driverOrder = append(driverOrder, entry.Driver)
		}

		rollup.ScheduledCount++
		if entry.Amount.Valid {
			rollup.ScheduledAmount = rollup.ScheduledAmount.Add(entry.Amount.Decimal)
			report.Global.TotalScheduled = report.Global.TotalScheduled.Add(entry.Amount.Decimal)
		}

		if match, ok := matchedEntry[entry.ID]; ok {
			rollup.PaidCount++
			if tx := txByID[match.BankTransactionID]; tx != nil {
				rollup.PaidAmount = rollup.PaidAmount.Add(tx.Amount)
			}
		} else {
			rollup.UnpaidCount++
			if entry.Amount.Valid {
				rollup.UnpaidAmount = rollup.UnpaidAmount.Add(entry.Amount.Decimal)
			}
			if age := unpaidAge(asOf, entry); age > rollup.OldestUnpaidDays {
				rollup.OldestUnpaidDays = age
			}
		}
	}

	sort.Strings(driverOrder)
	for _, driver := range driverOrder {
		report.Drivers = append(report.Drivers, rollups[driver])
	}

	report.Aging = buildAging(asOf, entries, matchedEntry)

	for _, tx := range transactions {
		if tx.Kind.CountsAsDeposit() {
			report.Global.TotalDeposits = report.Global.TotalDeposits.Add(tx.Amount)
		}
		if tx.Kind == models.KindDriverWithdrawal {
			report.Global.TotalWithdrawals = report.Global.TotalWithdrawals.Add(tx.AbsAmount())
		}
	}
	for _, rem := range remittances {
		report.Global.TotalRemitted = report.Global.TotalRemitted.Add(rem.PaymentAmount)
	}
	if len(entries) > 0 {
		report.Global.MatchRate = float64(len(result.Matches)) / float64(len(entries))
	}

	return report
}

// unpaidAge is the entry's age in days as of the report date. Loads
// scheduled after the as-of date have not aged yet, so they clamp to
// zero instead of accruing the absolute distance.
func unpaidAge(asOf time.Time, entry *models.ScheduleEntry) int {
	if entry.Date.After(asOf) {
		return 0
	}
	return models.DateDistanceDays(asOf, entry.Date)
}

// buildAging distributes unpaid loads into the standard 0-30 / 31-60 /
// 61-90 / 90+ buckets.
func buildAging(asOf time.Time, entries []*models.ScheduleEntry, matchedEntry map[int]*models.Match) []*AgingBucket {
	buckets := []*AgingBucket{
		{Label: "0-30", MinAge: 0, MaxAge: 30, Amount: decimal.Zero},
		{Label: "31-60", MinAge: 31, MaxAge: 60, Amount: decimal.Zero},
		{Label: "61-90", MinAge: 61, MaxAge: 90, Amount: decimal.Zero},
		{Label: "90+", MinAge: 91, MaxAge: -1, Amount: decimal.Zero},
	}

	for _, entry := range entries {
		if _, ok := matchedEntry[entry.ID]; ok {
			continue
		}
		age := unpaidAge(asOf, entry)
		for _, bucket := range buckets {
			if age < bucket.MinAge {
				continue
			}
			if bucket.MaxAge >= 0 && age > bucket.MaxAge {
				continue
			}
			bucket.Count++
			if entry.Amount.Valid {
				bucket.Amount = bucket.Amount.Add(entry.Amount.Decimal)
			}
			break
		}
	}
	return buckets
}
