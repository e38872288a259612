// Package dedup collapses duplicate records produced by overlapping OCR
// extractions of the same documents. Dedup runs after extraction and
// before matching; it keeps the first occurrence of each natural key,
// so for a fixed input order the survivor set is deterministic.
package dedup

import (
	"fmt"
	"strings"

	"freight-reconciliation-service/internal/models"
	"freight-reconciliation-service/pkg/logger"
)

// descriptionKeyLen bounds how much of the normalized description
// participates in the transaction key. OCR runs differ in trailing
// description noise; the leading characters are stable.
const descriptionKeyLen = 24

// BankTransactions removes duplicate transactions, keeping the first
// occurrence of each (date, amount, description-prefix) key. Returns
// the survivors in input order and the number removed.
func BankTransactions(transactions []*models.BankTransaction) ([]*models.BankTransaction, int) {
	seen := make(map[string]bool, len(transactions))
	out := make([]*models.BankTransaction, 0, len(transactions))
	removed := 0

	for _, tx := range transactions {
		key := transactionKey(tx)
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		out = append(out, tx)
	}

	if removed > 0 {
		logger.WithComponent("dedup").WithFields(logger.Fields{
			"kind":    "bank_transaction",
			"removed": removed,
			"kept":    len(out),
		}).Info("duplicates removed")
	}
	return out, removed
}

// ScheduleEntries removes duplicate schedule entries, keeping the first
// occurrence. Entries with a carrier reference key on (date, driver,
// reference); entries without one key on (date, driver, company,
// amount).
func ScheduleEntries(entries []*models.ScheduleEntry) ([]*models.ScheduleEntry, int) {
	seen := make(map[string]bool, len(entries))
	out := make([]*models.ScheduleEntry, 0, len(entries))
	removed := 0

	for _, entry := range entries {
		key := entryKey(entry)
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		out = append(out, entry)
	}

	if removed > 0 {
		logger.WithComponent("dedup").WithFields(logger.Fields{
			"kind":    "schedule_entry",
			"removed": removed,
			"kept":    len(out),
		}).Info("duplicates removed")
	}
	return out, removed
}

func transactionKey(tx *models.BankTransaction) string {
	desc := normalizeDescription(tx.Description)
	if len(desc) > descriptionKeyLen {
		desc = desc[:descriptionKeyLen]
	}
	return fmt.Sprintf("%s|%s|%s", tx.Date.Format("2006-01-02"), tx.Amount.String(), desc)
}

func entryKey(entry *models.ScheduleEntry) string {
	date := entry.Date.Format("2006-01-02")
	if entry.LoadRef != "" {
		return fmt.Sprintf("%s|%s|%s", date, entry.Driver, entry.LoadRef)
	}
	amount := ""
	if entry.Amount.Valid {
		amount = entry.Amount.Decimal.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s", date, entry.Driver, strings.ToUpper(entry.Company), amount)
}

// normalizeDescription collapses whitespace and case so OCR spacing
// differences do not defeat the key.
func normalizeDescription(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
