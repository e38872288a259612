package matcher

import (
	"sort"

	"freight-reconciliation-service/internal/models"
)

// depositIndex organizes credit transactions for the two matching
// passes: a global reference index of load deposits for pass 1, and
// per-driver partitions plus a shared unattributed pool for pass 2.
// Pass 2 also admits unclassified credits: a payment whose description
// carries no recognizable reference still pays a load. Reference
// equality is authoritative across partitions, so the reference index
// is never partitioned.
type depositIndex struct {
	byRef    map[string][]*models.BankTransaction
	byDriver map[string][]*models.BankTransaction
	// pool holds deposits with no driver attribution; pass 2 offers
	// them to every partition.
	pool     []*models.BankTransaction
	consumed map[int]bool
}

// newDepositIndex indexes the credit subset of the transactions:
// load deposits plus unclassified positive-amount transactions. Bucket
// contents are sorted by date then ID so candidate iteration is
// deterministic.
func newDepositIndex(transactions []*models.BankTransaction) *depositIndex {
	idx := &depositIndex{
		byRef:    make(map[string][]*models.BankTransaction),
		byDriver: make(map[string][]*models.BankTransaction),
		consumed: make(map[int]bool),
	}

	for _, tx := range transactions {
		loadDeposit := tx.Kind == models.KindLoadDeposit
		unclassifiedCredit := tx.Kind == models.KindOther && tx.Amount.IsPositive()
		if !loadDeposit && !unclassifiedCredit {
			continue
		}
		if loadDeposit && tx.LoadRef != "" {
			idx.byRef[tx.LoadRef] = append(idx.byRef[tx.LoadRef], tx)
		}
		if tx.Recipient != "" {
			idx.byDriver[tx.Recipient] = append(idx.byDriver[tx.Recipient], tx)
		} else {
			idx.pool = append(idx.pool, tx)
		}
	}

	for _, bucket := range idx.byRef {
		sortByDateThenID(bucket)
	}
	for _, bucket := range idx.byDriver {
		sortByDateThenID(bucket)
	}
	sortByDateThenID(idx.pool)
	return idx
}

// forReference returns the unconsumed deposits carrying the reference.
func (idx *depositIndex) forReference(ref string) []*models.BankTransaction {
	return idx.available(idx.byRef[ref])
}

// forDriver returns the unconsumed deposits a driver's entries may
// claim: the driver's own partition followed by the shared pool.
func (idx *depositIndex) forDriver(driver string) []*models.BankTransaction {
	out := idx.available(idx.byDriver[driver])
	return append(out, idx.available(idx.pool)...)
}

func (idx *depositIndex) available(bucket []*models.BankTransaction) []*models.BankTransaction {
	var out []*models.BankTransaction
	for _, tx := range bucket {
		if !idx.consumed[tx.ID] {
			out = append(out, tx)
		}
	}
	return out
}

// consume marks a transaction claimed. Claiming twice is a bug in the
// engine's pass logic.
func (idx *depositIndex) consume(tx *models.BankTransaction) {
	idx.consumed[tx.ID] = true
}

func (idx *depositIndex) isConsumed(tx *models.BankTransaction) bool {
	return idx.consumed[tx.ID]
}

func sortByDateThenID(bucket []*models.BankTransaction) {
	sort.Slice(bucket, func(i, j int) bool {
		if !bucket[i].Date.Equal(bucket[j].Date) {
			return bucket[i].Date.Before(bucket[j].Date)
		}
		return bucket[i].ID < bucket[j].ID
	})
}
