// Package models defines the domain records flowing through the
// reconciliation pipeline: schedule entries extracted from driver
// schedules, bank transactions extracted from statement text, client
// payment remittances, and the matches the engine produces between them.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a bank statement line. Classification is an
// explicit rule-driven decision made at extraction time; totals and the
// matching engine only ever consider KindLoadDeposit transactions, so a
// line that cannot be classified confidently lands in KindOther rather
// than silently counting as a deposit.
type TransactionKind string

const (
	// KindLoadDeposit is a credit carrying a recognized load reference
	// from the configured payment counterparty.
	KindLoadDeposit TransactionKind = "LOAD_DEPOSIT"
	// KindDriverWithdrawal is a payout to a driver (ACH via the payment
	// processor, or a Zelle transfer).
	KindDriverWithdrawal TransactionKind = "DRIVER_WITHDRAWAL"
	// KindInterest is bank interest, excluded from deposit totals.
	KindInterest TransactionKind = "INTEREST"
	// KindFee is a bank fee or service charge.
	KindFee TransactionKind = "FEE"
	// KindBalanceCarry is an opening/closing balance line, never a
	// real transaction.
	KindBalanceCarry TransactionKind = "BALANCE_CARRY"
	// KindOther is any line that matched no explicit rule.
	KindOther TransactionKind = "OTHER"
)

// String returns the string representation of TransactionKind
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid checks if the transaction kind is one of the enumerated values
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindLoadDeposit, KindDriverWithdrawal, KindInterest, KindFee, KindBalanceCarry, KindOther:
		return true
	}
	return false
}

// CountsAsDeposit reports whether the kind contributes to deposit totals.
// Balance carries, interest and fees are explicitly excluded.
func (k TransactionKind) CountsAsDeposit() bool {
	return k == KindLoadDeposit
}

// MatchKind represents how a schedule entry was linked to a payment.
type MatchKind string

const (
	// MatchFull is a reference-based match: the schedule entry and the
	// transaction carry the same load reference. Reference equality is
	// authoritative regardless of date distance.
	MatchFull MatchKind = "FULL"
	// MatchPartial is an amount+date heuristic match inside the
	// configured lookback window.
	MatchPartial MatchKind = "PARTIAL"
	// MatchManual marks an ambiguous case surfaced for human review.
	MatchManual MatchKind = "MANUAL"
)

// String returns the string representation of MatchKind
func (k MatchKind) String() string {
	return string(k)
}

// IsValid checks if the match kind is one of the enumerated values
func (k MatchKind) IsValid() bool {
	return k == MatchFull || k == MatchPartial || k == MatchManual
}

// ScheduleEntry is one driver's assigned load, extracted from schedule
// text. Entries are immutable after extraction; the matching engine
// records outcomes in the Match set instead of mutating entries.
type ScheduleEntry struct {
	ID         int                 `json:"id"`
	Date       time.Time           `json:"date"`
	Driver     string              `json:"driver"`
	Company    string              `json:"company"`
	Pickup     string              `json:"pickup"`
	Dropoff    string              `json:"dropoff"`
	LoadNumber string              `json:"load_number"`
	LoadRef    string              `json:"load_ref,omitempty"`
	Amount     decimal.NullDecimal `json:"amount"`
	Notes      string              `json:"notes,omitempty"`
	SourceFile string              `json:"source_file,omitempty"`
}

// HasAmount reports whether the entry carries a price. Schedule rows
// without an amount column still represent real loads but cannot take
// part in amount-based matching.
func (e *ScheduleEntry) HasAmount() bool {
	return e.Amount.Valid
}

// Validate performs basic validation on the ScheduleEntry
func (e *ScheduleEntry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("schedule entry date cannot be zero")
	}
	if strings.TrimSpace(e.Driver) == "" {
		return fmt.Errorf("schedule entry driver cannot be empty")
	}
	if e.Amount.Valid && e.Amount.Decimal.IsNegative() {
		return fmt.Errorf("schedule entry amount cannot be negative: %s", e.Amount.Decimal.String())
	}
	return nil
}

// String returns a string representation of the ScheduleEntry
func (e *ScheduleEntry) String() string {
	amt := "N/A"
	if e.Amount.Valid {
		amt = "$" + e.Amount.Decimal.String()
	}
	return fmt.Sprintf("ScheduleEntry{%s, %s, %s, load %s, %s}",
		e.Date.Format("2006-01-02"), e.Driver, e.Company, e.LoadNumber, amt)
}

// BankTransaction is one line item from a bank statement. Amount is
// signed: deposits are positive, withdrawals negative.
type BankTransaction struct {
	ID          int                 `json:"id"`
	Date        time.Time           `json:"date"`
	Amount      decimal.Decimal     `json:"amount"`
	Description string              `json:"description"`
	Recipient   string              `json:"recipient,omitempty"`
	Kind        TransactionKind     `json:"kind"`
	LoadRef     string              `json:"load_ref,omitempty"`
	Balance     decimal.NullDecimal `json:"balance"`
	SourceFile  string              `json:"source_file,omitempty"`
}

// IsDeposit reports whether the transaction is a credit.
func (t *BankTransaction) IsDeposit() bool {
	return t.Amount.IsPositive()
}

// IsWithdrawal reports whether the transaction is a debit.
func (t *BankTransaction) IsWithdrawal() bool {
	return t.Amount.IsNegative()
}

// AbsAmount returns the unsigned transaction amount.
func (t *BankTransaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// Validate performs basic validation on the BankTransaction
func (t *BankTransaction) Validate() error {
	if t.Date.IsZero() {
		return fmt.Errorf("bank transaction date cannot be zero")
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("bank transaction amount cannot be zero")
	}
	if !t.Kind.IsValid() {
		return fmt.Errorf("invalid transaction kind: %s", t.Kind)
	}
	if t.Kind == KindLoadDeposit && t.LoadRef == "" {
		return fmt.Errorf("load-deposit transaction must carry a load reference")
	}
	return nil
}

// String returns a string representation of the BankTransaction
func (t *BankTransaction) String() string {
	ref := ""
	if t.LoadRef != "" {
		ref = " [" + t.LoadRef + "]"
	}
	return fmt.Sprintf("BankTransaction{%s, %s, %s%s}",
		t.Date.Format("2006-01-02"), t.Amount.String(), t.Kind, ref)
}

// InvoiceLine is one invoice detail row inside a payment remittance.
type InvoiceLine struct {
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
	Discount      decimal.Decimal `json:"discount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	VIN           string          `json:"vin"`
	Location      string          `json:"location"`
}

// Remittance is a client payment notice listing the invoices it paid.
type Remittance struct {
	PaymentDate         time.Time       `json:"payment_date"`
	PaymentReference    string          `json:"payment_reference"`
	PaperDocumentNumber string          `json:"paper_document_number"`
	PaymentAmount       decimal.Decimal `json:"payment_amount"`
	Invoices            []InvoiceLine   `json:"invoices"`
	SourceFile          string          `json:"source_file,omitempty"`
}

// InvoiceTotal sums the paid amounts of the nested invoice lines. The
// total should approximate PaymentAmount; divergence beyond tolerance is
// logged as a warning by the extractor, never treated as an error.
func (r *Remittance) InvoiceTotal() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range r.Invoices {
		total = total.Add(inv.AmountPaid)
	}
	return total
}

// Validate performs basic validation on the Remittance
func (r *Remittance) Validate() error {
	if r.PaymentDate.IsZero() {
		return fmt.Errorf("remittance payment date cannot be zero")
	}
	if strings.TrimSpace(r.PaymentReference) == "" {
		return fmt.Errorf("remittance payment reference cannot be empty")
	}
	return nil
}

// Match links a schedule entry to the bank transaction that paid it,
// optionally referencing the remittance the payment arrived under.
type Match struct {
	ScheduleEntryID   int             `json:"schedule_entry_id"`
	BankTransactionID int             `json:"bank_transaction_id"`
	RemittanceRef     string          `json:"remittance_ref,omitempty"`
	Kind              MatchKind       `json:"kind"`
	AmountDifference  decimal.Decimal `json:"amount_difference"`
	DateDistanceDays  int             `json:"date_distance_days"`
	Confidence        float64         `json:"confidence"`
	Reason            string          `json:"reason"`
}

// String returns a string representation of the Match
func (m *Match) String() string {
	return fmt.Sprintf("Match{entry %d -> tx %d, %s, confidence %.2f}",
		m.ScheduleEntryID, m.BankTransactionID, m.Kind, m.Confidence)
}
