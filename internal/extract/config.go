package extract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BankConfig controls bank statement extraction.
type BankConfig struct {
	// CounterpartyToken identifies load-payment deposits: a deposit
	// whose description contains this token and a recognized reference
	// is classified as a load deposit.
	CounterpartyToken string
	// ProcessorLabel identifies driver payouts routed through the
	// payment processor's ACH rail.
	ProcessorLabel string
	// DefaultYear is used when a statement carries no period header.
	// Zero means the period header is required.
	DefaultYear int
	// Matcher recognizes load references inside descriptions.
	Matcher *ReferenceMatcher
}

// DefaultBankConfig returns the standard statement profile.
func DefaultBankConfig() *BankConfig {
	return &BankConfig{
		CounterpartyToken: "SmartTrucker",
		ProcessorLabel:    "TruckSmarter",
		Matcher:           DefaultReferenceMatcher(),
	}
}

// Validate checks the bank extraction configuration.
func (c *BankConfig) Validate() error {
	if strings.TrimSpace(c.CounterpartyToken) == "" {
		return fmt.Errorf("counterparty token cannot be empty")
	}
	if strings.TrimSpace(c.ProcessorLabel) == "" {
		return fmt.Errorf("processor label cannot be empty")
	}
	if c.Matcher == nil {
		return fmt.Errorf("reference matcher is required")
	}
	return nil
}

// ScheduleConfig controls driver schedule extraction.
type ScheduleConfig struct {
	// Matcher decides which schedule load numbers are carrier
	// references usable for reference matching.
	Matcher *ReferenceMatcher
}

// DefaultScheduleConfig returns the standard schedule profile.
func DefaultScheduleConfig() *ScheduleConfig {
	return &ScheduleConfig{Matcher: DefaultReferenceMatcher()}
}

// Validate checks the schedule extraction configuration.
func (c *ScheduleConfig) Validate() error {
	if c.Matcher == nil {
		return fmt.Errorf("reference matcher is required")
	}
	return nil
}

// RemittanceConfig controls payment remittance extraction.
type RemittanceConfig struct {
	// AmountTolerance bounds the allowed divergence between a
	// remittance's stated payment amount and the sum of its invoice
	// lines before a warning is logged.
	AmountTolerance decimal.Decimal
}

// DefaultRemittanceConfig returns the standard remittance profile.
func DefaultRemittanceConfig() *RemittanceConfig {
	return &RemittanceConfig{AmountTolerance: decimal.NewFromFloat(0.01)}
}

// Validate checks the remittance extraction configuration.
func (c *RemittanceConfig) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	return nil
}
