package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the matching engine parameters.
type Config struct {
	// LookbackDays is the symmetric date window for amount-based
	// matching. Reference matches ignore it.
	LookbackDays int
	// AmountTolerance bounds the allowed difference between a schedule
	// amount and a deposit amount.
	AmountTolerance decimal.Decimal
	// FullMatchConfidence is assigned to reference matches.
	FullMatchConfidence float64
	// PartialBaseConfidence is the amount+date confidence at zero date
	// distance; it decays linearly to PartialMinConfidence at the edge
	// of the window. Partial confidence never reaches a full match's.
	PartialBaseConfidence float64
	PartialMinConfidence  float64
}

// DefaultConfig returns the standard matching parameters.
func DefaultConfig() *Config {
	return &Config{
		LookbackDays:          90,
		AmountTolerance:       decimal.NewFromFloat(0.01),
		FullMatchConfidence:   1.0,
		PartialBaseConfidence: 0.9,
		PartialMinConfidence:  0.5,
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback days must be positive, got %d", c.LookbackDays)
	}
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	if c.FullMatchConfidence <= 0 || c.FullMatchConfidence > 1 {
		return fmt.Errorf("full match confidence %v out of range (0,1]", c.FullMatchConfidence)
	}
	if c.PartialBaseConfidence <= 0 || c.PartialBaseConfidence >= c.FullMatchConfidence {
		return fmt.Errorf("partial base confidence %v must be positive and below full confidence", c.PartialBaseConfidence)
	}
	if c.PartialMinConfidence <= 0 || c.PartialMinConfidence > c.PartialBaseConfidence {
		return fmt.Errorf("partial minimum confidence %v must be positive and at most the base", c.PartialMinConfidence)
	}
	return nil
}

// WithinWindow reports whether a date distance falls inside the
// lookback window.
func (c *Config) WithinWindow(dateDistanceDays int) bool {
	return dateDistanceDays <= c.LookbackDays
}

// PartialConfidence maps a date distance inside the window to a
// confidence score. Decay is linear and monotonic in distance.
func (c *Config) PartialConfidence(dateDistanceDays int) float64 {
	if dateDistanceDays <= 0 {
		return c.PartialBaseConfidence
	}
	if dateDistanceDays >= c.LookbackDays {
		return c.PartialMinConfidence
	}
	span := c.PartialBaseConfidence - c.PartialMinConfidence
	return c.PartialBaseConfidence - span*float64(dateDistanceDays)/float64(c.LookbackDays)
}
