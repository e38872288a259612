// Package config builds pipeline configurations from CLI flags and the
// viper-backed config file. The config file owns the data-shaped
// settings (driver aliases, reference prefixes, counterparty tokens);
// flags own the per-run knobs (window, tolerance, output).
package config

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"freight-reconciliation-service/internal/extract"
	"freight-reconciliation-service/internal/matcher"
	"freight-reconciliation-service/internal/names"
	"freight-reconciliation-service/internal/reconciler"
	"freight-reconciliation-service/internal/reporter"
	apperrors "freight-reconciliation-service/pkg/errors"
)

// Viper keys read from the config file.
const (
	KeyAliases           = "aliases"
	KeyReferencePrefixes = "reference_prefixes"
	KeyCounterparty      = "counterparty"
	KeyProcessor         = "processor"
	KeyMinSimilarity     = "min_similarity"
)

// BuildServiceConfig assembles the reconciler configuration from the
// loaded config file plus the run flags.
func BuildServiceConfig(lookbackDays int, amountTolerance float64) (*reconciler.Config, error) {
	namesConfig, err := buildNamesConfig()
	if err != nil {
		return nil, err
	}

	bankConfig, scheduleConfig, err := buildExtractConfigs()
	if err != nil {
		return nil, err
	}

	matcherConfig := matcher.DefaultConfig()
	if lookbackDays > 0 {
		matcherConfig.LookbackDays = lookbackDays
	}
	if amountTolerance > 0 {
		matcherConfig.AmountTolerance = decimal.NewFromFloat(amountTolerance)
	}

	return &reconciler.Config{
		Bank:       bankConfig,
		Schedule:   scheduleConfig,
		Remittance: extract.DefaultRemittanceConfig(),
		Matcher:    matcherConfig,
		Names:      namesConfig,
	}, nil
}

func buildNamesConfig() (*names.Config, error) {
	aliases := viper.GetStringMapString(KeyAliases)
	if len(aliases) == 0 {
		return nil, apperrors.ConfigurationError(apperrors.CodeMissingConfig, KeyAliases, nil, nil).
			WithSuggestion("provide a config file with an 'aliases' map of raw names to canonical driver names")
	}

	table := make(names.AliasTable, len(aliases))
	for raw, canonical := range aliases {
		table[raw] = canonical
	}

	return &names.Config{
		Aliases:       table,
		MinSimilarity: viper.GetFloat64(KeyMinSimilarity),
	}, nil
}

func buildExtractConfigs() (*extract.BankConfig, *extract.ScheduleConfig, error) {
	bankConfig := extract.DefaultBankConfig()
	scheduleConfig := extract.DefaultScheduleConfig()

	if prefixes := viper.GetStringSlice(KeyReferencePrefixes); len(prefixes) > 0 {
		refMatcher, err := extract.NewReferenceMatcher(prefixes)
		if err != nil {
			return nil, nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, KeyReferencePrefixes, prefixes, err)
		}
		bankConfig.Matcher = refMatcher
		scheduleConfig.Matcher = refMatcher
	}
	if token := viper.GetString(KeyCounterparty); token != "" {
		bankConfig.CounterpartyToken = token
	}
	if label := viper.GetString(KeyProcessor); label != "" {
		bankConfig.ProcessorLabel = label
	}

	return bankConfig, scheduleConfig, nil
}

// BuildRenderConfig maps the output-format flag to a render config.
func BuildRenderConfig(format string) *reporter.RenderConfig {
	cfg := reporter.DefaultRenderConfig()
	if format != "" {
		cfg.Format = reporter.OutputFormat(format)
	}
	return cfg
}
