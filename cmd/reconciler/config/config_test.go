package config

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"freight-reconciliation-service/internal/reporter"
	apperrors "freight-reconciliation-service/pkg/errors"
)

func setTestAliases() {
	viper.Set(KeyAliases, map[string]string{
		"RICH-LITTLE": "Little Rich",
		"TONY":        "Tony",
	})
}

func TestBuildServiceConfigRequiresAliases(t *testing.T) {
	viper.Reset()

	_, err := BuildServiceConfig(0, 0)
	if err == nil {
		t.Fatal("expected error without an aliases map")
	}

	var recErr *apperrors.ReconcilerError
	if !errors.As(err, &recErr) {
		t.Fatalf("error type = %T, want *ReconcilerError", err)
	}
	if recErr.Category != apperrors.CategoryConfiguration || recErr.Code != apperrors.CodeMissingConfig {
		t.Errorf("got %s/%s, want %s/%s",
			recErr.Category, recErr.Code, apperrors.CategoryConfiguration, apperrors.CodeMissingConfig)
	}
}

func TestBuildServiceConfigDefaults(t *testing.T) {
	viper.Reset()
	setTestAliases()

	cfg, err := BuildServiceConfig(0, 0)
	if err != nil {
		t.Fatalf("BuildServiceConfig: %v", err)
	}

	if len(cfg.Names.Aliases) != 2 {
		t.Errorf("got %d aliases, want 2", len(cfg.Names.Aliases))
	}
	if cfg.Matcher.LookbackDays != 90 {
		t.Errorf("LookbackDays = %d, want default 90", cfg.Matcher.LookbackDays)
	}
	if !cfg.Matcher.AmountTolerance.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("AmountTolerance = %s, want default 0.01", cfg.Matcher.AmountTolerance)
	}
	if cfg.Bank == nil || cfg.Schedule == nil || cfg.Remittance == nil {
		t.Error("extraction configs must all be populated")
	}
}

func TestBuildServiceConfigFlagOverrides(t *testing.T) {
	viper.Reset()
	setTestAliases()

	cfg, err := BuildServiceConfig(120, 0.05)
	if err != nil {
		t.Fatalf("BuildServiceConfig: %v", err)
	}

	if cfg.Matcher.LookbackDays != 120 {
		t.Errorf("LookbackDays = %d, want 120", cfg.Matcher.LookbackDays)
	}
	if !cfg.Matcher.AmountTolerance.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("AmountTolerance = %s, want 0.05", cfg.Matcher.AmountTolerance)
	}
}

func TestBuildServiceConfigReferencePrefixes(t *testing.T) {
	viper.Reset()
	setTestAliases()
	viper.Set(KeyReferencePrefixes, []string{"AB"})

	cfg, err := BuildServiceConfig(0, 0)
	if err != nil {
		t.Fatalf("BuildServiceConfig: %v", err)
	}

	if _, ok := cfg.Bank.Matcher.MatchToken("AB12345"); !ok {
		t.Error("configured prefix AB12345 should match")
	}
	if _, ok := cfg.Bank.Matcher.MatchToken("RM25746A"); ok {
		t.Error("RM25746A should not match once the prefix list is overridden")
	}
	// The schedule extractor shares the override.
	if _, ok := cfg.Schedule.Matcher.MatchToken("AB12345"); !ok {
		t.Error("schedule matcher should carry the configured prefix")
	}
}

func TestBuildServiceConfigInvalidPrefix(t *testing.T) {
	viper.Reset()
	setTestAliases()
	viper.Set(KeyReferencePrefixes, []string{"toolong"})

	_, err := BuildServiceConfig(0, 0)
	if err == nil {
		t.Fatal("expected error for an invalid reference prefix")
	}

	var recErr *apperrors.ReconcilerError
	if !errors.As(err, &recErr) || recErr.Code != apperrors.CodeInvalidConfig {
		t.Errorf("error = %v, want configuration error with code %s", err, apperrors.CodeInvalidConfig)
	}
}

func TestBuildServiceConfigTokenOverrides(t *testing.T) {
	viper.Reset()
	setTestAliases()
	viper.Set(KeyCounterparty, "ACME LOGISTICS")
	viper.Set(KeyProcessor, "STRIPE")
	viper.Set(KeyMinSimilarity, 0.9)

	cfg, err := BuildServiceConfig(0, 0)
	if err != nil {
		t.Fatalf("BuildServiceConfig: %v", err)
	}

	if cfg.Bank.CounterpartyToken != "ACME LOGISTICS" {
		t.Errorf("CounterpartyToken = %q", cfg.Bank.CounterpartyToken)
	}
	if cfg.Bank.ProcessorLabel != "STRIPE" {
		t.Errorf("ProcessorLabel = %q", cfg.Bank.ProcessorLabel)
	}
	if cfg.Names.MinSimilarity != 0.9 {
		t.Errorf("MinSimilarity = %v, want 0.9", cfg.Names.MinSimilarity)
	}
}

func TestBuildRenderConfig(t *testing.T) {
	tests := []struct {
		format string
		want   reporter.OutputFormat
	}{
		{"", reporter.FormatConsole},
		{"console", reporter.FormatConsole},
		{"json", reporter.FormatJSON},
		{"csv", reporter.FormatCSV},
	}

	for _, tt := range tests {
		if got := BuildRenderConfig(tt.format); got.Format != tt.want {
			t.Errorf("BuildRenderConfig(%q).Format = %s, want %s", tt.format, got.Format, tt.want)
		}
	}
}
