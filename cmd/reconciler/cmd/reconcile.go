package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"freight-reconciliation-service/cmd/reconciler/config"
	"freight-reconciliation-service/internal/extract"
	"freight-reconciliation-service/internal/reconciler"
	"freight-reconciliation-service/internal/reporter"
	apperrors "freight-reconciliation-service/pkg/errors"
)

// Flags for the reconcile command
var (
	scheduleFiles   []string
	bankFiles       []string
	remittanceFiles []string
	outputFormat    string
	outputFile      string
	asOfDate        string
	lookbackDays    int
	amountTolerance float64
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile driver schedules with bank deposits",
	Long: `Reconcile matches driver schedule entries against bank statement
deposits, links client payment remittances, and reports unpaid loads
with aging.

This command requires:
- One or more driver schedule files as Driver=path pairs
- One or more bank statement text files
- A config file carrying the driver alias table

Examples:
  # Basic reconciliation
  reconciler reconcile --config sprov.yaml \
    --schedule-files "Rich=rich_april.txt,Tony=tony_april.txt" \
    --bank-files thread_april.txt

  # With remittances and JSON output
  reconciler reconcile --config sprov.yaml \
    --schedule-files "Steve=steve.txt" --bank-files stmt.txt \
    --remittance-files cox_remit.txt \
    --output-format json --output-file report.json

  # Wider matching window anchored on a past date
  reconciler reconcile --config sprov.yaml \
    --schedule-files "Tony=tony.txt" --bank-files stmt.txt \
    --lookback-days 120 --as-of 2025-04-30`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringSliceVarP(&scheduleFiles, "schedule-files", "s", []string{}, "comma-separated Driver=path pairs of schedule text files (required)")
	reconcileCmd.Flags().StringSliceVarP(&bankFiles, "bank-files", "b", []string{}, "comma-separated paths to bank statement text files (required)")
	reconcileCmd.Flags().StringSliceVarP(&remittanceFiles, "remittance-files", "r", []string{}, "comma-separated paths to payment remittance text files")

	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	reconcileCmd.Flags().StringVar(&asOfDate, "as-of", "", "aging anchor date (YYYY-MM-DD, default: today)")
	reconcileCmd.Flags().IntVar(&lookbackDays, "lookback-days", 0, "amount matching window in days (default: 90)")
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0, "amount matching tolerance in dollars (default: 0.01)")

	reconcileCmd.MarkFlagRequired("schedule-files")
	reconcileCmd.MarkFlagRequired("bank-files")

	viper.BindPFlag("schedule-files", reconcileCmd.Flags().Lookup("schedule-files"))
	viper.BindPFlag("bank-files", reconcileCmd.Flags().Lookup("bank-files"))
	viper.BindPFlag("remittance-files", reconcileCmd.Flags().Lookup("remittance-files"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("as-of", reconcileCmd.Flags().Lookup("as-of"))
	viper.BindPFlag("lookback-days", reconcileCmd.Flags().Lookup("lookback-days"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Values come through viper so the config file can override flags
	// left at their defaults.
	scheduleFiles = viper.GetStringSlice("schedule-files")
	bankFiles = viper.GetStringSlice("bank-files")
	remittanceFiles = viper.GetStringSlice("remittance-files")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	asOfDate = viper.GetString("as-of")
	lookbackDays = viper.GetInt("lookback-days")
	amountTolerance = viper.GetFloat64("amount-tolerance")

	if len(scheduleFiles) == 0 {
		return fmt.Errorf("at least one schedule-file is required")
	}
	if len(bankFiles) == 0 {
		return fmt.Errorf("at least one bank-file is required")
	}

	for _, pair := range scheduleFiles {
		driver, path, err := splitSchedulePair(pair)
		if err != nil {
			return err
		}
		if err := validateFileExists(path, fmt.Sprintf("schedule file for %s", driver)); err != nil {
			return err
		}
	}
	for i, bankFile := range bankFiles {
		if err := validateFileExists(bankFile, fmt.Sprintf("bank file %d", i+1)); err != nil {
			return err
		}
	}
	for i, remFile := range remittanceFiles {
		if err := validateFileExists(remFile, fmt.Sprintf("remittance file %d", i+1)); err != nil {
			return err
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if asOfDate != "" {
		if _, err := time.Parse("2006-01-02", asOfDate); err != nil {
			return fmt.Errorf("invalid as-of date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if lookbackDays < 0 {
		return fmt.Errorf("lookback days cannot be negative")
	}
	if amountTolerance < 0 {
		return fmt.Errorf("amount tolerance cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func splitSchedulePair(pair string) (driver, path string, err error) {
	parts := strings.SplitN(pair, "=", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("invalid schedule-files entry %q: expected Driver=path", pair)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return apperrors.FileError(apperrors.CodeFileNotFound, filePath, err)
	}
	if err != nil {
		return apperrors.FileError(apperrors.CodeFileUnreadable, filePath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Schedule files: %s\n", strings.Join(scheduleFiles, ", "))
		fmt.Fprintf(os.Stderr, "Bank files: %s\n", strings.Join(bankFiles, ", "))
		if len(remittanceFiles) > 0 {
			fmt.Fprintf(os.Stderr, "Remittance files: %s\n", strings.Join(remittanceFiles, ", "))
		}
	}

	serviceConfig, err := config.BuildServiceConfig(lookbackDays, amountTolerance)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(serviceConfig)
	if err != nil {
		return err
	}

	request, err := buildRequest()
	if err != nil {
		return err
	}

	result, err := service.Run(request)
	if err != nil {
		return err
	}

	renderer, err := reporter.NewRenderer(config.BuildRenderConfig(outputFormat))
	if err != nil {
		return fmt.Errorf("failed to create report renderer: %w", err)
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return apperrors.FileError(apperrors.CodeFileUnreadable, outputFile, err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := renderer.Render(output, result.Report, result.MatchResult); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nRun %s completed.\n", result.RunID)
		fmt.Fprintf(os.Stderr, "Extracted %d entries, %d transactions, %d remittances.\n",
			len(result.Entries), len(result.Transactions), len(result.Remittances))
		fmt.Fprintf(os.Stderr, "Removed %d duplicate entries and %d duplicate transactions.\n",
			result.DuplicateEntries, result.DuplicateTransactions)
		if result.Diagnostics.LinesSkipped > 0 || result.Diagnostics.ValidationDropped > 0 {
			fmt.Fprintf(os.Stderr, "%d lines skipped by parsing, %d records dropped by validation.\n",
				result.Diagnostics.LinesSkipped, result.Diagnostics.ValidationDropped)
		}
		if len(result.UnresolvedNames) > 0 {
			fmt.Fprintf(os.Stderr, "Unresolved driver names: %s\n", strings.Join(result.UnresolvedNames, ", "))
		}
	}

	return nil
}

// buildRequest reads every input file and materializes the run request.
func buildRequest() (*reconciler.Request, error) {
	request := &reconciler.Request{}

	for _, pair := range scheduleFiles {
		driver, path, err := splitSchedulePair(pair)
		if err != nil {
			return nil, err
		}
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		request.Schedules = append(request.Schedules, reconciler.ScheduleSource{
			Driver:     driver,
			Lines:      lines,
			SourceFile: path,
		})
	}

	for _, path := range bankFiles {
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		request.Statements = append(request.Statements, reconciler.Source{Lines: lines, SourceFile: path})
	}

	for _, path := range remittanceFiles {
		lines, err := readLines(path)
		if err != nil {
			return nil, err
		}
		request.Remittances = append(request.Remittances, reconciler.Source{Lines: lines, SourceFile: path})
	}

	if asOfDate != "" {
		asOf, err := time.Parse("2006-01-02", asOfDate)
		if err != nil {
			return nil, fmt.Errorf("invalid as-of date: %w", err)
		}
		request.AsOf = asOf
	}

	return request, nil
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.FileError(apperrors.CodeFileUnreadable, path, err)
	}
	return extract.SplitLines(string(data)), nil
}
