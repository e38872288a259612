package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"freight-reconciliation-service/internal/matcher"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// RenderConfig holds options for report rendering.
type RenderConfig struct {
	Format OutputFormat `json:"format"`
	// IncludeUnmatched adds the unmatched-entry and unmatched-deposit
	// sections to the console output.
	IncludeUnmatched bool `json:"include_unmatched"`
	CSVHeaders       bool `json:"csv_headers"`
}

// DefaultRenderConfig returns a default render configuration.
func DefaultRenderConfig() *RenderConfig {
	return &RenderConfig{
		Format:           FormatConsole,
		IncludeUnmatched: true,
		CSVHeaders:       true,
	}
}

// Validate validates the render configuration
func (c *RenderConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// Renderer writes reports in the configured format.
type Renderer struct {
	config *RenderConfig
}

// NewRenderer creates a renderer with the given configuration.
func NewRenderer(config *RenderConfig) (*Renderer, error) {
	if config == nil {
		config = DefaultRenderConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render configuration: %w", err)
	}
	return &Renderer{config: config}, nil
}

// Render writes the report to w. The matching result supplies the
// unmatched sections for console output; pass nil to omit them.
func (r *Renderer) Render(w io.Writer, report *Report, result *matcher.Result) error {
	switch r.config.Format {
	case FormatJSON:
		return r.renderJSON(w, report)
	case FormatCSV:
		return r.renderCSV(w, report)
	default:
		return r.renderConsole(w, report, result)
	}
}

func (r *Renderer) renderJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// renderCSV emits one row per driver rollup.
func (r *Renderer) renderCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if r.config.CSVHeaders {
		header := []string{"driver", "scheduled_count", "scheduled_amount", "paid_count", "paid_amount", "unpaid_count", "unpaid_amount", "oldest_unpaid_days"}
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	for _, d := range report.Drivers {
		row := []string{
			d.Driver,
			fmt.Sprintf("%d", d.ScheduledCount),
			d.ScheduledAmount.StringFixed(2),
			fmt.Sprintf("%d", d.PaidCount),
			d.PaidAmount.StringFixed(2),
			fmt.Sprintf("%d", d.UnpaidCount),
			d.UnpaidAmount.StringFixed(2),
			fmt.Sprintf("%d", d.OldestUnpaidDays),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (r *Renderer) renderConsole(w io.Writer, report *Report, result *matcher.Result) error {
	fmt.Fprintf(w, "Reconciliation Report %s (as of %s)\n", report.RunID, report.AsOf.Format("2006-01-02"))
	fmt.Fprintln(w, "================================================================")
	fmt.Fprintf(w, "Entries: %d  Deposits: %d  Full: %d  Partial: %d  Manual: %d\n",
		report.Summary.TotalEntries, report.Summary.TotalDeposits,
		report.Summary.FullMatches, report.Summary.PartialMatches, report.Summary.ManualCases)
	fmt.Fprintf(w, "Match rate: %.1f%%\n\n", report.Global.MatchRate*100)

	fmt.Fprintln(w, "Totals")
	fmt.Fprintf(w, "  Load deposits:      $%s\n", report.Global.TotalDeposits.StringFixed(2))
	fmt.Fprintf(w, "  Driver withdrawals: $%s\n", report.Global.TotalWithdrawals.StringFixed(2))
	fmt.Fprintf(w, "  Scheduled:          $%s\n", report.Global.TotalScheduled.StringFixed(2))
	fmt.Fprintf(w, "  Remitted:           $%s\n\n", report.Global.TotalRemitted.StringFixed(2))

	fmt.Fprintln(w, "Per-driver")
	fmt.Fprintf(w, "  %-20s %10s %12s %10s %12s %8s\n", "Driver", "Scheduled", "Sched $", "Paid", "Unpaid $", "Oldest")
	for _, d := range report.Drivers {
		fmt.Fprintf(w, "  %-20s %10d %12s %10d %12s %7dd\n",
			d.Driver, d.ScheduledCount, d.ScheduledAmount.StringFixed(2),
			d.PaidCount, d.UnpaidAmount.StringFixed(2), d.OldestUnpaidDays)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Unpaid load aging")
	for _, bucket := range report.Aging {
		fmt.Fprintf(w, "  %-6s %5d loads  $%s\n", bucket.Label, bucket.Count, bucket.Amount.StringFixed(2))
	}

	if result != nil && r.config.IncludeUnmatched {
		if len(result.ManualReview) > 0 {
			fmt.Fprintln(w, "\nManual review")
			for _, c := range result.ManualReview {
				fmt.Fprintf(w, "  ref %s: entries %v vs transactions %v\n", c.LoadRef, c.EntryIDs, c.TransactionIDs)
			}
		}
		if len(result.UnmatchedDeposits) > 0 {
			fmt.Fprintln(w, "\nUnmatched deposits")
			for _, tx := range result.UnmatchedDeposits {
				fmt.Fprintf(w, "  %s  $%s  %s\n", tx.Date.Format("2006-01-02"), tx.Amount.StringFixed(2), tx.Description)
			}
		}
		if len(result.OrphanRemittances) > 0 {
			fmt.Fprintln(w, "\nOrphan remittances")
			for _, rem := range result.OrphanRemittances {
				fmt.Fprintf(w, "  %s  $%s  ref %s\n", rem.PaymentDate.Format("2006-01-02"), rem.PaymentAmount.StringFixed(2), rem.PaymentReference)
			}
		}
	}

	return nil
}
