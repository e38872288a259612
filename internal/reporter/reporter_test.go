package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"freight-reconciliation-service/internal/matcher"
	"freight-reconciliation-service/internal/models"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func reportFixture() ([]*models.ScheduleEntry, []*models.BankTransaction, *matcher.Result) {
	entries := []*models.ScheduleEntry{
		{ID: 1, Date: date("2025-04-01"), Driver: "Tony", Amount: amount("450")},
		{ID: 2, Date: date("2025-03-01"), Driver: "Tony", Amount: amount("92")},
		{ID: 3, Date: date("2025-01-10"), Driver: "Rich", Amount: amount("300")},
		{ID: 4, Date: date("2024-12-01"), Driver: "Rich", Amount: amount("275")},
	}
	transactions := []*models.BankTransaction{
		{ID: 1, Date: date("2025-04-02"), Amount: decimal.RequireFromString("450"), Kind: models.KindLoadDeposit, LoadRef: "RM25746A"},
		{ID: 2, Date: date("2025-04-30"), Amount: decimal.RequireFromString("0.12"), Kind: models.KindInterest},
		{ID: 3, Date: date("2025-04-01"), Amount: decimal.RequireFromString("5000"), Kind: models.KindBalanceCarry},
		{ID: 4, Date: date("2025-04-03"), Amount: decimal.RequireFromString("-400"), Kind: models.KindDriverWithdrawal, Recipient: "Tony"},
		{ID: 5, Date: date("2025-04-28"), Amount: decimal.RequireFromString("-5"), Kind: models.KindFee},
	}
	result := &matcher.Result{
		Matches: []*models.Match{
			{ScheduleEntryID: 1, BankTransactionID: 1, Kind: models.MatchFull, Confidence: 1.0},
		},
		UnmatchedEntries: entries[1:],
		Summary: matcher.Summary{
			TotalEntries:     4,
			TotalDeposits:    1,
			FullMatches:      1,
			UnmatchedEntries: 3,
		},
	}
	return entries, transactions, result
}

func TestGlobalTotalsExcludeNonDeposits(t *testing.T) {
	entries, transactions, result := reportFixture()

	report := BuildReport("run-1", date("2025-04-30"), entries, transactions, nil, result)

	// Only the load deposit counts; interest, fee, withdrawal and the
	// balance carry must not inflate the total.
	if !report.Global.TotalDeposits.Equal(decimal.RequireFromString("450")) {
		t.Errorf("TotalDeposits = %s, want 450", report.Global.TotalDeposits)
	}
	if !report.Global.TotalWithdrawals.Equal(decimal.RequireFromString("400")) {
		t.Errorf("TotalWithdrawals = %s, want 400", report.Global.TotalWithdrawals)
	}
	if !report.Global.TotalScheduled.Equal(decimal.RequireFromString("1117")) {
		t.Errorf("TotalScheduled = %s, want 1117", report.Global.TotalScheduled)
	}
	if report.Global.MatchRate != 0.25 {
		t.Errorf("MatchRate = %v, want 0.25", report.Global.MatchRate)
	}
}

func TestDriverRollups(t *testing.T) {
	entries, transactions, result := reportFixture()

	report := BuildReport("run-1", date("2025-04-30"), entries, transactions, nil, result)

	if len(report.Drivers) != 2 {
		t.Fatalf("got %d driver rollups, want 2", len(report.Drivers))
	}
	// Sorted by driver name.
	rich, tony := report.Drivers[0], report.Drivers[1]
	if rich.Driver != "Rich" || tony.Driver != "Tony" {
		t.Fatalf("driver order = %s, %s; want Rich, Tony", rich.Driver, tony.Driver)
	}

	if tony.ScheduledCount != 2 || tony.PaidCount != 1 || tony.UnpaidCount != 1 {
		t.Errorf("Tony counts = %d/%d/%d, want 2/1/1", tony.ScheduledCount, tony.PaidCount, tony.UnpaidCount)
	}
	if !tony.UnpaidAmount.Equal(decimal.RequireFromString("92")) {
		t.Errorf("Tony unpaid = %s, want 92", tony.UnpaidAmount)
	}
	if rich.PaidCount != 0 || rich.UnpaidCount != 2 {
		t.Errorf("Rich counts = %d paid / %d unpaid, want 0/2", rich.PaidCount, rich.UnpaidCount)
	}
	// Oldest unpaid load for Rich dates to Dec 1, 150 days before Apr 30.
	if rich.OldestUnpaidDays != 150 {
		t.Errorf("Rich oldest unpaid = %d days, want 150", rich.OldestUnpaidDays)
	}
}

func TestAgingBuckets(t *testing.T) {
	entries, transactions, result := reportFixture()

	report := BuildReport("run-1", date("2025-04-30"), entries, transactions, nil, result)

	if len(report.Aging) != 4 {
		t.Fatalf("got %d buckets, want 4", len(report.Aging))
	}

	byLabel := make(map[string]*AgingBucket)
	for _, bucket := range report.Aging {
		byLabel[bucket.Label] = bucket
	}

	// Unpaid loads: Mar 1 sits exactly on the 60-day edge; Jan 10
	// (110d) and Dec 1 (150d) land in 90+. The Apr 1 load is paid.
	if byLabel["0-30"].Count != 0 {
		t.Errorf("0-30 count = %d, want 0 (the only recent load is paid)", byLabel["0-30"].Count)
	}
	if byLabel["31-60"].Count != 1 {
		t.Errorf("31-60 count = %d, want 1", byLabel["31-60"].Count)
	}
	if byLabel["61-90"].Count != 0 {
		t.Errorf("61-90 count = %d, want 0", byLabel["61-90"].Count)
	}
	if byLabel["90+"].Count != 2 {
		t.Errorf("90+ count = %d, want 2", byLabel["90+"].Count)
	}
	if !byLabel["90+"].Amount.Equal(decimal.RequireFromString("575")) {
		t.Errorf("90+ amount = %s, want 575", byLabel["90+"].Amount)
	}
}

func TestFutureDatedEntriesDoNotAge(t *testing.T) {
	entries := []*models.ScheduleEntry{
		// Scheduled 10 days after the report date and still unpaid.
		{ID: 1, Date: date("2025-05-10"), Driver: "Tony", Amount: amount("450")},
	}
	result := &matcher.Result{
		UnmatchedEntries: entries,
		Summary:          matcher.Summary{TotalEntries: 1, UnmatchedEntries: 1},
	}

	report := BuildReport("run-1", date("2025-04-30"), entries, nil, nil, result)

	if report.Drivers[0].OldestUnpaidDays != 0 {
		t.Errorf("oldest unpaid = %d days, want 0 for a future-dated load", report.Drivers[0].OldestUnpaidDays)
	}
	for _, bucket := range report.Aging {
		if bucket.Label == "0-30" {
			if bucket.Count != 1 {
				t.Errorf("0-30 count = %d, want 1", bucket.Count)
			}
		} else if bucket.Count != 0 {
			t.Errorf("%s count = %d, want 0", bucket.Label, bucket.Count)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	entries, transactions, result := reportFixture()
	report := BuildReport("run-1", date("2025-04-30"), entries, transactions, nil, result)

	renderer, err := NewRenderer(&RenderConfig{Format: FormatJSON})
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, report, result); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-1" {
		t.Errorf("decoded run ID = %q", decoded.RunID)
	}
}

func TestRenderCSV(t *testing.T) {
	entries, transactions, result := reportFixture()
	report := BuildReport("run-1", date("2025-04-30"), entries, transactions, nil, result)

	renderer, _ := NewRenderer(&RenderConfig{Format: FormatCSV, CSVHeaders: true})
	var buf bytes.Buffer
	if err := renderer.Render(&buf, report, result); err != nil {
		t.Fatalf("Render: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d CSV lines, want header + 2 drivers", len(lines))
	}
	if !strings.HasPrefix(lines[0], "driver,") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestRenderConsole(t *testing.T) {
	entries, transactions, result := reportFixture()
	report := BuildReport("run-1", date("2025-04-30"), entries, transactions, nil, result)

	renderer, _ := NewRenderer(nil)
	var buf bytes.Buffer
	if err := renderer.Render(&buf, report, result); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"run-1", "Tony", "Rich", "90+", "Load deposits"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q", want)
		}
	}
}

func TestInvalidFormatRejected(t *testing.T) {
	if _, err := NewRenderer(&RenderConfig{Format: "xml"}); err == nil {
		t.Error("expected error for unsupported format")
	}
}
