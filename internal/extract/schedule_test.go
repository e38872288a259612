package extract

import (
	"testing"

	"github.com/shopspring/decimal"
)

func scheduleFixture() []string {
	return []string{
		"April",
		"Date Company Pick-Up Drop-off Load # Amount",
		"4/1/2025 United Road Logistics Nashville Louisville RM25746A $450.00",
		"4/3/2025 Acertus Memphis Tupelo 7654321 $325.50",
		"4/5/2025 Central Dispatch Jackson Atlanta 31594-20217 $500.00 expedited",
		"4/9/2025 Preowned Auto Logistics Boston Nashua 123456",
		"Page 1 of 2",
		"====================",
		"not a schedule line",
	}
}

func TestScheduleExtractorColumns(t *testing.T) {
	extractor, err := NewScheduleExtractor(nil)
	if err != nil {
		t.Fatalf("NewScheduleExtractor: %v", err)
	}

	entries, diag := extractor.Extract("Tony", scheduleFixture(), "tony.txt")

	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}
	if diag.LinesSkipped != 1 {
		t.Errorf("LinesSkipped = %d, want 1", diag.LinesSkipped)
	}

	first := entries[0]
	if first.Company != "United Road Logistics" {
		t.Errorf("company = %q, want United Road Logistics", first.Company)
	}
	if first.Pickup != "Nashville" || first.Dropoff != "Louisville" {
		t.Errorf("route = %s -> %s, want Nashville -> Louisville", first.Pickup, first.Dropoff)
	}
	if first.LoadNumber != "RM25746A" || first.LoadRef != "RM25746A" {
		t.Errorf("load = %q/%q, want RM25746A for both", first.LoadNumber, first.LoadRef)
	}
	if !first.Amount.Valid || !first.Amount.Decimal.Equal(decimal.RequireFromString("450")) {
		t.Errorf("amount = %v, want 450", first.Amount)
	}
	if first.Driver != "Tony" {
		t.Errorf("driver = %q, want Tony", first.Driver)
	}
}

func TestScheduleExtractorInternalLoadNumber(t *testing.T) {
	extractor, _ := NewScheduleExtractor(nil)
	entries, _ := extractor.Extract("Tony", scheduleFixture(), "tony.txt")

	var central *struct {
		loadNumber, loadRef, notes string
	}
	for _, entry := range entries {
		if entry.Company == "Central Dispatch" {
			central = &struct{ loadNumber, loadRef, notes string }{entry.LoadNumber, entry.LoadRef, entry.Notes}
		}
	}
	if central == nil {
		t.Fatal("Central Dispatch entry not extracted")
	}
	// 31594-20217 is an internal token, not a carrier reference.
	if central.loadNumber != "31594-20217" {
		t.Errorf("load number = %q, want 31594-20217", central.loadNumber)
	}
	if central.loadRef != "" {
		t.Errorf("load ref = %q, want empty for internal token", central.loadRef)
	}
	if central.notes != "expedited" {
		t.Errorf("notes = %q, want expedited", central.notes)
	}
}

func TestScheduleExtractorMissingAmount(t *testing.T) {
	extractor, _ := NewScheduleExtractor(nil)
	entries, _ := extractor.Extract("Steve", scheduleFixture(), "steve.txt")

	var found bool
	for _, entry := range entries {
		if entry.LoadNumber == "123456" {
			found = true
			if entry.HasAmount() {
				t.Errorf("amount = %v, want none", entry.Amount)
			}
			if entry.LoadRef != "123456" {
				t.Errorf("load ref = %q, want 123456 (partner numeric shape)", entry.LoadRef)
			}
		}
	}
	if !found {
		t.Fatal("amount-less entry not extracted")
	}
}

func TestScheduleExtractorReferenceInNotes(t *testing.T) {
	extractor, _ := NewScheduleExtractor(nil)
	lines := []string{"4/7/2025 Central Dispatch Jackson Atlanta 31594-20217 $500.00 ref RN12345"}

	entries, _ := extractor.Extract("Tony", lines, "tony.txt")
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].LoadRef != "RN12345" {
		t.Errorf("load ref = %q, want RN12345 from the notes column", entries[0].LoadRef)
	}
	if entries[0].LoadNumber != "31594-20217" {
		t.Errorf("load number = %q, want the raw column token", entries[0].LoadNumber)
	}
}

func TestScheduleExtractorEmptyInput(t *testing.T) {
	extractor, _ := NewScheduleExtractor(nil)
	entries, diag := extractor.Extract("Rich", nil, "empty.txt")

	if len(entries) != 0 || diag.LinesSkipped != 0 {
		t.Errorf("empty input: got %d entries, %d skips", len(entries), diag.LinesSkipped)
	}
}
