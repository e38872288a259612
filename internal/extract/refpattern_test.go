package extract

import (
	"testing"
)

func TestReferenceMatcherShapes(t *testing.T) {
	m := DefaultReferenceMatcher()

	tests := []struct {
		token     string
		wantMatch bool
		wantShape ReferenceShape
	}{
		{"RM25746A", true, ShapePrefixedAlphanumeric},
		{"RM25746", true, ShapePrefixedAlphanumeric},
		{"RN10001B", true, ShapePrefixedAlphanumeric},
		{"rm25746a", true, ShapePrefixedAlphanumeric},
		{"1234567", true, ShapeBareNumeric78},
		{"12345678", true, ShapeBareNumeric78},
		{"123456", true, ShapePartnerNumeric6},
		{"RM2574", false, ""},     // too few digits
		{"RX25746", false, ""},    // unknown prefix
		{"123456789", false, ""},  // too many digits
		{"12345", false, ""},      // too few digits
		{"RM25746AB", false, ""},  // two trailing letters
		{"31594-20217", false, ""}, // internal schedule token
		{"", false, ""},
	}

	for _, tt := range tests {
		pattern, ok := m.MatchToken(tt.token)
		if ok != tt.wantMatch {
			t.Errorf("MatchToken(%q) = %v, want %v", tt.token, ok, tt.wantMatch)
			continue
		}
		if ok && pattern.Shape != tt.wantShape {
			t.Errorf("MatchToken(%q) shape = %s, want %s", tt.token, pattern.Shape, tt.wantShape)
		}
	}
}

func TestReferenceMatcherWholeTokenOnly(t *testing.T) {
	m := DefaultReferenceMatcher()

	// Free text containing digits must not qualify as a reference.
	for _, token := range []string{"INVOICE1234567", "1234567X", "RM25746A9"} {
		if _, ok := m.MatchToken(token); ok {
			t.Errorf("MatchToken(%q) matched, want whole-token rejection", token)
		}
	}
}

func TestExtractFromDescription(t *testing.T) {
	m := DefaultReferenceMatcher()

	tests := []struct {
		description string
		wantRef     string
		wantOK      bool
	}{
		{"SmartTrucker SPV, LLC | Purchase | United Road Logistics (RM25746A)", "RM25746A", true},
		{"SmartTrucker SPV, LLC | Purchase | Acertus (7654321)", "7654321", true},
		{"SmartTrucker SPV, LLC | Purchase | Preowned Auto Logistics (123456)", "123456", true},
		{"SmartTrucker SPV, LLC | Purchase | (misc) somewhere (RM25746)", "RM25746", true},
		{"Interest Payment", "", false},
		{"Purchase (not a ref)", "", false},
	}

	for _, tt := range tests {
		ref, ok := m.ExtractFromDescription(tt.description)
		if ok != tt.wantOK || ref != tt.wantRef {
			t.Errorf("ExtractFromDescription(%q) = (%q, %v), want (%q, %v)",
				tt.description, ref, ok, tt.wantRef, tt.wantOK)
		}
	}
}

func TestNewReferenceMatcherValidation(t *testing.T) {
	if _, err := NewReferenceMatcher(nil); err == nil {
		t.Error("expected error for empty prefix list")
	}
	if _, err := NewReferenceMatcher([]string{"R1"}); err == nil {
		t.Error("expected error for non-letter prefix")
	}
	m, err := NewReferenceMatcher([]string{"AB"})
	if err != nil {
		t.Fatalf("NewReferenceMatcher: %v", err)
	}
	if _, ok := m.MatchToken("AB12345"); !ok {
		t.Error("custom prefix AB12345 should match")
	}
	if _, ok := m.MatchToken("RM12345"); ok {
		t.Error("RM12345 should not match a matcher configured without RM")
	}
}
