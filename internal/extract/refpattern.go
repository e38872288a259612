// Package extract turns OCR-extracted statement, schedule and remittance
// text into domain records. Extractors are tolerant: unrecognized lines
// are counted and sampled, never fatal.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// ReferenceShape tags the structural family a load reference belongs to.
type ReferenceShape string

const (
	// ShapePrefixedAlphanumeric covers broker references like RM25746A:
	// a two-letter prefix, five digits, optional trailing letter.
	ShapePrefixedAlphanumeric ReferenceShape = "prefixed_alphanumeric"
	// ShapeBareNumeric78 covers 7-8 digit numeric order IDs.
	ShapeBareNumeric78 ReferenceShape = "bare_numeric_7_8"
	// ShapePartnerNumeric6 covers 6-digit partner load numbers.
	ShapePartnerNumeric6 ReferenceShape = "partner_numeric_6"
)

// ReferencePattern is one named, independently testable reference
// matcher. Patterns are anchored and match a whole candidate token.
type ReferencePattern struct {
	Name  string
	Shape ReferenceShape
	re    *regexp.Regexp
}

// Match reports whether the token has this pattern's shape.
func (p *ReferencePattern) Match(token string) bool {
	return p.re.MatchString(token)
}

// ReferenceMatcher holds the ordered pattern table used to recognize
// load references in statement descriptions and schedule columns.
// Order matters: the first matching pattern names the reference.
type ReferenceMatcher struct {
	patterns []*ReferencePattern
}

var parenToken = regexp.MustCompile(`\(([A-Z0-9]+)\)`)

// NewReferenceMatcher builds a matcher whose prefixed-alphanumeric
// pattern accepts the given two-letter prefixes.
func NewReferenceMatcher(prefixes []string) (*ReferenceMatcher, error) {
	if len(prefixes) == 0 {
		return nil, fmt.Errorf("at least one reference prefix is required")
	}
	for _, p := range prefixes {
		if !regexp.MustCompile(`^[A-Z]{2}$`).MatchString(p) {
			return nil, fmt.Errorf("invalid reference prefix %q: want two uppercase letters", p)
		}
	}

	prefixed := regexp.MustCompile(fmt.Sprintf(`^(?:%s)\d{5}[A-Z]?$`, strings.Join(prefixes, "|")))
	return &ReferenceMatcher{
		patterns: []*ReferencePattern{
			{Name: "broker_prefixed", Shape: ShapePrefixedAlphanumeric, re: prefixed},
			{Name: "order_numeric", Shape: ShapeBareNumeric78, re: regexp.MustCompile(`^\d{7,8}$`)},
			{Name: "partner_numeric", Shape: ShapePartnerNumeric6, re: regexp.MustCompile(`^\d{6}$`)},
		},
	}, nil
}

// DefaultReferenceMatcher returns a matcher with the standard broker
// prefixes RM and RN.
func DefaultReferenceMatcher() *ReferenceMatcher {
	m, err := NewReferenceMatcher([]string{"RM", "RN"})
	if err != nil {
		panic(err)
	}
	return m
}

// MatchToken classifies a single candidate token. The token is
// upper-cased and trimmed before matching.
func (m *ReferenceMatcher) MatchToken(token string) (*ReferencePattern, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if token == "" {
		return nil, false
	}
	for _, p := range m.patterns {
		if p.Match(token) {
			return p, true
		}
	}
	return nil, false
}

// ExtractFromDescription scans a statement description for a
// parenthesized token matching any known reference shape and returns
// the normalized reference. Descriptions carry the reference as
// "(RM25746A)" style suffixes on the counterparty name.
func (m *ReferenceMatcher) ExtractFromDescription(description string) (string, bool) {
	for _, groups := range parenToken.FindAllStringSubmatch(strings.ToUpper(description), -1) {
		token := groups[1]
		if _, ok := m.MatchToken(token); ok {
			return token, true
		}
	}
	return "", false
}

// Patterns exposes the pattern table for diagnostics and tests.
func (m *ReferenceMatcher) Patterns() []*ReferencePattern {
	return m.patterns
}
