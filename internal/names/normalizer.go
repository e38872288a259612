// Package names resolves the driver name variants that appear across
// bank descriptions, Zelle tokens and schedule files to canonical
// driver names. Resolution tries the alias table first and falls back
// to a similarity heuristic; below the threshold the raw name comes
// back unresolved so callers can report it instead of guessing.
package names

import (
	"fmt"
	"sort"
	"strings"
)

// AliasTable maps raw name variants to canonical driver names. Keys are
// compared after collapsing: upper-cased with spaces and hyphens
// removed, so "RICH-LITTLE", "Rich Little" and "richlittle" all hit the
// same alias.
type AliasTable map[string]string

// Config controls name resolution.
type Config struct {
	Aliases AliasTable
	// MinSimilarity is the floor for the fuzzy fallback. Candidates
	// scoring below it leave the name unresolved.
	MinSimilarity float64
}

// DefaultMinSimilarity is the fuzzy-fallback floor used when the
// config leaves it zero.
const DefaultMinSimilarity = 0.8

// Normalizer resolves raw names to canonical driver names.
type Normalizer struct {
	aliases map[string]string
	// aliasKeys holds the collapsed alias keys longest-first, so a
	// short alias embedded in a longer one never shadows it during the
	// substring pass.
	aliasKeys     []string
	canonical     []string
	minSimilarity float64
}

// NewNormalizer builds a normalizer from the alias table. The table is
// required: without it every bank-side name would depend on the fuzzy
// fallback alone.
func NewNormalizer(config *Config) (*Normalizer, error) {
	if config == nil || len(config.Aliases) == 0 {
		return nil, fmt.Errorf("alias table is required")
	}

	minSim := config.MinSimilarity
	if minSim == 0 {
		minSim = DefaultMinSimilarity
	}
	if minSim < 0 || minSim > 1 {
		return nil, fmt.Errorf("minimum similarity %v out of range [0,1]", minSim)
	}

	aliases := make(map[string]string, len(config.Aliases))
	canonicalSet := make(map[string]bool)
	for raw, canonical := range config.Aliases {
		canonical = strings.TrimSpace(canonical)
		if canonical == "" {
			return nil, fmt.Errorf("alias %q maps to an empty canonical name", raw)
		}
		aliases[collapse(raw)] = canonical
		canonicalSet[canonical] = true
		// Canonical names resolve to themselves so normalization is
		// idempotent.
		aliases[collapse(canonical)] = canonical
	}

	canonical := make([]string, 0, len(canonicalSet))
	for name := range canonicalSet {
		canonical = append(canonical, name)
	}
	sort.Strings(canonical)

	aliasKeys := make([]string, 0, len(aliases))
	for key := range aliases {
		aliasKeys = append(aliasKeys, key)
	}
	sort.Slice(aliasKeys, func(i, j int) bool {
		if len(aliasKeys[i]) != len(aliasKeys[j]) {
			return len(aliasKeys[i]) > len(aliasKeys[j])
		}
		return aliasKeys[i] < aliasKeys[j]
	})

	return &Normalizer{
		aliases:       aliases,
		aliasKeys:     aliasKeys,
		canonical:     canonical,
		minSimilarity: minSim,
	}, nil
}

// Normalize resolves a raw name. The bool reports whether resolution
// succeeded; on failure the trimmed raw name is returned unchanged.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	key := collapse(trimmed)

	if canonical, ok := n.aliases[key]; ok {
		return canonical, true
	}

	// Substring pass: bank descriptions embed alias tokens inside
	// longer strings. Longest alias first, so RICHLITTLE wins over the
	// embedded RICH; equal lengths resolve lexicographically.
	for _, aliasKey := range n.aliasKeys {
		if strings.Contains(key, aliasKey) {
			return n.aliases[aliasKey], true
		}
	}

	if best, score := n.closestCanonical(trimmed); score >= n.minSimilarity {
		return best, true
	}
	return trimmed, false
}

// closestCanonical scores the name against every canonical name and
// returns the best. The score blends token overlap with edit-distance
// similarity on the collapsed forms.
func (n *Normalizer) closestCanonical(name string) (string, float64) {
	best := ""
	bestScore := -1.0
	for _, canonical := range n.canonical {
		score := similarity(name, canonical)
		if score > bestScore {
			best = canonical
			bestScore = score
		}
	}
	return best, bestScore
}

func similarity(a, b string) float64 {
	overlap := tokenOverlap(a, b)
	edit := editSimilarity(collapse(a), collapse(b))
	if overlap > edit {
		return overlap
	}
	return edit
}

// tokenOverlap is the Jaccard overlap of the upper-cased word sets.
func tokenOverlap(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	shared := 0
	for token := range as {
		if bs[token] {
			shared++
		}
	}
	union := len(as) + len(bs) - shared
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToUpper(strings.ReplaceAll(s, "-", " "))) {
		set[token] = true
	}
	return set
}

// editSimilarity maps Levenshtein distance into [0,1].
func editSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(levenshtein(a, b))/float64(longest)
}

func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// collapse upper-cases and strips spaces and hyphens.
func collapse(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}
