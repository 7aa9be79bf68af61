package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// Strategy selects how Amazon and Grace listings are paired.
type Strategy string

const (
	// CrossJoin pairs every Amazon listing with every Grace listing.
	CrossJoin Strategy = "cross_join"
	// NameQuantityJoin pairs listings whose names share enough tokens and whose
	// quantities are in the same unit family.
	NameQuantityJoin Strategy = "name_quantity"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case CrossJoin, NameQuantityJoin:
		return Strategy(s), nil
	case "":
		return CrossJoin, nil
	}
	return "", fmt.Errorf("unknown match strategy %q", s)
}

// Matcher produces the comparison rows. The zero value cross-joins.
type Matcher struct {
	Strategy Strategy
	// MinNameOverlap is the minimum Jaccard overlap of name tokens for NameQuantityJoin.
	MinNameOverlap float64
}

// Match returns rows in Amazon-outer, Grace-inner order. Either input empty means no rows.
func (m Matcher) Match(amazon, grace []Listing) []ComparisonRow {
	if len(amazon) == 0 || len(grace) == 0 {
		return nil
	}

	if m.Strategy == NameQuantityJoin {
		return m.nameQuantityJoin(amazon, grace)
	}

	rows := make([]ComparisonRow, 0, len(amazon)*len(grace))
	for _, a := range amazon {
		for _, g := range grace {
			rows = append(rows, ComparisonRow{Amazon: a, Grace: g})
		}
	}
	return rows
}

func (m Matcher) nameQuantityJoin(amazon, grace []Listing) []ComparisonRow {
	graceTokens := make([][]string, len(grace))
	for i, g := range grace {
		graceTokens[i] = nameTokens(g.Name)
	}

	var rows []ComparisonRow
	for _, a := range amazon {
		aTokens := nameTokens(a.Name)
		for i, g := range grace {
			if !unitCompatible(a.Quantity, g.Quantity) {
				continue
			}
			if jaccard(aTokens, graceTokens[i]) < m.MinNameOverlap {
				continue
			}
			rows = append(rows, ComparisonRow{Amazon: a, Grace: g})
		}
	}
	return rows
}

// unitCompatible never lets grams meet milliliters. Unknown quantities match anything.
func unitCompatible(a, b Quantity) bool {
	if !a.Known || !b.Known {
		return true
	}
	return a.Unit == b.Unit
}

var punctuation = regexp.MustCompile(`[^\w\s]`)

var nameStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "of": true, "with": true, "for": true,
	"g": true, "gm": true, "gms": true, "kg": true, "ml": true, "l": true, "ltr": true,
	"pcs": true, "pc": true, "pack": true, "packet": true, "pouch": true, "box": true,
	"fresh": true, "premium": true, "quality": true,
}

// nameTokens lower-cases the name, drops quantity expressions, punctuation, stop words
// and bare numbers.
func nameTokens(name string) []string {
	cleaned := quantityPattern.ReplaceAllString(strings.ToLower(name), " ")
	cleaned = punctuation.ReplaceAllString(cleaned, " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || nameStopWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// jaccard is |a ∩ b| / |a ∪ b| over the token sets; 0 when both are empty.
func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}

	union := len(set)
	common := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			common++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
