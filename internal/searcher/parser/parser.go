// Package parser turns a free-text search request into the analyzed terms
// the ranker scores. Boolean operators are accepted for compatibility:
// AND and OR are dropped because ranking is always disjunctive, and NOT
// excludes documents containing the following word.
package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-retrieval/internal/indexer/tokenizer"
)

type QueryPlan struct {
	RawQuery     string   `json:"raw_query"`
	Terms        []string `json:"terms"`
	ExcludeTerms []string `json:"exclude_terms,omitempty"`
}

// Parse analyzes query with a. Each whitespace-separated word is analyzed on
// its own so that NOT applies to exactly the next word's terms.
func Parse(query string, a *tokenizer.Analyzer) *QueryPlan {
	plan := &QueryPlan{
		RawQuery:     query,
		Terms:        make([]string, 0),
		ExcludeTerms: make([]string, 0),
	}
	excludeNext := false
	for _, word := range strings.Fields(query) {
		switch word {
		case "AND", "OR":
			continue
		case "NOT":
			excludeNext = true
			continue
		}
		terms := a.Analyze(word)
		if len(terms) == 0 {
			continue
		}
		if excludeNext {
			plan.ExcludeTerms = append(plan.ExcludeTerms, terms...)
			excludeNext = false
		} else {
			plan.Terms = append(plan.Terms, terms...)
		}
	}
	return plan
}

// FromTokens wraps already analyzed tokens, as produced for batch queries.
func FromTokens(raw string, tokens []string) *QueryPlan {
	return &QueryPlan{RawQuery: raw, Terms: tokens, ExcludeTerms: []string{}}
}
