// Package parser turns raw query text into a QueryPlan of index keys and a
// boolean mode.
package parser

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
)

// KeywordSeparator splits a fuzzy query into independent prefix keywords.
const KeywordSeparator = ";"

type QueryPlan struct {
	Keywords []string
	Mode     query.Mode
	Raw      string
}

// Parse splits query into words. A bare AND or OR switches the mode for the
// whole plan; every other word is run through analyze and contributes its
// keys. A nil analyze means tokenizer.Words.
func Parse(raw string, analyze tokenizer.Analyzer, defaultMode query.Mode) *QueryPlan {
	if analyze == nil {
		analyze = tokenizer.Words
	}
	plan := &QueryPlan{
		Keywords: make([]string, 0),
		Mode:     defaultMode,
		Raw:      raw,
	}
	for _, word := range strings.Fields(raw) {
		switch strings.ToUpper(word) {
		case "AND":
			plan.Mode = query.And
			continue
		case "OR":
			plan.Mode = query.Or
			continue
		}
		plan.Keywords = append(plan.Keywords, analyze(word)...)
	}
	return plan
}

// ParseFuzzy keeps each ;-separated segment whole, so "new yo" searches for
// the prefix "new yo" rather than two words. Normalisation is left to the
// fuzzy query.
func ParseFuzzy(raw string, defaultMode query.Mode) *QueryPlan {
	plan := &QueryPlan{
		Keywords: make([]string, 0),
		Mode:     defaultMode,
		Raw:      raw,
	}
	for _, segment := range strings.Split(raw, KeywordSeparator) {
		segment = strings.TrimSpace(segment)
		switch strings.ToUpper(segment) {
		case "":
			continue
		case "AND":
			plan.Mode = query.And
			continue
		case "OR":
			plan.Mode = query.Or
			continue
		}
		plan.Keywords = append(plan.Keywords, segment)
	}
	return plan
}

func (p *QueryPlan) IsEmpty() bool {
	return len(p.Keywords) == 0
}

// Key is a canonical form of the plan: equal for plans that select the same
// records, whatever the keyword order or letter case of the raw text.
func (p *QueryPlan) Key() string {
	keywords := make([]string, len(p.Keywords))
	for i, k := range p.Keywords {
		keywords[i] = strings.ToLower(k)
	}
	slices.Sort(keywords)
	keywords = slices.Compact(keywords)
	return p.Mode.String() + "|" + strings.Join(keywords, ",")
}
