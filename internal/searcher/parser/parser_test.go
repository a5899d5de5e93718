package parser

import (
	"slices"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		mode     query.Mode
		keywords []string
	}{
		{"single", "Fox", query.Or, []string{"fox"}},
		{"default mode", "quick fox", query.And, []string{"quick", "fox"}},
		{"or word", "quick OR fox", query.Or, []string{"quick", "fox"}},
		{"and word", "quick and fox", query.And, []string{"quick", "fox"}},
		{"punctuation", "rock-n-roll!", query.And, []string{"rock", "n", "roll"}},
		{"blank", "   ", query.And, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defaultMode := query.And
			if tt.name == "single" {
				defaultMode = query.Or
			}
			plan := Parse(tt.raw, nil, defaultMode)
			if plan.Mode != tt.mode {
				t.Errorf("expected mode %v, got %v", tt.mode, plan.Mode)
			}
			if !slices.Equal(plan.Keywords, tt.keywords) {
				t.Errorf("expected keywords %v, got %v", tt.keywords, plan.Keywords)
			}
			if plan.Raw != tt.raw {
				t.Errorf("expected raw %q, got %q", tt.raw, plan.Raw)
			}
		})
	}
}

func TestParseWithStemmer(t *testing.T) {
	plan := Parse("the running foxes", tokenizer.Stemmed, query.And)
	if slices.Contains(plan.Keywords, "the") {
		t.Errorf("expected stop-word to be dropped, got %v", plan.Keywords)
	}
	if len(plan.Keywords) != 2 {
		t.Errorf("expected 2 keywords, got %v", plan.Keywords)
	}
}

func TestParseFuzzy(t *testing.T) {
	plan := ParseFuzzy(" new yo ; Frei;;", query.Or)
	if !slices.Equal(plan.Keywords, []string{"new yo", "Frei"}) {
		t.Errorf("expected whole segments, got %v", plan.Keywords)
	}
	if plan.Mode != query.Or {
		t.Errorf("expected default mode, got %v", plan.Mode)
	}

	plan = ParseFuzzy("frei;and;fran", query.Or)
	if plan.Mode != query.And || len(plan.Keywords) != 2 {
		t.Errorf("expected AND with two keywords, got %v %v", plan.Mode, plan.Keywords)
	}
	if !ParseFuzzy(" ; ", query.Or).IsEmpty() {
		t.Error("expected blank segments to yield an empty plan")
	}
}

func TestKey(t *testing.T) {
	a := Parse("Quick fox quick", nil, query.And)
	b := Parse("fox QUICK", nil, query.And)
	if a.Key() != b.Key() {
		t.Errorf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
	c := Parse("fox quick", nil, query.Or)
	if a.Key() == c.Key() {
		t.Error("expected mode to change the key")
	}
	if a.Key() != "and|fox,quick" {
		t.Errorf("unexpected key %q", a.Key())
	}
}
