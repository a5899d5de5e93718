package index

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
)

func TestDistribution(t *testing.T) {
	idx := Build([]record.KeyRecord{
		wordRecord{id: 0, words: []string{"a", "b", "a"}},
		wordRecord{id: 1, words: []string{"b", "c"}},
		wordRecord{id: 2, words: []string{"a"}},
	})
	tests := []struct {
		name  string
		count func(*PostingList) int
		want  string
	}{
		{"document frequency", DocumentFrequency, "[{c 1} {a 2} {b 2}]"},
		{"term frequency", TermFrequency, "[{c 1} {b 2} {a 3}]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fmt.Sprint(Distribution(idx, tt.count))
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDistributionEmpty(t *testing.T) {
	if got := Distribution(New(), DocumentFrequency); len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
}
