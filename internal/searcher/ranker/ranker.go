// Package ranker scores and orders query results. BM25 computes relevance
// from corpus statistics; Hybrid orders by a score already set on the
// postings and breaks ties by record importance.
package ranker

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
)

// Provider is the ranking surface a query uses. TakeSnapshot must be called
// before the other methods, and again whenever the index or records change.
type Provider interface {
	TakeSnapshot(idx *index.InvertedIndex, records *record.Set)
	// AssignScores writes a score into every posting of the snapshot's index.
	AssignScores()
	// Score is the ranking score of a posting under key.
	Score(key string, p index.Posting) float64
	// Sort orders postings by rank, best first.
	Sort(postings []index.Posting)
}

// Order is the direction in which raw scores are sorted.
type Order int

const (
	// Descending puts the highest score first.
	Descending Order = iota
	// Ascending puts the lowest score first.
	Ascending
)

func (o Order) String() string {
	if o == Ascending {
		return "asc"
	}
	return "desc"
}

// ParseOrder accepts "desc" or "asc".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "desc":
		return Descending, nil
	case "asc":
		return Ascending, nil
	default:
		return Descending, fmt.Errorf("unknown sort order %q", s)
	}
}

// ScoreTable holds computed scores per key and record id.
type ScoreTable map[string]map[int]float64

// Apply writes the table's scores into the matching postings of idx.
func (t ScoreTable) Apply(idx *index.InvertedIndex) {
	for key, scores := range t {
		list := idx.Search(key)
		if list == nil {
			continue
		}
		for id, score := range scores {
			if p, ok := list.Get(id); ok {
				p.Score = score
			}
		}
	}
}

// New returns the provider registered under name: "bm25", "hybrid", or
// "none" for no ranking, which yields a nil Provider.
func New(name string, k1, b float64, order Order) (Provider, error) {
	switch name {
	case "bm25":
		return NewBM25WithParams(k1, b, order), nil
	case "hybrid":
		return NewHybrid(), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ranking provider %q", name)
	}
}
