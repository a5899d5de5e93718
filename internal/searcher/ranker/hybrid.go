package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
)

// Hybrid ranks by a score set elsewhere, lower first, such as the edit
// distance fuzzy search stores. Among equal scores, records with a higher
// Importance come first.
type Hybrid struct {
	idx     *index.InvertedIndex
	records *record.Set
}

func NewHybrid() *Hybrid {
	return &Hybrid{}
}

func (h *Hybrid) TakeSnapshot(idx *index.InvertedIndex, records *record.Set) {
	h.idx = idx
	h.records = records
}

// AssignScores does nothing; scores are expected to be set already.
func (h *Hybrid) AssignScores() {}

func (h *Hybrid) Score(_ string, p index.Posting) float64 {
	return p.Score
}

// Compare returns a negative number when a ranks before b, a positive one
// when after, and zero when they tie. A record without importance counts as
// importance 0.
func (h *Hybrid) Compare(a, b index.Posting) int {
	switch {
	case a.Score < b.Score:
		return -1
	case a.Score > b.Score:
		return 1
	}
	ia, ib := h.importance(a.RecordID), h.importance(b.RecordID)
	switch {
	case ia > ib:
		return -1
	case ia < ib:
		return 1
	}
	return 0
}

// Sort is stable, so full ties keep their input order.
func (h *Hybrid) Sort(postings []index.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		return h.Compare(postings[i], postings[j]) < 0
	})
}

func (h *Hybrid) importance(id int) int {
	if h.records == nil {
		return 0
	}
	rec, ok := h.records.Get(id)
	if !ok {
		return 0
	}
	if imp, ok := rec.(record.Importance); ok {
		return imp.Importance()
	}
	return 0
}
