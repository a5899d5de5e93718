package ranker

import (
	"fmt"
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
)

const (
	DefaultK1 = 1.75
	DefaultB  = 0.75
)

// Snapshot is the corpus statistics BM25 needs. It is not updated when the
// index or records change afterwards.
type Snapshot struct {
	TotalRecords int
	TotalSize    int
	RecordSize   map[int]int
	DocFreq      map[string]int
}

// AvgSize is the mean record size, zero for an empty corpus.
func (s *Snapshot) AvgSize() float64 {
	if s.TotalRecords == 0 {
		return 0
	}
	return float64(s.TotalSize) / float64(s.TotalRecords)
}

// BM25 scores a posting as tf' * idf with idf = log2(N/df) and
// tf' = tf*(k1+1) / (k1*(1-b+b*dl/avgdl) + tf).
type BM25 struct {
	k1       float64
	b        float64
	order    Order
	idx      *index.InvertedIndex
	snapshot *Snapshot
}

// NewBM25 returns a BM25 ranking with the default parameters, sorting the
// most relevant postings first.
func NewBM25() *BM25 {
	return NewBM25WithParams(DefaultK1, DefaultB, Descending)
}

// NewBM25WithParams panics if k1 is negative or b lies outside [0, 1].
func NewBM25WithParams(k1, b float64, order Order) *BM25 {
	if k1 < 0 {
		panic(fmt.Sprintf("ranker: negative k1 %g", k1))
	}
	if b < 0 || b > 1 {
		panic(fmt.Sprintf("ranker: b %g outside [0, 1]", b))
	}
	return &BM25{k1: k1, b: b, order: order}
}

func (r *BM25) K1() float64 { return r.k1 }

func (r *BM25) B() float64 { return r.b }

func (r *BM25) Order() Order { return r.order }

// Snapshot returns the statistics of the last TakeSnapshot, or nil.
func (r *BM25) Snapshot() *Snapshot { return r.snapshot }

func (r *BM25) TakeSnapshot(idx *index.InvertedIndex, records *record.Set) {
	snap := &Snapshot{
		RecordSize: make(map[int]int, records.Len()),
		DocFreq:    make(map[string]int, idx.KeyCount()),
	}
	for _, rec := range records.All() {
		size := rec.Size()
		snap.RecordSize[rec.RecordID()] = size
		snap.TotalSize += size
		snap.TotalRecords++
	}
	idx.Range(func(key string, list *index.PostingList) {
		snap.DocFreq[key] = list.Len()
	})
	r.idx = idx
	r.snapshot = snap
}

// Score panics if no snapshot has been taken. Keys unknown to the snapshot
// score zero.
func (r *BM25) Score(key string, p index.Posting) float64 {
	if r.snapshot == nil {
		panic("ranker: BM25 score requested before TakeSnapshot")
	}
	snap := r.snapshot
	df := snap.DocFreq[key]
	if df == 0 || snap.TotalRecords == 0 {
		return 0
	}
	idf := math.Log2(float64(snap.TotalRecords) / float64(df))

	lengthRatio := 0.0
	if avg := snap.AvgSize(); avg > 0 {
		lengthRatio = float64(snap.RecordSize[p.RecordID]) / avg
	}
	tf := float64(p.TermFrequency)
	tfNorm := tf * (r.k1 + 1) / (r.k1*(1-r.b+r.b*lengthRatio) + tf)
	return tfNorm * idf
}

// Scores computes the score of every posting of the snapshot's index without
// touching the postings.
func (r *BM25) Scores() ScoreTable {
	if r.snapshot == nil {
		panic("ranker: BM25 scores requested before TakeSnapshot")
	}
	table := make(ScoreTable, r.idx.KeyCount())
	r.idx.Range(func(key string, list *index.PostingList) {
		scores := make(map[int]float64, list.Len())
		for _, p := range list.Postings() {
			scores[p.RecordID] = r.Score(key, *p)
		}
		table[key] = scores
	})
	return table
}

// AssignScores overwrites every posting score of the snapshot's index with
// its BM25 score.
func (r *BM25) AssignScores() {
	r.Scores().Apply(r.idx)
}

// Sort orders by raw score in the configured order. Equal scores keep
// ascending record id order.
func (r *BM25) Sort(postings []index.Posting) {
	sort.SliceStable(postings, func(i, j int) bool {
		a, b := postings[i], postings[j]
		if a.Score != b.Score {
			if r.order == Ascending {
				return a.Score < b.Score
			}
			return a.Score > b.Score
		}
		return a.RecordID < b.RecordID
	})
}
