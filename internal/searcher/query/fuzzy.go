package query

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/editdistance"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/qgram"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/ranker"
)

// Fuzzy treats each query token as a possibly misspelled prefix of a record's
// primary key. The index holds the q-grams of every primary key.
type Fuzzy struct {
	idx        *index.InvertedIndex
	records    *record.Set
	grams      *qgram.Provider
	ranking    ranker.Provider
	normalized map[int]string
	ids        []int
}

// NewFuzzy builds a q-gram index over the primary keys of records.
func NewFuzzy(records *record.Set, grams *qgram.Provider, ranking ranker.Provider) *Fuzzy {
	return NewFuzzyWithIndex(BuildFuzzyIndex(records, grams), records, grams, ranking)
}

// BuildFuzzyIndex indexes the q-grams of every record's primary key.
func BuildFuzzyIndex(records *record.Set, grams *qgram.Provider) *index.InvertedIndex {
	return index.BuildWith(records.All(), func(r record.KeyRecord) []string {
		return grams.Keys(record.PrimaryKey(r))
	})
}

// NewFuzzyWithIndex uses an index already built from grams over the primary
// keys of records. A non-nil ranking is snapshotted and assigned.
func NewFuzzyWithIndex(idx *index.InvertedIndex, records *record.Set, grams *qgram.Provider, ranking ranker.Provider) *Fuzzy {
	q := &Fuzzy{
		idx:        idx,
		records:    records,
		grams:      grams,
		ranking:    ranking,
		normalized: make(map[int]string, records.Len()),
	}
	for _, r := range records.All() {
		q.normalized[r.RecordID()] = qgram.Normalize(record.PrimaryKey(r))
		q.ids = append(q.ids, r.RecordID())
	}
	slices.Sort(q.ids)
	if ranking != nil {
		ranking.TakeSnapshot(idx, records)
		ranking.AssignScores()
	}
	return q
}

func (q *Fuzzy) Index() *index.InvertedIndex { return q.idx }

func (q *Fuzzy) Records() *record.Set { return q.records }

func (q *Fuzzy) SearchAnd(tokens []string) []index.Posting {
	return q.Search(tokens, And)
}

func (q *Fuzzy) SearchOr(tokens []string) []index.Posting {
	return q.Search(tokens, Or)
}

// Search matches every token on its own and combines the candidate lists
// with mode. Each result's score is the sum of its prefix edit distances.
func (q *Fuzzy) Search(tokens []string, mode Mode) []index.Posting {
	lists := make([]*index.PostingList, 0, len(tokens))
	for _, token := range tokens {
		lists = append(lists, q.SearchPrefixesFuzzy(token))
	}

	result := combine(lists, mode).Values()
	if q.ranking != nil {
		q.ranking.Sort(result)
	}
	return result
}

// Tolerance is the number of edits a token of the given normalized length
// may contain and still match.
func Tolerance(length int) int {
	return length / 4
}

// SearchPrefixesFuzzy returns the records whose primary key has a prefix
// within Tolerance edits of token. A posting's term frequency is the number
// of q-grams shared with token and its score the prefix edit distance.
func (q *Fuzzy) SearchPrefixesFuzzy(token string) *index.PostingList {
	result := index.NewPostingList()
	normalized := qgram.Normalize(token)
	length := len([]rune(normalized))
	if length == 0 {
		return result
	}
	delta := Tolerance(length)

	var lists []*index.PostingList
	for _, gram := range q.grams.Keys(normalized) {
		if list := q.idx.Search(gram); list != nil {
			lists = append(lists, list)
		}
	}
	candidates := combine(lists, Or)
	// A match keeps at least length-q*delta of the token's grams. When that
	// bound reaches zero a match may share no gram, so every record is a
	// candidate.
	if length-q.grams.Q()*delta < 1 {
		candidates = q.allRecords(candidates)
	}

	// delta edits destroy at most q*delta of the grams a match would share.
	threshold := length - 1 - q.grams.Q()*delta
	for _, c := range candidates.Postings() {
		if c.TermFrequency < threshold {
			continue
		}
		distance := editdistance.EstimatedDistance(normalized, q.normalized[c.RecordID], delta)
		if distance <= delta {
			result.Append(c.RecordID, c.TermFrequency, float64(distance))
		}
	}
	return result
}

// allRecords lists every record, carrying over the shared gram counts found
// in candidates.
func (q *Fuzzy) allRecords(candidates *index.PostingList) *index.PostingList {
	all := index.NewPostingList()
	for _, id := range q.ids {
		tf := 0
		if p, ok := candidates.Get(id); ok {
			tf = p.TermFrequency
		}
		all.Append(id, tf, 0)
	}
	return all
}
