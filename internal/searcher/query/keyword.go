package query

import (
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/ranker"
)

// Keyword matches whole keys exactly. Its index holds the keys each record
// reports, so records are expected to emit already tokenized words.
type Keyword struct {
	idx     *index.InvertedIndex
	records *record.Set
	ranking ranker.Provider
}

// NewKeyword indexes records once. A non-nil ranking is snapshotted and its
// scores assigned before NewKeyword returns.
func NewKeyword(records *record.Set, ranking ranker.Provider) *Keyword {
	return NewKeywordWithIndex(index.Build(records.All()), records, ranking)
}

// NewKeywordWithIndex uses an index already built from the keys of records.
func NewKeywordWithIndex(idx *index.InvertedIndex, records *record.Set, ranking ranker.Provider) *Keyword {
	q := &Keyword{
		idx:     idx,
		records: records,
		ranking: ranking,
	}
	if ranking != nil {
		ranking.TakeSnapshot(q.idx, records)
		ranking.AssignScores()
	}
	return q
}

func (q *Keyword) Index() *index.InvertedIndex { return q.idx }

func (q *Keyword) Records() *record.Set { return q.records }

func (q *Keyword) SearchAnd(keys []string) []index.Posting {
	return q.Search(keys, And)
}

func (q *Keyword) SearchOr(keys []string) []index.Posting {
	return q.Search(keys, Or)
}

// Search returns copies of the matching postings. Under And a key missing
// from the index empties the result; under Or it contributes nothing.
func (q *Keyword) Search(keys []string, mode Mode) []index.Posting {
	lists := make([]*index.PostingList, 0, len(keys))
	for _, key := range keys {
		list := q.idx.Search(key)
		if list == nil {
			if mode == And {
				return []index.Posting{}
			}
			continue
		}
		lists = append(lists, list)
	}

	result := combine(lists, mode).Values()
	if q.ranking != nil {
		q.ranking.Sort(result)
	}
	return result
}
