// Package query runs boolean searches over an inverted index. Keyword
// matches whole words exactly; Fuzzy matches query tokens as prefixes of
// record names while tolerating typos.
package query

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
)

// Mode is the boolean combination applied to the results of each key.
type Mode int

const (
	And Mode = iota
	Or
)

// ParseMode accepts "and" or "or", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "and":
		return And, nil
	case "or":
		return Or, nil
	default:
		return And, fmt.Errorf("unknown query mode %q", s)
	}
}

func (m Mode) String() string {
	if m == Or {
		return "or"
	}
	return "and"
}

func (m Mode) indexMode() index.Mode {
	if m == Or {
		return index.ModeUnion
	}
	return index.ModeIntersect
}

// Query is a searchable view over a record set. Results are ascending by
// record id unless a ranking provider reorders them.
type Query interface {
	SearchAnd(keys []string) []index.Posting
	SearchOr(keys []string) []index.Posting
	Search(keys []string, mode Mode) []index.Posting
	Records() *record.Set
	Index() *index.InvertedIndex
}

// combine applies mode to lists, bypassing the merge for a single list.
func combine(lists []*index.PostingList, mode Mode) *index.PostingList {
	switch len(lists) {
	case 0:
		return index.NewPostingList()
	case 1:
		return lists[0]
	default:
		return index.Merge(lists, mode.indexMode())
	}
}
