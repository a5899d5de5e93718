// Package index implements the in-memory inverted index: posting lists keyed
// by string, built once from a corpus of key records, and the k-way merge
// used to combine them.
package index

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
)

// InvertedIndex maps a key to the posting list of records holding it. Keys
// are stored exactly as given; normalisation belongs to whoever produces them.
//
// An index is built by a single writer and may be read concurrently once
// building is complete.
type InvertedIndex struct {
	lists   map[string]*PostingList
	records int
}

func New() *InvertedIndex {
	return &InvertedIndex{
		lists: make(map[string]*PostingList),
	}
}

// Build indexes every key of every record.
func Build(records []record.KeyRecord) *InvertedIndex {
	return BuildWith(records, func(r record.KeyRecord) []string {
		return r.Keys()
	})
}

// BuildWith indexes the keys extractKeys produces for each record. A key
// occurring several times in one record raises that posting's term frequency.
func BuildWith(records []record.KeyRecord, extractKeys func(record.KeyRecord) []string) *InvertedIndex {
	idx := New()
	for _, r := range records {
		id := r.RecordID()
		for _, key := range extractKeys(r) {
			idx.Add(key, id)
		}
		idx.records++
	}
	return idx
}

// Add records one occurrence of key in recordID. It reports whether the
// record was new to the key's list. Add does not change RecordCount; only
// Build, BuildWith and Restore set it.
func (x *InvertedIndex) Add(key string, recordID int) bool {
	list, exists := x.lists[key]
	if !exists {
		list = NewPostingList()
		x.lists[key] = list
	}
	return list.Add(recordID)
}

// Search returns the posting list of key, or nil if the key is unknown.
func (x *InvertedIndex) Search(key string) *PostingList {
	return x.lists[key]
}

func (x *InvertedIndex) ContainsKey(key string) bool {
	_, exists := x.lists[key]
	return exists
}

func (x *InvertedIndex) ContainsRecord(key string, recordID int) bool {
	list, exists := x.lists[key]
	return exists && list.Contains(recordID)
}

// Keys returns all keys in ascending order.
func (x *InvertedIndex) Keys() []string {
	keys := make([]string, 0, len(x.lists))
	for key := range x.lists {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Range calls fn for every key and its list, in no particular order.
func (x *InvertedIndex) Range(fn func(key string, list *PostingList)) {
	for key, list := range x.lists {
		fn(key, list)
	}
}

// KeyCount is the number of distinct keys.
func (x *InvertedIndex) KeyCount() int {
	return len(x.lists)
}

// RecordCount is the number of records the index was built from.
func (x *InvertedIndex) RecordCount() int {
	return x.records
}

// TermEntry is one key with its postings, used when listing an index.
type TermEntry struct {
	Term     string
	Postings []Posting
}

// Entries returns every key with a copy of its postings, sorted by key.
func (x *InvertedIndex) Entries() []TermEntry {
	keys := x.Keys()
	entries := make([]TermEntry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, TermEntry{
			Term:     key,
			Postings: x.lists[key].Values(),
		})
	}
	return entries
}

// Restore rebuilds an index from entries such as those returned by Entries.
// Each entry's postings must be strictly ascending by record id.
func Restore(entries []TermEntry, recordCount int) (*InvertedIndex, error) {
	idx := New()
	idx.records = recordCount
	for _, entry := range entries {
		if _, exists := idx.lists[entry.Term]; exists {
			return nil, fmt.Errorf("restoring index: duplicate key %q", entry.Term)
		}
		list := NewPostingList()
		for i, p := range entry.Postings {
			if i > 0 && entry.Postings[i-1].RecordID >= p.RecordID {
				return nil, fmt.Errorf("restoring index: postings of %q not ascending at record %d", entry.Term, p.RecordID)
			}
			list.Append(p.RecordID, p.TermFrequency, p.Score)
		}
		idx.lists[entry.Term] = list
	}
	return idx, nil
}
