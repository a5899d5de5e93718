package index

import "sort"

// KeyCount pairs a key with a count derived from its posting list.
type KeyCount struct {
	Key   string
	Count int
}

// DocumentFrequency counts the records a key occurs in.
func DocumentFrequency(list *PostingList) int { return list.Len() }

// TermFrequency counts every occurrence of a key across all records.
func TermFrequency(list *PostingList) int { return list.TotalTermFrequency() }

// Distribution weighs every key with count and returns them ascending by
// count, ties broken by key.
func Distribution(x *InvertedIndex, count func(*PostingList) int) []KeyCount {
	out := make([]KeyCount, 0, x.KeyCount())
	x.Range(func(key string, list *PostingList) {
		out = append(out, KeyCount{Key: key, Count: count(list)})
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
