package index

import "container/heap"

// Mode selects how Merge combines its input lists.
type Mode int

const (
	// ModeUnion keeps every record held by at least one list.
	ModeUnion Mode = iota
	// ModeIntersect keeps only records held by every list.
	ModeIntersect
)

func (m Mode) String() string {
	switch m {
	case ModeUnion:
		return "union"
	case ModeIntersect:
		return "intersect"
	default:
		return "unknown"
	}
}

// Union merges the lists keeping every record of any of them.
func Union(lists ...*PostingList) *PostingList {
	return Merge(lists, ModeUnion)
}

// Intersect merges the lists keeping only records present in all of them.
func Intersect(lists ...*PostingList) *PostingList {
	return Merge(lists, ModeIntersect)
}

// Merge performs a k-way merge of ascending posting lists into a new list.
// The emitted posting of a record carries the sum of the term frequencies and
// scores contributed by every list holding it. A nil list counts as empty.
//
// Merge panics when given fewer than two lists; callers with a single list
// use it directly.
func Merge(lists []*PostingList, mode Mode) *PostingList {
	k := len(lists)
	if k < 2 {
		panic("index: merge needs at least two posting lists")
	}

	h := make(cursorHeap, 0, k)
	for _, list := range lists {
		if list.IsEmpty() {
			continue
		}
		h = append(h, &cursor{postings: list.postings})
	}
	heap.Init(&h)

	result := NewPostingList()
	for h.Len() > 0 {
		smallest := h[0]
		p := smallest.current()
		recordID := p.RecordID
		termFrequency := p.TermFrequency
		score := p.Score
		advance(&h)

		matching := 1
		for h.Len() > 0 && h[0].current().RecordID == recordID {
			next := h[0].current()
			termFrequency += next.TermFrequency
			score += next.Score
			matching++
			advance(&h)
		}

		if mode == ModeUnion || matching == k {
			result.Append(recordID, termFrequency, score)
		}
	}
	return result
}

// advance moves the cursor at the top of the heap to its next posting,
// removing it once exhausted.
func advance(h *cursorHeap) {
	top := (*h)[0]
	top.pos++
	if top.pos < len(top.postings) {
		heap.Fix(h, 0)
		return
	}
	heap.Pop(h)
}

type cursor struct {
	postings []*Posting
	pos      int
}

func (c *cursor) current() *Posting {
	return c.postings[c.pos]
}

type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	return h[i].current().RecordID < h[j].current().RecordID
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x interface{}) {
	*h = append(*h, x.(*cursor))
}

func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
