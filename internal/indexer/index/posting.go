package index

import (
	"fmt"
	"sort"
)

// DefaultTermFrequency is the term frequency of a posting created without an
// explicit one.
const DefaultTermFrequency = 1

// Posting associates a record with its term frequency and score for one key.
// Identity is RecordID alone; a list never holds two postings for the same
// record.
type Posting struct {
	RecordID      int     `json:"record_id"`
	TermFrequency int     `json:"term_frequency"`
	Score         float64 `json:"score"`
}

func (p Posting) String() string {
	return fmt.Sprintf("[id=%d, tf=%d, score=%g]", p.RecordID, p.TermFrequency, p.Score)
}

// PostingList is the inverted list of one key: postings strictly ascending by
// record id with no duplicates.
type PostingList struct {
	postings []*Posting
	byID     map[int]*Posting
}

// NewPostingList returns an empty list.
func NewPostingList() *PostingList {
	return &PostingList{
		byID: make(map[int]*Posting),
	}
}

// Add inserts recordID with the default term frequency and a zero score.
func (l *PostingList) Add(recordID int) bool {
	return l.Insert(recordID, DefaultTermFrequency, 0)
}

// Insert adds a posting in any order. If the record is already present its
// term frequency is increased by termFrequency and Insert reports false.
func (l *PostingList) Insert(recordID int, termFrequency int, score float64) bool {
	if p, exists := l.byID[recordID]; exists {
		p.TermFrequency += termFrequency
		return false
	}
	p := &Posting{
		RecordID:      recordID,
		TermFrequency: termFrequency,
		Score:         score,
	}
	l.byID[recordID] = p
	n := len(l.postings)
	if n == 0 || l.postings[n-1].RecordID < recordID {
		l.postings = append(l.postings, p)
		return true
	}
	pos := sort.Search(n, func(i int) bool {
		return l.postings[i].RecordID > recordID
	})
	l.postings = append(l.postings, nil)
	copy(l.postings[pos+1:], l.postings[pos:])
	l.postings[pos] = p
	return true
}

// Append adds a posting whose record id is greater than every id already in
// the list. It panics otherwise.
func (l *PostingList) Append(recordID int, termFrequency int, score float64) {
	if n := len(l.postings); n > 0 && l.postings[n-1].RecordID >= recordID {
		panic(fmt.Sprintf("index: append of record %d after record %d", recordID, l.postings[n-1].RecordID))
	}
	p := &Posting{
		RecordID:      recordID,
		TermFrequency: termFrequency,
		Score:         score,
	}
	l.byID[recordID] = p
	l.postings = append(l.postings, p)
}

func (l *PostingList) Contains(recordID int) bool {
	_, exists := l.byID[recordID]
	return exists
}

// Get returns the posting of recordID. The returned posting is owned by the
// list.
func (l *PostingList) Get(recordID int) (*Posting, bool) {
	p, exists := l.byID[recordID]
	return p, exists
}

// Postings returns the postings ascending by record id. The slice and the
// postings are owned by the list and must not be modified, except for the
// score written by a ranking pass.
func (l *PostingList) Postings() []*Posting {
	return l.postings
}

// Values returns copies of the postings ascending by record id.
func (l *PostingList) Values() []Posting {
	result := make([]Posting, len(l.postings))
	for i, p := range l.postings {
		result[i] = *p
	}
	return result
}

// TotalTermFrequency is the sum of the term frequencies of all postings.
func (l *PostingList) TotalTermFrequency() int {
	total := 0
	for _, p := range l.postings {
		total += p.TermFrequency
	}
	return total
}

func (l *PostingList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.postings)
}

func (l *PostingList) IsEmpty() bool {
	return l.Len() == 0
}

func (l *PostingList) String() string {
	return fmt.Sprint(l.Values())
}
