// Package record defines the capabilities the search core consumes from
// domain types. The core never depends on a concrete record type; anything
// that can report an id, its index keys and a size can be indexed.
package record

import "strings"

// KeyRecord is anything that can be placed into an inverted index.
type KeyRecord interface {
	RecordID() int
	Keys() []string
	Size() int
}

// Importance is implemented by records that carry an intrinsic weight, such
// as a city's population-derived relevance. Higher is more important.
type Importance interface {
	Importance() int
}

// Named is implemented by records that have a primary display string. Fuzzy
// search matches against this string.
type Named interface {
	Name() string
}

// Attributed is implemented by records that expose extra fields for display.
type Attributed interface {
	Attributes() map[string]any
}

// PrimaryKey returns the string fuzzy search matches a record against: its
// name when it has one, its keys joined by a space otherwise.
func PrimaryKey(r KeyRecord) string {
	if n, ok := r.(Named); ok {
		return n.Name()
	}
	return strings.Join(r.Keys(), " ")
}

// Set is an id-addressable collection of records that iterates in insertion
// order.
type Set struct {
	records []KeyRecord
	byID    map[int]int
}

// NewSet creates a Set holding the given records.
func NewSet(records ...KeyRecord) *Set {
	s := &Set{
		records: make([]KeyRecord, 0, len(records)),
		byID:    make(map[int]int, len(records)),
	}
	for _, r := range records {
		s.Add(r)
	}
	return s
}

// Add inserts a record. A record with an id already present replaces the
// previous one in place; Add then reports false.
func (s *Set) Add(r KeyRecord) bool {
	if pos, exists := s.byID[r.RecordID()]; exists {
		s.records[pos] = r
		return false
	}
	s.byID[r.RecordID()] = len(s.records)
	s.records = append(s.records, r)
	return true
}

// Get returns the record with the given id.
func (s *Set) Get(id int) (KeyRecord, bool) {
	pos, exists := s.byID[id]
	if !exists {
		return nil, false
	}
	return s.records[pos], true
}

// All returns the records in insertion order. The slice must not be modified.
func (s *Set) All() []KeyRecord {
	return s.records
}

func (s *Set) Len() int {
	return len(s.records)
}
