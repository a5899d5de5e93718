// Package analytics records what users search for and how the engine
// answered, and ships those events to Kafka in batches.
package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
	EventIndexBuilt EventType = "index_built"
)

// SearchEvent describes one answered search request.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Mode      string    `json:"mode"`
	Keywords  []string  `json:"keywords"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// IndexEvent is emitted once an index is ready to serve queries.
type IndexEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	Source     string    `json:"source"`
	Records    int       `json:"records"`
	Keys       int       `json:"keys"`
	FromDisk   bool      `json:"from_disk"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewSearchEvent fills Type from the hit count.
func NewSearchEvent(query, mode string, keywords []string, totalHits, returned int, latency time.Duration, cacheHit bool, requestID string) SearchEvent {
	t := EventSearch
	if totalHits == 0 {
		t = EventZeroResult
	}
	return SearchEvent{
		Type:      t,
		Query:     query,
		Mode:      mode,
		Keywords:  keywords,
		TotalHits: totalHits,
		Returned:  returned,
		LatencyMs: latency.Milliseconds(),
		CacheHit:  cacheHit,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}
