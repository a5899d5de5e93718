// Package executor runs parsed query plans against a query.Query and turns
// the resulting postings into display-ready hits.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/metrics"
)

// Hit is one result record. Score is the rank key of the active ranking: an
// edit distance for fuzzy search, a BM25 sum for keyword search.
type Hit struct {
	ID            int            `json:"id"`
	Name          string         `json:"name,omitempty"`
	Score         float64        `json:"score"`
	TermFrequency int            `json:"term_frequency"`
	Importance    int            `json:"importance,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

type SearchResult struct {
	Query     string   `json:"query"`
	Mode      string   `json:"mode"`
	Keywords  []string `json:"keywords"`
	TotalHits int      `json:"total_hits"`
	Results   []Hit    `json:"results"`
}

type Executor struct {
	query   query.Query
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates an executor over q. m may be nil.
func New(q query.Query, m *metrics.Metrics) *Executor {
	return &Executor{
		query:   q,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Execute searches plan's keywords and returns at most limit hits in rank
// order. TotalHits counts every match before the limit is applied. A limit
// below 1 returns every match.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	result := &SearchResult{
		Query:    plan.Raw,
		Mode:     plan.Mode.String(),
		Keywords: plan.Keywords,
		Results:  []Hit{},
	}
	if plan.IsEmpty() {
		e.observe(plan.Mode, "zero_result", 0)
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		e.observe(plan.Mode, "error", 0)
		return nil, fmt.Errorf("executing query %q: %w", plan.Raw, err)
	}

	start := time.Now()
	postings := e.query.Search(plan.Keywords, plan.Mode)
	result.TotalHits = len(postings)
	if limit > 0 && len(postings) > limit {
		postings = postings[:limit]
	}
	records := e.query.Records()
	result.Results = make([]Hit, 0, len(postings))
	for _, p := range postings {
		result.Results = append(result.Results, newHit(p, records))
	}

	resultType := "hit"
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	e.observe(plan.Mode, resultType, result.TotalHits)
	e.logger.Info("query executed",
		"query", plan.Raw,
		"mode", plan.Mode.String(),
		"keywords", plan.Keywords,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"duration", time.Since(start),
	)
	return result, nil
}

func newHit(p index.Posting, records *record.Set) Hit {
	hit := Hit{
		ID:            p.RecordID,
		Score:         p.Score,
		TermFrequency: p.TermFrequency,
	}
	r, ok := records.Get(p.RecordID)
	if !ok {
		return hit
	}
	if n, ok := r.(record.Named); ok {
		hit.Name = n.Name()
	}
	if imp, ok := r.(record.Importance); ok {
		hit.Importance = imp.Importance()
	}
	if a, ok := r.(record.Attributed); ok {
		hit.Attributes = a.Attributes()
	}
	return hit
}

func (e *Executor) observe(mode query.Mode, resultType string, hits int) {
	if e.metrics == nil {
		return
	}
	e.metrics.SearchQueriesTotal.WithLabelValues(mode.String(), resultType).Inc()
	e.metrics.SearchResultsCount.Observe(float64(hits))
}
