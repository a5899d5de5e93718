package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/qgram"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/model/city"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/metrics"
)

type recordingTracker struct {
	events []analytics.SearchEvent
}

func (t *recordingTracker) TrackSearch(e analytics.SearchEvent) bool {
	t.events = append(t.events, e)
	return true
}

type stubCache struct {
	hit       bool
	computed  int
	flushed   bool
	lastLimit int
}

func (c *stubCache) GetOrCompute(_ context.Context, _ *parser.QueryPlan, limit int, compute func() (*executor.SearchResult, error)) (*executor.SearchResult, bool, error) {
	c.lastLimit = limit
	if c.hit {
		return &executor.SearchResult{Query: "cached", Results: []executor.Hit{}}, true, nil
	}
	c.computed++
	r, err := compute()
	return r, false, err
}

func (c *stubCache) Invalidate(context.Context) error {
	c.flushed = true
	return nil
}

func (c *stubCache) Stats() (int64, int64) { return 3, 1 }

func newFuzzyExecutor() *executor.Executor {
	grams := qgram.New(3)
	records := record.NewSet(
		city.New(0, "Freiburg", 5, 0, 0, grams),
		city.New(1, "Frankfurt", 8, 0, 0, grams),
		city.New(2, "Berlin", 9, 0, 0, grams),
	)
	return executor.New(query.NewFuzzy(records, grams, ranker.NewHybrid()), nil)
}

func newTestHandler(cache ResultCache, tracker Tracker, m *metrics.Metrics) http.Handler {
	h := New(newFuzzyExecutor(), cache, tracker, Options{
		DefaultLimit: 10,
		MaxResults:   2,
		DefaultMode:  query.Or,
		Plan:         parser.ParseFuzzy,
		Metrics:      m,
	})
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, executor.SearchResult) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body executor.SearchResult
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return rec, body
}

func TestSearch(t *testing.T) {
	tracker := &recordingTracker{}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	h := newTestHandler(nil, tracker, m)

	rec, body := get(t, h, "/api/v1/search?q=frei")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body.TotalHits != 1 || body.Results[0].Name != "Freiburg" || body.Mode != "or" {
		t.Errorf("unexpected body %+v", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}
	if len(tracker.events) != 1 || tracker.events[0].Query != "frei" || tracker.events[0].Type != analytics.EventSearch {
		t.Errorf("expected one tracked search event, got %+v", tracker.events)
	}
	if testutil.CollectAndCount(m.SearchLatency) != 1 {
		t.Error("expected search latency to be observed")
	}
}

func TestSearchModeAndLimit(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	_, body := get(t, h, "/api/v1/search?q=frei%3Bfran&mode=and")
	if body.TotalHits != 0 || body.Mode != "and" {
		t.Errorf("expected empty AND result, got %+v", body)
	}
	_, body = get(t, h, "/api/v1/search?q=frei%3Bfran%3Bberl&limit=50")
	if body.TotalHits != 3 || len(body.Results) != 2 {
		t.Errorf("expected limit clamped to 2 of 3 hits, got %d of %d", len(body.Results), body.TotalHits)
	}
	if body.Results[0].Name != "Berlin" {
		t.Errorf("expected most important exact match first, got %+v", body.Results)
	}
}

func TestSearchBadRequests(t *testing.T) {
	h := newTestHandler(nil, nil, nil)
	for _, target := range []string{
		"/api/v1/search",
		"/api/v1/search?q=",
		"/api/v1/search?q=a&limit=0",
		"/api/v1/search?q=a&limit=x",
		"/api/v1/search?q=a&mode=xor",
	} {
		if rec, _ := get(t, h, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestSearchUsesCache(t *testing.T) {
	cache := &stubCache{}
	h := newTestHandler(cache, nil, nil)
	get(t, h, "/api/v1/search?q=berl")
	if cache.computed != 1 || cache.lastLimit != 10 {
		t.Errorf("expected one computation with the default limit, got %d/%d", cache.computed, cache.lastLimit)
	}
	get(t, h, "/api/v1/search?q=%3B")
	if cache.computed != 1 {
		t.Error("expected empty plans to bypass the cache")
	}

	cache.hit = true
	tracker := &recordingTracker{}
	h = newTestHandler(cache, tracker, nil)
	if _, body := get(t, h, "/api/v1/search?q=berl"); body.Query != "cached" {
		t.Errorf("expected cached body, got %+v", body)
	}
	if !tracker.events[0].CacheHit {
		t.Error("expected the event to record the cache hit")
	}
}

func TestCacheEndpoints(t *testing.T) {
	cache := &stubCache{}
	h := newTestHandler(cache, nil, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	var stats map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats["hit_rate"] != "75.0%" {
		t.Errorf("unexpected stats %v", stats)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusOK || !cache.flushed {
		t.Errorf("expected invalidation, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	newTestHandler(nil, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a cache, got %d", rec.Code)
	}
}
