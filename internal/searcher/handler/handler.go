// Package handler serves the search HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/middleware"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// ResultCache is implemented by cache.QueryCache.
type ResultCache interface {
	GetOrCompute(ctx context.Context, plan *parser.QueryPlan, limit int, compute func() (*executor.SearchResult, error)) (*executor.SearchResult, bool, error)
	Invalidate(ctx context.Context) error
	Stats() (hits, misses int64)
}

// Tracker is implemented by analytics.Collector.
type Tracker interface {
	TrackSearch(e analytics.SearchEvent) bool
}

// PlanFunc turns the q parameter into a plan. mode is the request's mode, or
// the default when the request names none.
type PlanFunc func(raw string, mode query.Mode) *parser.QueryPlan

type Options struct {
	DefaultLimit int
	MaxResults   int
	DefaultMode  query.Mode
	Plan         PlanFunc
	Metrics      *metrics.Metrics
}

type Handler struct {
	executor SearchExecutor
	cache    ResultCache
	tracker  Tracker
	opts     Options
	logger   *slog.Logger
}

// New creates a handler. cache and tracker may be nil. A nil Plan parses q
// into plain words.
func New(exec SearchExecutor, cache ResultCache, tracker Tracker, opts Options) *Handler {
	if opts.Plan == nil {
		opts.Plan = func(raw string, mode query.Mode) *parser.QueryPlan {
			return parser.Parse(raw, nil, mode)
		}
	}
	return &Handler{
		executor: exec,
		cache:    cache,
		tracker:  tracker,
		opts:     opts,
		logger:   slog.Default().With("component", "search-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search answers GET /api/v1/search?q=<text>&mode=and|or&limit=n. net/url
// rejects a raw ';' in the query string, so fuzzy keyword separators must be
// sent as %3B.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	raw := params.Get("q")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode := h.opts.DefaultMode
	if m := params.Get("mode"); m != "" {
		parsed, err := query.ParseMode(m)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "mode must be and or or")
			return
		}
		mode = parsed
	}
	limit := h.opts.DefaultLimit
	if limitStr := params.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, h.opts.MaxResults)
	}

	plan := h.opts.Plan(raw, mode)
	compute := func() (*executor.SearchResult, error) {
		return h.executor.Execute(ctx, plan, limit)
	}
	var (
		result   *executor.SearchResult
		cacheHit bool
		err      error
	)
	if h.cache != nil && !plan.IsEmpty() {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, plan, limit, compute)
	} else {
		result, err = compute()
	}
	if err != nil {
		log.Error("search execution failed", "query", raw, "error", err)
		status := apperrors.HTTPStatusCode(err)
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		h.writeError(w, status, "search failed")
		return
	}

	latency := time.Since(start)
	if h.opts.Metrics != nil {
		cacheStatus := "miss"
		if cacheHit {
			cacheStatus = "hit"
		} else if h.cache == nil {
			cacheStatus = "disabled"
		}
		h.opts.Metrics.SearchLatency.WithLabelValues(plan.Mode.String(), cacheStatus).Observe(latency.Seconds())
	}
	log.Info("search completed",
		"query", raw,
		"mode", plan.Mode.String(),
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.tracker != nil {
		h.tracker.TrackSearch(analytics.NewSearchEvent(
			raw, plan.Mode.String(), plan.Keywords,
			result.TotalHits, len(result.Results),
			latency, cacheHit, middleware.GetRequestID(ctx),
		))
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
