package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/resilience"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	v, ok := s.data[key]
	if !ok {
		return nil, pkgredis.ErrMiss
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *memoryStore) FlushByPattern(_ context.Context, pattern string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func result(raw string) *executor.SearchResult {
	return &executor.SearchResult{
		Query:     raw,
		Mode:      "and",
		TotalHits: 1,
		Results:   []executor.Hit{{ID: 7, Name: "Berlin", Score: 0.5}},
	}
}

func TestGetOrCompute(t *testing.T) {
	store := newMemoryStore()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	c := New(store, time.Minute, m)
	ctx := context.Background()
	plan := parser.Parse("berlin city", nil, query.And)

	calls := 0
	compute := func() (*executor.SearchResult, error) {
		calls++
		return result(plan.Raw), nil
	}
	got, hit, err := c.GetOrCompute(ctx, plan, 10, compute)
	if err != nil || hit {
		t.Fatalf("expected computed miss, got hit=%v err=%v", hit, err)
	}
	if got.Results[0].ID != 7 {
		t.Errorf("unexpected result %+v", got)
	}

	reordered := parser.Parse("City BERLIN", nil, query.And)
	got, hit, err = c.GetOrCompute(ctx, reordered, 10, compute)
	if err != nil || !hit {
		t.Fatalf("expected hit for an equivalent plan, got hit=%v err=%v", hit, err)
	}
	if got.Results[0].Name != "Berlin" || calls != 1 {
		t.Errorf("expected cached result and one compute, got %+v after %d calls", got, calls)
	}
	if _, hit, _ = c.GetOrCompute(ctx, plan, 5, compute); hit {
		t.Error("expected a different limit to miss")
	}
	for k, ttl := range store.ttls {
		if ttl != time.Minute {
			t.Errorf("key %s stored with ttl %v", k, ttl)
		}
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("expected 1 hit and 2 misses, got %d and %d", hits, misses)
	}
	if testutil.ToFloat64(m.CacheHitsTotal) != 1 || testutil.ToFloat64(m.CacheMissesTotal) != 2 {
		t.Error("expected cache metrics to follow the stats")
	}
}

func TestComputeErrorIsNotCached(t *testing.T) {
	c := New(newMemoryStore(), time.Minute, nil)
	plan := parser.Parse("x", nil, query.Or)
	boom := errors.New("boom")
	if _, _, err := c.GetOrCompute(context.Background(), plan, 1, func() (*executor.SearchResult, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if _, ok := c.Get(context.Background(), plan, 1); ok {
		t.Error("expected failed computation to leave nothing cached")
	}
}

func TestSingleflightCollapsesMisses(t *testing.T) {
	c := New(newMemoryStore(), time.Minute, nil)
	plan := parser.Parse("slow", nil, query.And)
	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*executor.SearchResult, error) {
		calls.Add(1)
		<-release
		return result("slow"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.GetOrCompute(context.Background(), plan, 10, compute); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("expected one computation, got %d", calls.Load())
	}
}

func TestBreakerOpensOnStoreFailures(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	c := New(store, time.Minute, m)
	plan := parser.Parse("berlin", nil, query.And)

	for i := 0; i < 5; i++ {
		if _, ok := c.Get(context.Background(), plan, 10); ok {
			t.Fatal("expected a miss from a failing store")
		}
	}
	if c.BreakerState() != resilience.StateOpen {
		t.Fatalf("expected open breaker, got %v", c.BreakerState())
	}
	if got := testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues(breakerName)); got != float64(resilience.StateOpen) {
		t.Errorf("expected breaker gauge to be open, got %v", got)
	}

	got, hit, err := c.GetOrCompute(context.Background(), plan, 10, func() (*executor.SearchResult, error) {
		return result("berlin"), nil
	})
	if err != nil || hit || got == nil {
		t.Errorf("expected search to proceed without the cache, got %v %v %v", got, hit, err)
	}
}

func TestMissesDoNotTripBreaker(t *testing.T) {
	c := New(newMemoryStore(), time.Minute, nil)
	for i := 0; i < 20; i++ {
		c.Get(context.Background(), parser.Parse("nothing", nil, query.And), i)
	}
	if c.BreakerState() != resilience.StateClosed {
		t.Errorf("expected closed breaker, got %v", c.BreakerState())
	}
}

func TestInvalidate(t *testing.T) {
	store := newMemoryStore()
	store.data["other:key"] = []byte("{}")
	c := New(store, time.Minute, nil)
	plan := parser.Parse("berlin", nil, query.And)
	c.Set(context.Background(), plan, 10, result("berlin"))
	if err := c.Invalidate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Get(context.Background(), plan, 10); ok {
		t.Error("expected invalidated entry to miss")
	}
	if _, ok := store.data["other:key"]; !ok {
		t.Error("expected keys outside the prefix to survive")
	}
}
