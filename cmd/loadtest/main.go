// Command loadtest drives GET /api/v1/search on a running searchd and
// reports throughput, latency percentiles and the share of empty answers.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var defaultQueries = []string{
	"freiburg", "frankfurt", "berlin", "hamburg", "muenchen",
	"koeln", "stuttgart", "dresden", "leipzig", "nuernberg",
	"frei;burg", "ber", "hamb", "stutgart", "dresdn",
}

type sample struct {
	latency time.Duration
	status  int
	hits    int
	err     error
}

type report struct {
	mu      sync.Mutex
	samples []sample
}

func (r *report) add(s sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of searchd")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	rps := flag.Float64("rps", 0, "overall request rate, 0 for unpaced")
	limit := flag.Int("limit", 10, "limit parameter sent with each query")
	queryFile := flag.String("queries", "", "file with one query per line")
	flag.Parse()

	queries := defaultQueries
	if *queryFile != "" {
		loaded, err := readQueries(*queryFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading queries: %v\n", err)
			os.Exit(1)
		}
		queries = loaded
	}

	fmt.Printf("Target %s, %d workers for %s, %d distinct queries\n",
		*baseURL, *concurrency, *duration, len(queries))

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Inf, 0)
	if *rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rps), *concurrency)
	}
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: *concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	rep := &report{}
	g, ctx := errgroup.WithContext(ctx)
	for w := range *concurrency {
		g.Go(func() error {
			for i := w; ; i++ {
				if err := limiter.Wait(ctx); err != nil {
					return nil
				}
				s := search(ctx, client, *baseURL, queries[i%len(queries)], *limit)
				if ctx.Err() != nil {
					return nil
				}
				rep.add(s)
			}
		})
	}
	_ = g.Wait()

	if !rep.print(*duration) {
		fmt.Println("no requests completed, is searchd running?")
		os.Exit(1)
	}
}

func search(ctx context.Context, client *http.Client, baseURL, q string, limit int) sample {
	target := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", baseURL, url.QueryEscape(q), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return sample{err: err}
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return sample{latency: time.Since(start), err: err}
	}
	defer resp.Body.Close()

	var body struct {
		TotalHits int `json:"total_hits"`
	}
	s := sample{status: resp.StatusCode}
	if resp.StatusCode == http.StatusOK {
		s.err = json.NewDecoder(resp.Body).Decode(&body)
		s.hits = body.TotalHits
	}
	s.latency = time.Since(start)
	return s
}

func (r *report) print(elapsed time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.samples) == 0 {
		return false
	}

	var failed, empty int
	statuses := make(map[int]int)
	latencies := make([]time.Duration, 0, len(r.samples))
	for _, s := range r.samples {
		statuses[s.status]++
		latencies = append(latencies, s.latency)
		switch {
		case s.err != nil || s.status != http.StatusOK:
			failed++
		case s.hits == 0:
			empty++
		}
	}
	slices.Sort(latencies)

	total := len(r.samples)
	fmt.Printf("requests   %d (%.1f/s)\n", total, float64(total)/elapsed.Seconds())
	fmt.Printf("failed     %d (%.2f%%)\n", failed, 100*float64(failed)/float64(total))
	fmt.Printf("no hits    %d\n", empty)
	fmt.Printf("latency    p50 %s  p90 %s  p99 %s  max %s\n",
		percentile(latencies, 50), percentile(latencies, 90),
		percentile(latencies, 99), latencies[len(latencies)-1])

	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		fmt.Printf("status %3d %d\n", code, statuses[code])
	}
	return true
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s holds no queries", path)
	}
	return out, nil
}
