// Package indexer assembles a ready-to-query search engine from
// configuration: it loads records, builds or reloads their inverted index and
// attaches the configured ranking.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/qgram"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/record"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/model/city"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/model/document"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/resilience"
)

// Kind names the query an engine answers with.
type Kind string

const (
	KindFuzzy   Kind = "fuzzy"
	KindKeyword Kind = "keyword"
)

// Options carries the collaborators Open cannot build from config alone.
type Options struct {
	// DB is required when index.source is postgres.
	DB      city.Querier
	Metrics *metrics.Metrics
	Retry   resilience.RetryConfig
}

// Engine is an immutable, built index together with the query over it.
// Cities are searched fuzzily by name, documents and html pages by keyword.
type Engine struct {
	kind     Kind
	source   string
	query    query.Query
	grams    *qgram.Provider
	analyzer tokenizer.Analyzer
	ranking  ranker.Provider
	scheme   string
	fromDisk bool
	duration time.Duration
	logger   *slog.Logger
}

// Open loads the configured records and returns an engine over them. With
// index.segmentFile set, a matching segment is reused and a missing or stale
// one is rewritten.
func Open(ctx context.Context, cfg *config.Config, opts Options) (*Engine, error) {
	start := time.Now()
	e := &Engine{
		source: cfg.Index.Source,
		grams:  qgram.NewWithPadding(cfg.Index.Q, cfg.Index.PaddingRune()),
		logger: slog.Default().With("component", "indexer"),
	}
	analyzer, ok := tokenizer.Lookup(cfg.Index.Analyzer)
	if !ok {
		return nil, fmt.Errorf("unknown analyzer %q", cfg.Index.Analyzer)
	}
	e.analyzer = analyzer

	order, err := ranker.ParseOrder(cfg.Ranking.Order)
	if err != nil {
		return nil, err
	}
	e.ranking, err = ranker.New(cfg.Ranking.Provider, cfg.Ranking.K1, cfg.Ranking.B, order)
	if err != nil {
		return nil, err
	}

	records, err := e.load(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	e.scheme = e.schemeFor(cfg, records)

	idx, err := e.buildIndex(cfg.Index.SegmentFile, records)
	if err != nil {
		return nil, err
	}
	switch e.kind {
	case KindFuzzy:
		e.query = query.NewFuzzyWithIndex(idx, records, e.grams, e.ranking)
	default:
		e.query = query.NewKeywordWithIndex(idx, records, e.ranking)
	}

	e.duration = time.Since(start)
	if m := opts.Metrics; m != nil {
		m.IndexBuildDuration.WithLabelValues(string(e.kind)).Observe(e.duration.Seconds())
		m.IndexedRecords.WithLabelValues(string(e.kind)).Set(float64(records.Len()))
		m.IndexedKeys.WithLabelValues(string(e.kind)).Set(float64(idx.KeyCount()))
	}
	e.logger.Info("index ready",
		"query", e.kind,
		"source", e.source,
		"records", records.Len(),
		"keys", idx.KeyCount(),
		"ranking", cfg.Ranking.Provider,
		"from_disk", e.fromDisk,
		"duration", e.duration,
	)
	return e, nil
}

func (e *Engine) load(ctx context.Context, cfg *config.Config, opts Options) (*record.Set, error) {
	switch cfg.Index.Format {
	case "city":
		e.kind = KindFuzzy
		if cfg.Index.Source == "postgres" {
			return e.loadCitiesFromDB(ctx, cfg, opts)
		}
		return city.LoadFile(cfg.Index.DataFile, e.grams)
	case "document":
		e.kind = KindKeyword
		return document.LoadFile(cfg.Index.DataFile, e.analyzer)
	case "html":
		e.kind = KindKeyword
		return document.LoadHTMLDir(cfg.Index.DataFile, e.analyzer)
	default:
		return nil, fmt.Errorf("unknown record format %q", cfg.Index.Format)
	}
}

func (e *Engine) loadCitiesFromDB(ctx context.Context, cfg *config.Config, opts Options) (*record.Set, error) {
	if opts.DB == nil {
		return nil, errors.New("loading cities: no database connection")
	}
	retry := opts.Retry
	if retry.Retryable == nil {
		retry.Retryable = func(err error) bool {
			return !errors.Is(err, apperrors.ErrMalformedRecord)
		}
	}
	if retry.OnRetry == nil && opts.Metrics != nil {
		retry.OnRetry = func(int, error) { opts.Metrics.LoadRetriesTotal.Inc() }
	}
	var records *record.Set
	err := resilience.Retry(ctx, "load-cities", retry, func(ctx context.Context) error {
		var err error
		records, err = city.LoadFromDB(ctx, opts.DB, cfg.Postgres.CityTable, e.grams)
		return err
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// schemeFor fingerprints everything the index keys depend on, including the
// records themselves, so a segment built from other data is never reused.
func (e *Engine) schemeFor(cfg *config.Config, records *record.Set) string {
	h := crc32.NewIEEE()
	for _, r := range records.All() {
		h.Write(strconv.AppendInt(nil, int64(r.RecordID()), 10))
		h.Write([]byte{0})
		if e.kind == KindFuzzy {
			h.Write([]byte(record.PrimaryKey(r)))
		} else {
			h.Write([]byte(strings.Join(r.Keys(), " ")))
		}
		h.Write([]byte{0})
	}
	if e.kind == KindFuzzy {
		return fmt.Sprintf("fuzzy q=%d pad=%c records=%08x", e.grams.Q(), cfg.Index.PaddingRune(), h.Sum32())
	}
	return fmt.Sprintf("keyword analyzer=%s records=%08x", cfg.Index.Analyzer, h.Sum32())
}

func (e *Engine) buildIndex(segmentFile string, records *record.Set) (*index.InvertedIndex, error) {
	if segmentFile != "" {
		idx, err := segment.Read(segmentFile, e.scheme)
		switch {
		case err == nil && idx.RecordCount() == records.Len():
			e.fromDisk = true
			return idx, nil
		case err == nil:
			e.logger.Warn("segment record count differs, rebuilding", "path", segmentFile,
				"segment_records", idx.RecordCount(), "records", records.Len())
		case errors.Is(err, fs.ErrNotExist):
			e.logger.Info("no segment yet, building", "path", segmentFile)
		case errors.Is(err, segment.ErrSchemeMismatch), errors.Is(err, segment.ErrCorrupt):
			e.logger.Warn("segment unusable, rebuilding", "path", segmentFile, "error", err)
		default:
			return nil, fmt.Errorf("reading segment: %w", err)
		}
	}

	var idx *index.InvertedIndex
	if e.kind == KindFuzzy {
		idx = query.BuildFuzzyIndex(records, e.grams)
	} else {
		idx = index.Build(records.All())
	}
	if segmentFile != "" {
		if err := segment.Write(segmentFile, idx, e.scheme); err != nil {
			return nil, fmt.Errorf("writing segment: %w", err)
		}
	}
	return idx, nil
}

func (e *Engine) Kind() Kind { return e.kind }

func (e *Engine) Query() query.Query { return e.query }

func (e *Engine) Records() *record.Set { return e.query.Records() }

func (e *Engine) Grams() *qgram.Provider { return e.grams }

func (e *Engine) Analyzer() tokenizer.Analyzer { return e.analyzer }

// FromDisk reports whether the index was loaded from a segment.
func (e *Engine) FromDisk() bool { return e.fromDisk }

func (e *Engine) BuildDuration() time.Duration { return e.duration }

func (e *Engine) Source() string { return e.source }

// Plan parses raw with the parser matching the engine's kind: fuzzy
// engines treat each ;-separated segment as one prefix, keyword engines
// split words with the configured analyzer.
func (e *Engine) Plan(raw string, mode query.Mode) *parser.QueryPlan {
	if e.kind == KindFuzzy {
		return parser.ParseFuzzy(raw, mode)
	}
	return parser.Parse(raw, e.analyzer, mode)
}
