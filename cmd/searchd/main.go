// Command searchd serves search over HTTP. It builds the configured index
// at startup, then answers GET /api/v1/search until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"format", cfg.Index.Format,
		"source", cfg.Index.Source,
	)
	m := metrics.New()
	checker := health.NewChecker()

	opts := indexer.Options{Metrics: m}
	if cfg.Index.Source == "postgres" {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		opts.DB = db.DB
		checker.Register("postgres", health.PingCheck(db.Ping, true))
	}

	engine, err := indexer.Open(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	checker.Register("index", health.FlagCheck(func() bool {
		return engine.Records().Len() > 0
	}, "index holds no records"))

	var resultCache handler.ResultCache
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer client.Close()
			resultCache = cache.New(client, cfg.Redis.CacheTTL, m)
			checker.Register("redis", health.PingCheck(client.Ping, true))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	var tracker handler.Tracker
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{
			BufferSize:    cfg.Kafka.BufferSize,
			BatchSize:     cfg.Kafka.BatchSize,
			FlushInterval: cfg.Kafka.FlushInterval,
		}, m)
		collector.TrackIndex(analytics.IndexEvent{
			Type:       analytics.EventIndexBuilt,
			Query:      string(engine.Kind()),
			Source:     engine.Source(),
			Records:    engine.Records().Len(),
			Keys:       engine.Query().Index().KeyCount(),
			FromDisk:   engine.FromDisk(),
			DurationMs: engine.BuildDuration().Milliseconds(),
			Timestamp:  time.Now().UTC(),
		})
		tracker = collector
		g.Go(func() error { return collector.Run(ctx) })
	}

	defaultMode, err := query.ParseMode(cfg.Search.DefaultMode)
	if err != nil {
		return err
	}
	h := handler.New(executor.New(engine.Query(), m), resultCache, tracker, handler.Options{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
		DefaultMode:  defaultMode,
		Plan:         engine.Plan,
		Metrics:      m,
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())
	if cfg.Server.StaticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.Server.StaticDir)))
		slog.Info("serving static files", "dir", cfg.Server.StaticDir)
	}

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Search.Timeout)(chain)
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, 10*time.Minute)
		chain = middleware.RateLimit(limiter)(chain)
		g.Go(func() error { return limiter.Run(ctx, time.Minute) })
	}
	if len(cfg.Server.AllowOrigins) > 0 {
		chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowOrigins...))(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("search server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(ctx, metrics.NewServer(cfg.Metrics.Port, metrics.Handler()))
		})
	}
	return g.Wait()
}
