package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/metrics"
)

const finalFlushTimeout = 5 * time.Second

// Publisher is implemented by kafka.Producer.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// CollectorConfig sizes the collector. Zero values take defaults.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events in a channel and publishes them in batches, when
// a batch fills up or FlushInterval passes, whichever is first. Tracking
// never blocks; events that do not fit in the buffer are dropped.
type Collector struct {
	publisher Publisher
	events    chan kafka.Event
	batchSize int
	interval  time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewCollector creates a collector. m may be nil.
func NewCollector(p Publisher, cfg CollectorConfig, m *metrics.Metrics) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Collector{
		publisher: p,
		events:    make(chan kafka.Event, cfg.BufferSize),
		batchSize: cfg.BatchSize,
		interval:  cfg.FlushInterval,
		metrics:   m,
		logger:    slog.Default().With("component", "analytics-collector"),
	}
}

// TrackSearch queues a search event, keyed by its query so repeats of one
// query land on one partition.
func (c *Collector) TrackSearch(e SearchEvent) bool {
	return c.track(kafka.Event{Key: e.Query, Value: e})
}

func (c *Collector) TrackIndex(e IndexEvent) bool {
	return c.track(kafka.Event{Key: "index:" + e.Query, Value: e})
}

func (c *Collector) track(e kafka.Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		c.count("dropped", 1)
		c.logger.Warn("analytics event dropped (buffer full)")
		return false
	}
}

// Run publishes queued events until ctx is cancelled, then drains what is
// left with a short deadline. It always returns nil so it can sit in an
// errgroup beside the servers.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.events),
		"batch_size", c.batchSize,
		"flush_interval", c.interval,
	)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	for {
		select {
		case e := <-c.events:
			batch = append(batch, e)
			if len(batch) >= c.batchSize {
				batch = c.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = c.flush(ctx, batch)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
			defer cancel()
			c.drain(flushCtx, batch)
			c.logger.Info("analytics collector stopped")
			return nil
		}
	}
}

func (c *Collector) drain(ctx context.Context, batch []kafka.Event) {
	for {
		select {
		case e := <-c.events:
			batch = append(batch, e)
			if len(batch) >= c.batchSize {
				batch = c.flush(ctx, batch)
			}
		default:
			c.flush(ctx, batch)
			return
		}
	}
}

// flush publishes batch and returns an empty slice to refill. Failed batches
// are not retried; kafka-go already retries the write.
func (c *Collector) flush(ctx context.Context, batch []kafka.Event) []kafka.Event {
	if len(batch) == 0 {
		return batch
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.count("failed", len(batch))
		c.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
	} else {
		c.count("published", len(batch))
		c.logger.Debug("batch flushed", "events", len(batch))
	}
	return make([]kafka.Event, 0, c.batchSize)
}

func (c *Collector) count(status string, n int) {
	if c.metrics != nil {
		c.metrics.EventsPublishedTotal.WithLabelValues(status).Add(float64(n))
	}
}
