// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Index, Ranking, Search, Redis, Kafka, Postgres, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Index    IndexConfig    `yaml:"index"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Search   SearchConfig   `yaml:"search"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// StaticDir, when set, is served at / for a browser front end.
	StaticDir    string   `yaml:"staticDir"`
	AllowOrigins []string `yaml:"allowOrigins"`
	// RateLimit is the sustained requests per second allowed per client
	// address. Zero disables limiting.
	RateLimit float64 `yaml:"rateLimit"`
	RateBurst int     `yaml:"rateBurst"`
}

// IndexConfig describes where records come from and how they are keyed.
type IndexConfig struct {
	DataFile string `yaml:"dataFile"`
	// Format is "city", "document" or "html". For html, DataFile names the
	// directory holding the pages.
	Format string `yaml:"format"`
	// Source is "file" or "postgres". Only cities can be loaded from postgres.
	Source   string `yaml:"source"`
	Q        int    `yaml:"q"`
	Padding  string `yaml:"padding"`
	Analyzer string `yaml:"analyzer"`
	// SegmentFile, when set, caches the built index on disk. A segment
	// written for a different q, padding or analyzer is rebuilt.
	SegmentFile string `yaml:"segmentFile"`
}

// PaddingRune returns the configured padding character.
func (c IndexConfig) PaddingRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Padding)
	return r
}

// RankingConfig selects and parameterises the ranking provider.
type RankingConfig struct {
	Provider string  `yaml:"provider"`
	K1       float64 `yaml:"k1"`
	B        float64 `yaml:"b"`
	Order    string  `yaml:"order"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	DefaultLimit int           `yaml:"defaultLimit"`
	MaxResults   int           `yaml:"maxResults"`
	DefaultMode  string        `yaml:"defaultMode"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
	// BufferSize bounds the events waiting to be published; further events
	// are dropped.
	BufferSize    int           `yaml:"bufferSize"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	CityTable       string        `yaml:"cityTable"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateBurst:       20,
		},
		Index: IndexConfig{
			DataFile: "data/cities.tsv",
			Format:   "city",
			Source:   "file",
			Q:        3,
			Padding:  "$",
			Analyzer: "plain",
		},
		Ranking: RankingConfig{
			Provider: "hybrid",
			K1:       1.75,
			B:        0.75,
			Order:    "desc",
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxResults:   100,
			DefaultMode:  "or",
			Timeout:      2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				SearchEvents: "search-events",
			},
			BufferSize:    10000,
			BatchSize:     100,
			FlushInterval: 5 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "lexisearch",
			User:            "lexisearch",
			Password:        "localdev",
			SSLMode:         "disable",
			CityTable:       "cities",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate reports every setting that is out of range, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.RateLimit >= 0, "server.rateLimit must not be negative, got %g", c.Server.RateLimit)
	check(c.Server.RateLimit == 0 || c.Server.RateBurst >= 1,
		"server.rateBurst must be at least 1 when rate limiting, got %d", c.Server.RateBurst)

	check(c.Index.Format == "city" || c.Index.Format == "document" || c.Index.Format == "html",
		"index.format must be city, document or html, got %q", c.Index.Format)
	check(c.Index.Source == "file" || c.Index.Source == "postgres",
		"index.source must be file or postgres, got %q", c.Index.Source)
	check(c.Index.Source != "postgres" || c.Index.Format == "city",
		"index.source postgres is only supported for cities")
	check(c.Index.Q >= 1, "index.q must be at least 1, got %d", c.Index.Q)
	check(utf8.RuneCountInString(c.Index.Padding) == 1,
		"index.padding must be a single character, got %q", c.Index.Padding)
	switch c.Index.Analyzer {
	case "plain", "stemmed", "snowball":
	default:
		errs = append(errs, fmt.Errorf("index.analyzer must be plain, stemmed or snowball, got %q", c.Index.Analyzer))
	}

	switch c.Ranking.Provider {
	case "bm25", "hybrid", "none":
	default:
		errs = append(errs, fmt.Errorf("ranking.provider must be bm25, hybrid or none, got %q", c.Ranking.Provider))
	}
	check(c.Ranking.K1 >= 0, "ranking.k1 must not be negative, got %g", c.Ranking.K1)
	check(c.Ranking.B >= 0 && c.Ranking.B <= 1, "ranking.b must lie in [0, 1], got %g", c.Ranking.B)
	check(c.Ranking.Order == "desc" || c.Ranking.Order == "asc",
		"ranking.order must be desc or asc, got %q", c.Ranking.Order)

	check(c.Search.DefaultLimit > 0, "search.defaultLimit must be positive, got %d", c.Search.DefaultLimit)
	check(c.Search.MaxResults >= c.Search.DefaultLimit,
		"search.maxResults %d is below search.defaultLimit %d", c.Search.MaxResults, c.Search.DefaultLimit)
	check(c.Search.DefaultMode == "and" || c.Search.DefaultMode == "or",
		"search.defaultMode must be and or or, got %q", c.Search.DefaultMode)

	if c.Kafka.Enabled {
		check(len(c.Kafka.Brokers) > 0, "kafka.brokers must not be empty when kafka is enabled")
		check(c.Kafka.BatchSize > 0, "kafka.batchSize must be positive, got %d", c.Kafka.BatchSize)
		check(c.Kafka.BufferSize >= c.Kafka.BatchSize,
			"kafka.bufferSize %d is below kafka.batchSize %d", c.Kafka.BufferSize, c.Kafka.BatchSize)
	}

	return errors.Join(errs...)
}

// applyEnvOverrides reads LS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LS_SERVER_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := os.Getenv("LS_SERVER_RATE_LIMIT"); v != "" {
		if limit, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimit = limit
		}
	}
	if v := os.Getenv("LS_INDEX_DATA_FILE"); v != "" {
		cfg.Index.DataFile = v
	}
	if v := os.Getenv("LS_INDEX_FORMAT"); v != "" {
		cfg.Index.Format = v
	}
	if v := os.Getenv("LS_INDEX_SOURCE"); v != "" {
		cfg.Index.Source = v
	}
	if v := os.Getenv("LS_INDEX_Q"); v != "" {
		if q, err := strconv.Atoi(v); err == nil {
			cfg.Index.Q = q
		}
	}
	if v := os.Getenv("LS_INDEX_SEGMENT_FILE"); v != "" {
		cfg.Index.SegmentFile = v
	}
	if v := os.Getenv("LS_RANKING_PROVIDER"); v != "" {
		cfg.Ranking.Provider = v
	}
	if v := os.Getenv("LS_RANKING_ORDER"); v != "" {
		cfg.Ranking.Order = v
	}
	if v := os.Getenv("LS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("LS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("LS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("LS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("LS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("LS_REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = enabled
		}
	}
	if v := os.Getenv("LS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LS_KAFKA_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = enabled
		}
	}
	if v := os.Getenv("LS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("LS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
