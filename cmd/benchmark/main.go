// Command benchmark measures keyword search with BM25 ranking against a
// ground-truth file and prints the mean of each measure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/benchmarking"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dataFile := flag.String("data", "data/movies.tsv", "document file to index")
	truthFile := flag.String("truth", "data/movies-benchmark.tsv", "ground-truth file")
	k := flag.Int("k", 3, "cut-off for precision at k")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, "text")

	cfg.Index.Format = "document"
	cfg.Index.Source = "file"
	cfg.Index.DataFile = *dataFile
	cfg.Ranking.Provider = "bm25"

	if err := run(context.Background(), cfg, *truthFile, *k); err != nil {
		slog.Error("benchmark failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, truthFile string, k int) error {
	engine, err := indexer.Open(ctx, cfg, indexer.Options{})
	if err != nil {
		return err
	}
	truth, err := benchmarking.LoadGroundTruth(truthFile)
	if err != nil {
		return err
	}

	analyze := engine.Analyzer()
	search := func(keys []string) []index.Posting {
		return engine.Query().SearchOr(analyze(strings.Join(keys, " ")))
	}
	set := benchmarking.NewMeasureSet(
		benchmarking.PrecisionAtK{K: k},
		benchmarking.PrecisionAtR{},
		benchmarking.AveragePrecision{},
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MEASURE\tMEAN\tQUERIES")
	for _, r := range benchmarking.Run(search, truth, set) {
		fmt.Fprintf(w, "%s\t%.4f\t%d\n", r.Measure, r.Mean, r.Queries)
	}
	return w.Flush()
}
