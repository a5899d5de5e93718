// Command lexisearch builds an index from a data file and either answers
// queries typed on stdin or prints how keys are distributed over it.
//
//	lexisearch -mode fuzzy -data data/cities.tsv
//	lexisearch -mode keyword -data data/movies.tsv
//	lexisearch -mode listing -data data/movies.tsv
//	lexisearch -mode qgrams -data data/cities.tsv
//
// In fuzzy mode keywords are separated by ';'. An empty line ends the
// session.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/internal/searcher/query"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/lexisearch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	mode := flag.String("mode", "fuzzy", "fuzzy, keyword, listing or qgrams")
	dataFile := flag.String("data", "", "data file, overrides index.dataFile")
	preview := flag.Int("preview", 5, "number of hits shown per query")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *mode, *dataFile, *preview); err != nil {
		slog.Error("lexisearch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, mode, dataFile string, preview int) error {
	if dataFile != "" {
		cfg.Index.DataFile = dataFile
	}
	cfg.Index.Source = "file"
	cfg.Index.SegmentFile = ""
	switch mode {
	case "fuzzy", "qgrams":
		cfg.Index.Format = "city"
	case "keyword", "listing":
		if cfg.Index.Format == "city" {
			cfg.Index.Format = "document"
		}
		if mode == "keyword" {
			cfg.Ranking.Provider = "bm25"
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	engine, err := indexer.Open(ctx, cfg, indexer.Options{})
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d records in %s\n", engine.Records().Len(), engine.BuildDuration().Round(time.Millisecond))

	switch mode {
	case "listing":
		printDistribution(os.Stdout, index.Distribution(engine.Query().Index(), index.DocumentFrequency))
		return nil
	case "qgrams":
		printDistribution(os.Stdout, index.Distribution(engine.Query().Index(), index.TermFrequency))
		return nil
	}

	defaultMode, err := query.ParseMode(cfg.Search.DefaultMode)
	if err != nil {
		return err
	}
	return serve(ctx, os.Stdin, os.Stdout, engine, executor.New(engine.Query(), nil), defaultMode, preview)
}

func serve(ctx context.Context, in io.Reader, out io.Writer, engine *indexer.Engine, exec *executor.Executor, mode query.Mode, preview int) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, "> Type your query. Type an empty text to stop.")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprintln(out, "Terminated.")
			return nil
		}
		start := time.Now()
		result, err := exec.Execute(ctx, engine.Plan(line, mode), preview)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Matching records: %d\n", result.TotalHits)
		for _, hit := range result.Results {
			fmt.Fprintf(out, "\t%g\t%d\t%s\n", hit.Score, hit.Importance, hit.Name)
		}
		fmt.Fprintf(out, "Query took: %s\n", time.Since(start).Round(time.Microsecond))
	}
}

func printDistribution(out io.Writer, counts []index.KeyCount) {
	for _, kc := range counts {
		fmt.Fprintf(out, "%s : %d\n", kc.Key, kc.Count)
	}
}
