// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/caselens"
	"github.com/poiesic/caselens/ai/openai"
	"github.com/poiesic/caselens/bm25"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/ingestion"
	"github.com/poiesic/caselens/rank"
	"github.com/poiesic/caselens/reembed"
	"github.com/poiesic/caselens/search"
	"github.com/poiesic/caselens/segment"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// newProvider builds the embedding provider; tests replace it with a mock.
var newProvider = openai.NewProvider

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory (default from config)",
	}
	queryFlag := &cli.StringFlag{
		Name:     "query",
		Aliases:  []string{"q"},
		Usage:    "Query text; each line becomes one query fragment",
		Required: true,
	}

	return &cli.App{
		Name:  "caselens",
		Usage: "Similar case retrieval over legal judgments",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Value:   DefaultConfigPath,
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL (overrides config)",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name (overrides config)",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Segment, store and embed cases from a JSON lines file",
				Action: indexCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:     "data",
						Usage:    "JSON lines file of cases ({\"_id\": ..., \"_source\": {...}})",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers (default from config)",
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Find the cases most similar to a query",
				Action: searchCommand,
				Flags: []cli.Flag{
					dbFlag,
					queryFlag,
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of cases to return (default from config)",
					},
					&cli.StringFlag{
						Name:  "traversal",
						Usage: "Aggregation level: root, fragment or sub-fragment (default from config)",
					},
					&cli.StringFlag{
						Name:  "metric",
						Usage: "Score metric to rank by: cosine, cosine_distance or l2 (default from config)",
					},
					&cli.BoolFlag{
						Name:  "distance",
						Usage: "Treat the metric as a distance, lower is better",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print the fragment scores behind each match",
					},
				},
			},
			{
				Name:   "lexical",
				Usage:  "Rank cases by BM25 over titles, causes and case fields",
				Action: lexicalCommand,
				Flags: []cli.Flag{
					dbFlag,
					queryFlag,
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of cases to return (default from config)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all stored fragments with the configured model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of fragments to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N fragments",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "restart",
						Usage: "Ignore a saved checkpoint and start from the first fragment",
					},
				},
			},
		},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}

	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]interface{}{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func configFrom(c *cli.Context) *Config {
	if cfg, ok := c.App.Metadata[configKey].(*Config); ok {
		return cfg
	}
	return defaultConfig()
}

func openDatabase(c *cli.Context, cfg *Config) (*caselens.Database, error) {
	dbPath := cfg.DB
	if c.IsSet("db") {
		dbPath = c.String("db")
	}

	aiConfig := cfg.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	provider, err := newProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	db, err := caselens.Open(c.Context, dbPath,
		caselens.WithAIProvider(provider),
		caselens.WithLexicalOptions(bm25.WithK1(cfg.Lexical.K1), bm25.WithB(cfg.Lexical.B)),
	)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func indexCommand(c *cli.Context) error {
	cfg := configFrom(c)

	cases, err := ingestion.LoadCases(c.String("data"))
	if err != nil {
		return err
	}

	segmentOpts, err := cfg.SegmentOptions()
	if err != nil {
		return err
	}
	segmenter, err := segment.NewIndexSegmenter(segmentOpts...)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{ingestion.WithSegmenter(segmenter)}
	if poolSize := c.Int("pool-size"); poolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(poolSize))
	} else if cfg.Ingest.PoolSize > 0 {
		opts = append(opts, ingestion.WithPoolSize(cfg.Ingest.PoolSize))
	}
	if cfg.Ingest.EmbedBatchSize > 0 {
		opts = append(opts, ingestion.WithEmbedBatchSize(cfg.Ingest.EmbedBatchSize))
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	report, err := pipeline.Ingest(c.Context, cases)
	if report != nil {
		printReport(c.App.Writer, report)
	}
	if err != nil {
		return fmt.Errorf("indexing interrupted: %w", err)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d cases failed", len(report.Failed), len(cases))
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	cfg := configFrom(c)

	req := &rank.Request{
		Limit:  cfg.Search.TopK,
		Metric: cfg.Search.Metric,
	}
	if c.IsSet("top-k") {
		req.Limit = c.Int("top-k")
	}
	if c.IsSet("metric") {
		req.Metric = c.String("metric")
	}
	req.IsDistance = cfg.Search.Distance || search.IsDistanceMetric(req.Metric)
	if c.IsSet("distance") {
		req.IsDistance = c.Bool("distance")
	}
	traversal := cfg.Search.Traversal
	if c.IsSet("traversal") {
		traversal = c.String("traversal")
	}
	depth, err := rank.ParseDepth(traversal)
	if err != nil {
		return err
	}
	req.Depth = &depth

	trace := c.Bool("trace")
	aggregator, err := rank.NewAggregator(rank.WithTrace(trace))
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher(
		search.WithAggregator(aggregator),
		search.WithCandidates(cfg.Search.Candidates),
		search.WithMinSimilarity(*cfg.Search.MinSimilarity),
	)
	if err != nil {
		return err
	}
	defer searcher.Release()

	query := search.NewQuery(queryText(c))
	matches, err := searcher.FindMatches(c.Context, query, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if depth != rank.DepthRoot {
		printFragmentMatches(c, query, depth, trace)
		return nil
	}
	printMatches(c.App.Writer, "Similar cases", matches, trace)
	return nil
}

// printFragmentMatches prints the matches aggregated onto each query
// fragment at depth: the lines for DepthFragment, their clauses otherwise.
func printFragmentMatches(c *cli.Context, query *core.Document, depth rank.Depth, trace bool) {
	for _, f := range query.Fragments {
		targets := []*core.Fragment{f}
		if depth == rank.DepthSubFragment {
			targets = f.Fragments
		}
		for _, t := range targets {
			printMatches(c.App.Writer, oneLine(t.Text), t.Matches, trace)
		}
	}
}

func lexicalCommand(c *cli.Context) error {
	cfg := configFrom(c)
	topK := cfg.Lexical.TopK
	if c.IsSet("top-k") {
		topK = c.Int("top-k")
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Release()

	matches, err := searcher.SearchText(c.Context, queryText(c), topK)
	if err != nil {
		return fmt.Errorf("lexical search failed: %w", err)
	}
	printMatches(c.App.Writer, "Lexical matches", matches, false)
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg := configFrom(c)

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		Restart:        c.Bool("restart"),
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	w := c.App.ErrWriter
	fmt.Fprintf(w, "Embedding host: %s\n", cfg.Embedding.Host)
	fmt.Fprintf(w, "Embedding model: %s\n", cfg.Embedding.Model)
	fmt.Fprintln(w)

	if err := db.NewReembedder(reembedConfig, w).Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// queryText turns literal "\n" sequences into line breaks so several query
// fragments fit in one flag.
func queryText(c *cli.Context) string {
	return strings.ReplaceAll(c.String("query"), `\n`, "\n")
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
