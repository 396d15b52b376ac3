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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/relayout"
	"github.com/poiesic/relayout/config"
	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/ingestion"
	"github.com/poiesic/relayout/render"
	"github.com/poiesic/relayout/search"
)

const configKey = "config"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	dbFlag := &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory (default from config)",
	}
	embeddingFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL (default from config)",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name (default from config)",
		},
	}

	return &cli.App{
		Name:  "relayout",
		Usage: "Turn OCR layout trees into clean, structured documents",
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
				Value:   "relayout.yaml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to .env file",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return loadConfig(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Transform layout JSON files and store the results",
				Action: ingestCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i"},
						Usage:    "Directory of layout JSON files (or of Pharma/Herbal folders when --category is omitted)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category of every file in --input (pharma, herbal)",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Directory for rendered documents",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Rendition format: " + strings.Join(render.Formats(), ", "),
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of documents processed in parallel",
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Chunk and embed documents for search",
					},
				}, embeddingFlags...),
			},
			{
				Name:      "show",
				Usage:     "Render a stored document",
				ArgsUsage: "NAME",
				Action:    showCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category of the named document",
						Value: string(core.CategoryPharma),
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Document ID instead of a name",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: annotated, " + strings.Join(render.Formats(), ", "),
						Value: "terminal",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored documents",
				Action: listCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only list this category",
					},
				},
			},
			{
				Name:   "rebuild",
				Usage:  "Re-derive every stored document from its saved layout",
				Action: rebuildCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for embedding calls",
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
					},
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Continue after the last saved checkpoint",
					},
					&cli.BoolFlag{
						Name:  "embed",
						Usage: "Re-embed chunks while rebuilding",
					},
				}, embeddingFlags...),
			},
			{
				Name:      "query",
				Usage:     "Search embedded documents",
				ArgsUsage: "TEXT...",
				Action:    queryCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of hits",
					},
				}, embeddingFlags...),
			},
		},
	}
}

func loadConfig(c *cli.Context) error {
	if err := config.LoadEnv(c.String("env-file")); err != nil {
		return err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

// settings returns the loaded config with command flags applied.
func settings(c *cli.Context) *config.Config {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		cfg = config.Default()
	}
	if c.IsSet("db") {
		cfg.Database = c.String("db")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("embed") {
		cfg.Embedding.Enabled = c.Bool("embed")
	}
	return cfg
}

func openStore(cfg *config.Config, embed bool) (*relayout.Store, error) {
	var opts []relayout.StoreOption
	if embed {
		opts = append(opts, relayout.WithAIConfig(cfg.AIConfig()))
	}
	store, err := relayout.Open(cfg.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func ingestCommand(c *cli.Context) error {
	cfg := settings(c)
	if c.IsSet("out") {
		cfg.Ingest.OutputDir = c.String("out")
	}
	if c.IsSet("format") {
		cfg.Ingest.Format = c.String("format")
	}
	if c.IsSet("workers") {
		cfg.Ingest.Workers = c.Int("workers")
	}

	var inputs []ingestion.Input
	var err error
	if c.IsSet("category") {
		category, perr := core.ParseCategory(c.String("category"))
		if perr != nil {
			return perr
		}
		inputs, err = ingestion.Scan(c.String("input"), category)
	} else {
		inputs, err = ingestion.ScanCategories(c.String("input"))
	}
	if err != nil {
		return fmt.Errorf("failed to scan input: %w", err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no layout files found in %s", c.String("input"))
	}

	store, err := openStore(cfg, cfg.Embedding.Enabled)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := []ingestion.Option{
		ingestion.WithPoolSize(cfg.Ingest.Workers),
		ingestion.WithMaxChunkRunes(cfg.Ingest.MaxChunkRunes),
	}
	if cfg.Ingest.OutputDir != "" {
		renderer, err := render.ForFormat(cfg.Ingest.Format)
		if err != nil {
			return err
		}
		opts = append(opts, ingestion.WithOutputDir(cfg.Ingest.OutputDir, renderer))
	}

	pipeline, err := store.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database)
	fmt.Fprintf(c.App.ErrWriter, "Ingesting %d files\n", len(inputs))

	report, err := pipeline.Ingest(c.Context, inputs...)
	if err != nil {
		return fmt.Errorf("ingestion interrupted: %w", err)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(c.App.ErrWriter, "  failed: %s: %v\n", failure.Name, failure.Err)
	}
	fmt.Fprintf(c.App.Writer, "Successfully processed %d/%d (%d empty, %d chunks) in %v\n",
		report.Processed, len(inputs), report.Empty, report.Chunks, report.Elapsed.Round(time.Millisecond))
	return nil
}

func showCommand(c *cli.Context) error {
	cfg := settings(c)
	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := lookupDocument(c, store)
	if err != nil {
		return err
	}

	format := c.String("format")
	if format == "annotated" {
		_, err := fmt.Fprintln(c.App.Writer, doc.Annotated)
		return err
	}
	renderer, err := render.ForFormat(format)
	if err != nil {
		return err
	}
	return renderer.Render(c.App.Writer, doc.Metadata[ingestion.MetaProductName], doc.Blocks)
}

func lookupDocument(c *cli.Context, store *relayout.Store) (*core.Document, error) {
	repo := store.DocumentRepository()
	if c.IsSet("id") {
		id, err := strconv.ParseUint(c.String("id"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid document id %q: %w", c.String("id"), err)
		}
		return repo.GetDocument(c.Context, core.ID(id))
	}

	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected a document name or --id")
	}
	category, err := core.ParseCategory(c.String("category"))
	if err != nil {
		return nil, err
	}
	return repo.FindDocumentByName(c.Context, category, c.Args().First())
}

func listCommand(c *cli.Context) error {
	cfg := settings(c)
	store, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	categories := core.Categories()
	if c.IsSet("category") {
		category, err := core.ParseCategory(c.String("category"))
		if err != nil {
			return err
		}
		categories = []core.Category{category}
	}

	for _, category := range categories {
		docs, err := store.DocumentRepository().ListDocuments(c.Context, category)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			fmt.Fprintf(c.App.Writer, "%-20d %-7s %s %4d blocks %6d chars\n",
				doc.Id, doc.Category,
				runewidth.FillRight(runewidth.Truncate(doc.Name, 32, "…"), 32),
				len(doc.Blocks), doc.Stats.TextLength)
		}
	}
	return nil
}

func rebuildCommand(c *cli.Context) error {
	cfg := settings(c)
	if c.IsSet("batch-size") {
		cfg.Rebuild.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("report-interval") {
		cfg.Rebuild.ReportInterval = c.Int("report-interval")
	}
	if c.IsSet("max-retries") {
		cfg.Rebuild.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		cfg.Rebuild.RetryDelay = c.Duration("retry-delay")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore(cfg, cfg.Embedding.Enabled)
	if err != nil {
		return err
	}
	defer store.Close()

	rebuildConfig := cfg.RebuildConfig()
	rebuildConfig.Resume = c.Bool("resume")

	rebuilder, err := store.NewRebuilder(rebuildConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Database)
	if cfg.Embedding.Enabled {
		fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.Embedding.Host)
		fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.Embedding.Model)
	}
	fmt.Fprintln(c.App.ErrWriter)

	if _, err := rebuilder.Run(c.Context); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	cfg := settings(c)
	if c.IsSet("limit") {
		cfg.Search.MaxHits = c.Int("limit")
	}
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query text is required")
	}

	store, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer store.Close()

	searcher, err := store.NewSearcher(search.WithMinSimilarity(cfg.Search.MinSimilarity))
	if err != nil {
		return err
	}
	return printHits(c, store, searcher, query, cfg.Search.MaxHits)
}

func printHits(c *cli.Context, store *relayout.Store, searcher *search.Searcher, query string, maxHits int) error {
	results, err := searcher.FindSimilar(c.Context, query, maxHits)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
	for i, hit := range results {
		name := strconv.FormatUint(uint64(hit.Chunk.DocumentId), 10)
		if doc, err := store.DocumentRepository().GetDocument(c.Context, hit.Chunk.DocumentId); err == nil {
			name = string(doc.Category) + "/" + doc.Name
		}
		fmt.Fprintf(c.App.Writer, "%d: %s [%0.3f] %s\n", i, name, hit.Score, hit.Chunk.Heading)
		fmt.Fprintf(c.App.Writer, "   %s\n", runewidth.Truncate(strings.ReplaceAll(hit.Chunk.Text, "\n", " "), 100, "…"))
	}
	return nil
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
