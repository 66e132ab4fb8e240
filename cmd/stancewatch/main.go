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
	"strings"
	"time"

	"github.com/poiesic/stancewatch"
	"github.com/poiesic/stancewatch/ai"
	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/ingest"
	"github.com/poiesic/stancewatch/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "stancewatch",
		Usage: "Track political stances from ingested statements",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				EnvVars: []string{"STANCEWATCH_DB"},
				Value:   "./stancewatch-data",
			},
			&cli.StringFlag{
				Name:    "ollama-host",
				Usage:   "Ollama server URL for embeddings and generation",
				EnvVars: []string{"OLLAMA_HOST"},
				Value:   "http://localhost:11434",
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"STANCEWATCH_EMBEDDING_MODEL"},
				Value:   "nomic-embed-text",
			},
			&cli.StringFlag{
				Name:    "generator-model",
				Usage:   "Generative model name for stance extraction",
				EnvVars: []string{"STANCEWATCH_GENERATOR_MODEL"},
				Value:   "qwen2.5:7b-instruct",
			},
			&cli.StringFlag{
				Name:    "qdrant-url",
				Usage:   "Qdrant server URL",
				EnvVars: []string{"QDRANT_URL"},
				Value:   stancewatch.DefaultQdrantURL,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest a document: chunk, embed, and index it",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Source URL (unique key)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Source title",
					},
					&cli.StringFlag{
						Name:  "file",
						Usage: "Read content from file instead of --content",
					},
					&cli.StringFlag{
						Name:  "content",
						Usage: "Raw text content",
					},
					&cli.TimestampFlag{
						Name:   "date",
						Usage:  "Publication date",
						Layout: "2006-01-02",
					},
				},
			},
			{
				Name:   "analyze",
				Usage:  "Extract a stance statement for a politician/topic query",
				Action: analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "politician",
						Usage:    "Politician ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "topic",
						Usage:    "Topic ID or slug",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Usage:    "Natural-language query to retrieve evidence for",
						Required: true,
					},
				},
			},
			{
				Name:   "timeline",
				Usage:  "List recent statements, newest first",
				Action: timelineCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "politician",
						Usage: "Filter by politician ID",
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Filter by topic ID or slug",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of statements",
						Value: 50,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show corpus counters and activity timestamps",
				Action: statsCommand,
			},
			{
				Name:   "sources",
				Usage:  "List ingested sources",
				Action: sourcesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "domain",
						Usage: "Filter by exact domain",
					},
					&cli.StringFlag{
						Name:  "q",
						Usage: "Filter by URL substring",
					},
					&cli.IntFlag{
						Name:  "page",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "page-size",
						Value: 20,
					},
				},
			},
			{
				Name:   "politicians",
				Usage:  "Manage politicians",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Add a politician",
						Action: addPoliticianCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Required: true},
							&cli.StringFlag{Name: "party"},
						},
					},
					{
						Name:   "list",
						Usage:  "List politicians ordered by name",
						Action: listPoliticiansCommand,
					},
				},
			},
			{
				Name:   "topics",
				Usage:  "Manage topics",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Add a topic",
						Action: addTopicCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Required: true},
							&cli.StringFlag{Name: "slug", Required: true},
							&cli.StringFlag{Name: "description"},
						},
					},
					{
						Name:   "list",
						Usage:  "List topics ordered by name",
						Action: listTopicsCommand,
					},
				},
			},
			{
				Name:   "seed",
				Usage:  "Load demo politicians, topics, and sources",
				Action: seedCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
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

func openTracker(c *cli.Context) (*stancewatch.Tracker, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("ollama-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
	)

	return stancewatch.NewTracker(c.String("db"),
		stancewatch.WithAIConfig(cfg),
		stancewatch.WithQdrantURL(c.String("qdrant-url")),
	)
}

// resolveTopic accepts either a topic ID or a slug.
func resolveTopic(ctx context.Context, tracker *stancewatch.Tracker, ref string) (*core.Topic, error) {
	topic, err := tracker.ReferenceRepository().GetTopic(ctx, core.ID(ref))
	if err == nil {
		return topic, nil
	}
	return tracker.ReferenceRepository().GetTopicBySlug(ctx, ref)
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	content := c.String("content")
	if file := c.String("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read content file: %w", err)
		}
		content = string(data)
	}
	if content == "" {
		return fmt.Errorf("either --content or --file is required")
	}

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	input := ingest.Input{
		URL:     c.String("url"),
		Title:   c.String("title"),
		Content: content,
	}
	if date := c.Timestamp("date"); date != nil && !date.IsZero() {
		input.Date = date
	}

	result, err := tracker.Ingest(ctx, input)
	if err != nil {
		return err
	}

	fmt.Printf("ingested %s: source=%s chunks=%d dim=%d snippets=%v\n",
		result.Source.URL, result.Source.Id, result.ChunkCount, result.VectorDim, result.SnippetStored)
	return nil
}

func analyzeCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	topic, err := resolveTopic(ctx, tracker, c.String("topic"))
	if err != nil {
		return err
	}

	result, err := tracker.Analyze(ctx, core.ID(c.String("politician")), topic.Id, c.String("query"))
	if err != nil {
		return err
	}

	s := result.Statement
	fmt.Printf("statement %s\n", s.Id)
	fmt.Printf("  claim:      %s\n", s.ClaimSummary)
	fmt.Printf("  stance:     %s (score=%.2f confidence=%.2f)\n", s.StanceLabel, s.StanceScore, s.Confidence)
	fmt.Printf("  evidence:   %s\n", s.EvidenceQuote)
	fmt.Printf("  source:     %s\n", s.SourceURL)
	if result.Change != nil {
		fmt.Printf("  stance change recorded: delta=%.2f\n", result.Change.DeltaScore)
	}
	return nil
}

func timelineCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	filter := storage.StatementFilter{
		PoliticianId: core.ID(c.String("politician")),
		Limit:        c.Int("limit"),
	}
	if ref := c.String("topic"); ref != "" {
		topic, err := resolveTopic(ctx, tracker, ref)
		if err != nil {
			return err
		}
		filter.TopicId = topic.Id
	}

	entries, err := tracker.Timeline(ctx, filter)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		s := entry.Statement
		fmt.Printf("%s  %-24s %-16s %-6s %+.2f  %s\n",
			s.InsertedAt.Format(time.RFC3339),
			entry.Politician.Name,
			entry.Topic.Slug,
			s.StanceLabel,
			s.StanceScore,
			s.ClaimSummary)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	summary, err := tracker.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("sources:        %d\n", summary.Sources)
	fmt.Printf("statements:     %d\n", summary.Statements)
	fmt.Printf("stance changes: %d\n", summary.StanceChanges)
	fmt.Printf("latest ingest:  %s\n", formatTime(summary.LatestIngest))
	fmt.Printf("latest analyze: %s\n", formatTime(summary.LatestAnalyze))
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func sourcesCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	sources, total, err := tracker.SourceRepository().ListSources(ctx, storage.SourceFilter{
		Domain:      c.String("domain"),
		URLContains: c.String("q"),
		Page:        c.Int("page"),
		PageSize:    c.Int("page-size"),
	})
	if err != nil {
		return err
	}

	for _, s := range sources {
		fmt.Printf("%s  %-30s %s\n", s.Id, s.Domain, s.URL)
	}
	fmt.Printf("total: %d\n", total)
	return nil
}

func addPoliticianCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	politician, err := tracker.ReferenceRepository().AddPolitician(ctx, &core.Politician{
		Name:   c.String("name"),
		Party:  c.String("party"),
		Active: true,
	})
	if err != nil {
		return err
	}

	fmt.Printf("added politician %s (%s)\n", politician.Name, politician.Id)
	return nil
}

func listPoliticiansCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	politicians, err := tracker.ReferenceRepository().ListPoliticians(ctx)
	if err != nil {
		return err
	}

	for _, p := range politicians {
		fmt.Printf("%s  %-24s %s\n", p.Id, p.Name, p.Party)
	}
	return nil
}

func addTopicCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	topic, err := tracker.ReferenceRepository().AddTopic(ctx, &core.Topic{
		Name:        c.String("name"),
		Slug:        c.String("slug"),
		Description: c.String("description"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("added topic %s (%s)\n", topic.Slug, topic.Id)
	return nil
}

func listTopicsCommand(c *cli.Context) error {
	ctx := context.Background()

	tracker, err := openTracker(c)
	if err != nil {
		return err
	}
	defer tracker.Close()

	topics, err := tracker.ReferenceRepository().ListTopics(ctx)
	if err != nil {
		return err
	}

	for _, t := range topics {
		fmt.Printf("%s  %-20s %s\n", t.Id, t.Slug, t.Name)
	}
	return nil
}
