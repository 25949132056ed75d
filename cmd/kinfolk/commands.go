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
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/poiesic/kinfolk"
	"github.com/poiesic/kinfolk/api"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/rag"
	"github.com/poiesic/kinfolk/reembed"
	"github.com/poiesic/kinfolk/search"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	defaults := api.DefaultConfig()
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the search and chat HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   defaults.Addr,
				EnvVars: []string{"KINFOLK_ADDR"},
			},
			&cli.DurationFlag{
				Name:  "request-timeout",
				Usage: "Maximum time spent on one request (0 disables)",
				Value: defaults.RequestTimeout,
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Similarity threshold for search requests that do not set one",
				Value: defaults.SearchThreshold,
			},
		},
		Action: func(c *cli.Context) error {
			config := api.DefaultConfig()
			config.Addr = c.String("addr")
			config.RequestTimeout = c.Duration("request-timeout")
			config.SearchThreshold = c.Float64("threshold")
			if err := config.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withDatabase(c, func(_ context.Context, db *kinfolk.Database) error {
				server, err := api.NewServer(config, db.Searcher(), db.RAG(), db.Sessions())
				if err != nil {
					return err
				}
				return server.Run(ctx)
			})
		},
	}
}

func searchFlags(limit int, threshold float64) []cli.Flag {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of results",
			Value: limit,
		},
		&cli.StringSliceFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Restrict to a category (story, event, heritage, health or an alias); repeatable",
		},
	}
	if threshold != 0 {
		flags = append(flags, &cli.Float64Flag{
			Name:  "threshold",
			Usage: "Minimum similarity",
			Value: threshold,
		})
	}
	return flags
}

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", core.ErrEmptyQuery
	}
	return query, nil
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Semantic search across family records",
		ArgsUsage: "<query>",
		Flags:     searchFlags(search.DefaultLimit, search.DefaultThreshold),
		Action: func(c *cli.Context) error {
			query, err := queryArg(c)
			if err != nil {
				return err
			}
			return withDatabase(c, func(ctx context.Context, db *kinfolk.Database) error {
				results, err := db.Searcher().SemanticSearch(ctx, query,
					search.WithTypes(c.StringSlice("type")...),
					search.WithLimit(c.Int("limit")),
					search.WithThreshold(c.Float64("threshold")))
				if err != nil {
					return err
				}
				return printResults(c.App.Writer, results)
			})
		},
	}
}

func keywordCommand() *cli.Command {
	return &cli.Command{
		Name:      "keyword",
		Usage:     "Keyword search across family records, without embeddings",
		ArgsUsage: "<query>",
		Flags:     searchFlags(search.DefaultLimit, 0),
		Action: func(c *cli.Context) error {
			query, err := queryArg(c)
			if err != nil {
				return err
			}
			return withDatabase(c, func(ctx context.Context, db *kinfolk.Database) error {
				results, err := db.Searcher().KeywordSearch(ctx, query,
					search.WithTypes(c.StringSlice("type")...),
					search.WithLimit(c.Int("limit")))
				if err != nil {
					return err
				}
				return printResults(c.App.Writer, results)
			})
		},
	}
}

func relatedCommand() *cli.Command {
	return &cli.Command{
		Name:      "related",
		Usage:     "Find records related to an existing record",
		ArgsUsage: "<type> <id>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: search.DefaultRelatedLimit,
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("expected <type> <id>, got %d arguments", c.NArg())
			}
			id, err := strconv.ParseUint(c.Args().Get(1), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q: %w", c.Args().Get(1), err)
			}
			return withDatabase(c, func(ctx context.Context, db *kinfolk.Database) error {
				results, err := db.Searcher().FindRelatedContent(ctx, c.Args().Get(0), core.ID(id),
					search.WithLimit(c.Int("limit")))
				if err != nil {
					return err
				}
				return printResults(c.App.Writer, results)
			})
		},
	}
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Ask a question about the family records",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-results",
				Usage: "Maximum number of records used as context",
				Value: rag.DefaultMaxResults,
			},
			&cli.Float64Flag{
				Name:  "threshold",
				Usage: "Minimum similarity of context records",
				Value: rag.DefaultThreshold,
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Log the question and answer to this chat session",
			},
		},
		Action: func(c *cli.Context) error {
			query, err := queryArg(c)
			if err != nil {
				return err
			}
			return withDatabase(c, func(ctx context.Context, db *kinfolk.Database) error {
				resp := db.RAG().GenerateResponse(ctx, query,
					rag.WithMaxResults(c.Int("max-results")),
					rag.WithThreshold(c.Float64("threshold")))

				if session := c.String("session"); session != "" {
					if _, err := db.Sessions().AddQueryLog(ctx, core.NewQueryLog(session, &resp)); err != nil {
						return fmt.Errorf("failed to log query to session %s: %w", session, err)
					}
				}
				return printJSON(c.App.Writer, resp)
			})
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import records from YAML files, embedding them as they are saved",
		ArgsUsage: "<file.yaml>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one file is required")
			}
			return withDatabase(c, func(ctx context.Context, db *kinfolk.Database) error {
				for _, path := range c.Args().Slice() {
					records, err := loadRecordsFile(path)
					if err != nil {
						return err
					}
					if err := db.Save(ctx, records...); err != nil {
						return fmt.Errorf("failed to import %s: %w", path, err)
					}
					fmt.Fprintf(c.App.Writer, "Imported %d records from %s\n", len(records), path)
				}
				db.Pipeline().Drain()
				return nil
			})
		},
	}
}

func reembedCommand() *cli.Command {
	defaults := reembed.DefaultConfig()
	return &cli.Command{
		Name:  "reembed",
		Usage: "Compute embeddings for records that lack them, or for every record with --force",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Record kind to process (story, event, heritage, health, person); repeatable",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Recompute every embedding, for example after changing the embedding model",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of records to process in each batch",
				Value: defaults.BatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N records",
				Value: defaults.ReportInterval,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum attempts for reading records",
				Value: defaults.MaxRetries,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Base delay for exponential backoff",
				Value: defaults.RetryDelay,
			},
			&cli.Float64Flag{
				Name:  "rate",
				Usage: "Maximum embedding updates per second (0 is unlimited)",
			},
		},
		Action: func(c *cli.Context) error {
			config := &reembed.Config{
				BatchSize:      c.Int("batch-size"),
				ReportInterval: c.Int("report-interval"),
				MaxRetries:     c.Int("max-retries"),
				RetryDelay:     c.Duration("retry-delay"),
				RatePerSecond:  c.Float64("rate"),
				Force:          c.Bool("force"),
			}
			if config.BatchSize <= 0 {
				return fmt.Errorf("batch-size must be greater than 0")
			}
			if config.ReportInterval <= 0 {
				return fmt.Errorf("report-interval must be greater than 0")
			}
			if config.MaxRetries <= 0 {
				return fmt.Errorf("max-retries must be greater than 0")
			}
			if config.RatePerSecond < 0 {
				return fmt.Errorf("rate must not be negative")
			}

			kinds, err := parseKinds(c.StringSlice("type"))
			if err != nil {
				return err
			}

			return withDatabase(c, func(ctx context.Context, db *kinfolk.Database) error {
				reembedder, err := db.NewReembedder(config, c.App.ErrWriter)
				if err != nil {
					return err
				}
				result, err := reembedder.Run(ctx, kinds...)
				if err != nil {
					return fmt.Errorf("reembedding failed: %w", err)
				}
				return printJSON(c.App.Writer, result.Total)
			})
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate configuration and report embedding coverage per record kind",
		Action: func(c *cli.Context) error {
			config := aiConfig(c)
			if err := config.Validate(); err != nil {
				return fmt.Errorf("invalid AI configuration: %w", err)
			}
			w := c.App.Writer
			fmt.Fprintf(w, "Database:        %s\n", c.String("db"))
			fmt.Fprintf(w, "Embedding:       %s (%s)\n", config.EmbeddingModel, config.EmbeddingHost)
			fmt.Fprintf(w, "Chat:            %s via %s\n", config.ChatModel, config.ChatProvider)
			fmt.Fprintln(w)

			return withDatabase(c, func(ctx context.Context, db *kinfolk.Database) error {
				statuses, err := db.Status(ctx)
				if err != nil {
					return err
				}
				printStatus(w, statuses)
				return nil
			})
		},
	}
}

func parseKinds(names []string) ([]core.ContentType, error) {
	kinds := make([]core.ContentType, 0, len(names))
	for _, name := range names {
		kind, err := core.ParseContentType(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func printStatus(w io.Writer, statuses []kinfolk.KindStatus) {
	fmt.Fprintf(w, "%-10s %8s %9s %9s  %s\n", "KIND", "RECORDS", "EMBEDDED", "COVERAGE", "LAST REEMBED")
	var missing int
	for _, s := range statuses {
		last := "never"
		if s.Checkpoint != nil {
			last = fmt.Sprintf("%s (updated %d, failed %d)",
				s.Checkpoint.CompletedAt.Local().Format(time.DateTime), s.Checkpoint.Updated, s.Checkpoint.Failed)
		}
		fmt.Fprintf(w, "%-10s %8d %9d %8.1f%%  %s\n", s.Kind, s.Total, s.Embedded, s.Coverage()*100, last)
		missing += s.Total - s.Embedded
	}
	if missing > 0 {
		fmt.Fprintf(w, "\n%d records lack embeddings; run `kinfolk reembed` to fill them in.\n", missing)
	}
}

func printResults(w io.Writer, results []core.SearchResult) error {
	if results == nil {
		results = []core.SearchResult{}
	}
	return printJSON(w, results)
}

func printJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
