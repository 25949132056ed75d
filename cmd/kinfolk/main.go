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

	"github.com/joho/godotenv"
	"github.com/poiesic/kinfolk"
	"github.com/poiesic/kinfolk/ai"
	"github.com/poiesic/kinfolk/storage/redis"
	"github.com/urfave/cli/v2"
)

func main() {
	// Flags read their environment variables, so .env must load before parsing.
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openDatabase builds the database from the global flags. Tests replace it.
var openDatabase = func(c *cli.Context) (*kinfolk.Database, error) {
	config := aiConfig(c)
	opts := []kinfolk.DatabaseOption{
		kinfolk.WithAIConfig(config),
		kinfolk.WithLogger(slog.Default()),
		kinfolk.WithSearchPoolSize(c.Int("search-pool")),
	}

	if addr := c.String("redis-addr"); addr != "" {
		cache, err := redis.NewCacheStore(c.Context, addr,
			redis.WithPassword(c.String("redis-password")),
			redis.WithTTL(c.Duration("redis-ttl")))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		opts = append(opts, kinfolk.WithCacheStore(cache))
	}
	if size := c.Int("lru-size"); size > 0 {
		opts = append(opts, kinfolk.WithMemoryCache(size))
	}

	db, err := kinfolk.NewDatabase(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func aiConfig(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingToken(c.String("embedding-token")),
		ai.WithChatProvider(c.String("chat-provider")),
		ai.WithChatHost(c.String("chat-host")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithChatToken(c.String("chat-token")),
		ai.WithMaxTokens(c.Int("max-tokens")),
		ai.WithTemperature(c.Float64("temperature")),
	)
}

func newApp() *cli.App {
	defaults := ai.DefaultConfig()

	return &cli.App{
		Name:  "kinfolk",
		Usage: "Semantic search and answers over family stories, events, heritage and health records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"KINFOLK_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./kinfolk.db",
				EnvVars: []string{"KINFOLK_DB"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   defaults.EmbeddingHost,
				EnvVars: []string{"KINFOLK_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   defaults.EmbeddingModel,
				EnvVars: []string{"KINFOLK_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "embedding-token",
				Usage:   "API key for the embedding service",
				Value:   defaults.EmbeddingToken,
				EnvVars: []string{"KINFOLK_EMBEDDING_TOKEN", "OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "chat-provider",
				Usage:   "Chat backend (openai, anthropic)",
				Value:   defaults.ChatProvider,
				EnvVars: []string{"KINFOLK_CHAT_PROVIDER"},
			},
			&cli.StringFlag{
				Name:    "chat-host",
				Usage:   "Chat service host URL; the anthropic provider uses its public endpoint unless this is changed",
				Value:   defaults.ChatHost,
				EnvVars: []string{"KINFOLK_CHAT_HOST"},
			},
			&cli.StringFlag{
				Name:    "chat-model",
				Usage:   "Chat model name; the anthropic provider substitutes " + ai.DefaultAnthropicModel + " for the default",
				Value:   defaults.ChatModel,
				EnvVars: []string{"KINFOLK_CHAT_MODEL"},
			},
			&cli.StringFlag{
				Name:    "chat-token",
				Usage:   "API key for the chat service",
				Value:   defaults.ChatToken,
				EnvVars: []string{"KINFOLK_CHAT_TOKEN", "ANTHROPIC_API_KEY"},
			},
			&cli.IntFlag{
				Name:    "max-tokens",
				Usage:   "Maximum tokens per generated answer",
				Value:   defaults.MaxTokens,
				EnvVars: []string{"KINFOLK_MAX_TOKENS"},
			},
			&cli.Float64Flag{
				Name:    "temperature",
				Usage:   "Sampling temperature for generated answers",
				Value:   defaults.Temperature,
				EnvVars: []string{"KINFOLK_TEMPERATURE"},
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Share the embedding cache through Redis at this address",
				EnvVars: []string{"KINFOLK_REDIS_ADDR"},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{"KINFOLK_REDIS_PASSWORD"},
			},
			&cli.DurationFlag{
				Name:    "redis-ttl",
				Usage:   "Expire Redis cache entries after this long (0 keeps them)",
				EnvVars: []string{"KINFOLK_REDIS_TTL"},
			},
			&cli.IntFlag{
				Name:    "lru-size",
				Usage:   "Keep this many embedding cache entries in memory (0 disables)",
				Value:   4096,
				EnvVars: []string{"KINFOLK_LRU_SIZE"},
			},
			&cli.IntFlag{
				Name:    "search-pool",
				Usage:   "Workers used to search categories concurrently (0 searches inline)",
				Value:   4,
				EnvVars: []string{"KINFOLK_SEARCH_POOL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			serveCommand(),
			searchCommand(),
			keywordCommand(),
			relatedCommand(),
			chatCommand(),
			importCommand(),
			reembedCommand(),
			checkCommand(),
		},
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

// withDatabase opens the database, runs fn and closes it.
func withDatabase(c *cli.Context, fn func(ctx context.Context, db *kinfolk.Database) error) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "err", err)
		}
	}()

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, db)
}
