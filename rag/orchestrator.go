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

package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/kinfolk/ai"
	"github.com/poiesic/kinfolk/core"
	"github.com/poiesic/kinfolk/metrics"
	"github.com/poiesic/kinfolk/search"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/poiesic/kinfolk/rag")

// Retrieval and generation defaults used by GenerateResponse.
const (
	DefaultMaxResults  = 5
	DefaultThreshold   = 0.6
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
)

// Answer paths reported to metrics.
const (
	pathGenerated = "generated"
	pathFallback  = "fallback"
	pathError     = "error"
)

// Retriever finds the records that ground an answer.
type Retriever interface {
	SemanticSearch(ctx context.Context, query string, opts ...search.SearchOption) ([]core.SearchResult, error)
}

var _ Retriever = (*search.Searcher)(nil)

// Orchestrator runs the retrieval-augmented answer pipeline.
type Orchestrator struct {
	retriever   Retriever
	chat        ai.ChatModel
	maxTokens   int
	temperature float64
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithMaxTokens caps generated answers.
// Default is DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(o *Orchestrator) error {
		if n <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", n)
		}
		o.maxTokens = n
		return nil
	}
}

// WithTemperature sets the sampling temperature.
// Default is DefaultTemperature.
func WithTemperature(t float64) Option {
	return func(o *Orchestrator) error {
		if t < 0 || t > 2 {
			return fmt.Errorf("temperature must be within [0, 2], got %g", t)
		}
		o.temperature = t
		return nil
	}
}

// WithClock overrides the clock used to measure processing time.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}

// NewOrchestrator creates an orchestrator answering from retriever's results
// with chat.
func NewOrchestrator(retriever Retriever, chat ai.ChatModel, opts ...Option) (*Orchestrator, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if chat == nil {
		return nil, ErrChatModelRequired
	}

	o := &Orchestrator{
		retriever:   retriever,
		chat:        chat,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "rag")

	return o, nil
}

type requestConfig struct {
	maxResults int
	threshold  float64
}

// RequestOption tunes a single GenerateResponse call.
type RequestOption func(*requestConfig)

// WithMaxResults caps the results used as context.
// Default is DefaultMaxResults.
func WithMaxResults(n int) RequestOption {
	return func(c *requestConfig) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithThreshold sets the minimum similarity of context results.
// Default is DefaultThreshold.
func WithThreshold(threshold float64) RequestOption {
	return func(c *requestConfig) {
		c.threshold = threshold
	}
}

// GenerateResponse answers query from the family records. It never fails:
// retrieval errors and panics become an "error" intent response carrying the
// message in its metadata. Empty queries are expected to be rejected by the
// caller.
func (o *Orchestrator) GenerateResponse(ctx context.Context, query string, opts ...RequestOption) (resp core.Response) {
	cfg := requestConfig{maxResults: DefaultMaxResults, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := o.now()
	ctx, span := tracer.Start(ctx, "rag.generate_response", trace.WithAttributes(
		attribute.Int("rag.max_results", cfg.maxResults),
		attribute.Float64("rag.threshold", cfg.threshold),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			o.logger.Error("answer generation panicked", "err", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			resp = errorResponse(query, err)
			metrics.RAGResponse(string(core.QueryTypeError), pathError, o.now().Sub(start))
		}
	}()

	intent := Classify(query)
	span.SetAttributes(attribute.String("rag.query_type", string(intent)))

	results, err := o.retriever.SemanticSearch(ctx, query,
		search.WithLimit(cfg.maxResults),
		search.WithThreshold(cfg.threshold))
	if err != nil {
		o.logger.Error("answer generation failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		metrics.RAGResponse(string(core.QueryTypeError), pathError, o.now().Sub(start))
		return errorResponse(query, err)
	}

	path := pathFallback
	var answer string
	if recordContext := BuildContext(results, intent); recordContext != "" {
		answer, path = o.generate(ctx, query, recordContext, intent)
	} else {
		answer = Fallback(query, intent)
	}

	elapsed := o.now().Sub(start)
	span.SetAttributes(attribute.String("rag.path", path), attribute.Int("rag.sources", len(results)))
	metrics.RAGResponse(string(intent), path, elapsed)

	return core.Response{
		Query:    query,
		Response: answer,
		Sources:  FormatSources(results),
		Metadata: core.ResponseMetadata{
			QueryType:      intent,
			Confidence:     Confidence(results),
			ProcessingTime: round(elapsed.Seconds(), 2),
			SourcesCount:   len(results),
			Language:       DetectLanguage(query),
		},
	}
}

// Generate asks the chat model to answer query from context. Any failure,
// including an empty completion, yields the intent's fallback answer.
func (o *Orchestrator) Generate(ctx context.Context, query, recordContext string, intent core.QueryType) string {
	answer, _ := o.generate(ctx, query, recordContext, intent)
	return answer
}

func (o *Orchestrator) generate(ctx context.Context, query, recordContext string, intent core.QueryType) (string, string) {
	ctx, span := tracer.Start(ctx, "rag.generate")
	defer span.End()

	answer, err := o.chat.Complete(ctx, ai.ChatRequest{
		System:      SystemPrompt(intent),
		User:        userMessage(query, recordContext),
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		o.logger.Error("chat completion failed", "query_type", intent, "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Fallback(query, intent), pathFallback
	}
	if strings.TrimSpace(answer) == "" {
		o.logger.Warn("chat completion was empty", "query_type", intent)
		span.SetStatus(codes.Error, "empty completion")
		return Fallback(query, intent), pathFallback
	}
	return answer, pathGenerated
}

func errorResponse(query string, err error) core.Response {
	language := DetectLanguage(query)
	return core.Response{
		Query:    query,
		Response: errorMessages[language],
		Sources:  []core.Source{},
		Metadata: core.ResponseMetadata{
			QueryType: core.QueryTypeError,
			Language:  language,
			Error:     err.Error(),
		},
	}
}
