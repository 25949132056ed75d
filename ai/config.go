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

package ai

import (
	"errors"
	"slices"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	EmbeddingModel string

	// EmbeddingToken authenticates against the embedding service.
	// Local OpenAI-compatible servers accept any value.
	EmbeddingToken string

	// ChatProvider selects the chat backend: "openai" or "anthropic".
	ChatProvider string

	// ChatHost is the base URL for the chat service API.
	// Empty means the provider's public endpoint when ChatProvider is "anthropic".
	ChatHost string

	// ChatModel is the model identifier used to answer questions.
	ChatModel string

	// ChatToken authenticates against the chat service.
	ChatToken string

	// MaxTokens caps the length of generated answers.
	// Default: 1000
	MaxTokens int

	// Temperature controls answer sampling.
	// Default: 0.7
	Temperature float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithChatHost sets the chat service host URL.
func WithChatHost(host string) ConfigOption {
	return func(c *Config) {
		c.ChatHost = host
	}
}

// WithHost sets both embedding and chat hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.ChatHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithChatProvider selects the chat backend.
func WithChatProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.ChatProvider = strings.ToLower(provider)
	}
}

// WithEmbeddingToken sets the embedding API token.
func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = token
	}
}

// WithChatToken sets the chat API token.
func WithChatToken(token string) ConfigOption {
	return func(c *Config) {
		c.ChatToken = token
	}
}

// WithMaxTokens sets the answer length cap.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithTemperature sets the answer sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// Defaults for a local OpenAI-compatible server.
const (
	DefaultHost      = "http://localhost:11434/v1"
	DefaultChatModel = "qwen2.5:3b"
	defaultToken     = "none"
)

// DefaultAnthropicModel replaces DefaultChatModel when the anthropic provider
// is chosen without naming a model.
const DefaultAnthropicModel = "claude-3-sonnet-20240229"

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and chat use the same host.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  DefaultHost,
		EmbeddingModel: "text-embedding-3-small",
		EmbeddingToken: defaultToken,
		ChatProvider:   ProviderOpenAI,
		ChatHost:       DefaultHost,
		ChatModel:      DefaultChatModel,
		ChatToken:      defaultToken,
		MaxTokens:      1000,
		Temperature:    0.7,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("embeddinggemma"),
//	)
//
// Example with Anthropic answering questions:
//
//	cfg := NewConfig(
//	    WithChatProvider(ProviderAnthropic),
//	    WithChatToken(os.Getenv("ANTHROPIC_API_KEY")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to OpenAI-compatible hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
//
// For the anthropic provider, chat settings still at their local defaults are
// replaced: the host is cleared so the public endpoint is used, the model
// becomes DefaultAnthropicModel and the placeholder token is dropped.
func (c *Config) Normalize() {
	c.EmbeddingHost = withV1Suffix(c.EmbeddingHost)
	if c.ChatProvider == "" {
		c.ChatProvider = ProviderOpenAI
	}
	switch c.ChatProvider {
	case ProviderOpenAI:
		c.ChatHost = withV1Suffix(c.ChatHost)
	case ProviderAnthropic:
		if c.ChatHost != "" && withV1Suffix(c.ChatHost) == DefaultHost {
			c.ChatHost = ""
		}
		if c.ChatModel == "" || c.ChatModel == DefaultChatModel {
			c.ChatModel = DefaultAnthropicModel
		}
		if c.ChatToken == defaultToken {
			c.ChatToken = ""
		}
	}
}

func withV1Suffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if !slices.Contains(ChatProviders, c.ChatProvider) {
		return errors.New("ai config: ChatProvider must be one of " + strings.Join(ChatProviders, ", "))
	}
	if c.ChatProvider == ProviderOpenAI && c.ChatHost == "" {
		return errors.New("ai config: ChatHost is required for the openai provider")
	}
	if c.ChatProvider == ProviderAnthropic && c.ChatToken == "" {
		return errors.New("ai config: ChatToken is required for the anthropic provider")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	return nil
}
