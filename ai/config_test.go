package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, ProviderOpenAI, cfg.ChatProvider)
	assert.Equal(t, 1000, cfg.MaxTokens)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ChatHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithChatHost("http://chat:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://chat:9090/v1", cfg.ChatHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithChatProvider("Anthropic"),
			WithChatModel("claude-3-sonnet-20240229"),
			WithChatToken("sk-test"),
			WithEmbeddingModel("embeddinggemma"),
			WithEmbeddingToken("sk-embed"),
			WithMaxTokens(500),
			WithTemperature(0.2),
		)

		assert.Equal(t, ProviderAnthropic, cfg.ChatProvider)
		assert.Equal(t, "claude-3-sonnet-20240229", cfg.ChatModel)
		assert.Equal(t, "sk-test", cfg.ChatToken)
		assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
		assert.Equal(t, "sk-embed", cfg.EmbeddingToken)
		assert.Equal(t, 500, cfg.MaxTokens)
		assert.Equal(t, 0.2, cfg.Temperature)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name              string
		provider          string
		embeddingHost     string
		chatHost          string
		expectedEmbedding string
		expectedChat      string
	}{
		{
			name:              "already has /v1",
			provider:          ProviderOpenAI,
			embeddingHost:     "http://localhost:11434/v1",
			chatHost:          "http://localhost:11434/v1",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedChat:      "http://localhost:11434/v1",
		},
		{
			name:              "missing /v1",
			provider:          ProviderOpenAI,
			embeddingHost:     "http://localhost:11434",
			chatHost:          "http://localhost:11434",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedChat:      "http://localhost:11434/v1",
		},
		{
			name:              "has trailing slash",
			provider:          ProviderOpenAI,
			embeddingHost:     "http://localhost:11434/",
			chatHost:          "http://localhost:11434/",
			expectedEmbedding: "http://localhost:11434/v1",
			expectedChat:      "http://localhost:11434/v1",
		},
		{
			name:              "empty hosts",
			provider:          ProviderOpenAI,
			expectedEmbedding: "",
			expectedChat:      "",
		},
		{
			name:              "anthropic host is left alone",
			provider:          ProviderAnthropic,
			embeddingHost:     "http://embed:8080",
			chatHost:          "https://proxy.internal/anthropic",
			expectedEmbedding: "http://embed:8080/v1",
			expectedChat:      "https://proxy.internal/anthropic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				ChatProvider:  tt.provider,
				EmbeddingHost: tt.embeddingHost,
				ChatHost:      tt.chatHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedChat, cfg.ChatHost)
		})
	}

	t.Run("anthropic replaces local chat defaults", func(t *testing.T) {
		cfg := NewConfig(WithChatProvider(ProviderAnthropic), WithChatToken("sk-ant"))
		cfg.Normalize()

		assert.Empty(t, cfg.ChatHost)
		assert.Equal(t, DefaultAnthropicModel, cfg.ChatModel)
		assert.Equal(t, "sk-ant", cfg.ChatToken)
		assert.Equal(t, DefaultHost, cfg.EmbeddingHost)
	})

	t.Run("anthropic keeps explicit chat settings", func(t *testing.T) {
		cfg := NewConfig(
			WithChatProvider(ProviderAnthropic),
			WithChatHost("https://proxy.internal/anthropic"),
			WithChatModel("claude-3-haiku-20240307"),
			WithChatToken("sk-ant"),
		)
		cfg.Normalize()

		assert.Equal(t, "https://proxy.internal/anthropic", cfg.ChatHost)
		assert.Equal(t, "claude-3-haiku-20240307", cfg.ChatModel)
	})

	t.Run("anthropic drops the placeholder token", func(t *testing.T) {
		cfg := NewConfig(WithChatProvider(ProviderAnthropic))

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ChatToken")
	})

	t.Run("empty provider defaults to openai", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Equal(t, ProviderOpenAI, cfg.ChatProvider)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:  "http://localhost:11434",
			EmbeddingModel: "text-embedding-3-small",
			ChatProvider:   ProviderOpenAI,
			ChatHost:       "http://localhost:11434",
			ChatModel:      "qwen2.5:3b",
			MaxTokens:      1000,
			Temperature:    0.7,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		err := cfg.Validate()
		assert.NoError(t, err)

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"unknown provider", func(c *Config) { c.ChatProvider = "cohere" }, "ChatProvider"},
		{"missing chat host", func(c *Config) { c.ChatHost = "" }, "ChatHost"},
		{"anthropic without token", func(c *Config) { c.ChatProvider = ProviderAnthropic; c.ChatHost = "" }, "ChatToken"},
		{"missing chat model", func(c *Config) { c.ChatModel = "" }, "ChatModel"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "MaxTokens"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "Temperature"},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, "Temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("anthropic with token and no host", func(t *testing.T) {
		cfg := valid()
		cfg.ChatProvider = ProviderAnthropic
		cfg.ChatHost = ""
		cfg.ChatToken = "sk-ant"

		assert.NoError(t, cfg.Validate())
		assert.Empty(t, cfg.ChatHost)
	})
}
