package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/kinfolk/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	messages []llms.MessageContent
	options  llms.CallOptions
	response *llms.ContentResponse
	err      error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.response, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestChatModel_Complete(t *testing.T) {
	fake := &fakeModel{
		response: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "Grandma folded dumplings every winter."}}},
	}
	model := NewChatModel(fake, "test", nil)

	out, err := model.Complete(context.Background(), ai.ChatRequest{
		System:      "You are a family historian.",
		User:        "Tell me about dumplings",
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Grandma folded dumplings every winter.", out)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, llms.TextPart("You are a family historian."), fake.messages[0].Parts[0])
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)
	assert.Equal(t, llms.TextPart("Tell me about dumplings"), fake.messages[1].Parts[0])
	assert.Equal(t, 1000, fake.options.MaxTokens)
	assert.Equal(t, 0.7, fake.options.Temperature)
}

func TestChatModel_Errors(t *testing.T) {
	t.Run("upstream error is returned", func(t *testing.T) {
		fake := &fakeModel{err: errors.New("rate limited")}
		_, err := NewChatModel(fake, "test", nil).Complete(context.Background(), ai.ChatRequest{User: "hi"})
		assert.EqualError(t, err, "rate limited")
	})

	t.Run("no choices yields empty text", func(t *testing.T) {
		fake := &fakeModel{response: &llms.ContentResponse{}}
		out, err := NewChatModel(fake, "test", nil).Complete(context.Background(), ai.ChatRequest{User: "hi"})
		assert.NoError(t, err)
		assert.Empty(t, out)
	})
}
