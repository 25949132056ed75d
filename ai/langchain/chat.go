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

// Package langchain adapts langchaingo language models to the ai interfaces.
package langchain

import (
	"context"
	"log/slog"

	"github.com/poiesic/kinfolk/ai"
	"github.com/tmc/langchaingo/llms"
)

// ChatModel implements ai.ChatModel on top of any langchaingo llms.Model.
type ChatModel struct {
	client llms.Model
	name   string
	logger *slog.Logger
}

var _ ai.ChatModel = (*ChatModel)(nil)

// NewChatModel wraps client. name identifies the backend in logs.
func NewChatModel(client llms.Model, name string, logger *slog.Logger) *ChatModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatModel{
		client: client,
		name:   name,
		logger: logger.With("component", name+"-chat"),
	}
}

// Complete sends the system prompt and user message as a two-message conversation.
func (m *ChatModel) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(req.System),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(req.User),
			},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	m.logger.Debug("generating completion", "systemLength", len(req.System), "userLength", len(req.User))

	response, err := m.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		m.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		m.logger.Debug("no choices returned from model")
		return "", nil
	}

	return response.Choices[0].Content, nil
}
