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

// Package anthropic provides an ai.ChatModel backed by the Anthropic messages API.
package anthropic

import (
	"log/slog"

	"github.com/poiesic/kinfolk/ai"
	"github.com/poiesic/kinfolk/ai/langchain"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// NewChatModel creates a chat model for config.ChatModel using config.ChatToken.
// A non-empty config.ChatHost overrides the public endpoint.
//
// Returns ai.ChatModel interface to keep callers independent of the backend.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []anthropic.Option{
		anthropic.WithToken(config.ChatToken),
		anthropic.WithModel(config.ChatModel),
	}
	if config.ChatHost != "" {
		opts = append(opts, anthropic.WithBaseURL(config.ChatHost))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, err
	}

	return langchain.NewChatModel(client, "anthropic", slog.Default()), nil
}
