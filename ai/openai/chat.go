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

package openai

import (
	"log/slog"

	"github.com/poiesic/kinfolk/ai"
	"github.com/poiesic/kinfolk/ai/langchain"
	"github.com/tmc/langchaingo/llms/openai"
)

func newChatModel(config *ai.Config) (*langchain.ChatModel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken(tokenOrNone(config.ChatToken)),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return langchain.NewChatModel(client, "openai", slog.Default()), nil
}

// NewChatModel creates a chat model for config.ChatModel at config.ChatHost.
func NewChatModel(config *ai.Config) (ai.ChatModel, error) {
	return newChatModel(config)
}
