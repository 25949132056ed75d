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

package mock

import (
	"context"
	"sync"

	"github.com/poiesic/kinfolk/ai"
)

// MockChatModel is a test double for ai.ChatModel.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns DefaultCompletion.
	CompleteFunc func(ctx context.Context, req ai.ChatRequest) (string, error)

	mu          sync.Mutex
	callCount   int
	lastRequest ai.ChatRequest
}

// DefaultCompletion is the answer returned when no CompleteFunc is set.
const DefaultCompletion = "This is a mock answer about your family."

// NewMockChatModel creates a mock chat model.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete records the request and returns the configured answer.
func (m *MockChatModel) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = req
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return DefaultCompletion, nil
}

// CallCount returns how many times Complete was called.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the most recent request passed to Complete.
func (m *MockChatModel) LastRequest() ai.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset clears call tracking and custom behavior.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = ai.ChatRequest{}
	m.CompleteFunc = nil
}
