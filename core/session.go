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

package core

import "time"

// ChatSession groups query logs from one conversation.
type ChatSession struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueryLog records a chat query and the answer it received.
type QueryLog struct {
	ID             ID        `json:"id"`
	SessionID      string    `json:"session_id"`
	QueryText      string    `json:"query_text"`
	QueryType      QueryType `json:"query_type"`
	ResponseText   string    `json:"response_text"`
	Sources        []Source  `json:"sources_used"`
	Confidence     float64   `json:"confidence"`
	ProcessingTime float64   `json:"processing_time"`
	Language       Language  `json:"language"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewQueryLog builds a log entry from a response.
func NewQueryLog(sessionID string, resp *Response) *QueryLog {
	return &QueryLog{
		SessionID:      sessionID,
		QueryText:      resp.Query,
		QueryType:      resp.Metadata.QueryType,
		ResponseText:   resp.Response,
		Sources:        resp.Sources,
		Confidence:     resp.Metadata.Confidence,
		ProcessingTime: resp.Metadata.ProcessingTime,
		Language:       resp.Metadata.Language,
	}
}

// Checkpoint records the outcome of the last bulk embedding run for a record kind.
type Checkpoint struct {
	Kind        ContentType `json:"kind"`
	Updated     int         `json:"updated"`
	Skipped     int         `json:"skipped"`
	Failed      int         `json:"failed"`
	CompletedAt time.Time   `json:"completed_at"`
}
