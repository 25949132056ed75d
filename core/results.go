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

// SearchResult is a formatted hit from semantic or keyword search.
// Exactly one of the typed metadata blocks is set, matching ContentType.
type SearchResult struct {
	ID          ID          `json:"id"`
	ContentType ContentType `json:"content_type"`
	Title       string      `json:"title"`
	Content     string      `json:"content"` // truncated body text
	Similarity  float64     `json:"similarity"`
	CreatedAt   time.Time   `json:"created_at"`

	Story    *StoryMeta    `json:"story,omitempty"`
	Event    *EventMeta    `json:"event,omitempty"`
	Heritage *HeritageMeta `json:"heritage,omitempty"`
	Health   *HealthMeta   `json:"health,omitempty"`
}

// StoryMeta is the story-specific part of a search result.
type StoryMeta struct {
	StoryType    string    `json:"story_type"`
	DateOccurred time.Time `json:"date_occurred"`
	People       []string  `json:"people"`
}

// EventMeta is the event-specific part of a search result.
type EventMeta struct {
	EventType    string    `json:"event_type"`
	StartDate    time.Time `json:"start_date"`
	Location     string    `json:"location"`
	Participants []string  `json:"participants"`
}

// HeritageMeta is the heritage-specific part of a search result.
type HeritageMeta struct {
	HeritageType string `json:"heritage_type"`
	Importance   string `json:"importance"`
	OriginPerson string `json:"origin_person"`
}

// HealthMeta is the health-specific part of a search result.
type HealthMeta struct {
	RecordType   string    `json:"record_type"`
	Person       string    `json:"person"`
	Date         time.Time `json:"date"`
	IsHereditary bool      `json:"is_hereditary"`
}

// QueryType is the intent assigned to a chat query.
type QueryType string

const (
	QueryTypeHealthPattern         QueryType = "health_pattern"
	QueryTypeEventPlanning         QueryType = "event_planning"
	QueryTypeCulturalHeritage      QueryType = "cultural_heritage"
	QueryTypeRelationshipDiscovery QueryType = "relationship_discovery"
	QueryTypeMemoryDiscovery       QueryType = "memory_discovery"
	QueryTypeGeneral               QueryType = "general"
	QueryTypeError                 QueryType = "error"
)

// Language is a BCP 47 tag for the language of a query.
type Language string

const (
	LanguageChinese Language = "zh-CN"
	LanguageEnglish Language = "en-US"
)

// Source describes one search result that informed an answer.
type Source struct {
	Type      ContentType `json:"type"`
	ID        ID          `json:"id"`
	Title     string      `json:"title"`
	Relevance float64     `json:"relevance"`

	StoryType    string   `json:"story_type,omitempty"`
	People       []string `json:"people,omitempty"`
	EventType    string   `json:"event_type,omitempty"`
	Date         string   `json:"date,omitempty"`
	HeritageType string   `json:"heritage_type,omitempty"`
	Importance   string   `json:"importance,omitempty"`
	Person       string   `json:"person,omitempty"`
	IsHereditary *bool    `json:"is_hereditary,omitempty"`
}

// ResponseMetadata summarizes how an answer was produced.
type ResponseMetadata struct {
	QueryType      QueryType `json:"query_type"`
	Confidence     float64   `json:"confidence"`
	ProcessingTime float64   `json:"processing_time"` // seconds
	SourcesCount   int       `json:"sources_count"`
	Language       Language  `json:"language"`
	Error          string    `json:"error,omitempty"`
}

// Response is the answer to a chat query.
type Response struct {
	Query    string           `json:"query"`
	Response string           `json:"response"`
	Sources  []Source         `json:"sources"`
	Metadata ResponseMetadata `json:"metadata"`
}
