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

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for family records.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Importers use it so re-importing the same record yields the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ContentType identifies the kind of a record.
type ContentType string

const (
	ContentTypeStory    ContentType = "story"
	ContentTypeEvent    ContentType = "event"
	ContentTypeHeritage ContentType = "heritage"
	ContentTypeHealth   ContentType = "health"
	ContentTypePerson   ContentType = "person"
)

// SearchableTypes lists the record kinds exposed to search, in registry order.
var SearchableTypes = []ContentType{
	ContentTypeStory,
	ContentTypeEvent,
	ContentTypeHeritage,
	ContentTypeHealth,
}

// EmbeddableTypes lists every record kind that carries an embedding.
var EmbeddableTypes = []ContentType{
	ContentTypeStory,
	ContentTypeEvent,
	ContentTypeHeritage,
	ContentTypeHealth,
	ContentTypePerson,
}

// Valid reports whether t names a known record kind.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeStory, ContentTypeEvent, ContentTypeHeritage, ContentTypeHealth, ContentTypePerson:
		return true
	}
	return false
}

// ParseContentType converts a case-insensitive name into a ContentType.
func ParseContentType(name string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(name)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, name)
	}
	return t, nil
}

// Embedded carries the embedding and bookkeeping timestamps shared by every record kind.
type Embedded struct {
	Embedding        []float32 `json:"embedding,omitempty"`
	EmbeddingUpdated time.Time `json:"embedding_updated"` // zero until an embedding has been stored
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// GetEmbedding returns the stored embedding, or nil.
func (e *Embedded) GetEmbedding() []float32 {
	return e.Embedding
}

// GetEmbeddingUpdated returns the embedding freshness timestamp.
func (e *Embedded) GetEmbeddingUpdated() time.Time {
	return e.EmbeddingUpdated
}

// SetEmbedding replaces the embedding and its freshness timestamp.
func (e *Embedded) SetEmbedding(vector []float32, at time.Time) {
	e.Embedding = vector
	e.EmbeddingUpdated = at
}

// NeedsEmbedding reports whether the embedding or its timestamp is missing.
func (e *Embedded) NeedsEmbedding() bool {
	return len(e.Embedding) == 0 || e.EmbeddingUpdated.IsZero()
}

// Created returns the creation timestamp.
func (e *Embedded) Created() time.Time {
	return e.CreatedAt
}

// Touch stamps UpdatedAt, and CreatedAt when it has never been set.
func (e *Embedded) Touch(now time.Time) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

// Record is implemented by every embeddable record kind.
type Record interface {
	RecordID() ID
	SetRecordID(id ID)
	Kind() ContentType

	// Field returns a named text field for the generic text fallback.
	// Recognized names are content, description, bio, title and name.
	Field(name string) (string, bool)

	GetEmbedding() []float32
	GetEmbeddingUpdated() time.Time
	SetEmbedding(vector []float32, at time.Time)
	NeedsEmbedding() bool
	Created() time.Time
	Touch(now time.Time)
}

// Story is a family story or memory.
type Story struct {
	ID           ID        `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Content      string    `json:"content" yaml:"content"`
	StoryType    string    `json:"story_type" yaml:"story_type"`
	DateOccurred time.Time `json:"date_occurred" yaml:"date_occurred"`
	People       []string  `json:"people" yaml:"people"`
	Embedded     `yaml:"-"`
}

func (s *Story) RecordID() ID      { return s.ID }
func (s *Story) SetRecordID(id ID) { s.ID = id }
func (s *Story) Kind() ContentType { return ContentTypeStory }

func (s *Story) Field(name string) (string, bool) {
	switch name {
	case "title":
		return s.Title, true
	case "content":
		return s.Content, true
	}
	return "", false
}

// Event is a family gathering or milestone.
type Event struct {
	ID           ID        `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Description  string    `json:"description" yaml:"description"`
	EventType    string    `json:"event_type" yaml:"event_type"`
	StartDate    time.Time `json:"start_date" yaml:"start_date"`
	Location     string    `json:"location" yaml:"location"`
	Participants []string  `json:"participants" yaml:"participants"`
	Embedded     `yaml:"-"`
}

func (e *Event) RecordID() ID      { return e.ID }
func (e *Event) SetRecordID(id ID) { e.ID = id }
func (e *Event) Kind() ContentType { return ContentTypeEvent }

func (e *Event) Field(name string) (string, bool) {
	switch name {
	case "name":
		return e.Name, true
	case "description":
		return e.Description, true
	}
	return "", false
}

// Heritage is a tradition, recipe, value or piece of family wisdom.
type Heritage struct {
	ID           ID     `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Description  string `json:"description" yaml:"description"`
	HeritageType string `json:"heritage_type" yaml:"heritage_type"`
	Importance   string `json:"importance" yaml:"importance"`
	OriginPerson string `json:"origin_person" yaml:"origin_person"`
	Embedded     `yaml:"-"`
}

func (h *Heritage) RecordID() ID      { return h.ID }
func (h *Heritage) SetRecordID(id ID) { h.ID = id }
func (h *Heritage) Kind() ContentType { return ContentTypeHeritage }

func (h *Heritage) Field(name string) (string, bool) {
	switch name {
	case "title":
		return h.Title, true
	case "description":
		return h.Description, true
	}
	return "", false
}

// Health is a medical record for a family member.
type Health struct {
	ID           ID        `json:"id" yaml:"id"`
	Title        string    `json:"title" yaml:"title"`
	Description  string    `json:"description" yaml:"description"`
	RecordType   string    `json:"record_type" yaml:"record_type"`
	Person       string    `json:"person" yaml:"person"`
	Date         time.Time `json:"date" yaml:"date"`
	IsHereditary bool      `json:"is_hereditary" yaml:"is_hereditary"`
	Embedded     `yaml:"-"`
}

func (h *Health) RecordID() ID      { return h.ID }
func (h *Health) SetRecordID(id ID) { h.ID = id }
func (h *Health) Kind() ContentType { return ContentTypeHealth }

func (h *Health) Field(name string) (string, bool) {
	switch name {
	case "title":
		return h.Title, true
	case "description":
		return h.Description, true
	}
	return "", false
}

// Person is a family member. People are embedded but not searched directly.
type Person struct {
	ID       ID     `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Bio      string `json:"bio" yaml:"bio"`
	Embedded `yaml:"-"`
}

func (p *Person) RecordID() ID      { return p.ID }
func (p *Person) SetRecordID(id ID) { p.ID = id }
func (p *Person) Kind() ContentType { return ContentTypePerson }

func (p *Person) Field(name string) (string, bool) {
	switch name {
	case "name":
		return p.Name, true
	case "bio":
		return p.Bio, true
	}
	return "", false
}

// TitleAndBody returns the display title and main free text of a record.
func TitleAndBody(r Record) (title, body string) {
	switch v := r.(type) {
	case *Story:
		return v.Title, v.Content
	case *Event:
		return v.Name, v.Description
	case *Heritage:
		return v.Title, v.Description
	case *Health:
		return v.Title, v.Description
	case *Person:
		return v.Name, v.Bio
	}
	return "", ""
}

// NewRecord returns an empty record of the given kind.
func NewRecord(t ContentType) (Record, error) {
	switch t {
	case ContentTypeStory:
		return &Story{}, nil
	case ContentTypeEvent:
		return &Event{}, nil
	case ContentTypeHeritage:
		return &Heritage{}, nil
	case ContentTypeHealth:
		return &Health{}, nil
	case ContentTypePerson:
		return &Person{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, t)
}

// Match is a record returned from a vector similarity query.
type Match struct {
	Record     Record
	Similarity float64
}
