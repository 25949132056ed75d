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

package embedding

import (
	"strings"

	"github.com/poiesic/kinfolk/core"
)

// TextExtractor produces the canonical text that is embedded for a record.
type TextExtractor interface {
	ExtractText(record core.Record) string
}

// ExtractorFunc adapts a function to TextExtractor.
type ExtractorFunc func(record core.Record) string

// ExtractText calls f(record).
func (f ExtractorFunc) ExtractText(record core.Record) string {
	return f(record)
}

// genericFields is the field priority of the fallback extractor.
var genericFields = []string{"content", "description", "bio", "title", "name"}

// TitleBodyExtractor joins a record's title and body with a blank line.
var TitleBodyExtractor = ExtractorFunc(func(record core.Record) string {
	title, body := core.TitleAndBody(record)
	return title + "\n\n" + body
})

// GenericExtractor returns the first non-blank field in the order
// content, description, bio, title, name.
var GenericExtractor = ExtractorFunc(func(record core.Record) string {
	for _, name := range genericFields {
		if value, ok := record.Field(name); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
})

// DefaultExtractors returns the extractor for each searchable kind.
// Kinds without an entry use GenericExtractor.
func DefaultExtractors() map[core.ContentType]TextExtractor {
	return map[core.ContentType]TextExtractor{
		core.ContentTypeStory:    TitleBodyExtractor,
		core.ContentTypeEvent:    TitleBodyExtractor,
		core.ContentTypeHeritage: TitleBodyExtractor,
		core.ContentTypeHealth:   TitleBodyExtractor,
	}
}
