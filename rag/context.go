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

package rag

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/kinfolk/core"
)

const (
	contextHeader = "Based on family records, here is relevant information:\n"
	contextPeople = 3
	sourcePeople  = 2
	dateLayout    = "2006-01-02"
)

// BuildContext renders search results as the context block handed to the chat
// model. No results yields "", which callers treat as "nothing found".
func BuildContext(results []core.SearchResult, intent core.QueryType) string {
	if len(results) == 0 {
		return ""
	}

	parts := []string{contextHeader}
	for i, r := range results {
		n := i + 1
		switch r.ContentType {
		case core.ContentTypeStory:
			parts = append(parts,
				fmt.Sprintf("%d. Family Story: \"%s\"", n, r.Title),
				"   Content: "+r.Content)
			if r.Story != nil && len(r.Story.People) > 0 {
				parts = append(parts, "   People involved: "+strings.Join(head(r.Story.People, contextPeople), ", "))
			}
		case core.ContentTypeEvent:
			parts = append(parts,
				fmt.Sprintf("%d. Family Event: \"%s\"", n, r.Title),
				"   Description: "+r.Content)
			if r.Event != nil {
				if r.Event.EventType != "" {
					parts = append(parts, "   Type: "+r.Event.EventType)
				}
				if r.Event.Location != "" {
					parts = append(parts, "   Location: "+r.Event.Location)
				}
			}
		case core.ContentTypeHeritage:
			parts = append(parts,
				fmt.Sprintf("%d. Family Heritage: \"%s\"", n, r.Title),
				"   Description: "+r.Content)
			if r.Heritage != nil {
				if r.Heritage.HeritageType != "" {
					parts = append(parts, "   Type: "+r.Heritage.HeritageType)
				}
				if r.Heritage.OriginPerson != "" {
					parts = append(parts, "   Origin: "+r.Heritage.OriginPerson)
				}
			}
		case core.ContentTypeHealth:
			parts = append(parts,
				fmt.Sprintf("%d. Health Record: \"%s\"", n, r.Title),
				"   Details: "+r.Content)
			if r.Health != nil {
				if r.Health.Person != "" {
					parts = append(parts, "   Person: "+r.Health.Person)
				}
				if r.Health.IsHereditary {
					parts = append(parts, "   Hereditary: Yes")
				}
			}
		}
		parts = append(parts, fmt.Sprintf("   Relevance: %.2f\n", r.Similarity))
	}

	return strings.Join(parts, "\n")
}

// FormatSources converts search results into the sources attached to an answer.
func FormatSources(results []core.SearchResult) []core.Source {
	sources := make([]core.Source, 0, len(results))
	for _, r := range results {
		source := core.Source{
			Type:      r.ContentType,
			ID:        r.ID,
			Title:     r.Title,
			Relevance: round(r.Similarity, 3),
		}
		switch {
		case r.Story != nil:
			source.StoryType = r.Story.StoryType
			source.People = head(r.Story.People, sourcePeople)
		case r.Event != nil:
			source.EventType = r.Event.EventType
			if !r.Event.StartDate.IsZero() {
				source.Date = r.Event.StartDate.Format(dateLayout)
			}
		case r.Heritage != nil:
			source.HeritageType = r.Heritage.HeritageType
			source.Importance = r.Heritage.Importance
		case r.Health != nil:
			source.Person = r.Health.Person
			hereditary := r.Health.IsHereditary
			source.IsHereditary = &hereditary
		}
		sources = append(sources, source)
	}
	return sources
}

// Confidence scores an answer from the similarity of the results behind it:
// the mean of the top three plus 0.1 per result (at most 0.2), capped at 1.
func Confidence(results []core.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}

	top := head(results, 3)
	var sum float64
	for _, r := range top {
		sum += r.Similarity
	}
	boost := math.Min(0.1*float64(len(results)), 0.2)
	return math.Min(sum/float64(len(top))+boost, 1.0)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
