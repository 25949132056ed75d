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

package search

import (
	"github.com/poiesic/kinfolk/core"
)

const (
	maxContentRunes = 200
	maxPeople       = 3
)

// FormatResult converts a record into a search result with its kind's metadata.
func FormatResult(record core.Record, similarity float64) core.SearchResult {
	title, body := core.TitleAndBody(record)
	result := core.SearchResult{
		ID:          record.RecordID(),
		ContentType: record.Kind(),
		Title:       title,
		Content:     truncate(body, maxContentRunes),
		Similarity:  similarity,
		CreatedAt:   record.Created(),
	}

	switch r := record.(type) {
	case *core.Story:
		result.Story = &core.StoryMeta{
			StoryType:    r.StoryType,
			DateOccurred: r.DateOccurred,
			People:       head(r.People, maxPeople),
		}
	case *core.Event:
		result.Event = &core.EventMeta{
			EventType:    r.EventType,
			StartDate:    r.StartDate,
			Location:     r.Location,
			Participants: head(r.Participants, maxPeople),
		}
	case *core.Heritage:
		result.Heritage = &core.HeritageMeta{
			HeritageType: r.HeritageType,
			Importance:   r.Importance,
			OriginPerson: r.OriginPerson,
		}
	case *core.Health:
		result.Health = &core.HealthMeta{
			RecordType:   r.RecordType,
			Person:       r.Person,
			Date:         r.Date,
			IsHereditary: r.IsHereditary,
		}
	}
	return result
}

// truncate shortens s to max runes followed by "..." when it is longer.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n:n]
	}
	return items
}
