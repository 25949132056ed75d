package search

import (
	"strings"
	"testing"
	"time"

	"github.com/poiesic/kinfolk/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatResult(t *testing.T) {
	date := time.Date(1998, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("story", func(t *testing.T) {
		story := &core.Story{ID: 1, Title: "Dumplings", Content: "Short", StoryType: "memory", People: []string{"a", "b"}}
		result := FormatResult(story, 0.91)
		assert.Equal(t, core.ID(1), result.ID)
		assert.Equal(t, "Dumplings", result.Title)
		assert.Equal(t, "Short", result.Content)
		assert.Equal(t, 0.91, result.Similarity)
		require.NotNil(t, result.Story)
		assert.Equal(t, "memory", result.Story.StoryType)
		assert.Nil(t, result.Event)
	})

	t.Run("event", func(t *testing.T) {
		event := &core.Event{Name: "Reunion", EventType: "reunion", Location: "Lake", StartDate: date, Participants: []string{"a", "b", "c", "d", "e"}}
		result := FormatResult(event, 0.5)
		require.NotNil(t, result.Event)
		assert.Equal(t, "Lake", result.Event.Location)
		assert.Equal(t, []string{"a", "b", "c"}, result.Event.Participants)
		assert.Len(t, event.Participants, 5)
	})

	t.Run("heritage", func(t *testing.T) {
		result := FormatResult(&core.Heritage{Title: "Tea", HeritageType: "tradition", Importance: "high", OriginPerson: "Great-grandma"}, 0.5)
		require.NotNil(t, result.Heritage)
		assert.Equal(t, "Great-grandma", result.Heritage.OriginPerson)
	})

	t.Run("health", func(t *testing.T) {
		result := FormatResult(&core.Health{Title: "Diabetes", Person: "Grandpa", IsHereditary: true, Date: date}, 0.5)
		require.NotNil(t, result.Health)
		assert.True(t, result.Health.IsHereditary)
		assert.Equal(t, "Grandpa", result.Health.Person)
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"short", "hello", "hello"},
		{"exactly max", strings.Repeat("a", 200), strings.Repeat("a", 200)},
		{"long", strings.Repeat("a", 201), strings.Repeat("a", 200) + "..."},
		{"multibyte", strings.Repeat("饺", 250), strings.Repeat("饺", 200) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.input, maxContentRunes))
		})
	}
}
