package kobo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/kobohighlights/internal/entities"
)

func TestMapCatalogRows(t *testing.T) {
	t.Run("maps every row in order and drops unused columns", func(t *testing.T) {
		rows := [][]any{
			{"id-1", "Dune", "Subtitle", "Frank Herbert", "Ace", "9780441013593", "1965-08-01",
				"Dune", "1", int64(5), int64(42), "2024-03-04 10:11:12", int64(1024), "Store"},
			{"id-2", "Emma", "", "Jane Austen", "", int64(0), "", "", int64(0), int64(0), int64(0), "", int64(0), "Import"},
		}

		books := MapCatalogRows(rows)

		assert.Equal(t, []entities.Book{
			{
				ContentID:   "id-1",
				Title:       "Dune",
				Author:      "Frank Herbert",
				Publisher:   "Ace",
				ISBN:        "9780441013593",
				ReleaseDate: "1965-08-01",
				ReadPercent: "42",
				LastRead:    "2024-03-04 10:11:12",
			},
			{
				ContentID:   "id-2",
				Title:       "Emma",
				Author:      "Jane Austen",
				ISBN:        "0",
				ReadPercent: "0",
			},
		}, books)
	})

	t.Run("tolerates missing trailing columns", func(t *testing.T) {
		books := MapCatalogRows([][]any{{"id-1", "Dune"}})

		assert.Len(t, books, 1)
		assert.Equal(t, "id-1", books[0].ContentID)
		assert.Equal(t, "Dune", books[0].Title)
		assert.Equal(t, "", books[0].ReadPercent)
		assert.Equal(t, "", books[0].LastRead)
	})

	t.Run("never skips rows", func(t *testing.T) {
		books := MapCatalogRows([][]any{{}, {nil, nil}})
		assert.Len(t, books, 2)
	})

	t.Run("empty input gives empty catalog", func(t *testing.T) {
		books := MapCatalogRows(nil)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		rows := [][]any{{"id-1", "Dune"}}
		MapCatalogRows(rows)
		assert.Equal(t, [][]any{{"id-1", "Dune"}}, rows)
	})
}

func TestMapHighlightRows(t *testing.T) {
	t.Run("drops rows without text", func(t *testing.T) {
		rows := [][]any{
			{"first", "note"},
			{nil, "orphan note"},
			{"", ""},
			{"second", nil},
			{"third"},
		}

		highlights := MapHighlightRows(rows)

		assert.Equal(t, []entities.Highlight{
			{HighlightText: "first", Annotation: "note"},
			{HighlightText: "second", Annotation: ""},
			{HighlightText: "third", Annotation: ""},
		}, highlights)
	})

	t.Run("all rows filtered gives empty slice", func(t *testing.T) {
		highlights := MapHighlightRows([][]any{{nil, "x"}, {"", nil}})
		assert.NotNil(t, highlights)
		assert.Empty(t, highlights)
	})

	t.Run("byte values are decoded", func(t *testing.T) {
		highlights := MapHighlightRows([][]any{{[]byte("bytes"), []byte("note")}})
		assert.Equal(t, "bytes", highlights[0].HighlightText)
		assert.Equal(t, "note", highlights[0].Annotation)
	})
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "text", "text"},
		{"bytes", []byte("raw"), "raw"},
		{"int64", int64(42), "42"},
		{"int", 7, "7"},
		{"float", 12.5, "12.5"},
		{"whole float", float64(3), "3"},
		{"bool", true, "true"},
		{"time", time.Date(2024, 3, 4, 10, 11, 12, 0, time.UTC), "2024-03-04 10:11:12"},
		{"zero time", time.Time{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringValue(tt.value))
		})
	}
}
