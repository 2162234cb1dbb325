package exporters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/kobohighlights/internal/entities"
)

// --- Formatter Tests ---

func TestToMarkdown(t *testing.T) {
	tests := []struct {
		name       string
		highlights []entities.Highlight
		expected   string
	}{
		{
			name:       "empty",
			highlights: nil,
			expected:   "",
		},
		{
			name:       "without annotation",
			highlights: []entities.Highlight{{HighlightText: "A"}},
			expected:   "### A\n\n",
		},
		{
			name:       "with annotation",
			highlights: []entities.Highlight{{HighlightText: "A", Annotation: "note"}},
			expected:   "### A\n> note\n\n",
		},
		{
			name: "keeps order and mixes both forms",
			highlights: []entities.Highlight{
				{HighlightText: "First", Annotation: "n1"},
				{HighlightText: "Second"},
				{HighlightText: "Third", Annotation: "n3"},
			},
			expected: "### First\n> n1\n\n### Second\n\n### Third\n> n3\n\n",
		},
		{
			name:       "passes markdown through verbatim",
			highlights: []entities.Highlight{{HighlightText: "*bold* # [link](x)", Annotation: "> nested"}},
			expected:   "### *bold* # [link](x)\n> > nested\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToMarkdown(tt.highlights))
		})
	}
}

func TestToJSON(t *testing.T) {
	tests := []struct {
		name       string
		highlights []entities.Highlight
		expected   string
	}{
		{
			name:       "nil",
			highlights: nil,
			expected:   "[]",
		},
		{
			name:       "empty",
			highlights: []entities.Highlight{},
			expected:   "[]",
		},
		{
			name:       "single without annotation",
			highlights: []entities.Highlight{{HighlightText: "A"}},
			expected:   `[{"highlightText":"A","annotation":""}]`,
		},
		{
			name: "order and escaping",
			highlights: []entities.Highlight{
				{HighlightText: `say "hi" <now> & then`, Annotation: "x"},
				{HighlightText: "line\nbreak"},
			},
			expected: `[{"highlightText":"say \"hi\" <now> & then","annotation":"x"},{"highlightText":"line\nbreak","annotation":""}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToJSON(tt.highlights))
		})
	}
}

func TestFormatters_Idempotent(t *testing.T) {
	highlights := []entities.Highlight{{HighlightText: "A", Annotation: "note"}, {HighlightText: "B"}}

	assert.Equal(t, ToMarkdown(highlights), ToMarkdown(highlights))
	assert.Equal(t, ToJSON(highlights), ToJSON(highlights))
	assert.Equal(t, []entities.Highlight{{HighlightText: "A", Annotation: "note"}, {HighlightText: "B"}}, highlights)
}

// --- Registry Tests ---

func TestRegistry(t *testing.T) {
	t.Run("built-in formats", func(t *testing.T) {
		markdown, ok := Lookup(FormatMarkdown)
		require.True(t, ok)
		assert.Equal(t, ".md", markdown.Extension)
		assert.Equal(t, "### A\n\n", markdown.Render([]entities.Highlight{{HighlightText: "A"}}))

		jsonFormat, ok := Lookup(FormatJSON)
		require.True(t, ok)
		assert.Equal(t, ".json", jsonFormat.Extension)
		assert.Contains(t, jsonFormat.MIMEType, "application/json")
		assert.Equal(t, "[]", jsonFormat.Render(nil))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, ok := Lookup("docx")
		assert.False(t, ok)
	})

	t.Run("register adds a sorted name", func(t *testing.T) {
		Register(Format{Name: "plain", Extension: ".txt", MIMEType: "text/plain", Render: func(h []entities.Highlight) string {
			return "plain"
		}})
		t.Cleanup(func() {
			formatsMu.Lock()
			delete(formats, "plain")
			formatsMu.Unlock()
		})

		assert.Equal(t, []string{"json", "markdown", "plain"}, Names())
	})
}

// --- File Export Tests ---

func freezeTime(t *testing.T) {
	t.Helper()
	fixed := time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })
}

func splitFrontMatter(t *testing.T, content string) (frontMatter, string) {
	t.Helper()
	require.True(t, strings.HasPrefix(content, "---\n"))
	rest := strings.TrimPrefix(content, "---\n")
	header, body, found := strings.Cut(rest, "---\n\n")
	require.True(t, found)

	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(header), &fm))
	return fm, body
}

func TestWriteBookFile(t *testing.T) {
	freezeTime(t)
	dir := t.TempDir()

	book := entities.Book{ContentID: "book-1", Title: `Dune: "Messiah"`, Author: "Frank Herbert", ISBN: "978"}
	highlights := []entities.Highlight{{HighlightText: "A", Annotation: "note"}, {HighlightText: "B"}}

	path, err := WriteBookFile(dir, book, highlights, "abc123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Dune Messiah.md"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	fm, body := splitFrontMatter(t, string(content))
	assert.Equal(t, frontMatter{
		Title:             `Dune: "Messiah"`,
		Author:            "Frank Herbert",
		ISBN:              "978",
		ContentID:         "book-1",
		SourceFingerprint: "abc123",
		ExportedAt:        "2024-06-15T14:30:00Z",
	}, fm)
	assert.Equal(t, ToMarkdown(highlights), body)
}

func TestWriteBookFile_MissingDirectory(t *testing.T) {
	_, err := WriteBookFile(filepath.Join(t.TempDir(), "missing"), entities.Book{Title: "X"}, nil, "")
	assert.Error(t, err)
}

type fakeLibrary struct {
	books      []entities.Book
	highlights map[string][]entities.Highlight
	failing    map[string]bool
	catalogErr error
}

func (f *fakeLibrary) Catalog(context.Context) ([]entities.Book, error) {
	return f.books, f.catalogErr
}

func (f *fakeLibrary) Highlights(_ context.Context, contentID string) ([]entities.Highlight, error) {
	if f.failing[contentID] {
		return nil, errors.New("query failed")
	}
	return f.highlights[contentID], nil
}

func (f *fakeLibrary) Fingerprint() string {
	return "fp"
}

func TestExportLibrary(t *testing.T) {
	freezeTime(t)

	library := &fakeLibrary{
		books: []entities.Book{
			{ContentID: "1", Title: "Dune"},
			{ContentID: "2", Title: "Empty"},
			{ContentID: "3", Title: "Broken"},
			{ContentID: "4", Title: "dune"},
		},
		highlights: map[string][]entities.Highlight{
			"1": {{HighlightText: "A"}, {HighlightText: "B"}},
			"4": {{HighlightText: "C"}},
		},
		failing: map[string]bool{"3": true},
	}

	dir := filepath.Join(t.TempDir(), "export")
	result, err := ExportLibrary(context.Background(), library, dir)
	require.NoError(t, err)

	assert.Equal(t, ExportResult{BooksProcessed: 2, HighlightsProcessed: 3, BooksSkipped: 1, BooksFailed: 1}, result)
	assert.FileExists(t, filepath.Join(dir, "Dune.md"))
	assert.FileExists(t, filepath.Join(dir, "dune (2).md"))
	assert.NoFileExists(t, filepath.Join(dir, "Empty.md"))

	content, err := os.ReadFile(filepath.Join(dir, "dune (2).md"))
	require.NoError(t, err)
	fm, body := splitFrontMatter(t, string(content))
	assert.Equal(t, "4", fm.ContentID)
	assert.Equal(t, "fp", fm.SourceFingerprint)
	assert.Equal(t, "### C\n\n", body)
}

func TestExportLibrary_CatalogError(t *testing.T) {
	library := &fakeLibrary{catalogErr: errors.New("boom")}

	_, err := ExportLibrary(context.Background(), library, t.TempDir())
	assert.Error(t, err)
}

func TestExportLibrary_Cancelled(t *testing.T) {
	library := &fakeLibrary{
		books:      []entities.Book{{ContentID: "1", Title: "Dune"}},
		highlights: map[string][]entities.Highlight{"1": {{HighlightText: "A"}}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExportLibrary(ctx, library, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUniqueFilename(t *testing.T) {
	used := map[string]bool{}

	assert.Equal(t, "A.md", uniqueFilename(used, "A.md"))
	assert.Equal(t, "A (2).md", uniqueFilename(used, "A.md"))
	assert.Equal(t, "a (3).md", uniqueFilename(used, "a.md"))
	assert.Equal(t, "A (2) (2).md", uniqueFilename(used, "A (2).md"))
}
