package exporters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mrlokans/kobohighlights/internal/entities"
	"github.com/mrlokans/kobohighlights/internal/utils"
)

// now is replaced in tests.
var now = time.Now

type frontMatter struct {
	Title             string `yaml:"title"`
	Author            string `yaml:"author"`
	ISBN              string `yaml:"isbn,omitempty"`
	ContentID         string `yaml:"content_id"`
	SourceFingerprint string `yaml:"source_fingerprint,omitempty"`
	ExportedAt        string `yaml:"exported_at"`
}

// GenerateMarkdown returns the file contents for a book: YAML front matter
// followed by exactly ToMarkdown(highlights).
func GenerateMarkdown(book entities.Book, highlights []entities.Highlight, fingerprint string) (string, error) {
	header, err := yaml.Marshal(frontMatter{
		Title:             book.Title,
		Author:            book.Author,
		ISBN:              book.ISBN,
		ContentID:         book.ContentID,
		SourceFingerprint: fingerprint,
		ExportedAt:        now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("---\n")
	builder.Write(header)
	builder.WriteString("---\n\n")
	builder.WriteString(ToMarkdown(highlights))

	return builder.String(), nil
}

// BookFilename returns the file name a book is exported under.
func BookFilename(book entities.Book) string {
	return utils.SanitizeFilename(book.Title) + ".md"
}

// WriteBookFile writes the Markdown export of one book into dir and returns its path.
// The directory must exist.
func WriteBookFile(dir string, book entities.Book, highlights []entities.Highlight, fingerprint string) (string, error) {
	path := filepath.Join(dir, BookFilename(book))
	if err := writeBookFile(path, book, highlights, fingerprint); err != nil {
		return "", err
	}
	return path, nil
}

func writeBookFile(path string, book entities.Book, highlights []entities.Highlight, fingerprint string) error {
	content, err := GenerateMarkdown(book, highlights, fingerprint)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ExportLibrary writes one Markdown file per catalog book that has highlights.
// Books whose highlights cannot be read or written are counted as failed and
// the export continues. Books sharing a title get numbered file names.
func ExportLibrary(ctx context.Context, library Library, dir string) (ExportResult, error) {
	result := ExportResult{}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create export directory: %w", err)
	}

	books, err := library.Catalog(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read catalog: %w", err)
	}

	fingerprint := library.Fingerprint()
	used := make(map[string]bool, len(books))

	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		highlights, err := library.Highlights(ctx, book.ContentID)
		if err != nil {
			log.Error().Err(err).Str("content_id", book.ContentID).Msg("Failed to read highlights")
			result.BooksFailed++
			continue
		}
		if len(highlights) == 0 {
			result.BooksSkipped++
			continue
		}

		path := filepath.Join(dir, uniqueFilename(used, BookFilename(book)))
		if err := writeBookFile(path, book, highlights, fingerprint); err != nil {
			log.Error().Err(err).Str("title", book.Title).Msg("Failed to export book")
			result.BooksFailed++
			continue
		}

		result.BooksProcessed++
		result.HighlightsProcessed += len(highlights)
		log.Debug().Str("title", book.Title).Str("path", path).Int("highlights", len(highlights)).Msg("Exported book")
	}

	log.Info().
		Int("books_processed", result.BooksProcessed).
		Int("highlights_processed", result.HighlightsProcessed).
		Int("books_skipped", result.BooksSkipped).
		Int("books_failed", result.BooksFailed).
		Msg("Export completed")

	return result, nil
}

// uniqueFilename returns name, or "name (n).md" when name was already used.
func uniqueFilename(used map[string]bool, name string) string {
	base := strings.TrimSuffix(name, ".md")
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d).md", base, n)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
