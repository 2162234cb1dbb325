package exporters

import (
	"context"

	"github.com/mrlokans/kobohighlights/internal/entities"
)

// Library is a loaded device database that books and highlights can be read from.
type Library interface {
	Catalog(ctx context.Context) ([]entities.Book, error)
	Highlights(ctx context.Context, contentID string) ([]entities.Highlight, error)
	Fingerprint() string
}

type ExportResult struct {
	BooksProcessed      int `json:"books_processed"`
	HighlightsProcessed int `json:"highlights_processed"`
	BooksSkipped        int `json:"books_skipped"`
	BooksFailed         int `json:"books_failed"`
}
