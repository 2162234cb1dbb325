package kobo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mrlokans/kobohighlights/internal/entities"
)

// Positions of the catalog query columns. Subtitle, series, series number,
// rating, file size and source are returned by the query but not mapped.
const (
	catalogContentID = iota
	catalogTitle
	catalogSubtitle
	catalogAuthor
	catalogPublisher
	catalogISBN
	catalogReleaseDate
	catalogSeries
	catalogSeriesNumber
	catalogRating
	catalogReadPercent
	catalogLastRead
)

// Positions of the highlight query columns.
const (
	highlightText = iota
	highlightAnnotation
)

const timestampLayout = "2006-01-02 15:04:05"

// MapCatalogRows turns catalog query rows into books, one per row and in order.
// Short rows are tolerated: missing columns become empty strings.
func MapCatalogRows(rows [][]any) []entities.Book {
	books := make([]entities.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, entities.Book{
			ContentID:   column(row, catalogContentID),
			Title:       column(row, catalogTitle),
			Author:      column(row, catalogAuthor),
			Publisher:   column(row, catalogPublisher),
			ISBN:        column(row, catalogISBN),
			ReleaseDate: column(row, catalogReleaseDate),
			ReadPercent: column(row, catalogReadPercent),
			LastRead:    column(row, catalogLastRead),
		})
	}
	return books
}

// MapHighlightRows turns highlight query rows into highlights, dropping rows
// without text. A missing annotation becomes an empty string.
func MapHighlightRows(rows [][]any) []entities.Highlight {
	highlights := make([]entities.Highlight, 0, len(rows))
	for _, row := range rows {
		text := column(row, highlightText)
		if text == "" {
			continue
		}
		highlights = append(highlights, entities.Highlight{
			HighlightText: text,
			Annotation:    column(row, highlightAnnotation),
		})
	}
	return highlights
}

func column(row []any, index int) string {
	if index >= len(row) {
		return ""
	}
	return stringValue(row[index])
}

// stringValue renders a value from the engine boundary as text.
func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(timestampLayout)
	default:
		return fmt.Sprint(v)
	}
}
