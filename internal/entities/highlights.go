package entities

import "strings"

// ContentTypeBook is the Kobo content type code for full e-books.
// Chapters, previews and other entries in the content table use other codes.
const ContentTypeBook = 6

// Source classifies how a book ended up on the device.
type Source string

const (
	SourceStore   Source = "Store"
	SourceImport  Source = "Import"
	SourcePreview Source = "Preview"
	SourceOther   Source = "Other"
)

// Book is one catalog entry of a loaded device database.
type Book struct {
	ContentID   string `json:"contentId"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Publisher   string `json:"publisher"`
	ISBN        string `json:"isbn"`
	ReleaseDate string `json:"releaseDate"` // YYYY-MM-DD or empty
	ReadPercent string `json:"readPercent"` // numeric as string, "0" when unknown
	LastRead    string `json:"lastRead"`    // YYYY-MM-DD HH:MM:SS or empty
}

// BookDisplay holds the presentation values shown in catalog listings.
type BookDisplay struct {
	ReleaseDate string `json:"releaseDate"`
	ReadPercent string `json:"readPercent"`
	LastRead    string `json:"lastRead"`
}

// Display formats the book for listings: dates use "/" as separator,
// the read percentage carries a " %" suffix and a missing last read is "-".
func (b Book) Display() BookDisplay {
	return BookDisplay{
		ReleaseDate: strings.ReplaceAll(b.ReleaseDate, "-", "/"),
		ReadPercent: b.ReadPercent + " %",
		LastRead:    displayLastRead(b.LastRead),
	}
}

func displayLastRead(lastRead string) string {
	datePart, _, _ := strings.Cut(lastRead, " ")
	if datePart == "" {
		return "-"
	}
	return strings.ReplaceAll(datePart, "-", "/")
}

// Highlight is a single highlighted passage with its optional annotation.
// Field order matters: JSON exports emit highlightText before annotation.
type Highlight struct {
	HighlightText string `json:"highlightText"`
	Annotation    string `json:"annotation"`
}

// HasAnnotation reports whether the user attached a note to the passage.
func (h Highlight) HasAnnotation() bool {
	return h.Annotation != ""
}
