package exporters

import (
	"sort"
	"sync"

	"github.com/mrlokans/kobohighlights/internal/entities"
)

// Format is a named renderer for a book's highlights.
type Format struct {
	Name      string
	Extension string
	MIMEType  string
	Render    func(highlights []entities.Highlight) string
}

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

var (
	formatsMu sync.RWMutex
	formats   = map[string]Format{}
)

func init() {
	Register(Format{Name: FormatMarkdown, Extension: ".md", MIMEType: "text/markdown; charset=utf-8", Render: ToMarkdown})
	Register(Format{Name: FormatJSON, Extension: ".json", MIMEType: "application/json; charset=utf-8", Render: ToJSON})
}

// Register adds a format. A later registration with the same name wins.
func Register(format Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[format.Name] = format
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	format, ok := formats[name]
	return format, ok
}

// Names returns the registered format names in alphabetical order.
func Names() []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
