package exporters

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/mrlokans/kobohighlights/internal/entities"
)

// ToMarkdown renders highlights as a heading per passage, each followed by
// the quoted annotation or a single blank line. Text is passed through verbatim.
func ToMarkdown(highlights []entities.Highlight) string {
	var builder strings.Builder

	for _, highlight := range highlights {
		builder.WriteString("### ")
		builder.WriteString(highlight.HighlightText)
		builder.WriteString("\n")
		if highlight.HasAnnotation() {
			builder.WriteString("> ")
			builder.WriteString(highlight.Annotation)
			builder.WriteString("\n\n")
		} else {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// ToJSON renders highlights as a compact JSON array of
// {"highlightText", "annotation"} objects. An empty input yields "[]".
func ToJSON(highlights []entities.Highlight) string {
	if len(highlights) == 0 {
		return "[]"
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	// Highlight only holds strings, encoding cannot fail.
	_ = encoder.Encode(highlights)

	return strings.TrimSuffix(buf.String(), "\n")
}
