package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxFilenameLength = 200

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a book title into a file name usable on any desktop
// filesystem and inside Markdown vaults. The result is NFC-normalized so titles
// coming from differently encoded devices map to the same file.
func SanitizeFilename(filename string) string {
	filename = norm.NFC.String(filename)

	// Line breaks and tabs become spaces before control characters are dropped.
	filename = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(filename)
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// Markdown link and tag syntax
	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")

	// Hidden files
	filename = strings.TrimLeft(filename, ".")

	filename = truncateRunes(filename, maxFilenameLength)

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// truncateRunes cuts s to at most max bytes without splitting a character.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max {
			break
		}
		cut = i
	}
	return strings.TrimSpace(s[:cut])
}
