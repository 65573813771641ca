// Package content provides raw note access helpers shared by search,
// traversal, and mutation operations: reading note text, frontmatter
// stripping, and size formatting.
package content

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/storage"
)

// ReadNote returns the full text of the note at path. A missing note yields
// a NOTE_NOT_FOUND coded error, any other failure a READ_ERROR.
func ReadNote(store storage.Provider, path string) (string, error) {
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.NotFound(path, nil)
		}
		return "", apperr.Wrap(apperr.CodeReadError, fmt.Errorf("read %s: %w", path, err))
	}
	return string(data), nil
}

// ExtractFrontmatter returns the YAML block between a leading --- line and
// the next --- line, without the delimiters. ok is false when the text has
// no complete frontmatter block.
func ExtractFrontmatter(text string) (block string, ok bool) {
	trimmed := strings.TrimLeft(text, "\n\r")
	if !strings.HasPrefix(trimmed, "---") {
		return "", false
	}
	rest := trimmed[len("---"):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", false
	}
	return strings.Trim(rest[:idx], "\n\r"), true
}

// RemoveFrontmatter strips the leading frontmatter block from text.
// Applying it to already-stripped text is a no-op.
func RemoveFrontmatter(text string) string {
	body, found := splitAtFrontmatter(text)
	if !found {
		return text
	}
	return body
}

// splitAtFrontmatter returns the text after the frontmatter block, or the
// input unchanged when no complete block exists.
func splitAtFrontmatter(text string) (string, bool) {
	trimmed := strings.TrimLeft(text, "\n\r")
	if !strings.HasPrefix(trimmed, "---") {
		return text, false
	}
	rest := trimmed[len("---"):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return text, false
	}
	after := rest[idx+1+len("---"):]
	// Skip the remainder of the closing delimiter line.
	if nl := strings.IndexByte(after, '\n'); nl >= 0 {
		after = after[nl+1:]
	} else {
		after = ""
	}
	return strings.TrimLeft(after, "\n\r"), true
}

// FormatSize renders a byte count as a human-readable string with 1024
// thresholds.
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
