// Package snippet produces bounded-length excerpts of note content,
// centered on a search term when one matches.
package snippet

import "strings"

// Extract returns an excerpt of text at most maxLength characters long
// (plus leading/trailing ellipsis markers). When term matches
// case-insensitively, the window is centered on the first occurrence and
// every occurrence inside the window is wrapped in ** markers. With no
// match (or an empty term) the head of the text is returned instead.
func Extract(text, term string, maxLength int) string {
	if text == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = 150
	}

	lower := strings.ToLower(text)
	lowerTerm := strings.ToLower(term)

	idx := -1
	if lowerTerm != "" {
		idx = strings.Index(lower, lowerTerm)
	}
	if idx < 0 {
		return head(text, maxLength)
	}

	start := idx - maxLength/2
	if start < 0 {
		start = 0
	}
	end := start + maxLength
	if end > len(text) {
		end = len(text)
	}

	window := highlight(text[start:end], term)
	if start > 0 {
		window = "..." + window
	}
	if end < len(text) {
		window += "..."
	}
	return window
}

// head returns the first maxLength characters, trimmed, with a trailing
// ellipsis when the text was truncated.
func head(text string, maxLength int) string {
	if len(text) <= maxLength {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:maxLength]) + "..."
}

// highlight wraps every case-insensitive occurrence of term in ** markers.
func highlight(window, term string) string {
	if term == "" {
		return window
	}
	lower := strings.ToLower(window)
	lowerTerm := strings.ToLower(term)

	var b strings.Builder
	pos := 0
	for {
		i := strings.Index(lower[pos:], lowerTerm)
		if i < 0 {
			b.WriteString(window[pos:])
			return b.String()
		}
		i += pos
		b.WriteString(window[pos:i])
		b.WriteString("**")
		b.WriteString(window[i : i+len(term)])
		b.WriteString("**")
		pos = i + len(term)
	}
}
