// Package parser extracts frontmatter, wikilinks, embeds, tags, and
// headings from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	embedRe    = regexp.MustCompile(`!\[\[(.*?)\]\]`)
	wikilinkRe = regexp.MustCompile(`(^|[^!])\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	headingRe  = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
	Embeds      []string
	Tags        []string
	Headings    []string
	Title       string
}

// Parse extracts frontmatter, body, links, embeds, tags, and headings from
// raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	links, embeds := extractLinks(body)
	tags := extractTags(body, fm)
	headings := extractHeadings(body)
	title := deriveTitle(fm, body)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       links,
		Embeds:      embeds,
		Tags:        tags,
		Headings:    headings,
		Title:       title,
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	// Find end delimiter.
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter — treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	// Body starts after closing delimiter line.
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML — return body only, no error.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractLinks returns deduplicated wikilink and embed targets, normalising
// aliases. Embeds (![[...]]) are kept separate from inline links.
func extractLinks(body string) (links, embeds []string) {
	seenLinks := make(map[string]struct{})
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		if target, ok := linkTarget(m[2]); ok {
			if _, dup := seenLinks[target]; !dup {
				seenLinks[target] = struct{}{}
				links = append(links, target)
			}
		}
	}
	seenEmbeds := make(map[string]struct{})
	for _, m := range embedRe.FindAllStringSubmatch(body, -1) {
		if target, ok := linkTarget(m[1]); ok {
			if _, dup := seenEmbeds[target]; !dup {
				seenEmbeds[target] = struct{}{}
				embeds = append(embeds, target)
			}
		}
	}
	return links, embeds
}

// linkTarget normalises a raw wikilink payload: aliases ([[Target|Alias]])
// and heading anchors ([[Target#Section]]) reduce to Target.
func linkTarget(raw string) (string, bool) {
	target := raw
	if i := strings.Index(target, "|"); i >= 0 {
		target = target[:i]
	}
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	target = strings.TrimSpace(target)
	return target, target != ""
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string

	// Tags from frontmatter.
	if fm != nil {
		if raw, ok := fm["tags"]; ok {
			switch v := raw.(type) {
			case []any:
				for _, item := range v {
					if s, ok := item.(string); ok {
						s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
						if s != "" {
							if _, dup := seen[s]; !dup {
								seen[s] = struct{}{}
								out = append(out, s)
							}
						}
					}
				}
			case string:
				for _, s := range strings.Fields(v) {
					s = strings.TrimPrefix(s, "#")
					if s != "" {
						if _, dup := seen[s]; !dup {
							seen[s] = struct{}{}
							out = append(out, s)
						}
					}
				}
			}
		}
	}

	// Inline #tags from body.
	matches := tagRe.FindAllStringSubmatch(body, -1)
	for _, m := range matches {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	return out
}

// extractHeadings returns the text of every Markdown heading in order.
func extractHeadings(body string) []string {
	var out []string
	for _, m := range headingRe.FindAllStringSubmatch(body, -1) {
		out = append(out, strings.TrimSpace(m[2]))
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
