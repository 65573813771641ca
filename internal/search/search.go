// Package search implements relevance-scored full-text search over the
// vault: title-match tiers plus content-occurrence counts, with optional
// folder and tag filtering.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/content"
	"github.com/nordvik/grimoire/internal/index"
	"github.com/nordvik/grimoire/internal/models"
	"github.com/nordvik/grimoire/internal/snippet"
	"github.com/nordvik/grimoire/internal/storage"
)

// Title-match score tiers and content-occurrence weighting.
const (
	scoreExactTitle   = 100
	scorePartialTitle = 50
	scoreTitleWord    = 25
	scorePerMatch     = 5
	scoreMatchCap     = 50
)

// DefaultLimit caps results when the caller does not set one.
const DefaultLimit = 10

const snippetLength = 150

// Options filters and shapes one search call.
type Options struct {
	Folder string // restrict to notes whose path starts with Folder
	Tag    string // restrict to notes carrying the tag (leading # optional)
	Limit  int    // 0 means DefaultLimit
	SortBy string // relevance (default) | modified | created | title
}

// Result is one scored search hit. Score is a ranking key only; it is not
// part of the serialized record.
type Result struct {
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Snippet  string    `json:"snippet"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Size     string    `json:"size"`
	Score    int       `json:"-"`
}

// Searcher ranks vault notes against queries.
type Searcher struct {
	store  storage.Provider
	idx    index.NoteIndex
	logger *slog.Logger
}

// New creates a Searcher over the given store and index.
func New(store storage.Provider, idx index.NoteIndex, logger *slog.Logger) *Searcher {
	return &Searcher{store: store, idx: idx, logger: logger}
}

// Search scores every candidate note against query and returns the ordered,
// limited result set plus the total number of matches before the limit.
// Notes whose content cannot be read are logged and skipped.
func (s *Searcher) Search(query string, opts Options) ([]Result, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, apperr.New(apperr.CodeMissingParameter, "query is required")
	}

	candidates, err := s.idx.ListAll()
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.CodeSearchError, err)
	}

	lowerQuery := strings.ToLower(query)
	wantTag := normalizeTag(opts.Tag)

	var results []Result
	for _, n := range candidates {
		if opts.Folder != "" && !strings.HasPrefix(n.Path, opts.Folder) {
			continue
		}
		if wantTag != "" && !hasTag(n.Tags, wantTag) {
			continue
		}

		text, err := content.ReadNote(s.store, n.Path)
		if err != nil {
			s.logger.Warn("search: read failed", slog.String("path", n.Path), slog.String("error", err.Error()))
			continue
		}
		body := content.RemoveFrontmatter(text)

		occurrences := countOccurrences(strings.ToLower(body), lowerQuery)
		score := titleScore(n, lowerQuery)
		if occurrences > 0 {
			bonus := occurrences * scorePerMatch
			if bonus > scoreMatchCap {
				bonus = scoreMatchCap
			}
			score += bonus
		}
		if score == 0 {
			continue
		}

		results = append(results, Result{
			Path:     n.Path,
			Title:    displayTitle(n),
			Snippet:  snippet.Extract(body, query, snippetLength),
			Created:  n.CreatedAt,
			Modified: n.UpdatedAt,
			Size:     content.FormatSize(n.Size),
			Score:    score,
		})
	}

	sortResults(results, opts.SortBy)

	total := len(results)
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}

// titleScore applies the tiered name match: exact beats partial
// containment beats a word-level substring hit. The basename and the
// display title are scored separately and the better tier wins, so a note
// named for the query ranks first even when its heading says otherwise.
func titleScore(n index.NoteRow, lowerQuery string) int {
	score := tierScore(strings.ToLower(n.Basename), lowerQuery)
	if s := tierScore(strings.ToLower(displayTitle(n)), lowerQuery); s > score {
		score = s
	}
	return score
}

func tierScore(name, lowerQuery string) int {
	switch {
	case name == lowerQuery:
		return scoreExactTitle
	case strings.Contains(name, lowerQuery):
		return scorePartialTitle
	}
	for _, word := range strings.Fields(name) {
		if strings.Contains(word, lowerQuery) {
			return scoreTitleWord
		}
	}
	return 0
}

// countOccurrences counts non-overlapping occurrences of term in text.
// Both arguments must already be lowercased.
func countOccurrences(text, term string) int {
	if term == "" {
		return 0
	}
	return strings.Count(text, term)
}

func sortResults(results []Result, sortBy string) {
	switch sortBy {
	case "modified":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Modified.After(results[j].Modified)
		})
	case "created":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Created.After(results[j].Created)
		})
	case "title":
		sort.SliceStable(results, func(i, j int) bool {
			return models.Basename(results[i].Path) < models.Basename(results[j].Path)
		})
	default: // relevance
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}
}

func displayTitle(n index.NoteRow) string {
	if n.Title != "" {
		return n.Title
	}
	return models.Basename(n.Path)
}

// normalizeTag strips a leading # so callers may pass either form.
func normalizeTag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.TrimPrefix(t, "#") == want {
			return true
		}
	}
	return false
}
