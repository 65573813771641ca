// Package graph implements the note relationship traversal engine: direct
// and transitive outlinks/backlinks with bounded-depth breadth-first
// expansion and a single visited set shared across both directions.
package graph

import (
	"log/slog"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/content"
	"github.com/nordvik/grimoire/internal/index"
	"github.com/nordvik/grimoire/internal/models"
	"github.com/nordvik/grimoire/internal/snippet"
	"github.com/nordvik/grimoire/internal/storage"
)

// Depth bounds for transitive traversal.
const (
	MinDepth = 1
	MaxDepth = 3
)

// DefaultSnippetLength bounds neighbor snippets when none is requested.
const DefaultSnippetLength = 150

// unreadablePlaceholder stands in for a neighbor snippet whose content
// could not be read.
const unreadablePlaceholder = "[content unavailable]"

// Resolver is the read-only view of the link table the engine traverses.
// *index.DB satisfies it.
type Resolver interface {
	ResolveLink(token, from string) (string, bool)
	Outlinks(source string) ([]index.LinkRow, error)
	Backlinks(target string) ([]string, error)
	GetNote(path string) (*index.NoteRow, error)
	AllPaths() (map[string]struct{}, error)
}

// Options configures one traversal call.
type Options struct {
	Depth            int // 1..3
	IncludeSnippets  bool
	MaxSnippetLength int // 0 means DefaultSnippetLength
}

// Result groups neighbors by direction and distance. Transitive sets are
// only present for Depth > 1 and are mutually exclusive with the direct
// sets and with each other.
type Result struct {
	Path                string               `json:"path"`
	DirectOutlinks      []models.RelatedNote `json:"direct_outlinks"`
	DirectBacklinks     []models.RelatedNote `json:"direct_backlinks"`
	TransitiveOutlinks  []models.RelatedNote `json:"transitive_outlinks,omitempty"`
	TransitiveBacklinks []models.RelatedNote `json:"transitive_backlinks,omitempty"`
}

// Engine traverses the vault link graph.
type Engine struct {
	store  storage.Provider
	links  Resolver
	logger *slog.Logger
}

// New creates a traversal engine over the given link table view.
func New(store storage.Provider, links Resolver, logger *slog.Logger) *Engine {
	return &Engine{store: store, links: links, logger: logger}
}

// Related computes the direct and transitive neighbors of the note at path.
// The traversal never revisits a node: one visited set is seeded with the
// origin and every direct neighbor, then shared by the breadth-first
// expansion of both directions. Self-links are absorbed by the seeding.
func (e *Engine) Related(path string, opts Options) (*Result, error) {
	depth := opts.Depth
	if depth < MinDepth || depth > MaxDepth {
		return nil, apperr.Newf(apperr.CodeInvalidParameter,
			"depth must be between %d and %d, got %d", MinDepth, MaxDepth, depth)
	}

	if _, err := e.links.GetNote(path); err != nil {
		return nil, apperr.NotFound(path, e.Suggest(path))
	}

	visited := map[string]struct{}{path: {}}

	directOut := e.outNeighbors(path)
	directBack := e.backNeighbors(path)

	// Seed every direct neighbor before any expansion so the transitive
	// sets exclude them and the origin.
	outFrontier := seed(visited, path, directOut)
	backFrontier := seed(visited, path, directBack)

	res := &Result{
		Path:            path,
		DirectOutlinks:  e.emit(outFrontier, opts),
		DirectBacklinks: e.emit(backFrontier, opts),
	}

	if depth > 1 {
		res.TransitiveOutlinks = e.emit(e.expand(outFrontier, visited, depth-1, e.outNeighbors), opts)
		res.TransitiveBacklinks = e.emit(e.expand(backFrontier, visited, depth-1, e.backNeighbors), opts)
	}

	return res, nil
}

// seed marks neighbors as visited and returns those not seen before,
// dropping the origin and duplicates.
func seed(visited map[string]struct{}, origin string, neighbors []string) []string {
	var out []string
	for _, n := range neighbors {
		if n == origin {
			continue
		}
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// expand runs levels of breadth-first expansion from frontier, collecting
// every newly discovered node. The shared visited set guarantees a node
// discovered by one direction is never re-emitted by the other.
func (e *Engine) expand(frontier []string, visited map[string]struct{}, levels int, neighbors func(string) []string) []string {
	var discovered []string
	for level := 0; level < levels && len(frontier) > 0; level++ {
		var next []string
		for _, node := range frontier {
			for _, n := range neighbors(node) {
				if _, ok := visited[n]; ok {
					continue
				}
				visited[n] = struct{}{}
				next = append(next, n)
			}
		}
		discovered = append(discovered, next...)
		frontier = next
	}
	return discovered
}

// outNeighbors resolves the union of a note's inline links and embeds,
// deduplicated by destination path. Unresolvable tokens are dropped.
func (e *Engine) outNeighbors(path string) []string {
	rows, err := e.links.Outlinks(path)
	if err != nil {
		e.logger.Warn("graph: outlinks failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	seen := make(map[string]struct{}, len(rows))
	var out []string
	for _, l := range rows {
		resolved, ok := e.links.ResolveLink(l.Target, path)
		if !ok {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	}
	return out
}

// backNeighbors returns every source note linking to path.
func (e *Engine) backNeighbors(path string) []string {
	sources, err := e.links.Backlinks(path)
	if err != nil {
		e.logger.Warn("graph: backlinks failed", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return sources
}

// emit builds the output records for a set of paths, enriching each with a
// snippet when requested. A neighbor whose content cannot be read gets a
// placeholder snippet instead of failing the call.
func (e *Engine) emit(paths []string, opts Options) []models.RelatedNote {
	out := make([]models.RelatedNote, 0, len(paths))
	for _, p := range paths {
		rn := models.RelatedNote{Path: p, Title: e.title(p)}
		if opts.IncludeSnippets {
			rn.Snippet = e.snippetFor(p, opts.MaxSnippetLength)
		}
		out = append(out, rn)
	}
	return out
}

func (e *Engine) title(path string) string {
	if n, err := e.links.GetNote(path); err == nil && n.Title != "" {
		return n.Title
	}
	return models.Basename(path)
}

func (e *Engine) snippetFor(path string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultSnippetLength
	}
	text, err := content.ReadNote(e.store, path)
	if err != nil {
		e.logger.Warn("graph: snippet read failed", slog.String("path", path), slog.String("error", err.Error()))
		return unreadablePlaceholder
	}
	return snippet.Extract(content.RemoveFrontmatter(text), "", maxLength)
}
