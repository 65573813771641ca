// Package mcpserver exposes the vault to external agents as MCP (Model
// Context Protocol) tools, served over stdio or mounted as a streamable
// HTTP handler.
package mcpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/graph"
	"github.com/nordvik/grimoire/internal/index"
	"github.com/nordvik/grimoire/internal/noteservice"
	"github.com/nordvik/grimoire/internal/search"
	"github.com/nordvik/grimoire/internal/storage"
	"github.com/nordvik/grimoire/internal/vaultops"
)

// Server wraps the MCP server with the Grimoire tool suite.
type Server struct {
	mcp      *server.MCPServer
	store    storage.Provider
	svc      *noteservice.Service
	searcher *search.Searcher
	engine   *graph.Engine
	ops      *vaultops.Ops
}

// New creates the MCP server with all tools registered.
func New(store storage.Provider, db *index.DB, logger *slog.Logger) *Server {
	s := &Server{
		store:    store,
		svc:      noteservice.NewService(store, db),
		searcher: search.New(store, db, logger),
		engine:   graph.New(store, db, logger),
		ops:      vaultops.New(store),
	}

	s.mcp = server.NewMCPServer(
		"Grimoire",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Relevance-ranked full-text search through note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("folder", mcp.Description("Restrict results to notes under this folder")),
		mcp.WithString("tag", mcp.Description("Restrict results to notes carrying this tag (leading # optional)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		mcp.WithString("sort_by", mcp.Description("Sort order: relevance (default), modified, created, or title")),
	), handle(apperr.CodeSearchError, s.searchNotes))

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Read a note with its metadata, frontmatter, and backlinks."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), handle(apperr.CodeReadError, s.getNote))

	s.mcp.AddTool(mcp.NewTool("get_related_notes",
		mcp.WithDescription("Find notes related to a note through outgoing links and backlinks, "+
			"optionally following links transitively up to depth 3."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to start from")),
		mcp.WithNumber("depth", mcp.Description("Traversal depth, 1-3 (default 1)")),
		mcp.WithBoolean("include_snippets", mcp.Description("Include a content snippet for each related note")),
		mcp.WithNumber("max_snippet_length", mcp.Description("Snippet length bound in characters (default 150)")),
	), handle(apperr.CodeRelatedNotes, s.getRelatedNotes))

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new Markdown note. Content SHOULD follow the canonical "+
			"note format (YAML frontmatter with title, optional tags, Markdown body with "+
			"[[wikilinks]]); read it via the get_note_contract tool or the "+
			"grimoire://note-format resource."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Note filename; .md is appended when missing")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content of the new note")),
		mcp.WithString("folder", mcp.Description("Folder to create the note in; created when missing")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing note instead of failing")),
	), handle(apperr.CodeCreateError, s.createNote))

	s.mcp.AddTool(mcp.NewTool("append_to_note",
		mcp.WithDescription("Splice content into an existing note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to modify")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to insert")),
		mcp.WithString("position", mcp.Description("Where to insert: end (default), start, or after_frontmatter")),
		mcp.WithBoolean("ensure_newline", mcp.Description("Separate inserted content with a newline (default true)")),
	), handle(apperr.CodeAppendError, s.appendToNote))

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), handle(apperr.CodeReadError, s.getNoteContract))

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("grimoire://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes should follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns the MCP server as a streamable HTTP handler for
// mounting on the main router.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (any, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return nil, apperr.New(apperr.CodeMissingParameter, err.Error())
	}
	results, total, err := s.searcher.Search(query, search.Options{
		Folder: req.GetString("folder", ""),
		Tag:    req.GetString("tag", ""),
		Limit:  req.GetInt("limit", 0),
		SortBy: req.GetString("sort_by", ""),
	})
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []search.Result{}
	}
	return map[string]any{
		"results":       results,
		"total_matches": total,
	}, nil
}

func (s *Server) getNote(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, apperr.New(apperr.CodeMissingParameter, err.Error())
	}
	if err := vaultops.ValidatePath(path); err != nil {
		return nil, err
	}
	detail, err := s.svc.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound(path, s.engine.Suggest(path))
		}
		return nil, apperr.Wrap(apperr.CodeReadError, err)
	}
	return detail, nil
}

func (s *Server) getRelatedNotes(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, apperr.New(apperr.CodeMissingParameter, err.Error())
	}
	return s.engine.Related(path, graph.Options{
		Depth:            req.GetInt("depth", 1),
		IncludeSnippets:  req.GetBool("include_snippets", false),
		MaxSnippetLength: req.GetInt("max_snippet_length", 0),
	})
}

func (s *Server) createNote(_ context.Context, req mcp.CallToolRequest) (any, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return nil, apperr.New(apperr.CodeMissingParameter, err.Error())
	}
	text, err := req.RequireString("content")
	if err != nil {
		return nil, apperr.New(apperr.CodeMissingParameter, err.Error())
	}

	path, err := s.ops.Create(filename, text, vaultops.CreateOptions{
		Folder:    req.GetString("folder", ""),
		Overwrite: req.GetBool("overwrite", false),
	})
	if err != nil {
		return nil, err
	}

	// Index synchronously so the note is immediately searchable.
	if err := s.svc.IndexFile(path, []byte(text)); err != nil {
		return nil, apperr.Wrap(apperr.CodeCreateError, err)
	}
	return map[string]any{"path": path}, nil
}

func (s *Server) appendToNote(_ context.Context, req mcp.CallToolRequest) (any, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return nil, apperr.New(apperr.CodeMissingParameter, err.Error())
	}
	text, err := req.RequireString("content")
	if err != nil {
		return nil, apperr.New(apperr.CodeMissingParameter, err.Error())
	}

	if err := s.ops.Append(path, text, vaultops.AppendOptions{
		Position:      req.GetString("position", vaultops.PositionEnd),
		EnsureNewline: req.GetBool("ensure_newline", true),
	}); err != nil {
		return nil, err
	}

	if data, readErr := s.store.Read(path); readErr == nil {
		if err := s.svc.IndexFile(path, data); err != nil {
			return nil, apperr.Wrap(apperr.CodeAppendError, err)
		}
	}
	return map[string]any{"path": path}, nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (any, error) {
	return map[string]any{"contract": NoteFormatContract}, nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "grimoire://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
