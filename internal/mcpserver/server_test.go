package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/storage"
	"github.com/nordvik/grimoire/internal/testutil"
)

func testServer(t *testing.T) (*Server, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	srv := New(store, db, testutil.Logger())
	return srv, store
}

// callTool invokes a tool body through the envelope wrapper, exactly as the
// MCP server dispatches it.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var fn toolFunc
	var code string
	switch name {
	case "search_notes":
		fn, code = srv.searchNotes, apperr.CodeSearchError
	case "get_note":
		fn, code = srv.getNote, apperr.CodeReadError
	case "get_related_notes":
		fn, code = srv.getRelatedNotes, apperr.CodeRelatedNotes
	case "create_note":
		fn, code = srv.createNote, apperr.CodeCreateError
	case "append_to_note":
		fn, code = srv.appendToNote, apperr.CodeAppendError
	case "get_note_contract":
		fn, code = srv.getNoteContract, apperr.CodeReadError
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	result, err := handle(code, fn)(context.Background(), req)
	if err != nil {
		t.Fatalf("tool %s transport error: %v", name, err)
	}
	return result
}

type toolEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code        string   `json:"code"`
		Message     string   `json:"message"`
		Suggestions []string `json:"suggestions"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, r *mcp.CallToolResult) toolEnvelope {
	t.Helper()
	if len(r.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := r.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", r.Content[0])
	}
	var env toolEnvelope
	if err := json.Unmarshal([]byte(tc.Text), &env); err != nil {
		t.Fatalf("envelope is not JSON: %v\n%s", err, tc.Text)
	}
	return env
}

func mustSucceed(t *testing.T, r *mcp.CallToolResult) toolEnvelope {
	t.Helper()
	env := decodeEnvelope(t, r)
	if r.IsError || !env.Success || env.Error != nil {
		t.Fatalf("expected success envelope, got %+v", env)
	}
	return env
}

func mustFail(t *testing.T, r *mcp.CallToolResult, code string) toolEnvelope {
	t.Helper()
	env := decodeEnvelope(t, r)
	if !r.IsError || env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %+v", env)
	}
	if env.Error.Code != code {
		t.Fatalf("error code = %q, want %q", env.Error.Code, code)
	}
	return env
}

func TestCreateAndGetNote(t *testing.T) {
	srv, _ := testServer(t)

	env := mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "test",
		"content":  "# Test\nHello",
	}))
	var created struct {
		Path string `json:"path"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.Path != "test.md" {
		t.Errorf("created path = %q, want test.md", created.Path)
	}

	env = mustSucceed(t, callTool(t, srv, "get_note", map[string]any{"path": "test.md"}))
	var note struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	_ = json.Unmarshal(env.Data, &note)
	if note.Title != "Test" {
		t.Errorf("title = %q, want Test", note.Title)
	}
	if note.Content != "# Test\nHello" {
		t.Errorf("content = %q", note.Content)
	}
}

func TestCreateNote_InFolderAndConflict(t *testing.T) {
	srv, _ := testServer(t)

	env := mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "note.md",
		"content":  "x",
		"folder":   "topics",
	}))
	var created struct {
		Path string `json:"path"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.Path != "topics/note.md" {
		t.Errorf("path = %q, want topics/note.md", created.Path)
	}

	mustFail(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "note.md",
		"content":  "y",
		"folder":   "topics",
	}), apperr.CodeFileExists)

	// Overwrite flips the conflict into success.
	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename":  "note.md",
		"content":   "y",
		"folder":    "topics",
		"overwrite": true,
	}))
}

func TestGetNote_MissingParameterAndNotFound(t *testing.T) {
	srv, _ := testServer(t)

	mustFail(t, callTool(t, srv, "get_note", map[string]any{}), apperr.CodeMissingParameter)

	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "guides/setup",
		"content":  "setup guide",
	}))

	env := mustFail(t, callTool(t, srv, "get_note", map[string]any{"path": "guides/setup-guide.md"}),
		apperr.CodeNoteNotFound)
	if len(env.Error.Suggestions) == 0 {
		t.Error("expected similarity suggestions for missing note")
	}
}

func TestGetNote_TraversalRejected(t *testing.T) {
	srv, _ := testServer(t)
	mustFail(t, callTool(t, srv, "get_note", map[string]any{"path": "../outside.md"}),
		apperr.CodeInvalidPath)
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t)

	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "find",
		"content":  "# Findable\nuniquetoken lives here",
	}))
	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "other",
		"content":  "nothing relevant",
	}))

	env := mustSucceed(t, callTool(t, srv, "search_notes", map[string]any{"query": "uniquetoken"}))
	var data struct {
		Results []struct {
			Path    string `json:"path"`
			Snippet string `json:"snippet"`
		} `json:"results"`
		TotalMatches int `json:"total_matches"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if data.TotalMatches != 1 || len(data.Results) != 1 {
		t.Fatalf("results = %+v", data)
	}
	if data.Results[0].Path != "find.md" {
		t.Errorf("path = %q", data.Results[0].Path)
	}
	if !strings.Contains(data.Results[0].Snippet, "**uniquetoken**") {
		t.Errorf("snippet %q should highlight the term", data.Results[0].Snippet)
	}
}

func TestSearchNotes_MissingQuery(t *testing.T) {
	srv, _ := testServer(t)
	mustFail(t, callTool(t, srv, "search_notes", map[string]any{}), apperr.CodeMissingParameter)
}

func TestGetRelatedNotes(t *testing.T) {
	srv, _ := testServer(t)

	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "hub",
		"content":  "see [[spoke]]",
	}))
	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "spoke",
		"content":  "leaf note",
	}))

	env := mustSucceed(t, callTool(t, srv, "get_related_notes", map[string]any{"path": "hub.md"}))
	var res struct {
		DirectOutlinks []struct {
			Path string `json:"path"`
		} `json:"direct_outlinks"`
		DirectBacklinks []struct {
			Path string `json:"path"`
		} `json:"direct_backlinks"`
	}
	_ = json.Unmarshal(env.Data, &res)
	if len(res.DirectOutlinks) != 1 || res.DirectOutlinks[0].Path != "spoke.md" {
		t.Errorf("outlinks = %+v", res.DirectOutlinks)
	}
	if len(res.DirectBacklinks) != 0 {
		t.Errorf("backlinks = %+v", res.DirectBacklinks)
	}
}

func TestGetRelatedNotes_DepthValidation(t *testing.T) {
	srv, _ := testServer(t)
	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "only",
		"content":  "x",
	}))

	// An explicit zero is out of range, only an absent depth defaults.
	for _, depth := range []int{-1, 0, 4} {
		mustFail(t, callTool(t, srv, "get_related_notes", map[string]any{
			"path":  "only.md",
			"depth": depth,
		}), apperr.CodeInvalidParameter)
	}

	mustSucceed(t, callTool(t, srv, "get_related_notes", map[string]any{
		"path": "only.md",
	}))
}

func TestAppendToNote(t *testing.T) {
	srv, store := testServer(t)

	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "log",
		"content":  "# Log",
	}))
	mustSucceed(t, callTool(t, srv, "append_to_note", map[string]any{
		"path":    "log.md",
		"content": "new entry",
	}))

	data, err := store.Read("log.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Log\nnew entry" {
		t.Errorf("content = %q", data)
	}
}

func TestAppendToNote_MissingNote(t *testing.T) {
	srv, _ := testServer(t)
	mustFail(t, callTool(t, srv, "append_to_note", map[string]any{
		"path":    "ghost.md",
		"content": "x",
	}), apperr.CodeNoteNotFound)
}

func TestAppendToNote_InvalidPosition(t *testing.T) {
	srv, _ := testServer(t)
	mustSucceed(t, callTool(t, srv, "create_note", map[string]any{
		"filename": "pos",
		"content":  "x",
	}))
	mustFail(t, callTool(t, srv, "append_to_note", map[string]any{
		"path":     "pos.md",
		"content":  "y",
		"position": "sideways",
	}), apperr.CodeInvalidParameter)
}

func TestGetNoteContract(t *testing.T) {
	srv, _ := testServer(t)
	env := mustSucceed(t, callTool(t, srv, "get_note_contract", map[string]any{}))
	var data struct {
		Contract string `json:"contract"`
	}
	_ = json.Unmarshal(env.Data, &data)
	if !strings.Contains(data.Contract, "frontmatter") {
		t.Errorf("contract looks wrong: %.80q", data.Contract)
	}
}
