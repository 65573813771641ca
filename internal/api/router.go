package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nordvik/grimoire/internal/graph"
	"github.com/nordvik/grimoire/internal/noteservice"
	"github.com/nordvik/grimoire/internal/search"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// vaultRoot is used to resolve the attachments directory.
func NewRouter(svc *noteservice.Service, searcher *search.Searcher, engine *graph.Engine, authEnabled bool, token string, sseHandler http.Handler, vaultRoot string) chi.Router {
	h := NewHandler(svc, searcher, engine)
	ah := NewAttachmentHandler(vaultRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/*", h.GetNote)
	r.Put("/notes/*", h.UpdateNote)
	r.Delete("/notes/*", h.DeleteNote)
	r.Post("/rename", h.RenameNote)

	// Search and graph traversal.
	r.Get("/search", h.Search)
	r.Get("/related", h.Related)
	r.Get("/graph", h.Graph)
	r.Get("/backlinks", h.Backlinks)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
