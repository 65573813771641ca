// Package noteservice coordinates storage and index operations behind the
// REST and MCP surfaces.
package noteservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/checksum"
	"github.com/nordvik/grimoire/internal/content"
	"github.com/nordvik/grimoire/internal/index"
	"github.com/nordvik/grimoire/internal/models"
	"github.com/nordvik/grimoire/internal/parser"
	"github.com/nordvik/grimoire/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	Size        int64          `json:"size"`
	SizeHuman   string         `json:"size_human"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new note service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetNote reads a note from storage, parses it, and enriches it with
// backlinks and file metadata.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// CreateNote writes a new note and indexes it.
func (s *Service) CreateNote(_ context.Context, path string, data []byte) (*NoteDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, data); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// UpdateNote writes updated content with optimistic concurrency.
func (s *Service) UpdateNote(_ context.Context, path string, data []byte, ifMatch string) (*NoteDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, data); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(path, data)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteNote(path)
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			Size:      r.Size,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Backlinks returns all note paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// Graph returns all nodes and resolved links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []models.Link, error) {
	return s.db.Graph()
}

// RenameNote moves a note to a new path and reindexes it under the new
// name. The old index entry is removed so backlink scans see only the new
// path.
func (s *Service) RenameNote(_ context.Context, oldPath, newPath string) (*NoteDetail, error) {
	data, err := s.store.Read(oldPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if _, err := s.store.Read(newPath); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Move(oldPath, newPath); err != nil {
		return nil, err
	}
	if err := s.db.DeleteNote(oldPath); err != nil {
		return nil, err
	}
	if err := s.IndexFile(newPath, data); err != nil {
		return nil, err
	}
	return s.buildNoteDetail(newPath, data)
}

// IndexFile parses data and upserts it into the index. Exported so the MCP
// layer can index synchronously after a mutation instead of waiting for the
// watcher.
func (s *Service) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	size, created, updated := s.fileMeta(path, data)
	return s.db.UpsertNote(index.NoteRow{
		Path:      path,
		Basename:  models.Basename(path),
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      nonNilSlice(res.Tags),
		Size:      size,
		CreatedAt: created,
		UpdatedAt: updated,
	}, res.Links, res.Embeds)
}

// buildNoteDetail constructs a NoteDetail from raw data without re-reading
// the file.
func (s *Service) buildNoteDetail(path string, data []byte) (*NoteDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	size, created, updated := s.fileMeta(path, data)
	return &NoteDetail{
		Path:        path,
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		Size:        size,
		SizeHuman:   content.FormatSize(size),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// fileMeta stats the file for size and timestamps, falling back to what the
// data itself provides.
func (s *Service) fileMeta(path string, data []byte) (int64, time.Time, time.Time) {
	if e, err := s.store.Stat(path); err == nil && e.Kind == storage.EntryFile {
		return e.Size, e.CreatedAt, e.UpdatedAt
	}
	now := time.Now()
	return int64(len(data)), now, now
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
