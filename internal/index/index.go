package index

import "github.com/nordvik/grimoire/internal/models"

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, links, embeds []string) error
	DeleteNote(path string) error
	GetNote(path string) (*NoteRow, error)
	GetChecksum(path string) (string, error)
	ListAll() ([]NoteRow, error)
	ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Outlinks(source string) ([]LinkRow, error)
	Backlinks(target string) ([]string, error)
	ResolveLink(token, from string) (string, bool)
	Graph() ([]GraphNode, []models.Link, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
