// Package storage defines the vault file-system abstraction.
package storage

import (
	"time"

	"github.com/nordvik/grimoire/internal/models"
)

// EntryKind classifies what exists at a vault path.
type EntryKind int

const (
	EntryMissing EntryKind = iota
	EntryFile
	EntryFolder
)

// Entry describes a vault path as a tagged variant over file/folder/missing.
type Entry struct {
	Kind      EntryKind
	Size      int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root),
	// creating parent folders as needed.
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to vault root).
	Move(oldPath, newPath string) error
	// Stat reports whether path is a file, a folder, or missing.
	Stat(path string) (Entry, error)
	// EnsureDir creates dir (and parents) under the vault root.
	EnsureDir(dir string) error
}
