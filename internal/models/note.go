// Package models defines the domain types for Grimoire.
package models

import (
	"strings"
	"time"
)

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed edge between two notes. Kind distinguishes a
// content reference from a structural embed.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Kind   string `json:"kind"` // "inline" or "embed"
}

// RelatedNote is one neighbor discovered by the link graph traversal.
type RelatedNote struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// Basename returns the file name of path without its extension.
func Basename(path string) string {
	base := path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
