package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/models"
)

// Link kinds stored in the links table.
const (
	LinkInline = "inline"
	LinkEmbed  = "embed"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path      string
	Basename  string
	Title     string
	Checksum  string
	Tags      []string
	Size      int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LinkRow is one outgoing link of a note. Target is the raw wikilink token
// as written in the source note; resolution happens at query time.
type LinkRow struct {
	Target string
	Kind   string
}

// UpsertNote inserts or replaces a note, its metadata, and its outgoing
// links (inline wikilinks plus embeds) within a transaction.
func (db *DB) UpsertNote(n NoteRow, links, embeds []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(n.Tags)
	basename := n.Basename
	if basename == "" {
		basename = models.Basename(n.Path)
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, basename, title, checksum, tags, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			basename   = excluded.basename,
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			size       = excluded.size,
			updated_at = excluded.updated_at
	`, n.Path, basename, n.Title, n.Checksum, string(tagsJSON), n.Size, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	// Replace links: delete old then bulk insert. Embeds that duplicate an
	// inline link collapse to the inline edge (UNIQUE(source, target)).
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for _, target := range links {
		if _, err := stmt.Exec(n.Path, target, LinkInline); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}
	for _, target := range embeds {
		if _, err := stmt.Exec(n.Path, target, LinkEmbed); err != nil {
			return fmt.Errorf("index: insert embed: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteNote removes a note and its outgoing links.
func (db *DB) DeleteNote(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, path)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, path)

	return tx.Commit()
}

// GetNote returns the metadata row for path, or apperr.ErrNotFound.
func (db *DB) GetNote(path string) (*NoteRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, basename, title, checksum, tags, size, created_at, updated_at
		FROM notes WHERE path = ?
	`, path)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get note: %w", err)
	}
	return n, nil
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// ListAll returns the metadata of every indexed note, used as the candidate
// set for search scoring.
func (db *DB) ListAll() ([]NoteRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, basename, title, checksum, tags, size, created_at, updated_at
		FROM notes ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list all: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

// ListNotes returns paginated note rows with optional tag filter and the
// total count before pagination.
func (db *DB) ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	var args []any
	if tag != "" {
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count notes: %w", err)
	}

	order := "updated_at DESC"
	switch sort {
	case "title":
		order = "title COLLATE NOCASE ASC"
	case "path":
		order = "path ASC"
	case "created_at":
		order = "created_at DESC"
	}

	query := fmt.Sprintf(`
		SELECT path, basename, title, checksum, tags, size, created_at, updated_at
		FROM notes %s ORDER BY %s LIMIT ? OFFSET ?
	`, where, order)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	out, err := collectNotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllPaths returns every indexed note path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Outlinks returns the raw outgoing link rows of a note.
func (db *DB) Outlinks(source string) ([]LinkRow, error) {
	rows, err := db.conn.Query(`SELECT target, kind FROM links WHERE source = ?`, source)
	if err != nil {
		return nil, fmt.Errorf("index: outlinks: %w", err)
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		if err := rows.Scan(&l.Target, &l.Kind); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Backlinks scans the full link table and returns every source note whose
// resolved destinations contain target. Sources are deduplicated.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source, target FROM links`)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	type edge struct{ source, token string }
	var edges []edge
	for rows.Next() {
		var e edge
		if err := rows.Scan(&e.source, &e.token); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, e := range edges {
		if e.source == target {
			continue
		}
		resolved, ok := db.ResolveLink(e.token, e.source)
		if !ok || resolved != target {
			continue
		}
		if _, dup := seen[e.source]; dup {
			continue
		}
		seen[e.source] = struct{}{}
		out = append(out, e.source)
	}
	return out, nil
}

func scanNote(row *sql.Row) (*NoteRow, error) {
	var n NoteRow
	var tagsJSON string
	if err := row.Scan(&n.Path, &n.Basename, &n.Title, &n.Checksum, &tagsJSON,
		&n.Size, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
	return &n, nil
}

func collectNotes(rows *sql.Rows) ([]NoteRow, error) {
	var out []NoteRow
	for rows.Next() {
		var n NoteRow
		var tagsJSON string
		if err := rows.Scan(&n.Path, &n.Basename, &n.Title, &n.Checksum, &tagsJSON,
			&n.Size, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tagsJSON), &n.Tags)
		out = append(out, n)
	}
	return out, rows.Err()
}
