package index

import (
	"path"
	"strings"

	"github.com/nordvik/grimoire/internal/models"
)

// ResolveLink maps a raw wikilink token to the vault path of the note it
// refers to, relative to the note the link was written in. Resolution order:
//
//  1. token as an exact vault path (with or without the .md extension)
//  2. token relative to the source note's folder
//  3. unique basename match anywhere in the vault; ambiguity is settled by
//     the shortest path, then lexicographically
//
// ok is false when no note matches.
func (db *DB) ResolveLink(token, from string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	token = strings.TrimPrefix(path.Clean(token), "./")

	// Exact path, with and without extension.
	for _, cand := range withExtension(token) {
		if db.pathExists(cand) {
			return cand, true
		}
	}

	// Relative to the source note's folder.
	if dir := path.Dir(from); dir != "." && dir != "/" {
		for _, cand := range withExtension(path.Join(dir, token)) {
			if db.pathExists(cand) {
				return cand, true
			}
		}
	}

	// Basename match across the vault.
	var p string
	err := db.conn.QueryRow(`
		SELECT path FROM notes WHERE basename = ?
		ORDER BY length(path), path LIMIT 1
	`, models.Basename(token)).Scan(&p)
	if err != nil {
		return "", false
	}
	return p, true
}

func withExtension(token string) []string {
	if strings.HasSuffix(token, ".md") {
		return []string{token}
	}
	return []string{token + ".md", token}
}

func (db *DB) pathExists(p string) bool {
	var one int
	return db.conn.QueryRow(`SELECT 1 FROM notes WHERE path = ?`, p).Scan(&one) == nil
}
