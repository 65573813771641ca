package index

import (
	"log/slog"
	"time"

	"github.com/nordvik/grimoire/internal/checksum"
	"github.com/nordvik/grimoire/internal/models"
	"github.com/nordvik/grimoire/internal/parser"
	"github.com/nordvik/grimoire/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, m models.NoteMetadata, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	row := NoteRow{
		Path:      m.Path,
		Basename:  models.Basename(m.Path),
		Title:     res.Title,
		Checksum:  m.Checksum,
		Tags:      res.Tags,
		Size:      m.Size,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	return db.UpsertNote(row, res.Links, res.Embeds)
}

// noteMeta builds metadata for a freshly observed file from a Stat call,
// falling back to what can be derived from the data itself.
func noteMeta(store storage.Provider, rel string, data []byte) models.NoteMetadata {
	m := models.NoteMetadata{
		Path:      rel,
		Checksum:  checksum.Sum(data),
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if e, err := store.Stat(rel); err == nil && e.Kind == storage.EntryFile {
		m.Size = e.Size
		m.CreatedAt = e.CreatedAt
		m.UpdatedAt = e.UpdatedAt
	}
	return m
}
