package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nordvik/grimoire/internal/models"
	"github.com/nordvik/grimoire/internal/storage"
)

// Watcher event kinds passed to the EventCallback.
const (
	NoteCreated = "created"
	NoteUpdated = "updated"
	NoteDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

// renameSettleDelay debounces the reconciliation pass that follows a
// rename, since the matching create event may land on a different path.
const renameSettleDelay = 200 * time.Millisecond

// watcher keeps the link table synchronized with on-disk vault changes.
type watcher struct {
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	notify EventCallback
}

// Watch follows vault file changes until ctx is cancelled, reindexing
// notes as they are created, written, removed, or renamed. Directories
// added at runtime join the watch list; renames schedule a short settle
// pass that reconciles the index against the disk state.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	wt := &watcher{db: db, store: store, root: vaultRoot, logger: logger, notify: cb}
	return wt.run(ctx)
}

func (wt *watcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := wt.watchTree(fsw, wt.root); err != nil {
		return err
	}
	wt.logger.Info("watcher: started", slog.String("root", wt.root))

	var settle *time.Timer
	var settleC <-chan time.Time
	scheduleSettle := func() {
		if settle == nil {
			settle = time.NewTimer(renameSettleDelay)
			settleC = settle.C
			return
		}
		settle.Reset(renameSettleDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			wt.logger.Info("watcher: stopped")
			return nil

		case <-settleC:
			wt.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			wt.handle(fsw, ev, scheduleSettle)

		case werr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			wt.logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

func (wt *watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event, scheduleSettle func()) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := wt.watchTree(fsw, ev.Name); err != nil {
				wt.logger.Warn("watcher: add dir failed",
					slog.String("path", ev.Name), slog.String("error", err.Error()))
			}
			// A moved-in directory can already hold notes.
			wt.scanDir(ev.Name)
			return
		}
	}

	rel, ok := wt.relNote(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := NoteUpdated
		if ev.Op&fsnotify.Create != 0 {
			kind = NoteCreated
		}
		wt.reindex(rel, kind)

	case ev.Op&fsnotify.Remove != 0:
		wt.drop(rel)

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify reports the OLD path only; the new one arrives as a
		// separate create event when it lands inside a watched dir.
		wt.drop(rel)
		scheduleSettle()
	}
}

// relNote maps an absolute event path to a vault-relative note path,
// filtering out non-markdown files and hidden directories.
func (wt *watcher) relNote(abs string) (string, bool) {
	if !strings.HasSuffix(abs, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(wt.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return "", false
		}
	}
	return rel, true
}

func (wt *watcher) reindex(rel, kind string) {
	data, err := wt.store.Read(rel)
	if err != nil {
		wt.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := indexFile(wt.db, noteMeta(wt.store, rel, data), data); err != nil {
		wt.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	wt.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	wt.emit(kind, rel)
}

func (wt *watcher) drop(rel string) {
	if err := wt.db.DeleteNote(rel); err != nil {
		wt.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	wt.logger.Debug("watcher: deleted", slog.String("path", rel))
	wt.emit(NoteDeleted, rel)
}

func (wt *watcher) emit(kind, rel string) {
	if wt.notify != nil {
		wt.notify(kind, rel)
	}
}

// reconcile removes index entries whose files are gone and indexes on-disk
// notes the index does not know yet, using batch checksum lookups.
func (wt *watcher) reconcile() {
	checksums, err := wt.db.AllChecksums()
	if err != nil {
		wt.logger.Warn("watcher: reconcile checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := wt.store.List("")
	if err != nil {
		wt.logger.Warn("watcher: reconcile list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]models.NoteMetadata, len(metas))
	for _, m := range metas {
		disk[m.Path] = m
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := wt.db.DeleteNote(p); err == nil {
			wt.logger.Debug("watcher: reconcile removed", slog.String("path", p))
			wt.emit(NoteDeleted, p)
		}
	}

	for p, m := range disk {
		if checksums[p] == m.Checksum {
			continue
		}
		data, err := wt.store.Read(p)
		if err != nil {
			continue
		}
		if err := indexFile(wt.db, m, data); err == nil {
			wt.logger.Debug("watcher: reconcile indexed", slog.String("path", p))
			wt.emit(NoteCreated, p)
		}
	}
}

// scanDir indexes any notes already present under a newly watched directory.
func (wt *watcher) scanDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, ok := wt.relNote(path)
		if !ok {
			return nil
		}
		data, err := wt.store.Read(rel)
		if err != nil {
			return nil
		}
		if err := indexFile(wt.db, noteMeta(wt.store, rel, data), data); err == nil {
			wt.logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			wt.emit(NoteCreated, rel)
		}
		return nil
	})
}

// watchTree adds root and every subdirectory to the watch list, skipping
// hidden directories.
func (wt *watcher) watchTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
