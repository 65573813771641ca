// Package vaultops implements validated note mutations: creating notes and
// splicing content into existing ones.
package vaultops

import (
	"strings"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/content"
	"github.com/nordvik/grimoire/internal/storage"
)

// Append positions.
const (
	PositionEnd              = "end"
	PositionStart            = "start"
	PositionAfterFrontmatter = "after_frontmatter"
)

// CreateOptions configures Create.
type CreateOptions struct {
	Folder    string
	Overwrite bool
}

// AppendOptions configures Append.
type AppendOptions struct {
	Position      string // end (default) | start | after_frontmatter
	EnsureNewline bool
}

// Ops applies validated writes to the vault.
type Ops struct {
	store storage.Provider
}

// New creates the mutation operations over a vault.
func New(store storage.Provider) *Ops {
	return &Ops{store: store}
}

// Create writes a new note. The filename is normalized to end in .md and
// joined with the optional folder; parent folders are created as needed.
// An existing note fails with FILE_EXISTS unless Overwrite is set; a folder
// at the target path fails with PATH_IS_FOLDER either way.
func (o *Ops) Create(filename, text string, opts CreateOptions) (string, error) {
	if strings.TrimSpace(filename) == "" {
		return "", apperr.New(apperr.CodeMissingParameter, "filename is required")
	}
	if !strings.HasSuffix(filename, ".md") {
		filename += ".md"
	}

	path := filename
	if opts.Folder != "" {
		path = strings.TrimSuffix(opts.Folder, "/") + "/" + filename
	}
	if err := ValidatePath(path); err != nil {
		return "", err
	}

	entry, err := o.store.Stat(path)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeCreateError, err)
	}
	switch entry.Kind {
	case storage.EntryFolder:
		return "", apperr.Newf(apperr.CodePathIsFolder, "path is a folder: %s", path)
	case storage.EntryFile:
		if !opts.Overwrite {
			return "", apperr.Newf(apperr.CodeFileExists, "note already exists: %s", path)
		}
	}

	if opts.Folder != "" {
		if err := o.store.EnsureDir(opts.Folder); err != nil {
			return "", apperr.Wrap(apperr.CodeCreateError, err)
		}
	}
	if err := o.store.Write(path, []byte(text)); err != nil {
		return "", apperr.Wrap(apperr.CodeCreateError, err)
	}
	return path, nil
}

// Append splices text into the note at path. Position end appends after the
// current content, start prepends before it, and after_frontmatter inserts
// between the frontmatter block and the body. With EnsureNewline set,
// exactly one newline separates the spliced text from its neighbor.
func (o *Ops) Append(path, text string, opts AppendOptions) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	existing, err := content.ReadNote(o.store, path)
	if err != nil {
		return err
	}

	position := opts.Position
	if position == "" {
		position = PositionEnd
	}

	var updated string
	switch position {
	case PositionEnd:
		updated = join(existing, text, opts.EnsureNewline)
	case PositionStart:
		updated = join(text, existing, opts.EnsureNewline)
	case PositionAfterFrontmatter:
		block, ok := content.ExtractFrontmatter(existing)
		if !ok {
			updated = join(text, existing, opts.EnsureNewline)
			break
		}
		body := content.RemoveFrontmatter(existing)
		head := "---\n" + block + "\n---\n"
		updated = head + join(text, body, opts.EnsureNewline)
	default:
		return apperr.Newf(apperr.CodeInvalidParameter, "invalid position: %s", position)
	}

	if err := o.store.Write(path, []byte(updated)); err != nil {
		return apperr.Wrap(apperr.CodeAppendError, err)
	}
	return nil
}

// join concatenates a and b with exactly one newline between them when
// ensureNewline is set.
func join(a, b string, ensureNewline bool) string {
	if !ensureNewline || a == "" || b == "" {
		return a + b
	}
	return strings.TrimRight(a, "\n") + "\n" + strings.TrimLeft(b, "\n")
}

// ValidatePath rejects absolute paths, drive letters, and traversal
// segments before any I/O happens.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperr.New(apperr.CodeMissingParameter, "path is required")
	}
	if strings.HasPrefix(path, "/") || strings.Contains(path, "\\") || strings.Contains(path, ":") {
		return apperr.Newf(apperr.CodeInvalidPath, "path must be vault-relative: %s", path)
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return apperr.Newf(apperr.CodeInvalidPath, "path must not traverse upward: %s", path)
		}
	}
	return nil
}
