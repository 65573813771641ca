package content

import (
	"errors"
	"testing"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/storage"
)

func testStore(t *testing.T) storage.Provider {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestReadNote(t *testing.T) {
	store := testStore(t)
	_ = store.Write("a.md", []byte("hello"))

	text, err := ReadNote(store, "a.md")
	if err != nil {
		t.Fatalf("ReadNote: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q", text)
	}
}

func TestReadNote_Missing(t *testing.T) {
	store := testStore(t)
	_, err := ReadNote(store, "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeNoteNotFound {
		t.Errorf("code = %v, want NOTE_NOT_FOUND", err)
	}
}

func TestExtractFrontmatter(t *testing.T) {
	block, ok := ExtractFrontmatter("---\ntitle: Hi\ntags: [a]\n---\nbody")
	if !ok {
		t.Fatal("expected frontmatter")
	}
	if block != "title: Hi\ntags: [a]" {
		t.Errorf("block = %q", block)
	}
}

func TestExtractFrontmatter_Absent(t *testing.T) {
	if _, ok := ExtractFrontmatter("# Just body"); ok {
		t.Error("no frontmatter expected")
	}
	// Unclosed delimiter is not a block.
	if _, ok := ExtractFrontmatter("---\ntitle: Hi\nbody"); ok {
		t.Error("unclosed block should not parse")
	}
}

func TestRemoveFrontmatter(t *testing.T) {
	text := "---\ntitle: Hi\n---\n# Body\ntext\n"
	got := RemoveFrontmatter(text)
	if got != "# Body\ntext\n" {
		t.Errorf("got %q", got)
	}
	// Idempotent on already-stripped text.
	if again := RemoveFrontmatter(got); again != got {
		t.Errorf("second pass changed text: %q", again)
	}
}

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{2 * 1024 * 1024, "2.0 MB"},
	}
	for _, c := range cases {
		if got := FormatSize(c.in); got != c.want {
			t.Errorf("FormatSize(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
