package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "grimoire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func upsert(t *testing.T, db *DB, path, title string, links ...string) {
	t.Helper()
	row := NoteRow{Path: path, Title: title, Checksum: "cs-" + path, Tags: []string{}, UpdatedAt: time.Now()}
	if err := db.UpsertNote(row, links, nil); err != nil {
		t.Fatalf("UpsertNote %s: %v", path, err)
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, []string{"other"}, nil); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestOutlinks_KindsPreserved(t *testing.T) {
	db := testDB(t)
	row := NoteRow{Path: "a.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}
	if err := db.UpsertNote(row, []string{"b"}, []string{"pic.png"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	rows, err := db.Outlinks("a.md")
	if err != nil {
		t.Fatalf("Outlinks: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	kinds := map[string]string{}
	for _, l := range rows {
		kinds[l.Target] = l.Kind
	}
	if kinds["b"] != LinkInline || kinds["pic.png"] != LinkEmbed {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestResolveLink(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "b.md", "B")
	upsert(t, db, "topics/deep.md", "Deep")
	upsert(t, db, "topics/local.md", "Local")

	cases := []struct {
		name        string
		token, from string
		want        string
		ok          bool
	}{
		{"exact path", "b.md", "a.md", "b.md", true},
		{"extension added", "b", "a.md", "b.md", true},
		{"source-folder relative", "local", "topics/deep.md", "topics/local.md", true},
		{"basename match", "deep", "a.md", "topics/deep.md", true},
		{"unknown token", "missing", "a.md", "", false},
		{"blank token", "  ", "a.md", "", false},
	}
	for _, c := range cases {
		got, ok := db.ResolveLink(c.token, c.from)
		if ok != c.ok || got != c.want {
			t.Errorf("%s: ResolveLink(%q, %q) = (%q, %v), want (%q, %v)", c.name, c.token, c.from, got, ok, c.want, c.ok)
		}
	}
}

func TestResolveLink_BasenameShortestPathWins(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "x/note.md", "X")
	upsert(t, db, "deeper/dir/note.md", "Deeper")

	got, ok := db.ResolveLink("note", "elsewhere.md")
	if !ok || got != "x/note.md" {
		t.Errorf("ResolveLink = (%q, %v), want x/note.md", got, ok)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "b.md", "B")
	upsert(t, db, "a.md", "A", "b")
	upsert(t, db, "c.md", "C", "b.md")

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d (%v)", len(bl), bl)
	}
}

func TestBacklinks_SelfLinkExcluded(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "self.md", "Self", "self")

	bl, err := db.Backlinks("self.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 0 {
		t.Errorf("self-link should be excluded, got %v", bl)
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "target.md", "Target")
	upsert(t, db, "del.md", "Del", "target")

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted note still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "x.md", "X")
	upsert(t, db, "y.md", "Y")
	upsert(t, db, "up.md", "Old", "x")
	upsert(t, db, "up.md", "New", "y")

	n, err := db.GetNote("up.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if n.Title != "New" {
		t.Errorf("title = %q, want New", n.Title)
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListNotes_TagFilterAndTotal(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "t1.md", Tags: []string{"keep"}, UpdatedAt: time.Now()}, nil, nil)
	_ = db.UpsertNote(NoteRow{Path: "t2.md", Tags: []string{"keep", "other"}, UpdatedAt: time.Now()}, nil, nil)
	_ = db.UpsertNote(NoteRow{Path: "t3.md", Tags: []string{"other"}, UpdatedAt: time.Now()}, nil, nil)

	rows, total, err := db.ListNotes(10, 0, "keep", "path")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("total = %d, len = %d, want 2/2", total, len(rows))
	}
	if rows[0].Path != "t1.md" || rows[1].Path != "t2.md" {
		t.Errorf("rows = %v", rows)
	}
}

func TestGraph(t *testing.T) {
	db := testDB(t)
	upsert(t, db, "a.md", "A", "b")
	upsert(t, db, "b.md", "B", "a", "ghost")

	nodes, links, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(nodes))
	}
	// The unresolvable "ghost" token is dropped.
	if len(links) != 2 {
		t.Errorf("links = %d, want 2 (%v)", len(links), links)
	}
}
