package search

import (
	"errors"
	"strings"
	"testing"

	"github.com/nordvik/grimoire/internal/apperr"
	"github.com/nordvik/grimoire/internal/testutil"
)

func testSearcher(t *testing.T, notes map[string]string) *Searcher {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	testutil.SeedVault(t, store, db, notes)
	return New(store, db, testutil.Logger())
}

func TestSearch_TitleTiers(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"exact.md":   "# golang\nno body match",
		"partial.md": "# golang patterns\nno body match",
		"content.md": "# other\ngolang mentioned once",
		"miss.md":    "# unrelated\nnothing here",
	})

	results, total, err := s.Search("golang", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3 (%+v)", total, results)
	}
	// Exact title beats partial containment beats content-only match.
	want := []string{"exact.md", "partial.md", "content.md"}
	for i, w := range want {
		if results[i].Path != w {
			t.Errorf("results[%d] = %s, want %s", i, results[i].Path, w)
		}
	}
}

func TestSearch_BasenameScoredAgainstQuery(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"golang.md": "# Intro to Go\nnothing relevant in the body",
		"guide.md":  "---\ntitle: All about golang\n---\nnothing relevant in the body",
	})

	results, total, err := s.Search("golang", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("total = %d, want 2 (%+v)", total, results)
	}
	// Exact basename outranks a title that merely contains the query.
	if results[0].Path != "golang.md" || results[0].Score != scoreExactTitle {
		t.Errorf("top = %s score %d, want golang.md with %d",
			results[0].Path, results[0].Score, scoreExactTitle)
	}
	if results[1].Path != "guide.md" || results[1].Score != scorePartialTitle {
		t.Errorf("second = %s score %d, want guide.md with %d",
			results[1].Path, results[1].Score, scorePartialTitle)
	}
}

func TestSearch_ContentOccurrencesCapped(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"few.md":  "# A\ntoken once",
		"many.md": "# B\n" + strings.Repeat("token ", 30),
	})

	results, _, err := s.Search("token", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d", len(results))
	}
	// 30 occurrences would be 150 points uncapped; the cap keeps it at 50.
	if results[0].Path != "many.md" || results[0].Score != scoreMatchCap {
		t.Errorf("top = %s score %d, want many.md with %d", results[0].Path, results[0].Score, scoreMatchCap)
	}
	if results[1].Score != scorePerMatch {
		t.Errorf("few.md score = %d, want %d", results[1].Score, scorePerMatch)
	}
}

func TestSearch_TitleAndContentCombine(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"combo.md": "# needle\nneedle needle",
	})
	results, _, err := s.Search("needle", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("len = %d", len(results))
	}
	if results[0].Score != scoreExactTitle+2*scorePerMatch {
		t.Errorf("score = %d", results[0].Score)
	}
}

func TestSearch_FolderFilter(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"work/a.md": "shared term",
		"home/b.md": "shared term",
	})
	results, total, err := s.Search("shared", Options{Folder: "work/"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || results[0].Path != "work/a.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearch_TagFilter(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"tagged.md": "---\ntags:\n  - project\n---\nshared term",
		"plain.md":  "shared term",
	})
	// Leading # is accepted.
	results, total, err := s.Search("shared", Options{Tag: "#project"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || results[0].Path != "tagged.md" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearch_LimitAndTotal(t *testing.T) {
	notes := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		notes[name+".md"] = "common term"
	}
	s := testSearcher(t, notes)

	results, total, err := s.Search("common", Options{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || total != 5 {
		t.Errorf("len = %d, total = %d, want 2/5", len(results), total)
	}
}

func TestSearch_SortByTitle(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"zz.md": "term",
		"aa.md": "term term term",
	})
	results, _, err := s.Search("term", Options{SortBy: "title"})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Path != "aa.md" {
		t.Errorf("order = %+v", results)
	}
}

func TestSearch_SnippetHighlightsAndSkipsFrontmatter(t *testing.T) {
	s := testSearcher(t, map[string]string{
		"fm.md": "---\ntitle: secret\n---\nbody mentions secret once",
	})
	results, _, err := s.Search("secret", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("len = %d", len(results))
	}
	sn := results[0].Snippet
	if !strings.Contains(sn, "**secret**") {
		t.Errorf("snippet = %q, want highlighted term", sn)
	}
	if strings.Contains(sn, "title:") {
		t.Errorf("snippet should not include frontmatter: %q", sn)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	s := testSearcher(t, nil)
	_, _, err := s.Search("   ", Options{})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Code != apperr.CodeMissingParameter {
		t.Fatalf("err = %v, want MISSING_PARAMETER", err)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	s := testSearcher(t, map[string]string{"a.md": "nothing relevant"})
	results, total, err := s.Search("absent", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("expected no hits, got %+v", results)
	}
}
