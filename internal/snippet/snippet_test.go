package snippet

import (
	"strings"
	"testing"
)

func TestExtract_HeadWhenNoMatch(t *testing.T) {
	got := Extract("short note body", "absent", 150)
	if got != "short note body" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_HeadTruncated(t *testing.T) {
	text := strings.Repeat("abcde ", 100)
	got := Extract(text, "", 50)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected trailing ellipsis, got %q", got)
	}
	if len(got) > 50+len("...") {
		t.Errorf("window too long: %d", len(got))
	}
}

func TestExtract_CentersOnMatch(t *testing.T) {
	text := strings.Repeat("x", 200) + " needle " + strings.Repeat("y", 200)
	got := Extract(text, "needle", 60)
	if !strings.Contains(got, "**needle**") {
		t.Errorf("match not highlighted: %q", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipses on both sides: %q", got)
	}
}

func TestExtract_MatchAtStartNoLeadingEllipsis(t *testing.T) {
	got := Extract("needle then a long tail "+strings.Repeat("z", 300), "needle", 60)
	if strings.HasPrefix(got, "...") {
		t.Errorf("no leading ellipsis expected: %q", got)
	}
	if !strings.HasPrefix(got, "**needle**") {
		t.Errorf("got %q", got)
	}
}

func TestExtract_CaseInsensitiveHighlight(t *testing.T) {
	got := Extract("Mixed NEEDLE and needle here", "Needle", 100)
	if !strings.Contains(got, "**NEEDLE**") || !strings.Contains(got, "**needle**") {
		t.Errorf("all in-window occurrences should be wrapped: %q", got)
	}
}

func TestExtract_DefaultLength(t *testing.T) {
	text := strings.Repeat("w", 400)
	got := Extract(text, "", 0)
	if len(got) != 150+len("...") {
		t.Errorf("default window = %d chars (%q...)", len(got), got[:20])
	}
}

func TestExtract_Empty(t *testing.T) {
	if got := Extract("", "term", 100); got != "" {
		t.Errorf("got %q", got)
	}
}
