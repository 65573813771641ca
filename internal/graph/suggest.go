package graph

import (
	"sort"
	"strings"

	"github.com/nordvik/grimoire/internal/models"
)

const maxSuggestions = 3

// Suggest returns up to three existing vault paths similar to the missing
// one, best match first. The scoring mixes exact/substring/basename matches
// with character overlap; the exact ranking is best-effort.
func (e *Engine) Suggest(missing string) []string {
	all, err := e.links.AllPaths()
	if err != nil || len(all) == 0 {
		return nil
	}

	type scored struct {
		path  string
		score int
	}
	target := strings.ToLower(missing)
	targetBase := strings.ToLower(models.Basename(missing))

	var candidates []scored
	for p := range all {
		lower := strings.ToLower(p)
		s := 0
		switch {
		case lower == target:
			s += 100
		case strings.Contains(lower, target) || strings.Contains(target, lower):
			s += 60
		}
		base := strings.ToLower(models.Basename(p))
		switch {
		case base == targetBase:
			s += 50
		case strings.Contains(base, targetBase) || strings.Contains(targetBase, base):
			s += 25
		}
		s += charOverlap(base, targetBase)
		if s > 0 {
			candidates = append(candidates, scored{path: p, score: s})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].path < candidates[j].path
	})

	n := len(candidates)
	if n > maxSuggestions {
		n = maxSuggestions
	}
	out := make([]string, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, c.path)
	}
	return out
}

// charOverlap counts how many distinct characters of a also occur in b,
// a cheap similarity signal for typo-distance names.
func charOverlap(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	inB := make(map[rune]struct{}, len(b))
	for _, r := range b {
		inB[r] = struct{}{}
	}
	seen := make(map[rune]struct{}, len(a))
	overlap := 0
	for _, r := range a {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := inB[r]; ok {
			overlap++
		}
	}
	return overlap
}
