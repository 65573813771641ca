package index

import (
	"fmt"

	"github.com/nordvik/grimoire/internal/models"
)

// GraphNode is a node in the resolved vault graph.
type GraphNode struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Graph returns every note as a node plus every resolvable link as an edge,
// for the REST graph view. Unresolvable link tokens are dropped.
func (db *DB) Graph() ([]GraphNode, []models.Link, error) {
	noteRows, err := db.conn.Query(`SELECT path, title FROM notes ORDER BY path`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph nodes: %w", err)
	}
	defer noteRows.Close()

	var nodes []GraphNode
	for noteRows.Next() {
		var n GraphNode
		if err := noteRows.Scan(&n.ID, &n.Title); err != nil {
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	if err := noteRows.Err(); err != nil {
		return nil, nil, err
	}

	linkRows, err := db.conn.Query(`SELECT source, target, kind FROM links ORDER BY source`)
	if err != nil {
		return nil, nil, fmt.Errorf("index: graph links: %w", err)
	}
	defer linkRows.Close()

	type rawEdge struct{ source, token, kind string }
	var raw []rawEdge
	for linkRows.Next() {
		var e rawEdge
		if err := linkRows.Scan(&e.source, &e.token, &e.kind); err != nil {
			return nil, nil, err
		}
		raw = append(raw, e)
	}
	if err := linkRows.Err(); err != nil {
		return nil, nil, err
	}

	seen := make(map[[2]string]struct{})
	var links []models.Link
	for _, e := range raw {
		target, ok := db.ResolveLink(e.token, e.source)
		if !ok {
			continue
		}
		key := [2]string{e.source, target}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		links = append(links, models.Link{Source: e.source, Target: target, Kind: e.kind})
	}
	return nodes, links, nil
}
