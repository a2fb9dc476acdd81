package query

import (
	"fmt"
	"strings"

	"arcmemory/arc/internal/db"
)

// Store is the read-only graph store boundary the pipeline queries against.
// *db.DB satisfies it.
type Store interface {
	GetNode(id string) (*db.Node, error)
	ConnectedIDs(id string) ([]string, error)
	SearchNodes(pred string, args []any, limit int) ([]db.Node, error)
}

// buildPredicate turns an intent into a SQL boolean expression over the
// nodes table, ANDing together whichever constraints are present. The
// attribute clauses match against the serialized extra payload as text, a
// deliberately loose filter since extra is stored opaque.
func buildPredicate(intent *Intent) (string, []any) {
	var clauses []string
	var args []any

	if len(intent.EntityTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(intent.EntityTypes)), ",")
		clauses = append(clauses, "type IN ("+placeholders+")")
		for _, t := range intent.EntityTypes {
			args = append(args, t)
		}
	}

	if keywords := intent.TitleKeywords(); len(keywords) > 0 {
		var likes []string
		for _, kw := range keywords {
			likes = append(likes, "title LIKE ?")
			args = append(args, "%"+kw+"%")
		}
		clauses = append(clauses, "("+strings.Join(likes, " OR ")+")")
	}

	for _, f := range intent.AttributeFilters() {
		clauses = append(clauses, "(type = ? AND extra LIKE ?)")
		args = append(args, f.EntityType, fmt.Sprintf(`%%"%s":"%s"%%`, f.Key, f.Value))
	}

	return strings.Join(clauses, " AND "), args
}

// Search finds candidate nodes for an intent: a direct SQL search first,
// then bounded breadth-first expansion over the edge table when direct
// matches fall short. Any store failure is logged and yields an empty
// result — an empty list is a legitimate "no answer" state, not a crash.
func (e *Engine) Search(intent *Intent) []db.Node {
	pred, args := buildPredicate(intent)

	// Over-fetch so ranking can discard weak matches later
	direct, err := e.Store.SearchNodes(pred, args, 2*e.MaxResults)
	if err != nil {
		e.Log.Warn("graph search failed", "error", err)
		return nil
	}

	if len(direct) >= e.MaxResults || e.MaxHops <= 0 {
		return direct
	}

	seeds := make([]string, len(direct))
	for i, n := range direct {
		seeds[i] = n.ID
	}
	expanded, err := expandFrom(e.Store, seeds, e.MaxResults, e.MaxHops)
	if err != nil {
		e.Log.Warn("graph expansion failed", "error", err)
		return nil
	}

	return append(direct, expanded...)
}

// hopEntry is one queued traversal step.
type hopEntry struct {
	id  string
	hop int
}

// expandFrom walks the graph breadth-first from the seed ids, collecting
// newly reached nodes up to maxResults. The visited set is seeded with the
// seeds themselves so they are never re-emitted; entries beyond maxHops are
// discarded without terminating the walk.
func expandFrom(store Store, seeds []string, maxResults, maxHops int) ([]db.Node, error) {
	visited := make(map[string]bool, len(seeds))
	queue := make([]hopEntry, 0, len(seeds))
	for _, id := range seeds {
		visited[id] = true
		queue = append(queue, hopEntry{id: id, hop: 0})
	}

	var results []db.Node
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if entry.hop > maxHops {
			continue
		}

		connected, err := store.ConnectedIDs(entry.id)
		if err != nil {
			return nil, fmt.Errorf("fetching neighbors of %s: %w", entry.id, err)
		}

		for _, id := range connected {
			if visited[id] {
				continue
			}
			visited[id] = true

			node, err := store.GetNode(id)
			if err != nil {
				return nil, fmt.Errorf("loading node %s: %w", id, err)
			}
			if node != nil {
				results = append(results, *node)
				if len(results) >= maxResults {
					return results, nil
				}
			}
			if entry.hop < maxHops {
				queue = append(queue, hopEntry{id: id, hop: entry.hop + 1})
			}
		}
	}
	return results, nil
}
