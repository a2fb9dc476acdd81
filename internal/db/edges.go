package db

import "database/sql"

// scanEdge scans a row into an Edge. The row must have all 6 columns in
// standard order.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (Edge, error) {
	var e Edge
	var rel string
	var created sql.NullString
	err := scanner.Scan(&e.ID, &e.SourceID, &e.TargetID, &rel, &e.Extra, &created)
	if err != nil {
		return e, err
	}
	e.Rel = RelType(rel)
	e.CreatedAt = parseTimestamp(created)
	return e, nil
}

const edgeColumns = "id, source_id, target_id, rel, extra, created_at"

// EdgesForNode returns all edges where the given node is source OR target.
func (d *DB) EdgesForNode(nodeID string) ([]Edge, error) {
	rows, err := d.conn.Query(
		`SELECT `+edgeColumns+` FROM edges WHERE source_id = ? OR target_id = ?`,
		nodeID, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// ConnectedIDs returns the ids of all nodes directly connected to nodeID,
// in either direction. The node's own id is never included.
func (d *DB) ConnectedIDs(nodeID string) ([]string, error) {
	rows, err := d.conn.Query(`
		SELECT target_id FROM edges WHERE source_id = ?1
		UNION
		SELECT source_id FROM edges WHERE target_id = ?1
	`, nodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if id == nodeID {
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountEdgesByRel returns edge counts keyed by relation label.
func (d *DB) CountEdgesByRel() (map[string]int, error) {
	rows, err := d.conn.Query(`SELECT rel, COUNT(*) FROM edges GROUP BY rel`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var rel string
		var n int
		if err := rows.Scan(&rel, &n); err != nil {
			return nil, err
		}
		counts[rel] = n
	}
	return counts, rows.Err()
}
