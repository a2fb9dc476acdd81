package db

import (
	"database/sql"
	"errors"
	"time"
)

// scanNode scans a row into a Node. The row must have all 6 columns in
// standard order. Unknown type strings and unparseable timestamps become
// zero values rather than errors.
func scanNode(scanner interface{ Scan(dest ...any) error }) (Node, error) {
	var n Node
	var typ string
	var ts sql.NullString
	err := scanner.Scan(&n.ID, &typ, &n.Title, &n.Body, &n.Extra, &ts)
	if err != nil {
		return n, err
	}
	n.Type = ParseNodeType(typ)
	n.Timestamp = parseTimestamp(ts)
	return n, nil
}

// parseTimestamp converts a stored ts column to *time.Time.
// NULL or malformed values yield nil.
func parseTimestamp(ts sql.NullString) *time.Time {
	if !ts.Valid || ts.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ts.String)
	if err != nil {
		return nil
	}
	return &t
}

const nodeColumns = "id, type, title, body, extra, ts"

// GetNode returns a single node by ID, or nil if not found
func (d *DB) GetNode(id string) (*Node, error) {
	row := d.conn.QueryRow(`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// SearchNodes runs a filtered node search. pred is a SQL boolean expression
// over the nodes columns with ? placeholders bound from args; an empty pred
// matches everything. Rows come back newest-first, capped at limit.
func (d *DB) SearchNodes(pred string, args []any, limit int) ([]Node, error) {
	q := `SELECT ` + nodeColumns + ` FROM nodes`
	if pred != "" {
		q += ` WHERE ` + pred
	}
	q += ` ORDER BY ts DESC LIMIT ?`
	args = append(append([]any{}, args...), limit)

	rows, err := d.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// SearchByIDPrefix finds nodes whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]Node, error) {
	rows, err := d.conn.Query(
		`SELECT `+nodeColumns+` FROM nodes WHERE id LIKE ? LIMIT ?`,
		prefix+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// CountNodesByType returns node counts keyed by the raw stored type string.
func (d *DB) CountNodesByType() (map[string]int, error) {
	rows, err := d.conn.Query(`SELECT type, COUNT(*) FROM nodes GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}
