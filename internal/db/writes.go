package db

import (
	"fmt"
	"time"
)

// UpsertNode inserts a node or updates its mutable fields if the id already
// exists. Used by the ingestion path; the query pipeline never writes.
func (d *DB) UpsertNode(n Node) error {
	var ts any
	if n.Timestamp != nil {
		ts = n.Timestamp.UTC().Format(time.RFC3339)
	}
	extra := n.Extra
	if extra == "" {
		extra = "{}"
	}
	_, err := d.conn.Exec(`
		INSERT INTO nodes (id, type, title, body, extra, ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			body  = excluded.body,
			extra = excluded.extra,
			ts    = excluded.ts
	`, n.ID, string(n.Type), n.Title, n.Body, extra, ts)
	if err != nil {
		return fmt.Errorf("upserting node %s: %w", n.ID, err)
	}
	return nil
}

// InsertEdge inserts an edge, ignoring duplicates of (source, target, rel).
func (d *DB) InsertEdge(e Edge) error {
	var created any
	if e.CreatedAt != nil {
		created = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	extra := e.Extra
	if extra == "" {
		extra = "{}"
	}
	_, err := d.conn.Exec(`
		INSERT OR IGNORE INTO edges (id, source_id, target_id, rel, extra, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.SourceID, e.TargetID, string(e.Rel), extra, created)
	if err != nil {
		return fmt.Errorf("inserting edge %s -> %s: %w", e.SourceID, e.TargetID, err)
	}
	return nil
}
