// Package ingest builds the history graph from a git repository: one node
// per commit, one node per touched file, and MODIFIES edges between them.
// The query pipeline itself never writes; this is the only write path.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/google/uuid"

	"arcmemory/arc/internal/db"
)

// Options bounds an ingestion run.
type Options struct {
	// MaxCommits caps how many commits are walked from HEAD. Zero means
	// no cap.
	MaxCommits int
}

// Stats summarizes what an ingestion run wrote.
type Stats struct {
	Commits int `json:"commits"`
	Files   int `json:"files"`
	Edges   int `json:"edges"`
}

// Open opens the git repository at path.
func Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// Run walks the commit history from HEAD and upserts commit nodes, file
// nodes, and MODIFIES edges into the store. Re-running on the same
// repository is idempotent: nodes are upserted by id and duplicate edges
// are ignored.
func Run(ctx context.Context, store *db.DB, repo *git.Repository, opts Options) (*Stats, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("walking history: %w", err)
	}
	defer iter.Close()

	stats := &Stats{}
	seenFiles := map[string]bool{}
	count := 0

	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if opts.MaxCommits > 0 && count >= opts.MaxCommits {
			return storer.ErrStop
		}
		count++

		commitID, err := upsertCommit(store, c)
		if err != nil {
			return err
		}
		stats.Commits++

		// Stats diffs against the first parent; unreadable diffs (e.g.
		// exotic merges) skip file edges but keep the commit node.
		fileStats, err := c.Stats()
		if err != nil {
			return nil
		}
		for _, fs := range fileStats {
			fileID := db.NodeID(db.NodeFile, fs.Name)
			if !seenFiles[fileID] {
				if err := store.UpsertNode(db.Node{
					ID:    fileID,
					Type:  db.NodeFile,
					Title: fs.Name,
				}); err != nil {
					return err
				}
				seenFiles[fileID] = true
				stats.Files++
			}

			when := c.Author.When.UTC()
			if err := store.InsertEdge(db.Edge{
				ID:        uuid.NewString(),
				SourceID:  commitID,
				TargetID:  fileID,
				Rel:       db.RelModifies,
				CreatedAt: &when,
			}); err != nil {
				return err
			}
			stats.Edges++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingesting commits: %w", err)
	}
	return stats, nil
}

// upsertCommit writes one commit node and returns its id.
func upsertCommit(store *db.DB, c *object.Commit) (string, error) {
	sha := c.Hash.String()
	title := c.Message
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}

	extra, err := json.Marshal(map[string]string{
		"author": c.Author.Name,
		"email":  c.Author.Email,
		"sha":    sha,
	})
	if err != nil {
		extra = []byte("{}")
	}

	when := c.Author.When.UTC()
	node := db.Node{
		ID:        db.NodeID(db.NodeCommit, sha),
		Type:      db.NodeCommit,
		Title:     strings.TrimSpace(title),
		Body:      strings.TrimSpace(c.Message),
		Extra:     string(extra),
		Timestamp: &when,
	}
	if err := store.UpsertNode(node); err != nil {
		return "", err
	}
	return node.ID, nil
}
