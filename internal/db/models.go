package db

import (
	"encoding/json"
	"time"
)

// NodeType classifies a graph node. The zero value means the stored type
// string did not match any known type.
type NodeType string

const (
	NodeCommit NodeType = "commit"
	NodePR     NodeType = "pr"
	NodeIssue  NodeType = "issue"
	NodeADR    NodeType = "adr"
	NodeFile   NodeType = "file"
)

// knownNodeTypes is the closed set accepted by ParseNodeType.
var knownNodeTypes = map[string]NodeType{
	"commit": NodeCommit,
	"pr":     NodePR,
	"issue":  NodeIssue,
	"adr":    NodeADR,
	"file":   NodeFile,
}

// ParseNodeType maps a stored type string to a NodeType. Unknown strings
// return the zero value rather than an error so a single bad row never
// aborts a scan.
func ParseNodeType(s string) NodeType {
	return knownNodeTypes[s]
}

// RelType labels a directed edge between two nodes.
type RelType string

const (
	RelModifies  RelType = "MODIFIES"
	RelMerges    RelType = "MERGES"
	RelMentions  RelType = "MENTIONS"
	RelDecides   RelType = "DECIDES"
	RelDependsOn RelType = "DEPENDS_ON"
)

// Node represents a row in the nodes table.
// IDs follow the format "<type>:<natural-key>", e.g. "file:src/auth.go".
type Node struct {
	ID        string     `json:"id"`
	Type      NodeType   `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Extra     string     `json:"extra"` // serialized JSON, possibly malformed
	Timestamp *time.Time `json:"ts"`
}

// ExtraMap decodes the extra payload. Malformed or empty extra yields an
// empty map, never an error.
func (n *Node) ExtraMap() map[string]any {
	if n.Extra == "" {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(n.Extra), &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

// Edge represents a row in the edges table
type Edge struct {
	ID        string     `json:"id"`
	SourceID  string     `json:"source_id"`
	TargetID  string     `json:"target_id"`
	Rel       RelType    `json:"rel"`
	Extra     string     `json:"extra"`
	CreatedAt *time.Time `json:"created_at"`
}

// NodeID builds a node id from type and natural key
func NodeID(t NodeType, key string) string {
	return string(t) + ":" + key
}
