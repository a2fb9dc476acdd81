package query

import (
	"sort"
	"strings"

	"arcmemory/arc/internal/db"
)

// Scoring weights. Accumulated additively per node.
const (
	typeMatchScore  = 5
	keywordScore    = 3
	temporalScore   = 2
	versionRefScore = 4
)

// ScoreAndRank orders nodes by relevance to the intent, highest first.
// The sort is stable: equal scores keep their input order. Any panic during
// scoring is recovered and the input returned as-is — a degraded unordered
// result beats no result.
func ScoreAndRank(nodes []db.Node, intent *Intent) (ranked []db.Node) {
	ranked = nodes
	defer func() {
		if r := recover(); r != nil {
			ranked = nodes
		}
	}()

	scores := make([]int, len(nodes))
	for i := range nodes {
		scores[i] = scoreNode(&nodes[i], intent)
	}

	out := make([]db.Node, len(nodes))
	idx := make([]int, len(nodes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	for i, j := range idx {
		out[i] = nodes[j]
	}
	return out
}

// scoreNode accumulates the relevance signals for a single node.
func scoreNode(n *db.Node, intent *Intent) int {
	score := 0

	for _, t := range intent.EntityTypes {
		if t == string(n.Type) {
			score += typeMatchScore
			break
		}
	}

	titleLower := strings.ToLower(n.Title)
	for _, kw := range intent.TitleKeywords() {
		if strings.Contains(titleLower, strings.ToLower(kw)) {
			score += keywordScore
		}
	}

	if tc := intent.Temporal; tc != nil {
		// Temporal signals require a timestamp
		if n.Timestamp != nil {
			if tc.After != nil && n.Timestamp.After(*tc.After) {
				score += temporalScore
			}
			if tc.Before != nil && n.Timestamp.Before(*tc.Before) {
				score += temporalScore
			}
		}
		if tc.Version != "" && (n.Type == db.NodeCommit || n.Type == db.NodePR) {
			if strings.Contains(n.Title, tc.Version) || strings.Contains(n.Body, tc.Version) {
				score += versionRefScore
			}
		}
	}

	return score
}
