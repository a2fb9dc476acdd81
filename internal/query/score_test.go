package query

import (
	"testing"

	"arcmemory/arc/internal/db"
)

func TestScoreNode_TypeMatch(t *testing.T) {
	n := db.Node{Type: db.NodeCommit}
	intent := &Intent{EntityTypes: []string{"commit"}}
	if got := scoreNode(&n, intent); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
}

func TestScoreNode_KeywordsAccumulate(t *testing.T) {
	n := db.Node{Title: "Fix login form validation for auth flow"}
	intent := &Intent{Attributes: map[string]any{
		"title_keywords": []any{"login", "auth", "validation"},
	}}
	if got := scoreNode(&n, intent); got != 9 {
		t.Errorf("got %d, want 3 keywords x 3 = 9", got)
	}
}

func TestScoreNode_KeywordCaseInsensitive(t *testing.T) {
	n := db.Node{Title: "Fix LOGIN bug"}
	intent := &Intent{Attributes: map[string]any{"title_keywords": []any{"Login"}}}
	if got := scoreNode(&n, intent); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestScoreNode_TemporalStrict(t *testing.T) {
	after := testTime(t, "2023-01-01T00:00:00Z")
	intent := &Intent{Temporal: &TemporalConstraints{After: after}}

	later := db.Node{Timestamp: testTime(t, "2023-02-01T00:00:00Z")}
	if got := scoreNode(&later, intent); got != 2 {
		t.Errorf("later node: got %d, want 2", got)
	}

	equal := db.Node{Timestamp: after}
	if got := scoreNode(&equal, intent); got != 0 {
		t.Errorf("equal timestamp: got %d, want 0 (strict comparison)", got)
	}

	noTS := db.Node{}
	if got := scoreNode(&noTS, intent); got != 0 {
		t.Errorf("nil timestamp: got %d, want 0", got)
	}
}

func TestScoreNode_BeforeConstraint(t *testing.T) {
	before := testTime(t, "2023-01-01T00:00:00Z")
	intent := &Intent{Temporal: &TemporalConstraints{Before: before}}
	earlier := db.Node{Timestamp: testTime(t, "2022-06-01T00:00:00Z")}
	if got := scoreNode(&earlier, intent); got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestScoreNode_VersionOnlyCommitOrPR(t *testing.T) {
	intent := &Intent{Temporal: &TemporalConstraints{Version: "v2.1.0"}}

	commit := db.Node{Type: db.NodeCommit, Body: "Release v2.1.0 changes"}
	if got := scoreNode(&commit, intent); got != 4 {
		t.Errorf("commit: got %d, want 4", got)
	}

	pr := db.Node{Type: db.NodePR, Title: "Prepare v2.1.0"}
	if got := scoreNode(&pr, intent); got != 4 {
		t.Errorf("pr: got %d, want 4", got)
	}

	file := db.Node{Type: db.NodeFile, Title: "v2.1.0 notes"}
	if got := scoreNode(&file, intent); got != 0 {
		t.Errorf("file: got %d, want 0 (version applies to commit/pr only)", got)
	}
}

func TestScoreNode_ScenarioTotal(t *testing.T) {
	// "commits by alice after 2023-01-01 about login":
	// type match (5) + one keyword (3) + after (2) = 10
	n := db.Node{
		Type:      db.NodeCommit,
		Title:     "Fix login bug",
		Timestamp: testTime(t, "2023-02-01T00:00:00Z"),
	}
	intent := &Intent{
		EntityTypes: []string{"commit"},
		Attributes:  map[string]any{"title_keywords": []any{"login"}},
		Temporal:    &TemporalConstraints{After: testTime(t, "2023-01-01T00:00:00Z")},
	}
	if got := scoreNode(&n, intent); got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestScoreAndRank_Monotonic(t *testing.T) {
	nodes := []db.Node{
		{ID: "one", Title: "login"},
		{ID: "two", Title: "login auth"},
	}
	intent := &Intent{Attributes: map[string]any{
		"title_keywords": []any{"login", "auth"},
	}}
	ranked := ScoreAndRank(nodes, intent)
	if ranked[0].ID != "two" {
		t.Errorf("got %s first, want the node matching more keywords", ranked[0].ID)
	}
}

func TestScoreAndRank_StableOnTies(t *testing.T) {
	nodes := []db.Node{
		{ID: "first"},
		{ID: "second"},
		{ID: "third"},
	}
	ranked := ScoreAndRank(nodes, &Intent{})
	for i, want := range []string{"first", "second", "third"} {
		if ranked[i].ID != want {
			t.Errorf("position %d: got %s, want %s (stable order)", i, ranked[i].ID, want)
		}
	}
}

func TestScoreAndRank_NilIntentFieldsSafe(t *testing.T) {
	nodes := []db.Node{{ID: "a"}, {ID: "b"}}
	ranked := ScoreAndRank(nodes, &Intent{})
	if len(ranked) != 2 {
		t.Errorf("got %d nodes, want input preserved", len(ranked))
	}
}

func TestScoreAndRank_Empty(t *testing.T) {
	ranked := ScoreAndRank(nil, &Intent{})
	if len(ranked) != 0 {
		t.Errorf("got %d nodes, want 0", len(ranked))
	}
}
