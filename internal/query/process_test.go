package query

import (
	"context"
	"testing"

	"arcmemory/arc/internal/db"
)

const scenarioIntentJSON = "```json\n" +
	`{"understanding":"Commits about login after 2023-01-01",` +
	`"entity_types":["commit"],` +
	`"temporal_constraints":{"after":"2023-01-01"},` +
	`"attributes":{"title_keywords":["login"]}}` + "\n```"

const scenarioAnswerJSON = "```json\n" +
	`{"summary":"One commit fixed login.",` +
	`"answer":"Commit commit:abc fixed the login bug.",` +
	`"reasoning":"The only post-2023 commit mentioning login is commit:abc.",` +
	`"confidence":8}` + "\n```"

func scenarioStore(t *testing.T) *db.DB {
	t.Helper()
	d := newTestStore(t)
	addNode(t, d, db.Node{
		ID: "commit:abc", Type: db.NodeCommit, Title: "Fix login bug",
		Timestamp: testTime(t, "2023-02-01T00:00:00Z"),
	})
	addNode(t, d, db.Node{
		ID: "commit:old", Type: db.NodeCommit, Title: "Refactor build scripts",
		Timestamp: testTime(t, "2022-01-01T00:00:00Z"),
	})
	return d
}

func TestProcess_Scenario(t *testing.T) {
	d := scenarioStore(t)
	gen := &fakeGen{available: true, responses: []string{scenarioIntentJSON, scenarioAnswerJSON}}
	e := NewEngine(d, gen)

	res := e.Process(context.Background(), "commits about login after 2023-01-01")
	if res.Error != "" {
		t.Fatalf("unexpected error: %q", res.Error)
	}
	if len(res.Results) != 1 {
		t.Fatalf("got %d results, want only the matching commit: %+v", len(res.Results), res.Results)
	}
	if res.Results[0].ID != "commit:abc" {
		t.Errorf("got %s, want commit:abc", res.Results[0].ID)
	}
	if res.Results[0].Relevance != 10 {
		t.Errorf("got relevance %d, want positional 10 for the top result", res.Results[0].Relevance)
	}
	if res.Confidence != 8 {
		t.Errorf("got confidence %d, want 8", res.Confidence)
	}
	if res.Summary != "One commit fixed login." {
		t.Errorf("got summary %q", res.Summary)
	}
}

func TestProcess_ServiceUnavailable(t *testing.T) {
	e := NewEngine(scenarioStore(t), &fakeGen{available: false})
	res := e.Process(context.Background(), "anything")
	if res.Error == "" {
		t.Error("expected error when the completion service is down")
	}
	if res.Results == nil {
		t.Error("results must be present even on error")
	}
}

func TestProcess_IntentParseFailure(t *testing.T) {
	gen := &fakeGen{available: true, responses: []string{"I have no idea what you mean."}}
	e := NewEngine(scenarioStore(t), gen)
	res := e.Process(context.Background(), "gibberish")
	if res.Error == "" {
		t.Error("expected error on unparseable intent")
	}
	if res.Understanding == "" {
		t.Error("expected a user-facing understanding message")
	}
}

func TestProcess_EmptySearchIsSuccess(t *testing.T) {
	d := newTestStore(t) // empty store
	gen := &fakeGen{available: true, responses: []string{scenarioIntentJSON}}
	e := NewEngine(d, gen)

	res := e.Process(context.Background(), "commits about login")
	if res.Error != "" {
		t.Errorf("empty search is a success path, got error %q", res.Error)
	}
	if res.Summary != "No relevant information found" {
		t.Errorf("got summary %q", res.Summary)
	}
	if len(res.Results) != 0 {
		t.Errorf("got %d results, want 0", len(res.Results))
	}
	if gen.calls != 1 {
		t.Errorf("synthesis must be skipped on empty search, got %d calls", gen.calls)
	}
}

func TestProcess_SynthesisFailureDegrades(t *testing.T) {
	d := scenarioStore(t)
	gen := &fakeGen{available: true, responses: []string{scenarioIntentJSON, "malformed output"}}
	e := NewEngine(d, gen)

	res := e.Process(context.Background(), "commits about login after 2023-01-01")
	if res.Error != "" {
		t.Errorf("synthesis failure must not be an error: %q", res.Error)
	}
	if res.Confidence != 1 {
		t.Errorf("got confidence %d, want degraded 1", res.Confidence)
	}
	if len(res.Results) == 0 {
		t.Error("degraded result must still carry the search results")
	}
}

func TestProcess_StoreFailure(t *testing.T) {
	gen := &fakeGen{available: true, responses: []string{scenarioIntentJSON}}
	e := NewEngine(failingStore{}, gen)
	res := e.Process(context.Background(), "commits about login")
	if res == nil {
		t.Fatal("expected a result, got nil")
	}
	// A dead store degrades to the empty-search path
	if res.Summary != "No relevant information found" {
		t.Errorf("got summary %q", res.Summary)
	}
}

// TestProcess_TotalCoverage injects failures at every component boundary and
// asserts the orchestrator contract: a well-formed result, never a panic.
func TestProcess_TotalCoverage(t *testing.T) {
	cases := []struct {
		name  string
		store Store
		gen   *fakeGen
	}{
		{"service down", scenarioStore(t), &fakeGen{available: false}},
		{"intent garbage", scenarioStore(t), &fakeGen{available: true, responses: []string{"???"}}},
		{"intent empty object", scenarioStore(t), &fakeGen{available: true, responses: []string{"{}", scenarioAnswerJSON}}},
		{"store down", failingStore{}, &fakeGen{available: true, responses: []string{scenarioIntentJSON}}},
		{"empty store", newTestStore(t), &fakeGen{available: true, responses: []string{scenarioIntentJSON}}},
		{"synthesis garbage", scenarioStore(t), &fakeGen{available: true, responses: []string{scenarioIntentJSON, "???"}}},
		{"no scripted synthesis", scenarioStore(t), &fakeGen{available: true, responses: []string{scenarioIntentJSON}}},
		{"all good", scenarioStore(t), &fakeGen{available: true, responses: []string{scenarioIntentJSON, scenarioAnswerJSON}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEngine(tc.store, tc.gen)
			res := e.Process(context.Background(), "commits about login")
			if res == nil {
				t.Fatal("got nil result")
			}
			if res.Results == nil {
				t.Error("results key must always be present")
			}
			if res.Error == "" && res.Understanding == "" && res.Summary == "" {
				t.Errorf("result carries no user-facing content: %+v", res)
			}
		})
	}
}
