package query

import (
	"context"
	"errors"
	"testing"

	"arcmemory/arc/internal/db"
)

// fakeGen replays scripted responses in call order. A nil responses slice
// with err set simulates a failing service.
type fakeGen struct {
	available bool
	responses []string
	err       error
	calls     int
}

func (f *fakeGen) Generate(_ context.Context, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.calls >= len(f.responses) {
		return "", errors.New("no scripted response left")
	}
	r := f.responses[f.calls]
	f.calls++
	return r, nil
}

func (f *fakeGen) Available(_ context.Context) bool { return f.available }

func TestFormatNode_Idempotent(t *testing.T) {
	n := db.Node{
		ID: "commit:abc", Type: db.NodeCommit, Title: "Fix login bug",
		Body: "details", Timestamp: testTime(t, "2023-02-01T00:00:00Z"),
	}
	a := FormatNode(n)
	b := FormatNode(n)
	if a != b {
		t.Errorf("formatting is not idempotent: %+v vs %+v", a, b)
	}
	if a.Timestamp != "2023-02-01T00:00:00Z" {
		t.Errorf("got ts %q", a.Timestamp)
	}
}

func TestFormatNode_TruncatesBody(t *testing.T) {
	body := make([]byte, 2*bodySnippetLen)
	for i := range body {
		body[i] = 'x'
	}
	f := FormatNode(db.Node{ID: "adr:1", Body: string(body)})
	if len(f.Body) != bodySnippetLen {
		t.Errorf("got body length %d, want %d", len(f.Body), bodySnippetLen)
	}
}

func TestSynthesize_Success(t *testing.T) {
	gen := &fakeGen{available: true, responses: []string{
		"```json\n{\"summary\":\"s\",\"answer\":\"a\",\"reasoning\":\"r\",\"confidence\":8}\n```",
	}}
	nodes := []FormattedNode{{ID: "commit:abc", Relevance: 10}, {ID: "file:x", Relevance: 9}}
	intent := &Intent{Understanding: "u"}

	res := Synthesize(context.Background(), gen, "q", intent, nodes)
	if res.Summary != "s" || res.Answer != "a" || res.Confidence != 8 {
		t.Errorf("got %+v", res)
	}
	if res.Understanding != "u" {
		t.Errorf("got understanding %q, want intent's", res.Understanding)
	}
	if res.Reasoning != "r" {
		t.Errorf("got reasoning %q, want r", res.Reasoning)
	}
	// Reasoning is mirrored onto the first result only
	if res.Results[0].Reasoning != "r" {
		t.Error("first result missing shared reasoning")
	}
	if res.Results[1].Reasoning != "" {
		t.Error("reasoning leaked onto later results")
	}
}

func TestSynthesize_DefaultConfidence(t *testing.T) {
	gen := &fakeGen{available: true, responses: []string{
		`{"summary":"s","answer":"a"}`,
	}}
	res := Synthesize(context.Background(), gen, "q", &Intent{}, nil)
	if res.Confidence != 5 {
		t.Errorf("got confidence %d, want default 5", res.Confidence)
	}
}

func TestSynthesize_ExtractionFailureDegrades(t *testing.T) {
	gen := &fakeGen{available: true, responses: []string{"no json here at all"}}
	nodes := []FormattedNode{{ID: "commit:abc", Relevance: 10}}
	intent := &Intent{Understanding: "u"}

	res := Synthesize(context.Background(), gen, "q", intent, nodes)
	if res.Confidence != 1 {
		t.Errorf("got confidence %d, want fixed 1 in degraded mode", res.Confidence)
	}
	if res.Understanding != "u" {
		t.Errorf("got understanding %q, want intent's", res.Understanding)
	}
	if len(res.Results) != 1 || res.Results[0].ID != "commit:abc" {
		t.Errorf("degraded result must carry the raw node list: %+v", res.Results)
	}
	if res.Error != "" {
		t.Errorf("degraded mode is not an error: %q", res.Error)
	}
}

func TestSynthesize_ServiceErrorDegrades(t *testing.T) {
	gen := &fakeGen{available: true, err: errors.New("connection refused")}
	res := Synthesize(context.Background(), gen, "q", &Intent{}, nil)
	if res.Confidence != 1 {
		t.Errorf("got confidence %d, want 1", res.Confidence)
	}
}
