package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arcmemory/arc/internal/db"
	"arcmemory/arc/internal/llm"
)

// FormattedNode is the plain, JSON-serializable projection of a node that
// appears in query results and in the synthesis prompt.
type FormattedNode struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body,omitempty"`
	Timestamp string `json:"ts,omitempty"`
	Relevance int    `json:"relevance"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Result is the final output of the pipeline. The caller always receives a
// well-formed Result; errors surface in the Error field, never as panics.
type Result struct {
	Error         string          `json:"error,omitempty"`
	Understanding string          `json:"understanding,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	Answer        string          `json:"answer,omitempty"`
	Reasoning     string          `json:"reasoning,omitempty"`
	Results       []FormattedNode `json:"results"`
	Confidence    int             `json:"confidence,omitempty"`
}

const bodySnippetLen = 500

// FormatNode projects a stored node into its result shape. Formatting is
// pure: the same node always yields the same output.
func FormatNode(n db.Node) FormattedNode {
	body := n.Body
	if len(body) > bodySnippetLen {
		body = body[:bodySnippetLen]
	}
	ts := ""
	if n.Timestamp != nil {
		ts = n.Timestamp.UTC().Format(time.RFC3339)
	}
	return FormattedNode{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      body,
		Timestamp: ts,
	}
}

const synthesisSystemPrompt = `You are answering a question about a software repository using ONLY the provided context nodes from its knowledge graph.

Rules:
- Answer strictly from the provided context. Do not invent commits, files, issues or dates.
- If the context does not contain enough evidence to answer, say so honestly.
- Cite node ids when you refer to specific items.

Respond with ONLY a JSON object in this exact schema:
{
  "summary": "<one-sentence summary of the answer>",
  "answer": "<the full answer, citing node ids>",
  "reasoning": "<how the context supports the answer>",
  "confidence": <integer 1-10>
}`

const synthesisPromptTemplate = `Question: %s

Interpretation: %s

Context nodes (JSON):
%s

Answer the question from this context.`

// synthesisPayload is the wire shape of the synthesis response.
type synthesisPayload struct {
	Summary    string `json:"summary"`
	Answer     string `json:"answer"`
	Reasoning  string `json:"reasoning"`
	Confidence int    `json:"confidence"`
}

// Synthesize runs the second completion round-trip: it hands the question,
// the parsed interpretation, and the formatted context nodes to the
// completion service and extracts the structured answer. When extraction
// fails it returns a degraded but well-formed result carrying the raw node
// list at confidence 1 — a documented fallback, not an error path.
func Synthesize(ctx context.Context, gen llm.Generator, query string, intent *Intent, nodes []FormattedNode) *Result {
	nodesJSON, err := json.MarshalIndent(nodes, "", "  ")
	if err != nil {
		nodesJSON = []byte("[]")
	}

	prompt := llm.WithThinking(fmt.Sprintf(synthesisPromptTemplate,
		query, intent.Understanding, nodesJSON))

	text, genErr := gen.Generate(ctx, prompt, synthesisSystemPrompt)

	var payload synthesisPayload
	if genErr != nil || !ExtractJSON(text, &payload) {
		return &Result{
			Understanding: intent.Understanding,
			Summary:       "Unable to generate a structured response",
			Answer:        "I found relevant information but could not synthesize a structured answer. The raw results are included below.",
			Results:       nodes,
			Confidence:    1,
		}
	}

	if payload.Confidence == 0 {
		payload.Confidence = 5
	}

	result := &Result{
		Understanding: intent.Understanding,
		Summary:       payload.Summary,
		Answer:        payload.Answer,
		Results:       nodes,
		Confidence:    payload.Confidence,
	}
	if payload.Reasoning != "" {
		result.Reasoning = payload.Reasoning
		// Shared attribution: only the top result carries the reasoning
		if len(result.Results) > 0 {
			result.Results[0].Reasoning = payload.Reasoning
		}
	}
	return result
}
