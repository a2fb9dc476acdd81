package query

import (
	"context"
	"fmt"
	"time"

	"arcmemory/arc/internal/llm"
)

// Intent is the structured interpretation of a free-text query, as produced
// by the completion service. Every field is optional: absence means "no
// constraint", never an error.
type Intent struct {
	Understanding     string
	EntityTypes       []string
	Temporal          *TemporalConstraints
	Attributes        map[string]any
	RelationshipFocus string
}

// TemporalConstraints narrows results by time. Nil fields mean unconstrained.
type TemporalConstraints struct {
	Before  *time.Time
	After   *time.Time
	Version string
}

// AttrFilter is one (entity type, key, value) attribute constraint derived
// from the intent's attributes mapping.
type AttrFilter struct {
	EntityType string
	Key        string
	Value      string
}

// titleKeywordsKey is reserved in the attributes mapping for free-text title
// keywords and is not an entity-type filter.
const titleKeywordsKey = "title_keywords"

// TitleKeywords returns the reserved title_keywords list from the attributes
// mapping. Tolerates a single string as well as a list.
func (in *Intent) TitleKeywords() []string {
	if in == nil || in.Attributes == nil {
		return nil
	}
	switch v := in.Attributes[titleKeywordsKey].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}

// AttributeFilters flattens the attributes mapping into filter triples,
// skipping the reserved title_keywords entry. List-valued attributes expand
// to one filter per item.
func (in *Intent) AttributeFilters() []AttrFilter {
	if in == nil || in.Attributes == nil {
		return nil
	}
	var filters []AttrFilter
	for entityType, raw := range in.Attributes {
		if entityType == titleKeywordsKey {
			continue
		}
		attrs, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for key, val := range attrs {
			switch v := val.(type) {
			case []any:
				for _, item := range v {
					filters = append(filters, AttrFilter{entityType, key, fmt.Sprintf("%v", item)})
				}
			default:
				filters = append(filters, AttrFilter{entityType, key, fmt.Sprintf("%v", v)})
			}
		}
	}
	return filters
}

const intentSystemPrompt = `You are a query analyzer for a knowledge graph of a software repository's history.

The graph contains these node types:
- commit: a version-control commit
- pr: a pull request
- issue: a bug report or feature request
- adr: an architecture decision record
- file: a source file

Nodes are connected by these relations:
- MODIFIES: a commit modifies a file
- MERGES: a pr merges a commit
- MENTIONS: a commit, pr or issue mentions another node
- DECIDES: an adr decides something about a file or component

Respond with ONLY a JSON object in this exact schema:
{
  "understanding": "<one sentence restating what the user wants>",
  "entity_types": ["<node types to search, from the list above>"],
  "temporal_constraints": {"before": "<ISO date or omit>", "after": "<ISO date or omit>", "version": "<version string or omit>"},
  "attributes": {"<entity type>": {"<attribute key>": "<value>"}, "title_keywords": ["<keywords to match in titles>"]},
  "relationship_focus": "<one of the relations above, or omit>"
}

Omit any field that the query does not constrain.`

const intentPromptTemplate = `Analyze this question about a repository's history and produce the structured query intent:

Question: %s`

// intentPayload is the wire shape produced by the completion service.
// Dates arrive as strings and are validated during conversion.
type intentPayload struct {
	Understanding       string   `json:"understanding"`
	EntityTypes         []string `json:"entity_types"`
	TemporalConstraints *struct {
		Before  string `json:"before"`
		After   string `json:"after"`
		Version string `json:"version"`
	} `json:"temporal_constraints"`
	Attributes        map[string]any `json:"attributes"`
	RelationshipFocus string         `json:"relationship_focus"`
}

// ParseIntent asks the completion service to interpret the query and
// extracts the structured intent from its output. Reports false when the
// service fails or no JSON can be extracted; it never returns an error.
func ParseIntent(ctx context.Context, gen llm.Generator, query string) (*Intent, bool) {
	prompt := llm.WithThinking(fmt.Sprintf(intentPromptTemplate, query))
	text, err := gen.Generate(ctx, prompt, intentSystemPrompt)
	if err != nil {
		return nil, false
	}

	var payload intentPayload
	if !ExtractJSON(text, &payload) {
		return nil, false
	}

	intent := &Intent{
		Understanding:     payload.Understanding,
		EntityTypes:       payload.EntityTypes,
		Attributes:        payload.Attributes,
		RelationshipFocus: payload.RelationshipFocus,
	}
	if tc := payload.TemporalConstraints; tc != nil {
		temporal := &TemporalConstraints{
			Before:  parseDate(tc.Before),
			After:   parseDate(tc.After),
			Version: tc.Version,
		}
		if temporal.Before != nil || temporal.After != nil || temporal.Version != "" {
			intent.Temporal = temporal
		}
	}
	return intent, true
}

// parseDate accepts ISO dates with or without a time component.
// Anything unparseable means "no constraint".
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
