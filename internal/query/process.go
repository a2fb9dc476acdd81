// Package query implements the semantic query pipeline: intent parsing,
// graph search with bounded expansion, relevance scoring, and answer
// synthesis, sequenced by Engine.Process.
package query

import (
	"context"
	"fmt"
	"log/slog"

	"arcmemory/arc/internal/llm"
)

// Defaults for the pipeline's result and traversal bounds.
const (
	DefaultMaxResults = 5
	DefaultMaxHops    = 2
)

// Engine wires the pipeline's collaborators together. One Engine may serve
// many queries; it holds no per-query state.
type Engine struct {
	Store      Store
	Gen        llm.Generator
	MaxResults int
	MaxHops    int
	Log        *slog.Logger
}

// NewEngine creates an Engine with default bounds and logger.
func NewEngine(store Store, gen llm.Generator) *Engine {
	return &Engine{
		Store:      store,
		Gen:        gen,
		MaxResults: DefaultMaxResults,
		MaxHops:    DefaultMaxHops,
		Log:        slog.Default(),
	}
}

// Process answers a free-text question end to end. It always returns a
// well-formed Result and never panics: every failure mode — service down,
// unparseable intent, empty search, synthesis failure — is normalized into
// the result shape.
func (e *Engine) Process(ctx context.Context, query string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			e.Log.Error("query pipeline panicked", "panic", r)
			res = &Result{
				Error:         fmt.Sprintf("%v", r),
				Understanding: "An error occurred while processing your query",
				Results:       []FormattedNode{},
			}
		}
	}()

	if e.Gen == nil || !e.Gen.Available(ctx) {
		return &Result{
			Error:   "text-completion service unavailable",
			Results: []FormattedNode{},
		}
	}

	intent, ok := ParseIntent(ctx, e.Gen, query)
	if !ok {
		return &Result{
			Error:         "could not parse query intent",
			Understanding: "I couldn't understand your question. Try rephrasing it.",
			Results:       []FormattedNode{},
		}
	}

	nodes := e.Search(intent)
	if len(nodes) == 0 {
		return &Result{
			Understanding: intent.Understanding,
			Summary:       "No relevant information found",
			Results:       []FormattedNode{},
		}
	}

	ranked := ScoreAndRank(nodes, intent)
	if len(ranked) > e.MaxResults {
		ranked = ranked[:e.MaxResults]
	}

	formatted := make([]FormattedNode, len(ranked))
	for i, n := range ranked {
		f := FormatNode(n)
		// Display relevance is positional, not the raw score
		f.Relevance = 10 - i
		if f.Relevance < 1 {
			f.Relevance = 1
		}
		formatted[i] = f
	}

	return Synthesize(ctx, e.Gen, query, intent, formatted)
}
