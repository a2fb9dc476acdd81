// Package llm provides the text-completion client used by the query
// pipeline. The production implementation targets an Ollama-style
// /api/generate endpoint; tests substitute a fake Generator.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Generator is the text-completion boundary: one blocking round-trip per
// call. system may be empty.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
	Available(ctx context.Context) bool
}

const (
	defaultHost  = "http://localhost:11434"
	defaultModel = "qwen3:8b"
)

// Client talks to an Ollama-compatible completion endpoint.
type Client struct {
	host   string
	model  string
	client *http.Client
}

// NewClient creates a client for the given host and model. Empty arguments
// fall back to ARC_OLLAMA_HOST / ARC_OLLAMA_MODEL, then to defaults.
func NewClient(host, model string) *Client {
	if host == "" {
		host = os.Getenv("ARC_OLLAMA_HOST")
	}
	if host == "" {
		host = defaultHost
	}
	if model == "" {
		model = os.Getenv("ARC_OLLAMA_MODEL")
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		host:   strings.TrimRight(host, "/"),
		model:  model,
		client: &http.Client{},
	}
}

// WithThinking appends the extended-reasoning directive to a prompt.
// This is a prompt-level convention, not a protocol field.
func WithThinking(prompt string) string {
	return prompt + "\n\n/think"
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

// generateChunk is one line of stream output, or the whole body for
// non-streaming servers. Only the fields we read.
type generateChunk struct {
	Response string `json:"response"`
	Thinking string `json:"thinking"`
	Done     bool   `json:"done"`
}

// Generate sends a completion request and returns the concatenated response
// text. Tolerates newline-delimited JSON chunks, a single JSON document, or
// malformed output (returned as raw text).
func (c *Client) Generate(ctx context.Context, prompt, system string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: system,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", fmt.Errorf("completion service returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return collectResponse(resp.Body)
}

// collectResponse concatenates response fragments from r. Each line is
// parsed independently; lines that are not JSON abort chunk parsing and the
// whole body is returned as raw text instead.
func collectResponse(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var out strings.Builder
	parsedAny := false
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	// Allow large lines (a non-streaming response arrives as one line)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			// Malformed or partial JSON: fall back to raw text
			return strings.TrimSpace(string(raw)), nil
		}
		parsedAny = true
		out.WriteString(chunk.Response)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scanning response stream: %w", err)
	}

	if !parsedAny {
		return strings.TrimSpace(string(raw)), nil
	}
	return out.String(), nil
}

// Available reports whether the completion service is reachable. Used as a
// pre-flight check before running the pipeline.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
