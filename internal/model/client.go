// Package model calls the generative message service over HTTP. The wire
// contract is the messages API with an extended-thinking allowance; the
// client sends one system/user pair and extracts the first text block from
// the reply, skipping thinking blocks.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"xstream/internal/store"
)

const (
	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
)

// APIError reports a non-2xx response from the model service, carrying
// the status and body for the caller to surface verbatim.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model service returned %d: %s", e.Status, e.Body)
}

type Request struct {
	System    string
	User      string
	MaxTokens int
}

type Reply struct {
	Text  string
	Model string
	Usage store.TokenUsage
}

type Client struct {
	http           *http.Client
	baseURL        string
	apiKey         string
	model          string
	thinkingBudget int
}

func NewClient(baseURL, apiKey, modelName string, thinkingBudget int) *Client {
	return &Client{
		http:           &http.Client{Timeout: 5 * time.Minute},
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		model:          modelName,
		thinkingBudget: thinkingBudget,
	}
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type wireRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Thinking  *wireThinking `json:"thinking,omitempty"`
	System    string        `json:"system"`
	Messages  []wireMessage `json:"messages"`
}

type wireContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type wireResponse struct {
	Model   string        `json:"model"`
	Content []wireContent `json:"content"`
	Usage   wireUsage     `json:"usage"`
}

// Invoke runs one synchronous completion. The thinking budget is layered
// on top of the face-specific max so the visible output is not starved by
// reasoning tokens. No retries; a failure aborts the synthesis call.
func (c *Client) Invoke(ctx context.Context, req Request) (*Reply, error) {
	wire := wireRequest{
		Model:     c.model,
		MaxTokens: req.MaxTokens + c.thinkingBudget,
		System:    req.System,
		Messages:  []wireMessage{{Role: "user", Content: req.User}},
	}
	if c.thinkingBudget > 0 {
		wire.Thinking = &wireThinking{Type: "enabled", BudgetTokens: c.thinkingBudget}
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encoding model request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building model request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling model service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading model response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var parsed wireResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decoding model response: %w", err)
	}

	text, ok := firstText(parsed.Content)
	if !ok {
		return nil, fmt.Errorf("model response contained no text block")
	}

	return &Reply{
		Text:  text,
		Model: parsed.Model,
		Usage: store.TokenUsage{Input: parsed.Usage.InputTokens, Output: parsed.Usage.OutputTokens},
	}, nil
}

func firstText(blocks []wireContent) (string, bool) {
	for _, block := range blocks {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}
