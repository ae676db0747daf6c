package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInvoke(t *testing.T) {
	ctx := context.Background()

	t.Run("skips thinking blocks and picks first text", func(t *testing.T) {
		var captured wireRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/messages" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if got := r.Header.Get("x-api-key"); got != "sk-test" {
				t.Errorf("unexpected api key header: %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Errorf("decoding request: %v", err)
			}
			resp := wireResponse{
				Model: "claude-sonnet-4-20250514",
				Content: []wireContent{
					{Type: "thinking"},
					{Type: "text", Text: "The door creaks open."},
					{Type: "text", Text: "second block"},
				},
				Usage: wireUsage{InputTokens: 120, OutputTokens: 45},
			}
			json.NewEncoder(w).Encode(resp)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "sk-test", "claude-sonnet-4-20250514", 8000)
		reply, err := client.Invoke(ctx, Request{System: "sys", User: "usr", MaxTokens: 512})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if reply.Text != "The door creaks open." {
			t.Fatalf("unexpected text: %q", reply.Text)
		}
		if reply.Usage.Input != 120 || reply.Usage.Output != 45 {
			t.Fatalf("unexpected usage: %+v", reply.Usage)
		}
		if captured.MaxTokens != 512+8000 {
			t.Fatalf("expected thinking budget layered on max tokens, got %d", captured.MaxTokens)
		}
		if captured.Thinking == nil || captured.Thinking.Type != "enabled" || captured.Thinking.BudgetTokens != 8000 {
			t.Fatalf("unexpected thinking block: %+v", captured.Thinking)
		}
		if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
			t.Fatalf("unexpected messages: %+v", captured.Messages)
		}
	})

	t.Run("non-2xx surfaces status and body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"overloaded"}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "sk-test", "m", 0)
		_, err := client.Invoke(ctx, Request{MaxTokens: 512})
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.Status != http.StatusTooManyRequests {
			t.Fatalf("unexpected status: %d", apiErr.Status)
		}
		if apiErr.Body != `{"error":"overloaded"}` {
			t.Fatalf("unexpected body: %q", apiErr.Body)
		}
	})

	t.Run("no text block is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(wireResponse{Content: []wireContent{{Type: "thinking"}}})
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "sk-test", "m", 0)
		if _, err := client.Invoke(ctx, Request{MaxTokens: 512}); err == nil {
			t.Fatalf("expected error for missing text block")
		}
	})

	t.Run("zero thinking budget omits thinking", func(t *testing.T) {
		var captured wireRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&captured)
			json.NewEncoder(w).Encode(wireResponse{Content: []wireContent{{Type: "text", Text: "ok"}}})
		}))
		defer srv.Close()

		client := NewClient(srv.URL, "sk-test", "m", 0)
		if _, err := client.Invoke(ctx, Request{MaxTokens: 100}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if captured.Thinking != nil {
			t.Fatalf("expected no thinking block, got %+v", captured.Thinking)
		}
		if captured.MaxTokens != 100 {
			t.Fatalf("unexpected max tokens: %d", captured.MaxTokens)
		}
	})
}
