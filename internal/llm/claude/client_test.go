package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/beacon/internal/alert"
)

func messagesResponse(text string) string {
	return `{
		"id": "msg_test",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [{"type": "text", "text": ` + mustJSON(text) + `}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 42, "output_tokens": 17}
	}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", r.Header.Get("x-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(messagesResponse("A whale moved 1000 ETH to an exchange.")))
	}))
	defer srv.Close()

	c := New("test-key", "claude-sonnet-4-20250514", option.WithBaseURL(srv.URL))

	got, err := c.Summarize(context.Background(), alert.Parse([]byte(`{"alertName":"large_transfer","amount":1000}`)))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "A whale moved 1000 ETH to an exchange." {
		t.Errorf("Summarize = %q", got)
	}

	if gotBody["model"] != "claude-sonnet-4-20250514" {
		t.Errorf("request model = %v", gotBody["model"])
	}
	msgs, ok := gotBody["messages"].([]any)
	if !ok || len(msgs) != 1 {
		t.Fatalf("expected 1 message in request, got %v", gotBody["messages"])
	}
}

func TestSummarize_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer srv.Close()

	c := New("test-key", "claude-sonnet-4-20250514", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))

	_, err := c.Summarize(context.Background(), alert.Parse([]byte(`{}`)))
	if err == nil {
		t.Fatal("expected error from failing API")
	}
	if !strings.Contains(err.Error(), "claude:") {
		t.Errorf("error = %q, want claude: prefix", err)
	}
}

func TestSummarize_EmptyContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_test", "type": "message", "role": "assistant",
			"model": "m", "content": [], "stop_reason": "end_turn",
			"usage": {"input_tokens": 1, "output_tokens": 0}
		}`))
	}))
	defer srv.Close()

	c := New("test-key", "m", option.WithBaseURL(srv.URL))

	_, err := c.Summarize(context.Background(), alert.Parse([]byte(`{}`)))
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestBuildPrompt_MalformedPayload(t *testing.T) {
	t.Parallel()

	got := buildPrompt(alert.Parse([]byte("not json at all")))
	if !strings.Contains(got, "not json at all") {
		t.Errorf("prompt should carry raw body through, got %q", got)
	}
}
