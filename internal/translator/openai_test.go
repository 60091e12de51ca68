package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAICompleter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "csvtran" {
			t.Errorf("unexpected X-Title header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "gpt-4o-mini" || req.MaxTokens != 256 || req.Temperature != 0.3 {
			t.Errorf("unexpected request settings %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "Hello" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Bonjour"}}]}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter("test-key", server.URL+"/", 5*time.Second)
	c.SetHeader("X-Title", "csvtran")

	got, err := c.Complete(context.Background(), Prompt{
		System:      "translate",
		User:        "Hello",
		Model:       "gpt-4o-mini",
		MaxTokens:   256,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bonjour" {
		t.Errorf("expected 'Bonjour', got %q", got)
	}
}

func TestOpenAICompleter_NoKeyNoAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter("", server.URL, 0)
	if _, err := c.Complete(context.Background(), Prompt{User: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOpenAICompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter("k", server.URL, 0)
	_, err := c.Complete(context.Background(), Prompt{User: "x"})
	if err == nil {
		t.Fatal("expected error for non-OK status")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("expected status and body in error, got %v", err)
	}
}

func TestOpenAICompleter_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c := NewOpenAICompleter("k", server.URL, 0)
	if _, err := c.Complete(context.Background(), Prompt{User: "x"}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestLLMEngine_OverHTTP_RetriedByClient(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"choices":[{"message":{"content":"Un"}}]}`))
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"Un\nDeux"}}]}`))
	}))
	defer server.Close()

	engine := NewLLMEngine("openai", NewOpenAICompleter("k", server.URL, 0), LLMConfig{Model: "m"})
	c := NewClient(engine, Options{BatchSize: 10, MaxRetries: 3}, WithSleep((&sleepRecorder{}).sleep))

	got, err := c.TranslateTexts(context.Background(), []string{"One", "Two"}, "en", "fr")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "Un,Deux" {
		t.Errorf("unexpected translations %v", got)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
}
