package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAnthropicChatParsesTextBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("Missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("Missing anthropic-version header")
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req["system"] == "" {
			t.Errorf("Expected system prompt in request")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{
				{"type": "text", "text": "Hola Ana, "},
				{"type": "text", "text": "qué bueno saber de ti."},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 42, "output_tokens": 12},
		})
	}))
	defer server.Close()

	p := NewAnthropicProvider("test-key", server.URL, 5*time.Second)
	resp, err := p.Chat(context.Background(), "You are a companion.", []Message{
		{Role: "user", Content: "hola"},
	}, ChatOptions{MaxTokens: 100})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "Hola Ana, qué bueno saber de ti." {
		t.Errorf("Unexpected content: %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.InputTokens != 42 {
		t.Errorf("Usage not parsed: %+v", resp.Usage)
	}
}

func TestAnthropicChatNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	p := NewAnthropicProvider("test-key", server.URL, 5*time.Second)
	_, err := p.Chat(context.Background(), "", []Message{{Role: "user", Content: "hola"}}, ChatOptions{})
	if err == nil {
		t.Fatal("Expected error for 429 response")
	}
}

func TestAnthropicChatTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	p := NewAnthropicProvider("test-key", server.URL, 50*time.Millisecond)
	_, err := p.Chat(context.Background(), "", []Message{{Role: "user", Content: "hola"}}, ChatOptions{})
	if err == nil {
		t.Fatal("Expected timeout error")
	}
}
