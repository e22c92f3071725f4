package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sellbotai/sellbot/internal/llm"
)

func mustNew(t *testing.T, apiKey, model, baseURL string) *Client {
	t.Helper()
	client, err := New(apiKey, model, baseURL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func chatResponse(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"message":       map[string]string{"content": text},
				"finish_reason": "stop",
			},
		},
		"model": "gpt-4o-mini",
		"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 50},
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("", "model", ""); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := New("key", "", ""); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestNew_SetsDefaults(t *testing.T) {
	client := mustNew(t, "key", "model", "")
	if client.baseURL != defaultBaseURL {
		t.Errorf("expected default baseURL %q, got %q", defaultBaseURL, client.baseURL)
	}
}

func TestNew_CustomBaseURL(t *testing.T) {
	client := mustNew(t, "key", "model", "https://api.groq.com/openai/v1")
	if client.baseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("unexpected baseURL %q", client.baseURL)
	}
}

func TestName(t *testing.T) {
	client := mustNew(t, "key", "model", "")
	if client.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", client.Name())
	}
}

func TestComplete_AuthHeaderAndPath(t *testing.T) {
	var gotAuth, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(chatResponse("ok"))
	}))
	defer server.Close()

	client := mustNew(t, "test-api-key", "gpt-4o-mini", server.URL)
	client.Complete(context.Background(), &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "test"}},
	}, nil)

	if gotAuth != "Bearer test-api-key" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("unexpected request path %q", gotPath)
	}
}

func TestComplete_CorrectJSONBody(t *testing.T) {
	var capturedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, _ := io.ReadAll(r.Body)
		json.Unmarshal(bodyBytes, &capturedBody)
		json.NewEncoder(w).Encode(chatResponse("ok"))
	}))
	defer server.Close()

	client := mustNew(t, "key", "gpt-4o-mini", server.URL)
	temp := 0.7
	maxTokens := 2048

	client.Complete(context.Background(), &llm.Prompt{
		SystemPrompt: "You are a helpful assistant",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "Hello"}},
	}, &llm.RequestOptions{
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})

	if capturedBody["model"] != "gpt-4o-mini" {
		t.Errorf("expected model 'gpt-4o-mini', got %v", capturedBody["model"])
	}
	if capturedBody["temperature"] != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", capturedBody["temperature"])
	}
	if capturedBody["max_tokens"] != float64(2048) {
		t.Errorf("expected max_tokens 2048, got %v", capturedBody["max_tokens"])
	}

	messages := capturedBody["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(messages))
	}
	first := messages[0].(map[string]interface{})
	if first["role"] != "system" {
		t.Errorf("expected first message role 'system', got %v", first["role"])
	}
}

func TestComplete_DefaultMaxTokens(t *testing.T) {
	var capturedBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, _ := io.ReadAll(r.Body)
		json.Unmarshal(bodyBytes, &capturedBody)
		json.NewEncoder(w).Encode(chatResponse("ok"))
	}))
	defer server.Close()

	client := mustNew(t, "key", "model", server.URL)
	client.Complete(context.Background(), &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "test"}},
	}, nil)

	if capturedBody["max_tokens"] != float64(4096) {
		t.Errorf("expected default max_tokens 4096, got %v", capturedBody["max_tokens"])
	}
}

func TestComplete_ParsesSuccessfulResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse("This is the response"))
	}))
	defer server.Close()

	client := mustNew(t, "key", "model", server.URL)
	resp, err := client.Complete(context.Background(), &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "test"}},
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "This is the response" {
		t.Errorf("expected content, got %q", resp.Content)
	}
	if resp.Model != "gpt-4o-mini" {
		t.Errorf("unexpected model %q", resp.Model)
	}
	if resp.StopReason != "stop" {
		t.Errorf("unexpected stop reason %q", resp.StopReason)
	}
	if resp.InputTokens != 100 || resp.OutputTokens != 50 {
		t.Errorf("unexpected token counts: %d in, %d out", resp.InputTokens, resp.OutputTokens)
	}
}

func TestComplete_HandlesNon200StatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limit exceeded"}}`))
	}))
	defer server.Close()

	client := mustNew(t, "key", "model", server.URL)
	_, err := client.Complete(context.Background(), &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "test"}},
	}, nil)

	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected error to contain '429', got: %v", err)
	}
}
