package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sellbotai/sellbot/internal/embedding"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(embedding.Config{Model: "text-embedding-3-small"})
	if err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestNew_UnknownModel(t *testing.T) {
	_, err := New(embedding.Config{APIKey: "k", Model: "text-embedding-9"})
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestNew_Dimensions(t *testing.T) {
	tests := map[string]int{
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
	for model, want := range tests {
		p, err := New(embedding.Config{APIKey: "k", Model: model})
		if err != nil {
			t.Fatalf("%s: %v", model, err)
		}
		if p.Dimensions() != want {
			t.Errorf("%s: dimensions = %d, want %d", model, p.Dimensions(), want)
		}
	}
}

func TestEmbed_OrderPreserved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)

		// Answer out of order; the client must reassemble by index.
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, item{Index: i, Embedding: []float32{float32(i)}})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := New(embedding.Config{APIKey: "k", Model: "text-embedding-3-small", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := p.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vecs {
		if v[0] != float32(i) {
			t.Errorf("vector %d = %v, want [%d]", i, v, i)
		}
	}
}

func TestEmbed_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := New(embedding.Config{APIKey: "k", Model: "text-embedding-3-small", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error from non-200 response")
	}
}
