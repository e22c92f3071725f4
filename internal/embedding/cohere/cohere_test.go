package cohere

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sellbotai/sellbot/internal/embedding"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(embedding.Config{Model: "embed-english-v3.0"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := New(embedding.Config{APIKey: "k", Model: "embed-english-v99"}); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestNew_Dimensions(t *testing.T) {
	tests := map[string]int{
		"embed-english-v3.0":       1024,
		"embed-multilingual-v3.0":  1024,
		"embed-english-light-v3.0": 384,
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

func TestEmbed_SendsInputType(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts     []string `json:"texts"`
			InputType string   `json:"input_type"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotType = req.InputType

		out := make([][]float32, len(req.Texts))
		for i := range out {
			out[i] = []float32{1, 2, 3}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	}))
	defer srv.Close()

	p, err := New(embedding.Config{APIKey: "k", Model: "embed-english-v3.0", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Embed(context.Background(), []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if gotType != "search_document" {
		t.Errorf("input_type = %q, want search_document", gotType)
	}

	q := p.(*Client).ForQueries()
	if _, err := q.Embed(context.Background(), []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if gotType != "search_query" {
		t.Errorf("input_type = %q, want search_query", gotType)
	}
}

func TestEmbedQuery(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Texts     []string `json:"texts"`
			InputType string   `json:"input_type"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotType = req.InputType
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{1, 2, 3}}})
	}))
	defer srv.Close()

	p, err := New(embedding.Config{APIKey: "k", Model: "embed-english-v3.0", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	qe, ok := p.(embedding.QueryEmbedder)
	if !ok {
		t.Fatal("expected cohere client to implement QueryEmbedder")
	}
	vec, err := qe.EmbedQuery(context.Background(), "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(vec))
	}
	if gotType != "search_query" {
		t.Errorf("input_type = %q, want search_query", gotType)
	}
}
