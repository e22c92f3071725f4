package rag

import (
	"strings"
	"testing"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

func TestBuildContext(t *testing.T) {
	results := []vectorstore.Result{
		{Text: "First chunk.", Metadata: map[string]string{"filename": "a.pdf"}, Similarity: 0.87},
		{Text: "Second chunk.", Metadata: map[string]string{}, Similarity: 0.2},
	}

	got := buildContext(results)
	want := "[Source: a.pdf, Relevance: 0.87]\nFirst chunk.\n\n[Source: Unknown, Relevance: 0.20]\nSecond chunk."
	if got != want {
		t.Errorf("buildContext =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildContext_Empty(t *testing.T) {
	if got := buildContext(nil); got != "" {
		t.Errorf("buildContext(nil) = %q", got)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("CONTEXT-BLOCK", "What is the price?")

	if !strings.Contains(prompt, "Context:\nCONTEXT-BLOCK") {
		t.Error("context not filled in")
	}
	if !strings.Contains(prompt, "Question: What is the price?") {
		t.Error("query not filled in")
	}
	if strings.Contains(prompt, "{context}") || strings.Contains(prompt, "{query}") {
		t.Error("placeholders left in prompt")
	}
	if !strings.HasSuffix(prompt, "Answer:") {
		t.Error("prompt should end with the answer cue")
	}
}
