package rag

import (
	"fmt"
	"strings"

	"github.com/sellbotai/sellbot/internal/vectorstore"
)

// NoRelevantInfoAnswer is returned without calling the LLM when nothing in
// the knowledge base clears the similarity threshold.
const NoRelevantInfoAnswer = "I couldn't find relevant information for your query. Please try rephrasing your question or upload related documents."

// answerTemplate is the grounding prompt. {context} and {query} are filled
// per request.
const answerTemplate = `You are SellBot AI, a knowledgeable real estate sales assistant. Answer the question using ONLY the context chunks provided below.

## Instructions
1. Read ALL context chunks carefully — the answer may be in any chunk, not just the first one.
2. When citing information, mention the property or project name (e.g., "Sunrise Heights offers...").
3. If the question relates to multiple properties, organize your answer by property using bullet points or bold headings.
4. If two sources give different data for the same thing, present both and note the difference.
5. Use markdown: **bold** for property names, bullet points for lists, and tables when comparing across properties.
6. Be specific — include exact prices, areas (sq.ft.), unit counts, and other numbers as stated in the context.
7. Prioritize chunks with higher relevance scores — they are more likely to contain the answer.
8. Keep answers concise but complete. Do not repeat the same information twice.
9. If the answer truly cannot be found anywhere in the context, say: "I couldn't find that information in the uploaded documents. Try rephrasing your question or uploading relevant documents."

Context:
{context}

Question: {query}

Answer:`

// buildContext renders retrieved chunks as tagged context blocks, one per
// chunk, with the source filename and relevance score.
func buildContext(results []vectorstore.Result) string {
	parts := make([]string, len(results))
	for i, r := range results {
		source := r.Metadata["filename"]
		if source == "" {
			source = "Unknown"
		}
		parts[i] = fmt.Sprintf("[Source: %s, Relevance: %.2f]\n%s", source, r.Similarity, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt fills the answer template. The query is the user's original
// question, not the normalized form used for retrieval.
func buildPrompt(context, query string) string {
	return strings.NewReplacer(
		"{context}", context,
		"{query}", query,
	).Replace(answerTemplate)
}
