// Package chunker splits cleaned document text into overlapping,
// sentence-respecting chunks for embedding and retrieval.
package chunker

import (
	"regexp"
	"strings"
)

// sentenceEnd matches a sentence terminator followed by whitespace. The
// terminator is kept with its sentence; the whitespace is consumed.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// Sentences splits text at sentence boundaries (., !, ? followed by
// whitespace), trimming each sentence and dropping empty ones.
func Sentences(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "$1\x1f")
	parts := strings.Split(marked, "\x1f")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// Split divides text into chunks of roughly chunkSize characters. Chunk
// boundaries always fall between sentences; consecutive chunks share a
// tail of trailing sentences whose combined length stays within overlap.
//
// A single sentence longer than chunkSize is never cut; it becomes its own
// oversized chunk. Overlap is a soft cap in characters: sentences are
// carried over whole, so the actual overlap may be smaller but never larger.
func Split(text string, chunkSize, overlap int) []string {
	sentences := Sentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		if currentLen+len(sentence)+1 > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			// Seed the next chunk with trailing sentences of the one just
			// finalized, walking backwards until the overlap budget runs out.
			var carried []string
			carriedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				s := current[i]
				if carriedLen+len(s)+1 > overlap {
					break
				}
				carried = append([]string{s}, carried...)
				carriedLen += len(s) + 1
			}
			current = carried
			currentLen = carriedLen
		}

		current = append(current, sentence)
		currentLen += len(sentence) + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
