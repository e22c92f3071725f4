package chunker

import (
	"strings"
	"testing"
)

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 800, 200); got != nil {
		t.Fatalf("expected nil chunks for empty input, got %v", got)
	}
	if got := Split("   \n\t  ", 800, 200); got != nil {
		t.Fatalf("expected nil chunks for whitespace input, got %v", got)
	}
}

func TestSplit_SingleSentence(t *testing.T) {
	chunks := Split("The quick brown fox jumps over the lazy dog.", 800, 200)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "The quick brown fox jumps over the lazy dog." {
		t.Errorf("unexpected chunk: %q", chunks[0])
	}
}

func TestSplit_NoTerminator(t *testing.T) {
	// Text without ., !, ? is still a single "sentence".
	chunks := Split("just a fragment with no punctuation", 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
}

func TestSplit_CoversEverySentence(t *testing.T) {
	text := strings.Repeat("This is a sample sentence for testing the splitter. ", 20)
	chunks := Split(text, 120, 30)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	joined := strings.Join(chunks, " ")
	for _, s := range Sentences(text) {
		if !strings.Contains(joined, s) {
			t.Errorf("sentence missing from chunks: %q", s)
		}
	}
}

func TestSplit_NoMidSentenceBoundaries(t *testing.T) {
	text := "First point here. Second point follows! Third point asks? Fourth wraps up. Fifth keeps going. Sixth ends it."
	sentences := Sentences(text)
	for _, c := range Split(text, 50, 15) {
		// Every chunk must decompose exactly into whole source sentences.
		for _, cs := range Sentences(c) {
			found := false
			for _, s := range sentences {
				if cs == s {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("chunk contains partial sentence: %q", cs)
			}
		}
	}
}

func TestSplit_SizeSoftBound(t *testing.T) {
	text := strings.Repeat("Short sentence number one. ", 40)
	for i, c := range Split(text, 100, 25) {
		if len(c) > 100 && len(Sentences(c)) > 1 {
			t.Errorf("chunk %d exceeds size with multiple sentences (%d chars)", i, len(c))
		}
	}
}

func TestSplit_OversizedSentenceKeptWhole(t *testing.T) {
	long := "This single sentence is deliberately far longer than the configured chunk size so it cannot fit."
	text := "A lead-in. " + long + " A follow-up."
	chunks := Split(text, 40, 10)

	found := false
	for _, c := range chunks {
		if strings.Contains(c, long) {
			found = true
		}
	}
	if !found {
		t.Fatal("oversized sentence was split across chunks")
	}
}

func TestSplit_OverlapBound(t *testing.T) {
	const overlap = 30
	text := strings.Repeat("Sentence alpha beta gamma delta. ", 30)
	chunks := Split(text, 120, overlap)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := Sentences(chunks[i-1])
		cur := Sentences(chunks[i])

		// Count the shared tail/head sentences and their length.
		shared := 0
		for n := 1; n <= len(prev) && n <= len(cur); n++ {
			match := true
			for j := 0; j < n; j++ {
				if prev[len(prev)-n+j] != cur[j] {
					match = false
					break
				}
			}
			if match {
				shared = n
			}
		}
		carried := 0
		for j := 0; j < shared; j++ {
			carried += len(cur[j]) + 1
		}
		if carried > overlap {
			t.Errorf("chunk %d carries %d overlap chars, budget %d", i, carried, overlap)
		}
	}
}

func TestSplit_OverlapAtLeastChunkSize(t *testing.T) {
	// overlap >= chunkSize must not retain prior sentences forever.
	text := strings.Repeat("One more line of text here. ", 30)
	chunks := Split(text, 50, 50)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Fatalf("chunk %d ballooned to %d chars, overlap cap not enforced", i, len(c))
		}
	}
}

func TestSentences(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"One. Two! Three?", 3},
		{"Trailing terminator stays.", 1},
		{"Price is Rs. 86.25 Lakhs today. Next sentence.", 3}, // abbreviation dots split too; acceptable for retrieval
	}
	for _, tt := range tests {
		got := Sentences(tt.in)
		if len(got) != tt.want {
			t.Errorf("Sentences(%q) = %d sentences %v, want %d", tt.in, len(got), got, tt.want)
		}
	}
}
