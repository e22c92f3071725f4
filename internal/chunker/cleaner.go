package chunker

import (
	"regexp"
	"strings"
)

var (
	pageMarker  = regexp.MustCompile(`\[Page \d+\]\n?`)
	tableMarker = regexp.MustCompile(`\[(?:Page \d+ - )?Table \d+\]\n?`)
	hyphenBreak = regexp.MustCompile(`(\w)-\n(\w)`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	spaceRuns   = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean normalizes raw extracted text before chunking: parser-injected
// page/table markers are stripped, words hyphenated across line breaks are
// merged, runs of blank lines collapse to one, and runs of horizontal
// whitespace collapse to a single space.
func Clean(text string) string {
	text = pageMarker.ReplaceAllString(text, "")
	text = tableMarker.ReplaceAllString(text, "")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceRuns.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
