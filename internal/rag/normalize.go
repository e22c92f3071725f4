package rag

import (
	"regexp"
	"strings"
)

// Rewrites for real estate shorthand so queries embed closer to document
// phrasing: "3BHK" → "3 BHK", "1200sqft" → "1200 sq.ft.", "1.5cr" →
// "1.5 Crores", "50L" → "50 Lakhs", "INR 50" → "Rs. 50".
var (
	bhkPattern   = regexp.MustCompile(`(\d)\s*[Bb][Hh][Kk]`)
	sqftPattern  = regexp.MustCompile(`(?i)(\d)\s*(?:sq\.?\s*ft\.?|sqft)`)
	crorePattern = regexp.MustCompile(`(\d)\s*[Cc][Rr](?:ores?)?\.?\b`)
	lakhPattern  = regexp.MustCompile(`(\d)\s*[Ll](?:akhs?)?\.?\b`)
	inrPattern   = regexp.MustCompile(`(?:INR|inr)\s*`)
	rsPattern    = regexp.MustCompile(`[Rr][Ss]\.?\s*(\d)`)
)

// NormalizeQuery rewrites shorthand in a user question before embedding.
// The original question is still what reaches the LLM; normalization only
// improves retrieval.
func NormalizeQuery(query string) string {
	text := query
	text = bhkPattern.ReplaceAllString(text, "$1 BHK")
	text = sqftPattern.ReplaceAllString(text, "$1 sq.ft.")
	text = crorePattern.ReplaceAllString(text, "$1 Crores")
	text = lakhPattern.ReplaceAllString(text, "$1 Lakhs")
	text = inrPattern.ReplaceAllString(text, "Rs. ")
	text = rsPattern.ReplaceAllString(text, "Rs. $1")
	return strings.TrimSpace(text)
}
