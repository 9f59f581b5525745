package affect

import (
	"sort"
	"strings"
	"unicode"
)

// minCueLen drops short function words that slip past the stopword list.
const minCueLen = 4

var stopwords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true, "been": true,
	"before": true, "being": true, "but": true, "could": true, "does": true,
	"doing": true, "down": true, "each": true, "even": true, "from": true,
	"have": true, "having": true, "here": true, "into": true, "just": true,
	"like": true, "made": true, "make": true, "more": true, "most": true,
	"much": true, "only": true, "other": true, "over": true, "said": true,
	"same": true, "should": true, "some": true, "such": true, "than": true,
	"that": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "those": true, "through": true,
	"very": true, "want": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true,
	"would": true, "your": true, "yours": true, "because": true, "really": true,
}

// Cues extracts the distinct keyword fragments of text, sorted.
func Cues(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	var out []string
	for _, w := range words {
		if len([]rune(w)) < minCueLen || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
