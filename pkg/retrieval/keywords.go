package retrieval

import (
	"strings"
	"unicode"
)

// stopWords are dropped from extracted keywords. The set covers common
// Chinese function words and English articles/prepositions, since queries
// arrive in either language.
var stopWords = map[string]struct{}{
	// Chinese
	"的": {}, "了": {}, "是": {}, "在": {}, "和": {}, "与": {}, "或": {},
	"及": {}, "对": {}, "从": {}, "到": {}, "有": {}, "个": {}, "这": {},
	"那": {}, "什么": {}, "怎么": {}, "如何": {}, "为什么": {},
	// English
	"the": {}, "a": {}, "an": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"for": {}, "and": {}, "or": {}, "to": {}, "is": {}, "are": {}, "was": {},
	"be": {}, "with": {}, "by": {}, "about": {}, "what": {}, "how": {},
	"why": {}, "this": {}, "that": {},
}

// ExtractKeywords lowercases the query, splits on whitespace and punctuation
// (both CJK and Latin punctuation classes), drops stop words, and
// de-duplicates while preserving first-seen order.
func ExtractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})

	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keywords = append(keywords, f)
	}
	return keywords
}

// countKeywordMatches reports how many of the keywords appear in text,
// case-insensitively.
func countKeywordMatches(text string, keywords []string) int {
	lower := strings.ToLower(text)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	return matched
}
