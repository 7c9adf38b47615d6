package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

const maxTermOccurrences = 3

// keywordStopwords holds common English stopwords plus exam command words
// ("explain", "describe", ...). Command words appear in nearly every revision
// question and carry no discriminative signal for ranking chunks.
var keywordStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {}, "the": {},
	"to": {}, "was": {}, "were": {}, "with": {},

	"what": {}, "which": {}, "where": {}, "when": {}, "who": {}, "why": {},
	"how": {}, "does": {}, "did": {}, "can": {}, "could": {}, "would": {},
	"should": {}, "will": {}, "there": {}, "their": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "about": {}, "between": {},

	"explain": {}, "describe": {}, "compare": {}, "contrast": {},
	"evaluate": {}, "assess": {}, "discuss": {}, "define": {}, "state": {},
	"give": {}, "outline": {}, "identify": {}, "name": {}, "suggest": {},
	"using": {}, "study": {}, "refer": {}, "calculate": {}, "complete": {},
	"reasons": {}, "example": {}, "examples": {},
}

// ExtractTerms extracts the salient query terms used for lexical scoring.
// Terms are lowercased, at least three letters long, purely alphabetic, and
// not stopwords. Duplicates count once; the result is sorted for determinism.
func ExtractTerms(query string) []string {
	if query == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(query))
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	seen := make(map[string]struct{})
	for _, token := range strings.Fields(builder.String()) {
		if len(token) < 3 {
			continue
		}
		if _, isStop := keywordStopwords[token]; isStop {
			continue
		}
		seen[token] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// KeywordScore scores chunk content against a set of query terms by bounded
// term frequency. Each term contributes at most maxTermOccurrences matches,
// and the sum is normalized by 3·|terms|, so the result is always in [0,1].
// An empty terms set scores 0.
func KeywordScore(content string, terms []string) float64 {
	if len(terms) == 0 || content == "" {
		return 0
	}

	lowered := strings.ToLower(content)
	var matched int
	for _, term := range terms {
		count := strings.Count(lowered, term)
		if count > maxTermOccurrences {
			count = maxTermOccurrences
		}
		matched += count
	}

	return float64(matched) / float64(maxTermOccurrences*len(terms))
}
