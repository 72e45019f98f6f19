// Package assembler builds the bounded context document handed to the
// language model gateway: it extracts keywords from the user message, runs a
// multi-strategy catalog search, scores candidates and serializes the result
// at the gateway boundary.
package assembler

import (
	"strings"
	"unicode"
)

// stopwords dropped during keyword extraction. The shop serves Dutch and
// English speakers, so both lists are included.
var stopwords = map[string]struct{}{
	// Dutch
	"de": {}, "het": {}, "een": {}, "en": {}, "van": {}, "voor": {}, "met": {},
	"op": {}, "in": {}, "is": {}, "zijn": {}, "was": {}, "ik": {}, "je": {},
	"jij": {}, "u": {}, "we": {}, "wij": {}, "ze": {}, "dat": {}, "dit": {},
	"die": {}, "deze": {}, "er": {}, "aan": {}, "als": {}, "bij": {}, "naar": {},
	"ook": {}, "maar": {}, "om": {}, "te": {}, "wat": {}, "wie": {}, "waar": {},
	"hoe": {}, "hoeveel": {}, "welke": {}, "welk": {}, "heb": {}, "hebben": {},
	"heeft": {}, "kan": {}, "kun": {}, "kunnen": {}, "wil": {}, "willen": {},
	"mijn": {}, "jouw": {}, "uw": {}, "niet": {}, "wel": {}, "geen": {},
	"iets": {}, "graag": {}, "over": {}, "dan": {}, "nog": {}, "al": {},
	// English
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"for": {}, "with": {}, "on": {}, "at": {}, "by": {}, "do": {}, "does": {},
	"have": {}, "has": {}, "i": {}, "you": {}, "my": {}, "your": {}, "me": {},
	"it": {}, "this": {}, "that": {}, "what": {}, "which": {}, "how": {},
	"can": {}, "could": {}, "would": {}, "about": {}, "any": {}, "some": {},
}

// genericTerms are too common in a web shop to be useful as title substring
// filters on their own.
var genericTerms = map[string]struct{}{
	"product": {}, "producten": {}, "products": {}, "artikel": {}, "item": {},
	"crème": {}, "creme": {}, "cream": {}, "olie": {}, "oil": {}, "zeep": {},
	"soap": {}, "gel": {}, "spray": {}, "kopen": {}, "buy": {}, "goed": {},
	"good": {}, "beste": {}, "best": {}, "nieuw": {}, "new": {},
}

// accentFolds maps accented runes to their ASCII base so that catalog
// spellings like "aloë" match queries typing "aloe".
var accentFolds = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n', 'ý': 'y', 'ÿ': 'y',
}

// FoldAccents lowercases s and replaces accented letters with their ASCII
// base form.
func FoldAccents(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if folded, ok := accentFolds[r]; ok {
			return folded
		}
		return r
	}, s)
}

// ExtractKeywords tokenizes the message into deduplicated lowercase keywords:
// punctuation is stripped from token edges and stopwords are dropped.
// Single-letter alphabetic tokens are preserved because compound product
// names like "vitamine B" depend on them.
func ExtractKeywords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if token == "" {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}

// specificTerms filters keywords down to terms useful for title substring
// matching: generic shop words and terms shorter than four characters are
// excluded.
func specificTerms(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if len([]rune(kw)) < 4 {
			continue
		}
		if _, generic := genericTerms[kw]; generic {
			continue
		}
		out = append(out, kw)
	}
	return out
}

// tokenSet returns the unique lowercase tokens of s without edge punctuation.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(s)) {
		token := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if token != "" {
			set[token] = struct{}{}
		}
	}
	return set
}

// jaccard computes token-set similarity between two sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
