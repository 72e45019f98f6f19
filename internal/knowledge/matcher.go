// Package knowledge implements the FAQ matcher.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
)

// MatchThreshold is the minimum token-Jaccard similarity for a fuzzy FAQ
// match.
const MatchThreshold = 0.5

// matcherStopwords are dropped before token comparison. Question words are
// included so "Wat zijn de verzendkosten?" and "Hoeveel zijn de
// verzendkosten?" compare on their content tokens only.
var matcherStopwords = map[string]struct{}{
	"de": {}, "het": {}, "een": {}, "en": {}, "van": {}, "voor": {}, "met": {},
	"op": {}, "in": {}, "is": {}, "zijn": {}, "er": {}, "wat": {}, "wie": {},
	"waar": {}, "hoe": {}, "hoeveel": {}, "welke": {}, "kan": {}, "ik": {},
	"je": {}, "jullie": {}, "mijn": {}, "naar": {}, "ook": {}, "als": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "of": {}, "to": {}, "for": {},
	"are": {}, "what": {}, "how": {}, "much": {}, "many": {},
	"do": {}, "does": {}, "i": {}, "my": {}, "you": {}, "your": {},
}

// matcherSynonyms normalizes near-equivalent tokens before comparison.
var matcherSynonyms = map[string]string{
	"verzending":   "verzendkosten",
	"bezorgkosten": "verzendkosten",
	"bezorging":    "levering",
	"retourneren":  "retour",
	"terugsturen":  "retour",
	"prijs":        "kosten",
	"prijzen":      "kosten",
	"shipping":     "verzendkosten",
	"delivery":     "levering",
	"return":       "retour",
	"price":        "kosten",
}

// coreKeywords are domain terms strong enough that sharing one constitutes a
// match on its own.
var coreKeywords = []string{
	"verzendkosten", "retour", "levering", "bezorgtijd", "betaling",
	"korting", "garantie", "openingstijden",
}

// Matcher answers queries from the knowledge base without a model call.
type Matcher struct {
	base     Base
	language string
}

// NewMatcher creates a Matcher for the active language.
func NewMatcher(base Base, language string) *Matcher {
	return &Matcher{base: base, language: language}
}

// Match compares the query against the stored question/answer pairs. The
// first qualifying entry wins and its stored answer is returned unmodified.
func (m *Matcher) Match(ctx context.Context, query string) (answer string, found bool, err error) {
	entries, err := m.base.FAQEntries(ctx, m.language)
	if err != nil {
		return "", false, fmt.Errorf("failed to load FAQ entries: %w", err)
	}

	normalizedQuery := Normalize(query)
	if normalizedQuery == "" {
		return "", false, nil
	}
	queryTokens := matcherTokens(normalizedQuery)

	for _, entry := range entries {
		normalizedQuestion := Normalize(entry.Question)
		if normalizedQuestion == "" {
			continue
		}
		if matches(normalizedQuery, normalizedQuestion, queryTokens) {
			slog.Debug("Matcher.Match: FAQ hit", "question", entry.Question)
			return entry.Answer, true, nil
		}
	}
	return "", false, nil
}

// matches applies the three acceptance checks: containment either way, token
// similarity, shared core keyword.
func matches(query, question string, queryTokens map[string]struct{}) bool {
	if query == question || strings.Contains(query, question) || strings.Contains(question, query) {
		return true
	}
	if similarity(queryTokens, matcherTokens(question)) >= MatchThreshold {
		return true
	}
	for _, core := range coreKeywords {
		if strings.Contains(query, core) && strings.Contains(question, core) {
			return true
		}
	}
	return false
}

// Normalize lowercases, strips punctuation and collapses whitespace.
func Normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// matcherTokens returns the unique tokens of a normalized string after
// stopword removal and synonym normalization.
func matcherTokens(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(normalized) {
		if _, stop := matcherStopwords[token]; stop {
			continue
		}
		if canonical, ok := matcherSynonyms[token]; ok {
			token = canonical
		}
		set[token] = struct{}{}
	}
	return set
}

// similarity computes token-Jaccard similarity.
func similarity(a, b map[string]struct{}) float64 {
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
