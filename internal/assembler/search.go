// Package assembler implements the multi-strategy catalog search feeding the
// relevance scorer.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/greenleafbv/shopassist/internal/catalog"
	"github.com/greenleafbv/shopassist/internal/models"
)

// Search tuning constants.
const (
	// DefaultRecentWindow is how many recent items the fuzzy fallback
	// strategy considers.
	DefaultRecentWindow = 50
	// FuzzyMatchThreshold is the minimum token similarity for the fuzzy
	// fallback strategy to accept an item.
	FuzzyMatchThreshold = 0.34
	// FuzzyOrderBonus is added when all query tokens appear in the item name
	// in query order.
	FuzzyOrderBonus = 0.2
)

// Assembler runs catalog searches and assembles bounded context documents.
type Assembler struct {
	catalog      catalog.Provider
	recentWindow int
}

// New creates an Assembler over the given catalog provider.
func New(provider catalog.Provider) *Assembler {
	return &Assembler{catalog: provider, recentWindow: DefaultRecentWindow}
}

// SearchCandidates merges, by item identity, the results of the ordered
// search strategies: exact title, full text, specific-term title substring,
// description substring, attribute metadata and, only when all of those come
// up empty, fuzzy token-overlap against a recent-items window.
func (a *Assembler) SearchCandidates(ctx context.Context, query string, keywords []string) ([]models.CatalogItem, error) {
	slog.Debug("Assembler.SearchCandidates: searching", "query", query, "keywords", len(keywords))

	var merged []models.CatalogItem
	seen := make(map[string]struct{})
	add := func(items []models.CatalogItem) {
		for _, item := range items {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
	}

	// (a) exact or near-exact title match
	titleHits, err := a.catalog.SearchByTitle(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}
	add(filterExactTitle(titleHits, query))

	// (b) full-text search across title and body
	textHits, err := a.catalog.SearchByText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}
	add(textHits)

	// (c) title substring match on specific terms only
	if terms := specificTerms(keywords); len(terms) > 0 {
		specificHits, err := a.catalog.SearchByTitle(ctx, terms)
		if err != nil {
			return nil, fmt.Errorf("specific-term title search failed: %w", err)
		}
		add(specificHits)
	}

	// (d) description substring match per keyword
	for _, kw := range keywords {
		descHits, err := a.catalog.SearchByText(ctx, kw)
		if err != nil {
			return nil, fmt.Errorf("description search failed: %w", err)
		}
		add(filterDescriptionMatches(descHits, kw))
	}

	// (e) attribute/ingredient metadata match, accent-folded variants included
	attrTerms := withFoldedVariants(keywords)
	for _, key := range []string{catalog.AttributeIngredient, catalog.AttributeCategory} {
		attrHits, err := a.catalog.SearchByAttribute(ctx, key, attrTerms)
		if err != nil {
			return nil, fmt.Errorf("attribute search failed: %w", err)
		}
		add(attrHits)
	}

	// (f) fuzzy token-overlap fallback, only when everything above was empty
	if len(merged) == 0 {
		fuzzyHits, err := a.fuzzyRecent(ctx, query)
		if err != nil {
			return nil, err
		}
		add(fuzzyHits)
	}

	slog.Debug("Assembler.SearchCandidates: merged candidates", "query", query, "count", len(merged))
	return merged, nil
}

// filterExactTitle keeps items whose folded name equals the folded query or
// contains it as a phrase.
func filterExactTitle(items []models.CatalogItem, query string) []models.CatalogItem {
	folded := FoldAccents(strings.TrimSpace(query))
	if folded == "" {
		return nil
	}
	var out []models.CatalogItem
	for _, item := range items {
		name := FoldAccents(item.Name)
		if name == folded || strings.Contains(name, folded) {
			out = append(out, item)
		}
	}
	return out
}

// filterDescriptionMatches keeps items whose description actually contains
// the keyword; SearchByText also matches titles, which strategy (c) covers.
func filterDescriptionMatches(items []models.CatalogItem, keyword string) []models.CatalogItem {
	kw := strings.ToLower(keyword)
	var out []models.CatalogItem
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Description), kw) {
			out = append(out, item)
		}
	}
	return out
}

// withFoldedVariants appends accent-folded spellings that differ from the
// original keyword, so "aloë" also searches as "aloe".
func withFoldedVariants(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if _, dup := seen[kw]; !dup {
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
		folded := FoldAccents(kw)
		if folded != kw {
			if _, dup := seen[folded]; !dup {
				seen[folded] = struct{}{}
				out = append(out, folded)
			}
		}
	}
	return out
}

// fuzzyRecent matches the query against a window of recent items by token
// similarity.
func (a *Assembler) fuzzyRecent(ctx context.Context, query string) ([]models.CatalogItem, error) {
	recent, err := a.catalog.GetRecent(ctx, a.recentWindow)
	if err != nil {
		return nil, fmt.Errorf("recent items lookup failed: %w", err)
	}

	queryTokens := tokenSet(FoldAccents(query))
	var out []models.CatalogItem
	for _, item := range recent {
		foldedName := FoldAccents(item.Name)
		similarity := jaccard(queryTokens, tokenSet(foldedName))
		if tokensInOrder(FoldAccents(query), foldedName) {
			similarity += FuzzyOrderBonus
		}
		if similarity >= FuzzyMatchThreshold {
			out = append(out, item)
		}
	}
	slog.Debug("Assembler.fuzzyRecent: fuzzy fallback", "query", query, "window", len(recent), "matches", len(out))
	return out, nil
}

// tokensInOrder reports whether every token of query appears in name in the
// same order.
func tokensInOrder(query, name string) bool {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return false
	}
	rest := name
	for _, token := range tokens {
		idx := strings.Index(rest, token)
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(token):]
	}
	return true
}
