// Package assembler defines the structured context document serialized at
// the gateway boundary.
package assembler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/greenleafbv/shopassist/internal/models"
)

// QueryType drives how many catalog items the context may carry.
type QueryType string

const (
	// QueryTargeted is a question about specific products or complaints.
	QueryTargeted QueryType = "targeted"
	// QueryBroad is a request to list the assortment.
	QueryBroad QueryType = "broad"
)

// Context bounding constants.
const (
	// MinTargetedItems is the floor for targeted queries.
	MinTargetedItems = 5
	// MaxTargetedItems is the cap for targeted queries.
	MaxTargetedItems = 25
	// MaxBroadItems is the cap for broad listing queries.
	MaxBroadItems = 50
	// MaxFieldLength bounds per-field text in the context document.
	MaxFieldLength = 300
	// MaxRelatedTerms bounds the synonym fallback suggestion list.
	MaxRelatedTerms = 5
)

// ItemContext is one catalog item prepared for the context document, with
// text fields bounded and commercial attributes attached when known.
type ItemContext struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price,omitempty"`
	StockStatus string   `json:"stock_status,omitempty"`
	URL         string   `json:"url,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Score       float64  `json:"score"`
}

// Document is the structured context assembled for one query. It stays data
// until Render serializes it for the gateway.
type Document struct {
	Rules        []string             `json:"rules,omitempty"`
	Items        []ItemContext        `json:"items,omitempty"`
	FAQs         []models.FAQEntry    `json:"faqs,omitempty"`
	Ingredients  []models.Ingredient  `json:"ingredients,omitempty"`
	RelatedTerms []models.RelatedTerm `json:"related_terms,omitempty"`
}

// Empty reports whether the document carries no catalog evidence at all.
func (d *Document) Empty() bool {
	return len(d.Items) == 0 && len(d.FAQs) == 0 && len(d.Ingredients) == 0 && len(d.RelatedTerms) == 0
}

// Render serializes the document to the prompt text handed to the gateway.
func (d *Document) Render() string {
	var sb strings.Builder
	if len(d.Rules) > 0 {
		sb.WriteString("Richtlijnen:\n")
		for _, rule := range d.Rules {
			sb.WriteString("- " + rule + "\n")
		}
		sb.WriteString("\n")
	}
	if len(d.Items) > 0 {
		sb.WriteString("Beschikbare producten:\n")
		for _, item := range d.Items {
			sb.WriteString("- " + item.Name)
			if item.Price > 0 {
				sb.WriteString(fmt.Sprintf(" (€%.2f)", item.Price))
			}
			if item.StockStatus != "" {
				sb.WriteString(" [" + item.StockStatus + "]")
			}
			sb.WriteString("\n")
			if item.Description != "" {
				sb.WriteString("  " + item.Description + "\n")
			}
			if len(item.Ingredients) > 0 {
				sb.WriteString("  Ingrediënten: " + strings.Join(item.Ingredients, ", ") + "\n")
			}
			if item.URL != "" {
				sb.WriteString("  " + item.URL + "\n")
			}
		}
		sb.WriteString("\n")
	}
	if len(d.FAQs) > 0 {
		sb.WriteString("Veelgestelde vragen:\n")
		for _, faq := range d.FAQs {
			sb.WriteString("V: " + faq.Question + "\nA: " + faq.Answer + "\n")
		}
		sb.WriteString("\n")
	}
	if len(d.Ingredients) > 0 {
		sb.WriteString("Ingrediënten:\n")
		for _, ing := range d.Ingredients {
			sb.WriteString("- " + ing.Name + ": " + ing.Description + "\n")
		}
		sb.WriteString("\n")
	}
	if len(d.RelatedTerms) > 0 {
		sb.WriteString("Gerelateerde termen in het assortiment:\n")
		for _, term := range d.RelatedTerms {
			sb.WriteString(fmt.Sprintf("- %s (%d producten)\n", term.Term, term.Count))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// broadListingMarkers flag a query as a broad assortment request.
var broadListingMarkers = []string{
	"assortiment", "alle producten", "all products", "aanbod", "overzicht",
	"wat verkopen", "wat verkoop", "what do you sell",
}

// ClassifyQuery decides the query type from the raw message.
func ClassifyQuery(text string) QueryType {
	lower := strings.ToLower(text)
	for _, marker := range broadListingMarkers {
		if strings.Contains(lower, marker) {
			return QueryBroad
		}
	}
	return QueryTargeted
}

// Assemble extracts keywords, searches the catalog, ranks the candidates and
// returns a bounded context document. When no candidate matches, the synonym
// fallback fills RelatedTerms instead.
func (a *Assembler) Assemble(ctx context.Context, text string) (*Document, []string, error) {
	keywords := ExtractKeywords(text)
	queryType := ClassifyQuery(text)
	slog.Debug("Assembler.Assemble: assembling context", "keywords", len(keywords), "queryType", queryType)

	candidates, err := a.SearchCandidates(ctx, text, keywords)
	if err != nil {
		return nil, keywords, err
	}
	scored := Rank(candidates, text, keywords)

	doc := &Document{}
	if len(scored) == 0 {
		related, err := a.RelatedTerms(ctx, keywords)
		if err != nil {
			return nil, keywords, err
		}
		doc.RelatedTerms = related
		return doc, keywords, nil
	}

	maxItems := MaxTargetedItems
	if queryType == QueryBroad {
		maxItems = MaxBroadItems
	} else if len(keywords) <= 1 {
		maxItems = MinTargetedItems
	}
	if len(scored) > maxItems {
		scored = scored[:maxItems]
	}

	for _, sc := range scored {
		doc.Items = append(doc.Items, ItemContext{
			Name:        truncate(sc.Item.Name, MaxFieldLength),
			Description: truncate(sc.Item.Description, MaxFieldLength),
			Price:       sc.Item.Price,
			StockStatus: sc.Item.StockStatus,
			URL:         sc.Item.URL,
			Ingredients: sc.Item.Ingredients,
			Score:       sc.Score,
		})
	}
	return doc, keywords, nil
}

// synonymMap relates failed keywords to domain terms worth suggesting.
var synonymMap = map[string][]string{
	"zonnebrand":  {"zonnebescherming", "spf", "after sun"},
	"sunburn":     {"after sun", "spf", "aloe vera"},
	"droog":       {"hydratatie", "bodylotion", "olie"},
	"dry":         {"hydration", "lotion", "olie"},
	"haar":        {"shampoo", "conditioner", "haarolie"},
	"hair":        {"shampoo", "conditioner", "haarolie"},
	"gezicht":     {"gezichtscrème", "serum", "reiniger"},
	"face":        {"serum", "gezichtscrème", "reiniger"},
	"slapen":      {"lavendel", "melatonine", "thee"},
	"sleep":       {"lavendel", "melatonine", "thee"},
	"energie":     {"vitamine", "magnesium", "ginseng"},
	"energy":      {"vitamine", "magnesium", "ginseng"},
	"weerstand":   {"vitamine c", "zink", "echinacea"},
	"immunity":    {"vitamine c", "zink", "echinacea"},
	"ontspanning": {"magnesium", "lavendel", "badzout"},
	"stress":      {"magnesium", "ashwagandha", "lavendel"},
}

// RelatedTerms looks up each failed keyword in the synonym map, counts
// catalog items per related term and returns the best suggestions ranked by
// count. This is presented as "related terms available", not as an answer.
func (a *Assembler) RelatedTerms(ctx context.Context, keywords []string) ([]models.RelatedTerm, error) {
	counted := make(map[string]int)
	for _, kw := range keywords {
		related, ok := synonymMap[FoldAccents(kw)]
		if !ok {
			continue
		}
		for _, term := range related {
			if _, done := counted[term]; done {
				continue
			}
			hits, err := a.catalog.SearchByText(ctx, term)
			if err != nil {
				return nil, fmt.Errorf("related term count failed: %w", err)
			}
			counted[term] = len(hits)
		}
	}

	terms := make([]models.RelatedTerm, 0, len(counted))
	for term, count := range counted {
		if count > 0 {
			terms = append(terms, models.RelatedTerm{Term: term, Count: count})
		}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > MaxRelatedTerms {
		terms = terms[:MaxRelatedTerms]
	}
	slog.Debug("Assembler.RelatedTerms: synonym fallback", "suggestions", len(terms))
	return terms, nil
}

// truncate bounds s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
