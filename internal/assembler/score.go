// Package assembler implements the relevance scorer ranking catalog
// candidates against a query.
package assembler

import (
	"sort"
	"strings"

	"github.com/greenleafbv/shopassist/internal/models"
)

// Scoring weights. Condition queries (skin complaints, ailments) weigh
// description evidence heavier because the answer usually lives there, not in
// the product name.
const (
	WeightExactName             = 1.0
	WeightExactDescription      = 0.8
	WeightExactDescriptionMed   = 1.2
	WeightKeywordName           = 0.6
	WeightKeywordDescription    = 0.4
	WeightKeywordDescriptionMed = 0.7
	WeightKeywordIngredient     = 0.3
	WeightTreatmentCooccurrence = 0.5
	WeightKnownPrice            = 0.1
)

// conditionTerms flag a query as a condition/medical query.
var conditionTerms = map[string]struct{}{
	"eczeem": {}, "eczema": {}, "acne": {}, "puistjes": {}, "rosacea": {},
	"psoriasis": {}, "allergie": {}, "allergy": {}, "jeuk": {}, "itch": {},
	"droge": {}, "dry": {}, "gevoelige": {}, "sensitive": {}, "irritatie": {},
	"irritation": {}, "schilfers": {}, "roos": {}, "dandruff": {}, "wond": {},
	"wound": {}, "brandwond": {}, "burn": {}, "pijn": {}, "pain": {},
	"ontsteking": {}, "inflammation": {}, "huidaandoening": {},
}

// treatmentTerms are words whose co-occurrence in an item description signals
// the item treats rather than merely mentions a condition.
var treatmentTerms = []string{
	"verzacht", "verzorgt", "herstelt", "kalmeert", "hydrateert", "helpt",
	"vermindert", "beschermt", "soothe", "soothes", "repairs", "calms",
	"hydrates", "relieves", "reduces", "protects", "treats",
}

// IsConditionQuery reports whether any extracted keyword is a known
// condition/medical term.
func IsConditionQuery(keywords []string) bool {
	for _, kw := range keywords {
		if _, ok := conditionTerms[FoldAccents(kw)]; ok {
			return true
		}
	}
	return false
}

// Score computes the relevance of one item for the query.
func Score(item models.CatalogItem, query string, keywords []string, condition bool) float64 {
	name := FoldAccents(item.Name)
	description := FoldAccents(item.Description)
	phrase := FoldAccents(strings.TrimSpace(query))

	var score float64
	if phrase != "" && strings.Contains(name, phrase) {
		score += WeightExactName
	}
	if phrase != "" && strings.Contains(description, phrase) {
		if condition {
			score += WeightExactDescriptionMed
		} else {
			score += WeightExactDescription
		}
	}

	for _, kw := range keywords {
		folded := FoldAccents(kw)
		if strings.Contains(name, folded) {
			score += WeightKeywordName
		}
		if strings.Contains(description, folded) {
			if condition {
				score += WeightKeywordDescriptionMed
			} else {
				score += WeightKeywordDescription
			}
		}
		for _, ingredient := range item.Ingredients {
			if strings.Contains(FoldAccents(ingredient), folded) {
				score += WeightKeywordIngredient
				break
			}
		}
	}

	if condition {
		for _, term := range treatmentTerms {
			if strings.Contains(description, term) {
				score += WeightTreatmentCooccurrence
			}
		}
	}

	if item.Price > 0 {
		score += WeightKnownPrice
	}
	return score
}

// Rank scores every candidate and sorts descending by score, stable on ties.
func Rank(items []models.CatalogItem, query string, keywords []string) []models.ScoredCatalogItem {
	condition := IsConditionQuery(keywords)
	scored := make([]models.ScoredCatalogItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, models.ScoredCatalogItem{
			Item:  item,
			Score: Score(item, query, keywords, condition),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
