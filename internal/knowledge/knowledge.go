// Package knowledge provides the FAQ/ingredient knowledge base boundary and
// the token-similarity matcher that answers common questions without a model
// call.
package knowledge

import (
	"context"
	"strings"

	"github.com/greenleafbv/shopassist/internal/models"
)

// Base exposes stored FAQ pairs and ingredient facts. Entries are expected
// in recency-first order (newest first).
type Base interface {
	// FAQEntries returns the FAQ pairs for the given language plus the
	// language-neutral entries.
	FAQEntries(ctx context.Context, language string) ([]models.FAQEntry, error)
	// Ingredient resolves one ingredient by name; nil when unknown.
	Ingredient(ctx context.Context, name string) (*models.Ingredient, error)
}

// InMemoryBase is a Base backed by fixed slices, used by tests and
// single-process deployments.
type InMemoryBase struct {
	faqs        []models.FAQEntry
	ingredients []models.Ingredient
}

// NewInMemoryBase creates a Base over the given entries. FAQ entries should
// be ordered newest first.
func NewInMemoryBase(faqs []models.FAQEntry, ingredients []models.Ingredient) *InMemoryBase {
	return &InMemoryBase{faqs: faqs, ingredients: ingredients}
}

// FAQEntries returns language-matching entries first, then neutral ones,
// preserving recency order within each group.
func (b *InMemoryBase) FAQEntries(ctx context.Context, language string) ([]models.FAQEntry, error) {
	var matched, neutral []models.FAQEntry
	for _, entry := range b.faqs {
		switch entry.Language {
		case language:
			matched = append(matched, entry)
		case "":
			neutral = append(neutral, entry)
		}
	}
	return append(matched, neutral...), nil
}

// Ingredient resolves one ingredient by case-insensitive name match.
func (b *InMemoryBase) Ingredient(ctx context.Context, name string) (*models.Ingredient, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, ing := range b.ingredients {
		if strings.ToLower(ing.Name) == needle {
			found := ing
			return &found, nil
		}
	}
	return nil, nil
}
