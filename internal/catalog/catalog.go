// Package catalog defines the catalog provider boundary consumed by the
// engine, plus an in-memory provider used by tests and single-process
// deployments. The catalog itself is owned by an external system; this
// package never writes to it.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/greenleafbv/shopassist/internal/models"
)

// Provider exposes read-only catalog lookups.
type Provider interface {
	// SearchByText searches title and body with a full-text style substring
	// query and returns published items.
	SearchByText(ctx context.Context, query string) ([]models.CatalogItem, error)
	// SearchByTitle returns published items whose name contains any of the
	// given terms.
	SearchByTitle(ctx context.Context, terms []string) ([]models.CatalogItem, error)
	// SearchByAttribute returns published items whose attribute (for example
	// "ingredient" or "category") contains any of the given terms.
	SearchByAttribute(ctx context.Context, key string, terms []string) ([]models.CatalogItem, error)
	// GetRecent returns up to n most recently published items, newest first.
	GetRecent(ctx context.Context, n int) ([]models.CatalogItem, error)
	// GetByID resolves one item by id; nil if the id no longer resolves to a
	// published item.
	GetByID(ctx context.Context, id string) (*models.CatalogItem, error)
	// CountPublished returns the number of published items.
	CountPublished(ctx context.Context) (int, error)
}

// Attribute keys understood by SearchByAttribute.
const (
	AttributeIngredient = "ingredient"
	AttributeCategory   = "category"
)

// InMemoryProvider is a Provider backed by a fixed item list, newest last.
type InMemoryProvider struct {
	mu    sync.RWMutex
	items []models.CatalogItem
}

// NewInMemoryProvider creates a provider over the given items.
func NewInMemoryProvider(items []models.CatalogItem) *InMemoryProvider {
	return &InMemoryProvider{items: items}
}

// SetItems replaces the item list.
func (p *InMemoryProvider) SetItems(items []models.CatalogItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
}

// SearchByText returns items whose name or description contains the query,
// case-insensitive.
func (p *InMemoryProvider) SearchByText(ctx context.Context, query string) ([]models.CatalogItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	var out []models.CatalogItem
	for _, item := range p.items {
		if strings.Contains(strings.ToLower(item.Name), q) || strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, item)
		}
	}
	return out, nil
}

// SearchByTitle returns items whose name contains any term, case-insensitive.
func (p *InMemoryProvider) SearchByTitle(ctx context.Context, terms []string) ([]models.CatalogItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []models.CatalogItem
	for _, item := range p.items {
		name := strings.ToLower(item.Name)
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" && strings.Contains(name, term) {
				out = append(out, item)
				break
			}
		}
	}
	return out, nil
}

// SearchByAttribute returns items whose ingredient or category list contains
// any term, case-insensitive.
func (p *InMemoryProvider) SearchByAttribute(ctx context.Context, key string, terms []string) ([]models.CatalogItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []models.CatalogItem
	for _, item := range p.items {
		var values []string
		switch key {
		case AttributeIngredient:
			values = item.Ingredients
		case AttributeCategory:
			values = item.Categories
		default:
			return nil, nil
		}
		if attributeMatches(values, terms) {
			out = append(out, item)
		}
	}
	return out, nil
}

func attributeMatches(values, terms []string) bool {
	for _, v := range values {
		v = strings.ToLower(v)
		for _, term := range terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term != "" && strings.Contains(v, term) {
				return true
			}
		}
	}
	return false
}

// GetRecent returns up to n items, newest first.
func (p *InMemoryProvider) GetRecent(ctx context.Context, n int) ([]models.CatalogItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if n <= 0 || len(p.items) == 0 {
		return nil, nil
	}
	// Items are stored oldest first; walk backwards for newest first.
	out := make([]models.CatalogItem, 0, n)
	for i := len(p.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, p.items[i])
	}
	return out, nil
}

// GetByID resolves one item by id.
func (p *InMemoryProvider) GetByID(ctx context.Context, id string) (*models.CatalogItem, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, item := range p.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

// CountPublished returns the number of items.
func (p *InMemoryProvider) CountPublished(ctx context.Context) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items), nil
}
