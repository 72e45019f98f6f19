package catalog

import (
	"context"
	"testing"

	"github.com/greenleafbv/shopassist/internal/models"
)

func testItems() []models.CatalogItem {
	return []models.CatalogItem{
		{ID: "1", Name: "Aloë Vera Gel", Description: "Verkoelt de huid na de zon.", Ingredients: []string{"Aloë vera"}, Categories: []string{"Huidverzorging"}},
		{ID: "2", Name: "Lavendel Olie", Description: "Kalmeert en helpt bij het slapen.", Ingredients: []string{"Lavendel"}, Categories: []string{"Olie"}},
		{ID: "3", Name: "Tea Tree Zeep", Description: "Zuiverende zeep voor de vette huid.", Ingredients: []string{"Tea tree"}, Categories: []string{"Zeep"}},
	}
}

func TestSearchByText(t *testing.T) {
	p := NewInMemoryProvider(testItems())
	items, err := p.SearchByText(context.Background(), "lavendel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "2" {
		t.Errorf("expected item 2, got %v", items)
	}
}

func TestSearchByTitle(t *testing.T) {
	p := NewInMemoryProvider(testItems())
	items, err := p.SearchByTitle(context.Background(), []string{"zeep", "olie"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
}

func TestSearchByAttribute(t *testing.T) {
	p := NewInMemoryProvider(testItems())
	items, err := p.SearchByAttribute(context.Background(), AttributeIngredient, []string{"tea tree"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "3" {
		t.Errorf("expected item 3, got %v", items)
	}

	items, err = p.SearchByAttribute(context.Background(), "unknown", []string{"x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items for unknown attribute, got %d", len(items))
	}
}

func TestGetRecentNewestFirst(t *testing.T) {
	p := NewInMemoryProvider(testItems())
	items, err := p.GetRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "3" || items[1].ID != "2" {
		t.Errorf("expected newest first (3, 2), got (%s, %s)", items[0].ID, items[1].ID)
	}
}

func TestGetByID(t *testing.T) {
	p := NewInMemoryProvider(testItems())
	item, err := p.GetByID(context.Background(), "2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil || item.Name != "Lavendel Olie" {
		t.Errorf("unexpected item: %v", item)
	}

	item, err = p.GetByID(context.Background(), "999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item != nil {
		t.Errorf("expected nil for unknown id, got %v", item)
	}
}

func TestCountPublished(t *testing.T) {
	p := NewInMemoryProvider(testItems())
	count, err := p.CountPublished(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}
}
