package knowledge

import (
	"context"
	"testing"

	"github.com/greenleafbv/shopassist/internal/models"
)

func testBase() *InMemoryBase {
	return NewInMemoryBase([]models.FAQEntry{
		{Question: "Wat zijn de verzendkosten?", Answer: "Verzending kost €4,95, gratis vanaf €50.", Language: "nl"},
		{Question: "Hoe kan ik retourneren?", Answer: "Je kunt binnen 30 dagen retourneren via het retourformulier.", Language: "nl"},
		{Question: "What are the shipping costs?", Answer: "Shipping is €4.95, free above €50.", Language: "en"},
	}, []models.Ingredient{
		{Name: "Lavendel", Description: "Kalmerende plant.", Benefits: []string{"ontspanning"}},
	})
}

func TestMatchExactQuestion(t *testing.T) {
	m := NewMatcher(testBase(), "nl")
	answer, found, err := m.Match(context.Background(), "Wat zijn de verzendkosten?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if answer != "Verzending kost €4,95, gratis vanaf €50." {
		t.Errorf("answer must be returned verbatim, got %q", answer)
	}
}

func TestMatchRephrasedQuestion(t *testing.T) {
	m := NewMatcher(testBase(), "nl")
	// Different question word, same content tokens.
	answer, found, err := m.Match(context.Background(), "Hoeveel zijn de verzendkosten?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected rephrased question to match")
	}
	if answer != "Verzending kost €4,95, gratis vanaf €50." {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestMatchSynonym(t *testing.T) {
	m := NewMatcher(testBase(), "nl")
	// "bezorgkosten" canonicalizes to "verzendkosten".
	_, found, err := m.Match(context.Background(), "hoeveel bezorgkosten betaal ik?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Error("expected synonym-normalized query to match")
	}
}

func TestMatchCoreKeyword(t *testing.T) {
	m := NewMatcher(testBase(), "nl")
	_, found, err := m.Match(context.Background(), "ik wil dit graag retour sturen want het bevalt niet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Error("expected shared core keyword to match")
	}
}

func TestMatchNoMatch(t *testing.T) {
	m := NewMatcher(testBase(), "nl")
	_, found, err := m.Match(context.Background(), "welke kleur heeft jullie logo?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no match for unrelated question")
	}
}

func TestMatchLanguagePreference(t *testing.T) {
	m := NewMatcher(testBase(), "en")
	answer, found, err := m.Match(context.Background(), "what are the shipping costs?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected English entry to match")
	}
	if answer != "Shipping is €4.95, free above €50." {
		t.Errorf("unexpected answer %q", answer)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  Wat zijn de   Verzendkosten?! ")
	if got != "wat zijn de verzendkosten" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestIngredientLookup(t *testing.T) {
	base := testBase()
	ing, err := base.Ingredient(context.Background(), "lavendel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ing == nil || ing.Name != "Lavendel" {
		t.Errorf("unexpected ingredient %v", ing)
	}
	ing, err = base.Ingredient(context.Background(), "onbekend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ing != nil {
		t.Errorf("expected nil for unknown ingredient, got %v", ing)
	}
}
