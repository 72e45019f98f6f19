package assembler

import (
	"math"
	"testing"

	"github.com/greenleafbv/shopassist/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreExactNameBeatsDescription(t *testing.T) {
	query := "lavendel olie"
	keywords := []string{"lavendel", "olie"}

	nameHit := models.CatalogItem{Name: "Lavendel Olie", Description: "Voor een goede nachtrust."}
	descHit := models.CatalogItem{Name: "Slaapspray", Description: "Met lavendel olie voor het slapen."}

	nameScore := Score(nameHit, query, keywords, false)
	descScore := Score(descHit, query, keywords, false)
	if nameScore <= descScore {
		t.Errorf("exact name match (%f) must outrank description match (%f)", nameScore, descScore)
	}
}

func TestScoreWeights(t *testing.T) {
	// Exact phrase in name (1.0) + both keywords in name (2 * 0.6) + known
	// price (0.1).
	item := models.CatalogItem{Name: "Lavendel Olie", Price: 9.95}
	got := Score(item, "lavendel olie", []string{"lavendel", "olie"}, false)
	want := WeightExactName + 2*WeightKeywordName + WeightKnownPrice
	if !almostEqual(got, want) {
		t.Errorf("Score = %f, want %f", got, want)
	}
}

func TestScoreConditionQueryWeights(t *testing.T) {
	item := models.CatalogItem{
		Name:        "Calendula Balsem",
		Description: "Verzacht eczeem en kalmeert de huid.",
	}
	keywords := []string{"eczeem"}
	if !IsConditionQuery(keywords) {
		t.Fatal("expected eczeem to flag a condition query")
	}

	// Phrase in description (1.2) + keyword in description (0.7) + two
	// treatment terms co-occurring (2 * 0.5).
	got := Score(item, "eczeem", keywords, true)
	want := WeightExactDescriptionMed + WeightKeywordDescriptionMed + 2*WeightTreatmentCooccurrence
	if !almostEqual(got, want) {
		t.Errorf("Score = %f, want %f", got, want)
	}

	// The same item scores lower when the query is not a condition query.
	plain := Score(item, "eczeem", keywords, false)
	if plain >= got {
		t.Errorf("condition scoring (%f) must exceed plain scoring (%f)", got, plain)
	}
}

func TestScoreIngredientMatch(t *testing.T) {
	item := models.CatalogItem{Name: "Nachtcrème", Ingredients: []string{"Aloë vera", "Shea butter"}}
	got := Score(item, "aloe", []string{"aloe"}, false)
	if !almostEqual(got, WeightKeywordIngredient) {
		t.Errorf("Score = %f, want %f", got, WeightKeywordIngredient)
	}
}

func TestRankOrdersDescendingStable(t *testing.T) {
	items := []models.CatalogItem{
		{ID: "low", Name: "Handzeep", Description: "Frisse zeep."},
		{ID: "high", Name: "Lavendel Olie", Description: "Pure lavendel olie."},
		{ID: "tie-a", Name: "Badzout", Description: "Ontspannend."},
		{ID: "tie-b", Name: "Voetenbad", Description: "Verwarmend."},
	}
	scored := Rank(items, "lavendel olie", []string{"lavendel", "olie"})
	if scored[0].Item.ID != "high" {
		t.Errorf("expected high first, got %s", scored[0].Item.ID)
	}
	// Equal scores keep input order.
	var tieOrder []string
	for _, sc := range scored {
		if sc.Item.ID == "tie-a" || sc.Item.ID == "tie-b" {
			tieOrder = append(tieOrder, sc.Item.ID)
		}
	}
	if len(tieOrder) != 2 || tieOrder[0] != "tie-a" {
		t.Errorf("stable sort violated, tie order %v", tieOrder)
	}
}
