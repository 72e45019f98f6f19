// Package quiz implements the guided questionnaire: a finite-state,
// branch-aware multi-step flow that derives a shopper profile from the
// collected answers.
package quiz

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/greenleafbv/shopassist/internal/models"
)

// ParseSteps decodes a JSON step list from configuration.
func ParseSteps(data []byte) ([]models.StepDefinition, error) {
	var steps []models.StepDefinition
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse step definitions: %w", err)
	}
	return steps, nil
}

// Sanitize filters invalid step definitions and duplicate keys. When nothing
// valid remains, the built-in default list is returned so the questionnaire
// always has steps to run.
func Sanitize(steps []models.StepDefinition) []models.StepDefinition {
	seen := make(map[string]struct{}, len(steps))
	var valid []models.StepDefinition
	for _, step := range steps {
		if !step.Valid() {
			slog.Warn("quiz.Sanitize: dropping invalid step definition", "key", step.Key)
			continue
		}
		if _, dup := seen[step.Key]; dup {
			slog.Warn("quiz.Sanitize: dropping duplicate step key", "key", step.Key)
			continue
		}
		seen[step.Key] = struct{}{}
		valid = append(valid, step)
	}
	if len(valid) == 0 {
		slog.Warn("quiz.Sanitize: no valid steps configured, using defaults")
		return DefaultSteps()
	}
	return valid
}

// DefaultSteps is the built-in questionnaire used when configuration
// provides no valid steps.
func DefaultSteps() []models.StepDefinition {
	return []models.StepDefinition{
		{
			Key:      "huidtype",
			Question: "Wat is jouw huidtype?",
			Options:  []string{"Droog", "Vet", "Gemengd", "Normaal"},
		},
		{
			Key:      "zone",
			Question: "Voor welke zone zoek je verzorging?",
			Options:  []string{"Gezicht", "Lichaam", "Haar"},
		},
		{
			Key:      "klacht",
			Question: "Heb je een specifieke klacht?",
			Options:  []string{"Irritatie", "Puistjes", "Schilfers", "Geen"},
		},
		{
			Key:      "gevoelig",
			Question: "Is je huid gevoelig?",
			Options:  []string{"Ja", "Nee"},
		},
		{
			Key:      "parfumvrij",
			Question: "Wil je parfumvrije producten?",
			Options:  []string{"Ja", "Nee"},
			Condition: map[string]models.ConditionValues{
				"gevoelig": {"ja"},
			},
		},
	}
}
