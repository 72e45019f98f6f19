// Package quiz implements profile derivation and recommendation retrieval.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/greenleafbv/shopassist/internal/models"
)

// finalize derives the profile from the collected answers, caches it for
// pagination follow-ups and unconditionally deletes the questionnaire state.
func (e *Engine) finalize(ctx context.Context, conversationID string, answers map[string]string) (*Result, error) {
	slog.Debug("Engine.finalize: deriving profile", "conversationID", conversationID, "answers", len(answers))

	profile := e.applyRules(answers)
	if profile == nil {
		profile = deriveHeuristicProfile(answers)
	}
	profile.SourceAnswers = answers
	profile.CreatedAt = time.Now()

	if raw, err := json.Marshal(profile); err != nil {
		slog.Error("Engine.finalize: failed to encode profile", "error", err, "conversationID", conversationID)
	} else if err := e.kv.Set(ctx, profileKeyPrefix+conversationID, string(raw), e.ttl); err != nil {
		slog.Error("Engine.finalize: failed to cache profile", "error", err, "conversationID", conversationID)
	}

	// State cleanup happens regardless of cache success; finalize is not
	// resumable.
	if err := e.kv.Delete(ctx, stateKeyPrefix+conversationID); err != nil {
		slog.Error("Engine.finalize: failed to delete questionnaire state", "error", err, "conversationID", conversationID)
	}

	slog.Info("Engine.finalize: questionnaire completed", "conversationID", conversationID, "label", profile.Label)
	return &Result{Profile: profile}, nil
}

// applyRules evaluates the admin-defined rules in order; the first rule whose
// every condition substring is found in the corresponding answer wins.
func (e *Engine) applyRules(answers map[string]string) *models.Profile {
	for _, rule := range e.rules {
		if len(rule.Conditions) == 0 {
			continue
		}
		matched := true
		for key, expected := range rule.Conditions {
			answer, ok := answers[key]
			if !ok || !strings.Contains(strings.ToLower(answer), strings.ToLower(expected)) {
				matched = false
				break
			}
		}
		if matched {
			return &models.Profile{
				Label:          rule.Label,
				Summary:        rule.Summary,
				MatchedItemIDs: rule.ItemIDs,
			}
		}
	}
	return nil
}

// Heuristic axes: the primary axis reads the type and zone answers, the
// concern axis scans all answers for complaint keywords. Branches are
// evaluated in declared order and the first match wins.
var primaryTypes = []struct {
	keyword string
	label   string
	advice  string
}{
	{"droog", "droge huid", "Kies rijke, hydraterende verzorging en vermijd uitdrogende reinigers."},
	{"vet", "vette huid", "Kies lichte, niet-comedogene producten en reinig mild maar regelmatig."},
	{"gemengd", "gemengde huid", "Combineer lichte hydratatie met gerichte verzorging voor de T-zone."},
	{"gevoelig", "gevoelige huid", "Kies parfumvrije producten met zo min mogelijk ingrediënten."},
	{"normaal", "normale huid", "Een basisroutine met milde reiniging en dagelijkse hydratatie volstaat."},
}

var concernAdvice = []struct {
	keyword string
	label   string
	advice  string
}{
	{"irritatie", "kalmerend", "Aloë vera en calendula helpen geïrriteerde huid tot rust te brengen."},
	{"puistjes", "zuiverend", "Tea tree en salicylzuur ondersteunen een zuiverende routine."},
	{"schilfers", "herstellend", "Ureum en havermout ondersteunen herstel van een schilferige huid."},
	{"jeuk", "verzachtend", "Havermout en panthenol verzachten een jeukende huid."},
}

// deriveHeuristicProfile builds a label and advice summary from the two-axis
// heuristic when no admin rule matched.
func deriveHeuristicProfile(answers map[string]string) *models.Profile {
	all := strings.ToLower(joinAnswers(answers))

	label := "persoonlijk advies"
	summary := "Op basis van je antwoorden raden we een milde basisroutine aan."
	for _, pt := range primaryTypes {
		if strings.Contains(all, pt.keyword) {
			label = pt.label
			summary = pt.advice
			break
		}
	}
	for _, ca := range concernAdvice {
		if strings.Contains(all, ca.keyword) {
			label = label + ", " + ca.label
			summary = summary + " " + ca.advice
			break
		}
	}

	return &models.Profile{Label: label, Summary: summary}
}

func joinAnswers(answers map[string]string) string {
	parts := make([]string, 0, len(answers))
	for _, v := range answers {
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// CachedProfile returns the profile cached at finalize, if still within its
// TTL.
func (e *Engine) CachedProfile(ctx context.Context, conversationID string) (*models.Profile, error) {
	raw, found, err := e.kv.Get(ctx, profileKeyPrefix+conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached profile: %w", err)
	}
	if !found {
		return nil, nil
	}
	var profile models.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		slog.Error("Engine.CachedProfile: corrupt cached profile", "error", err, "conversationID", conversationID)
		return nil, nil
	}
	return &profile, nil
}

// Recommendations resolves the profile's explicit item ids through the
// catalog provider, sliced by offset and limit. Ids that no longer resolve
// to a published item are skipped. Profiles without explicit ids yield an
// empty result.
func (e *Engine) Recommendations(ctx context.Context, conversationID string, offset, limit int) ([]models.CatalogItem, error) {
	profile, err := e.CachedProfile(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if profile == nil || len(profile.MatchedItemIDs) == 0 {
		return nil, nil
	}

	ids := profile.MatchedItemIDs
	if offset >= len(ids) {
		return nil, nil
	}
	ids = ids[offset:]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	var items []models.CatalogItem
	for _, id := range ids {
		item, err := e.catalog.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve item %s: %w", id, err)
		}
		if item == nil {
			slog.Debug("Engine.Recommendations: skipping unresolved item", "id", id)
			continue
		}
		items = append(items, *item)
	}
	return items, nil
}
