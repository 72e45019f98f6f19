package auth

import (
	"testing"

	"github.com/greenleafbv/shopassist/internal/models"
)

func TestStaticAuthorizerTiers(t *testing.T) {
	cases := []struct {
		tier          models.Tier
		aiChat        bool
		questionnaire bool
	}{
		{models.TierFree, false, false},
		{models.TierStandard, true, false},
		{models.TierPremium, true, true},
	}
	for _, tc := range cases {
		a := NewStaticAuthorizer(tc.tier)
		if got := a.IsFeatureAuthorized(FeatureAIChat); got != tc.aiChat {
			t.Errorf("%s: ai_chat = %v, want %v", tc.tier, got, tc.aiChat)
		}
		if got := a.IsFeatureAuthorized(FeatureQuestionnaire); got != tc.questionnaire {
			t.Errorf("%s: questionnaire = %v, want %v", tc.tier, got, tc.questionnaire)
		}
	}
}

func TestStaticAuthorizerUnknownTier(t *testing.T) {
	a := NewStaticAuthorizer(models.Tier("enterprise"))
	if a.CurrentTier() != models.TierFree {
		t.Errorf("expected fallback to free, got %s", a.CurrentTier())
	}
	if a.IsFeatureAuthorized(FeatureAIChat) {
		t.Error("unknown tier should not unlock features")
	}
}

func TestStaticAuthorizerUnknownFeature(t *testing.T) {
	a := NewStaticAuthorizer(models.TierPremium)
	if a.IsFeatureAuthorized("teleportation") {
		t.Error("unknown feature keys must be denied")
	}
}
