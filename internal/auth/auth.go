// Package auth provides the authorization boundary: which gated features the
// current installation may use. The actual license activation flow lives in
// an external system; the engine only consumes its decisions.
package auth

import (
	"github.com/greenleafbv/shopassist/internal/models"
)

// Feature keys gated by tier.
const (
	FeatureAIChat        = "ai_chat"
	FeatureQuestionnaire = "questionnaire"
)

// Authorizer answers feature gate checks.
type Authorizer interface {
	IsFeatureAuthorized(featureKey string) bool
	CurrentTier() models.Tier
}

// requiredTiers maps each feature to the minimum tier that unlocks it.
var requiredTiers = map[string]models.Tier{
	FeatureAIChat:        models.TierStandard,
	FeatureQuestionnaire: models.TierPremium,
}

// tierRank orders tiers from least to most privileged.
var tierRank = map[models.Tier]int{
	models.TierFree:     0,
	models.TierStandard: 1,
	models.TierPremium:  2,
}

// StaticAuthorizer is an Authorizer with a fixed tier, injected at
// construction from configuration.
type StaticAuthorizer struct {
	tier models.Tier
}

// NewStaticAuthorizer creates an authorizer for the given tier. Unknown
// tiers fall back to free.
func NewStaticAuthorizer(tier models.Tier) *StaticAuthorizer {
	if !models.IsValidTier(tier) {
		tier = models.TierFree
	}
	return &StaticAuthorizer{tier: tier}
}

// IsFeatureAuthorized reports whether the current tier unlocks the feature.
// Unknown feature keys are denied.
func (a *StaticAuthorizer) IsFeatureAuthorized(featureKey string) bool {
	required, ok := requiredTiers[featureKey]
	if !ok {
		return false
	}
	return tierRank[a.tier] >= tierRank[required]
}

// CurrentTier returns the configured tier.
func (a *StaticAuthorizer) CurrentTier() models.Tier {
	return a.tier
}
