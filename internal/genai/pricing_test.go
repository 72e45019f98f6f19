package genai

import (
	"math"
	"testing"
)

func TestEstimateCost(t *testing.T) {
	pricing := Pricing{InputPer1K: 0.01, OutputPer1K: 0.03}
	// 1000 prompt tokens and 500 completion tokens: 0.01 + 0.015.
	got := EstimateCost(1000, 500, pricing)
	if math.Abs(got-0.025) > 1e-9 {
		t.Errorf("EstimateCost = %f, want 0.025", got)
	}
}

func TestEstimateCostZeroTokens(t *testing.T) {
	if got := EstimateCost(0, 0, Pricing{InputPer1K: 1, OutputPer1K: 1}); got != 0 {
		t.Errorf("EstimateCost = %f, want 0", got)
	}
}

func TestResolvePricingKnownModel(t *testing.T) {
	pricing := ResolvePricing("gpt-4o-mini")
	if pricing.InputPer1K <= 0 || pricing.OutputPer1K <= 0 {
		t.Errorf("expected positive rates for known model, got %+v", pricing)
	}
}

func TestResolvePricingUnknownModel(t *testing.T) {
	unknown := ResolvePricing("totally-made-up-model")
	if unknown.InputPer1K != 0 || unknown.OutputPer1K != 0 {
		t.Errorf("expected zero rates for unknown model, got %+v", unknown)
	}
	if got := EstimateCost(1000, 1000, unknown); got != 0 {
		t.Errorf("unknown model must cost 0, got %f", got)
	}
}
