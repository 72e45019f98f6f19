// Package genai provides per-model pricing for the cost estimate emitted
// with each successful gateway call.
package genai

// Pricing defines USD cost per 1K tokens for input/output.
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// defaultPricing provides hardcoded USD pricing per 1K text tokens.
var defaultPricing = map[string]Pricing{
	"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4.1":       {InputPer1K: 0.002, OutputPer1K: 0.008},
	"gpt-4.1-mini":  {InputPer1K: 0.0004, OutputPer1K: 0.0016},
	"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},
}

// ResolvePricing returns the pricing for a model, zero rates when unknown.
func ResolvePricing(model string) Pricing {
	if p, ok := defaultPricing[model]; ok {
		return p
	}
	return Pricing{}
}

// EstimateCost converts token usage to an estimated USD cost:
// (promptTokens x inputRate + completionTokens x outputRate) / 1000.
func EstimateCost(promptTokens, completionTokens int64, p Pricing) float64 {
	return (float64(promptTokens)*p.InputPer1K + float64(completionTokens)*p.OutputPer1K) / 1000.0
}
