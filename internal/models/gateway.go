// Package models defines gateway accounting types.
package models

// ModelConfig selects the model and sampling parameters for a gateway call.
type ModelConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
}

// UsageRecord captures token usage and estimated cost for one successful
// gateway call. Emitted per call; not retained beyond logging.
type UsageRecord struct {
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	Cost             float64 `json:"cost"`
	LatencyMS        int64   `json:"latency_ms"`
	Status           string  `json:"status"`
}

// GatewayCallRecord is the monitoring metadata recorded for every gateway
// attempt, success or failure.
type GatewayCallRecord struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	HTTPStatus int    `json:"http_status"`
	LatencyMS  int64  `json:"latency_ms"`
	Attempt    int    `json:"attempt"`
	Status     string `json:"status"`
}
