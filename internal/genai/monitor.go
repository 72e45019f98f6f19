// Package genai provides the monitoring sink boundary for gateway calls.
package genai

import (
	"log/slog"

	"github.com/greenleafbv/shopassist/internal/models"
)

// MonitoringSink receives metadata for every gateway attempt, success or
// failure. Implementations must not block the pipeline.
type MonitoringSink interface {
	Record(record models.GatewayCallRecord)
}

// SlogSink is the default MonitoringSink; it writes attempt metadata to the
// structured log.
type SlogSink struct{}

// Record logs the attempt metadata.
func (SlogSink) Record(record models.GatewayCallRecord) {
	slog.Info("gateway call recorded",
		"provider", record.Provider,
		"model", record.Model,
		"http_status", record.HTTPStatus,
		"latency_ms", record.LatencyMS,
		"attempt", record.Attempt,
		"status", record.Status,
	)
}
