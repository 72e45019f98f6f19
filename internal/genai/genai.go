// Package genai provides the language model gateway: a retryable chat
// completion call against the OpenAI API with error classification and usage
// accounting.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/greenleafbv/shopassist/internal/models"
)

// Retry policy constants.
const (
	// MaxAttempts is the total number of attempts per call.
	MaxAttempts = 3
	// AttemptTimeout is the fixed deadline for each attempt, independent of
	// the retry loop.
	AttemptTimeout = 30 * time.Second
	// MaxBackoff caps the exponential backoff schedule (1s, 2s, 4s...).
	MaxBackoff = 5 * time.Second
	// MaxRetryAfter is the largest provider-supplied Retry-After honored.
	MaxRetryAfter = 10 * time.Second
	// providerName identifies the provider in monitoring records.
	providerName = "openai"
)

// completionService is the minimal chat completion surface of the OpenAI
// client, extracted so tests can substitute a simulated provider.
type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ChatResult is the successful outcome of a gateway call.
type ChatResult struct {
	Content string
	Usage   models.UsageRecord
}

// ClientInterface is the gateway contract consumed by the orchestrator.
type ClientInterface interface {
	SendChat(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, cfg models.ModelConfig) (*ChatResult, error)
}

// Client wraps the OpenAI chat completion service with the retry policy,
// error taxonomy and usage accounting.
type Client struct {
	completions completionService
	sink        MonitoringSink
	debug       bool
	// sleep is swapped out by tests to avoid real backoff waits.
	sleep func(time.Duration)
}

// NewClient initializes a gateway client for the given API key. The
// underlying SDK retry is disabled; the gateway owns the retry policy.
func NewClient(apiKey string, sink MonitoringSink, debug bool) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	cli := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return newClient(&cli.Chat.Completions, sink, debug), nil
}

func newClient(completions completionService, sink MonitoringSink, debug bool) *Client {
	if sink == nil {
		sink = SlogSink{}
	}
	return &Client{
		completions: completions,
		sink:        sink,
		debug:       debug,
		sleep:       time.Sleep,
	}
}

// SendChat performs one chat completion with up to MaxAttempts attempts.
// Retries happen only on HTTP 429/500/502/503/504 or a transport timeout;
// every other outcome returns immediately. The returned error is always a
// *GatewayError.
func (c *Client) SendChat(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, cfg models.ModelConfig) (*ChatResult, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(cfg.Model),
		Messages: messages,
	}
	if cfg.Temperature > 0 {
		params.Temperature = openai.Float(cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(cfg.MaxTokens)
	}

	var lastErr *GatewayError
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, AttemptTimeout)
		resp, err := c.completions.New(attemptCtx, params)
		cancel()
		latency := time.Since(start).Milliseconds()

		if err == nil {
			usage := models.UsageRecord{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				LatencyMS:        latency,
				Status:           "ok",
			}
			usage.Cost = EstimateCost(usage.PromptTokens, usage.CompletionTokens, ResolvePricing(cfg.Model))
			c.sink.Record(models.GatewayCallRecord{
				Provider:   providerName,
				Model:      cfg.Model,
				HTTPStatus: http.StatusOK,
				LatencyMS:  latency,
				Attempt:    attempt,
				Status:     "ok",
			})
			slog.Debug("Client.SendChat: completion succeeded", "model", cfg.Model, "attempt", attempt,
				"prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens, "cost", usage.Cost)

			if len(resp.Choices) == 0 {
				return nil, newGatewayError(KindUnknownProvider, 0, "no choices returned", c.debug)
			}
			return &ChatResult{Content: resp.Choices[0].Message.Content, Usage: usage}, nil
		}

		gwErr, retryable, retryAfter := c.classify(err)
		lastErr = gwErr
		c.sink.Record(models.GatewayCallRecord{
			Provider:   providerName,
			Model:      cfg.Model,
			HTTPStatus: gwErr.HTTPStatus,
			LatencyMS:  latency,
			Attempt:    attempt,
			Status:     string(gwErr.Kind),
		})
		slog.Warn("Client.SendChat: attempt failed", "model", cfg.Model, "attempt", attempt,
			"kind", gwErr.Kind, "http_status", gwErr.HTTPStatus, "retryable", retryable)

		if !retryable || attempt == MaxAttempts {
			return nil, gwErr
		}
		c.sleep(backoff(attempt, retryAfter))
	}
	return nil, lastErr
}

// classify maps a provider error into the taxonomy and decides retryability.
func (c *Client) classify(err error) (gwErr *GatewayError, retryable bool, retryAfter time.Duration) {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		kind := kindForStatus(apierr.StatusCode, apierr.Code)
		if apierr.Response != nil {
			retryAfter = parseRetryAfter(apierr.Response.Header)
		}
		return newGatewayError(kind, apierr.StatusCode, apierr.Message, c.debug),
			retryableStatus(apierr.StatusCode), retryAfter
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newGatewayError(KindTimeout, 0, err.Error(), c.debug), true, 0
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newGatewayError(KindTimeout, 0, err.Error(), c.debug), true, 0
	}
	if errors.Is(err, context.Canceled) {
		return newGatewayError(KindNetwork, 0, err.Error(), c.debug), false, 0
	}
	return newGatewayError(KindNetwork, 0, err.Error(), c.debug), false, 0
}

// backoff returns the wait before the next attempt: the lesser of the
// provider-supplied Retry-After (when usable) and the exponential schedule.
func backoff(attempt int, retryAfter time.Duration) time.Duration {
	wait := time.Duration(1<<(attempt-1)) * time.Second
	if wait > MaxBackoff {
		wait = MaxBackoff
	}
	if retryAfter > 0 && retryAfter <= MaxRetryAfter && retryAfter < wait {
		wait = retryAfter
	}
	return wait
}

// parseRetryAfter reads a seconds-valued Retry-After header.
func parseRetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
