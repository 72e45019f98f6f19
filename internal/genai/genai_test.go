package genai

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/greenleafbv/shopassist/internal/models"
)

// fakeCompletions replays a scripted sequence of outcomes.
type fakeCompletions struct {
	outcomes []fakeOutcome
	calls    int
}

type fakeOutcome struct {
	resp *openai.ChatCompletion
	err  error
}

func (f *fakeCompletions) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	if f.calls >= len(f.outcomes) {
		panic("fakeCompletions: no outcome scripted for call")
	}
	outcome := f.outcomes[f.calls]
	f.calls++
	return outcome.resp, outcome.err
}

// recordingSink collects monitoring records.
type recordingSink struct {
	records []models.GatewayCallRecord
}

func (s *recordingSink) Record(r models.GatewayCallRecord) {
	s.records = append(s.records, r)
}

func apiError(status int, code string, retryAfter string) *openai.Error {
	req, _ := http.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil)
	header := http.Header{}
	if retryAfter != "" {
		header.Set("Retry-After", retryAfter)
	}
	return &openai.Error{
		StatusCode: status,
		Code:       code,
		Message:    "provider says no",
		Request:    req,
		Response:   &http.Response{StatusCode: status, Header: header},
	}
}

func successCompletion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
		Usage: openai.CompletionUsage{PromptTokens: 100, CompletionTokens: 20},
	}
}

func newTestGateway(outcomes ...fakeOutcome) (*Client, *fakeCompletions, *recordingSink, *[]time.Duration) {
	fake := &fakeCompletions{outcomes: outcomes}
	sink := &recordingSink{}
	client := newClient(fake, sink, false)
	var sleeps []time.Duration
	client.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return client, fake, sink, &sleeps
}

func TestSendChatRetriesServerErrors(t *testing.T) {
	client, fake, sink, sleeps := newTestGateway(
		fakeOutcome{err: apiError(http.StatusServiceUnavailable, "", "")},
		fakeOutcome{err: apiError(http.StatusServiceUnavailable, "", "")},
		fakeOutcome{resp: successCompletion("gelukt")},
	)

	result, err := client.SendChat(context.Background(), []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage("hallo"),
	}, models.ModelConfig{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "gelukt" {
		t.Errorf("unexpected content %q", result.Content)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
	if len(sink.records) != 3 {
		t.Errorf("expected 3 monitoring records, got %d", len(sink.records))
	}
	if len(*sleeps) != 2 || (*sleeps)[0] != time.Second || (*sleeps)[1] != 2*time.Second {
		t.Errorf("expected exponential backoff 1s, 2s; got %v", *sleeps)
	}
	if sink.records[2].Status != "ok" || sink.records[2].HTTPStatus != http.StatusOK {
		t.Errorf("unexpected final record %+v", sink.records[2])
	}
}

func TestSendChatAuthErrorNotRetried(t *testing.T) {
	client, fake, _, sleeps := newTestGateway(
		fakeOutcome{err: apiError(http.StatusUnauthorized, "", "")},
	)

	_, err := client.SendChat(context.Background(), nil, models.ModelConfig{Model: "gpt-4o-mini"})
	if err == nil {
		t.Fatal("expected error")
	}
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %T", err)
	}
	if gwErr.Kind != KindAuth {
		t.Errorf("expected KindAuth, got %s", gwErr.Kind)
	}
	if fake.calls != 1 {
		t.Errorf("auth errors must not be retried, got %d attempts", fake.calls)
	}
	if len(*sleeps) != 0 {
		t.Errorf("expected no backoff sleeps, got %v", *sleeps)
	}
}

func TestSendChatExhaustsRetries(t *testing.T) {
	client, fake, _, _ := newTestGateway(
		fakeOutcome{err: apiError(http.StatusInternalServerError, "", "")},
		fakeOutcome{err: apiError(http.StatusInternalServerError, "", "")},
		fakeOutcome{err: apiError(http.StatusInternalServerError, "", "")},
	)

	_, err := client.SendChat(context.Background(), nil, models.ModelConfig{Model: "gpt-4o-mini"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Kind != KindServer {
		t.Errorf("expected KindServer, got %s", gwErr.Kind)
	}
	if fake.calls != MaxAttempts {
		t.Errorf("expected %d attempts, got %d", MaxAttempts, fake.calls)
	}
}

func TestSendChatQuotaExceeded(t *testing.T) {
	client, fake, _, _ := newTestGateway(
		fakeOutcome{err: apiError(http.StatusTooManyRequests, "insufficient_quota", "")},
		fakeOutcome{err: apiError(http.StatusTooManyRequests, "insufficient_quota", "")},
		fakeOutcome{err: apiError(http.StatusTooManyRequests, "insufficient_quota", "")},
	)

	_, err := client.SendChat(context.Background(), nil, models.ModelConfig{Model: "gpt-4o-mini"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.Kind != KindQuotaExceeded {
		t.Errorf("expected KindQuotaExceeded, got %s", gwErr.Kind)
	}
	// 429 stays retryable even when it carries the quota code.
	if fake.calls != MaxAttempts {
		t.Errorf("expected %d attempts, got %d", MaxAttempts, fake.calls)
	}
}

func TestSendChatRetryAfterHonored(t *testing.T) {
	client, _, _, sleeps := newTestGateway(
		fakeOutcome{err: apiError(http.StatusTooManyRequests, "", "1")},
		fakeOutcome{resp: successCompletion("ok")},
	)

	if _, err := client.SendChat(context.Background(), nil, models.ModelConfig{Model: "gpt-4o-mini"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != time.Second {
		t.Errorf("expected 1s wait, got %v", *sleeps)
	}
}

func TestSendChatDebugAttachesProviderDetail(t *testing.T) {
	fake := &fakeCompletions{outcomes: []fakeOutcome{
		{err: apiError(http.StatusUnauthorized, "", "")},
	}}
	client := newClient(fake, &recordingSink{}, true)
	client.sleep = func(time.Duration) {}

	_, err := client.SendChat(context.Background(), nil, models.ModelConfig{Model: "gpt-4o-mini"})
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gwErr.ProviderDetail != "provider says no" {
		t.Errorf("expected provider detail in debug mode, got %q", gwErr.ProviderDetail)
	}
}

func TestSendChatUsageAndCost(t *testing.T) {
	client, _, _, _ := newTestGateway(fakeOutcome{resp: successCompletion("ok")})

	result, err := client.SendChat(context.Background(), nil, models.ModelConfig{Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Usage.PromptTokens != 100 || result.Usage.CompletionTokens != 20 {
		t.Errorf("unexpected usage %+v", result.Usage)
	}
	pricing := ResolvePricing("gpt-4o-mini")
	want := EstimateCost(100, 20, pricing)
	if result.Usage.Cost != want {
		t.Errorf("cost = %f, want %f", result.Usage.Cost, want)
	}
}

func TestBackoffSchedule(t *testing.T) {
	cases := []struct {
		attempt    int
		retryAfter time.Duration
		want       time.Duration
	}{
		{1, 0, time.Second},
		{2, 0, 2 * time.Second},
		{3, 0, 4 * time.Second},
		{4, 0, MaxBackoff},
		{2, time.Second, time.Second},
		{2, 3 * time.Second, 2 * time.Second},
		{3, 30 * time.Second, 4 * time.Second},
	}
	for _, tc := range cases {
		if got := backoff(tc.attempt, tc.retryAfter); got != tc.want {
			t.Errorf("backoff(%d, %v) = %v, want %v", tc.attempt, tc.retryAfter, got, tc.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "7")
	if got := parseRetryAfter(header); got != 7*time.Second {
		t.Errorf("parseRetryAfter = %v", got)
	}
	header.Set("Retry-After", "soon")
	if got := parseRetryAfter(header); got != 0 {
		t.Errorf("expected 0 for unparsable header, got %v", got)
	}
}

func TestClassifyTimeout(t *testing.T) {
	client := newClient(&fakeCompletions{}, &recordingSink{}, false)
	gwErr, retryable, _ := client.classify(context.DeadlineExceeded)
	if gwErr.Kind != KindTimeout || !retryable {
		t.Errorf("deadline exceeded must be a retryable timeout, got %s retryable=%v", gwErr.Kind, retryable)
	}

	gwErr, retryable, _ = client.classify(context.Canceled)
	if retryable {
		t.Error("canceled context must not be retried")
	}
	if gwErr.Kind != KindNetwork {
		t.Errorf("expected KindNetwork, got %s", gwErr.Kind)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", nil, false); err == nil {
		t.Error("expected error for missing API key")
	}
}
