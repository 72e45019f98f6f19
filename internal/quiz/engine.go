// Package quiz implements the questionnaire state machine.
package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/greenleafbv/shopassist/internal/catalog"
	"github.com/greenleafbv/shopassist/internal/models"
	"github.com/greenleafbv/shopassist/internal/store"
)

// State and cache keys are scoped per conversation in the TTL store.
const (
	stateKeyPrefix   = "quiz:"
	profileKeyPrefix = "profile:"
	// DefaultTTL bounds both questionnaire state and the cached profile.
	DefaultTTL = 2 * time.Hour
)

// ErrInactive is returned when no questionnaire state exists for the
// conversation (never started, finalized, or expired).
var ErrInactive = errors.New("questionnaire is not active")

// StepPrompt carries one question to ask plus position metadata.
type StepPrompt struct {
	Key        string   `json:"key"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	StepIndex  int      `json:"step_index"`
	TotalSteps int      `json:"total_steps"`
}

// Result is the outcome of a Start or Answer call: either the next prompt or
// the finalized profile, never both.
type Result struct {
	Prompt  *StepPrompt
	Profile *models.Profile
}

// Engine drives the questionnaire. State lives in an external TTL store;
// concurrent messages for one conversation are not mutually excluded, last
// write wins.
type Engine struct {
	kv      store.KVStore
	catalog catalog.Provider
	steps   []models.StepDefinition
	rules   []models.ProfileRule
	ttl     time.Duration
}

// NewEngine creates an Engine over sanitized steps and admin profile rules.
func NewEngine(kv store.KVStore, provider catalog.Provider, steps []models.StepDefinition, rules []models.ProfileRule) *Engine {
	return &Engine{
		kv:      kv,
		catalog: provider,
		steps:   Sanitize(steps),
		rules:   rules,
		ttl:     DefaultTTL,
	}
}

// TotalSteps returns the number of configured steps.
func (e *Engine) TotalSteps() int {
	return len(e.steps)
}

// Active reports whether questionnaire state exists for the conversation.
func (e *Engine) Active(ctx context.Context, conversationID string) (bool, error) {
	_, found, err := e.kv.Get(ctx, stateKeyPrefix+conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to read questionnaire state: %w", err)
	}
	return found, nil
}

// Start begins a fresh questionnaire: it computes the first step whose
// visibility condition holds against an empty answer set, stores state and
// returns that step. If no step is visible at all the questionnaire
// finalizes immediately.
func (e *Engine) Start(ctx context.Context, conversationID string) (*Result, error) {
	slog.Debug("Engine.Start: starting questionnaire", "conversationID", conversationID)
	answers := make(map[string]string)
	first := e.firstVisible(0, answers)
	if first >= len(e.steps) {
		return e.finalize(ctx, conversationID, answers)
	}

	state := models.QuestionnaireState{
		ConversationID: conversationID,
		StepIndex:      first,
		Answers:        answers,
		UpdatedAt:      time.Now(),
	}
	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}
	return &Result{Prompt: e.promptFor(first)}, nil
}

// Answer records the reply for the current step and advances to the next
// visible step, finalizing when the step list is exhausted. Text matching
// none of the options is stored verbatim (trimmed) so the flow never stalls.
func (e *Engine) Answer(ctx context.Context, conversationID, text string) (*Result, error) {
	state, err := e.loadState(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrInactive
	}
	if state.StepIndex < 0 || state.StepIndex >= len(e.steps) {
		// Corrupt state: drop it so the next message starts fresh.
		if err := e.kv.Delete(ctx, stateKeyPrefix+conversationID); err != nil {
			slog.Error("Engine.Answer: failed to delete corrupt state", "error", err, "conversationID", conversationID)
		}
		return nil, ErrInactive
	}

	step := e.steps[state.StepIndex]
	state.Answers[step.Key] = matchOption(step.Options, text)
	slog.Debug("Engine.Answer: answer recorded", "conversationID", conversationID, "key", step.Key, "stepIndex", state.StepIndex)

	next := e.firstVisible(state.StepIndex+1, state.Answers)
	if next >= len(e.steps) {
		return e.finalize(ctx, conversationID, state.Answers)
	}

	state.StepIndex = next
	state.UpdatedAt = time.Now()
	if err := e.saveState(ctx, *state); err != nil {
		return nil, err
	}
	return &Result{Prompt: e.promptFor(next)}, nil
}

// Reset removes any questionnaire state for the conversation.
func (e *Engine) Reset(ctx context.Context, conversationID string) error {
	if err := e.kv.Delete(ctx, stateKeyPrefix+conversationID); err != nil {
		return fmt.Errorf("failed to reset questionnaire state: %w", err)
	}
	slog.Info("Engine.Reset: questionnaire state cleared", "conversationID", conversationID)
	return nil
}

// matchOption matches the reply against the option list, case-insensitive,
// substring either way. Without a match the trimmed raw text is kept as a
// free-text answer.
func matchOption(options []string, text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, option := range options {
		optLower := strings.ToLower(option)
		if strings.Contains(lower, optLower) || (lower != "" && strings.Contains(optLower, lower)) {
			return option
		}
	}
	return trimmed
}

// firstVisible returns the first index at or after from whose visibility
// condition is satisfied by the answers collected so far, or len(steps).
func (e *Engine) firstVisible(from int, answers map[string]string) int {
	for i := from; i < len(e.steps); i++ {
		if conditionSatisfied(e.steps[i].Condition, answers) {
			return i
		}
	}
	return len(e.steps)
}

// conditionSatisfied evaluates the AND of per-key checks: the stored answer,
// case-folded, must contain the expected value or any one value of the list.
func conditionSatisfied(condition map[string]models.ConditionValues, answers map[string]string) bool {
	for key, expected := range condition {
		answer, ok := answers[key]
		if !ok {
			return false
		}
		folded := strings.ToLower(answer)
		matched := false
		for _, value := range expected {
			if strings.Contains(folded, strings.ToLower(value)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (e *Engine) promptFor(index int) *StepPrompt {
	step := e.steps[index]
	return &StepPrompt{
		Key:        step.Key,
		Question:   step.Question,
		Options:    step.Options,
		StepIndex:  index,
		TotalSteps: len(e.steps),
	}
}

func (e *Engine) loadState(ctx context.Context, conversationID string) (*models.QuestionnaireState, error) {
	raw, found, err := e.kv.Get(ctx, stateKeyPrefix+conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read questionnaire state: %w", err)
	}
	if !found {
		return nil, nil
	}
	var state models.QuestionnaireState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		slog.Error("Engine.loadState: corrupt state, discarding", "error", err, "conversationID", conversationID)
		if delErr := e.kv.Delete(ctx, stateKeyPrefix+conversationID); delErr != nil {
			slog.Error("Engine.loadState: failed to delete corrupt state", "error", delErr, "conversationID", conversationID)
		}
		return nil, nil
	}
	if state.Answers == nil {
		state.Answers = make(map[string]string)
	}
	return &state, nil
}

func (e *Engine) saveState(ctx context.Context, state models.QuestionnaireState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode questionnaire state: %w", err)
	}
	if err := e.kv.Set(ctx, stateKeyPrefix+state.ConversationID, string(raw), e.ttl); err != nil {
		return fmt.Errorf("failed to save questionnaire state: %w", err)
	}
	return nil
}
