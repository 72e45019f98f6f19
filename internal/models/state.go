// Package models defines state structures for the guided questionnaire.
package models

import (
	"encoding/json"
	"time"
)

// ConditionValues holds the expected value(s) for one visibility condition
// key. Configuration may supply either a single string or a list; both decode
// into a list.
type ConditionValues []string

// UnmarshalJSON accepts a bare string or an array of strings.
func (v *ConditionValues) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*v = ConditionValues{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = ConditionValues(list)
	return nil
}

// StepDefinition describes one questionnaire step. Steps are loaded once per
// session from configuration; invalid entries are filtered out.
type StepDefinition struct {
	Key       string                     `json:"key"`
	Question  string                     `json:"question"`
	Options   []string                   `json:"options"`
	Condition map[string]ConditionValues `json:"condition,omitempty"` // prior answer key -> expected value(s)
}

// Valid reports whether the step definition is usable: a key, a question and
// at least one option are required.
func (s StepDefinition) Valid() bool {
	return s.Key != "" && s.Question != "" && len(s.Options) > 0
}

// QuestionnaireState is the persisted progress of one questionnaire session.
// It is owned exclusively by the questionnaire engine and deleted on finalize
// or reset. State past its TTL is treated as absent.
type QuestionnaireState struct {
	ConversationID string            `json:"conversation_id"`
	StepIndex      int               `json:"step_index"`
	Answers        map[string]string `json:"answers"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Profile is the outcome of a completed questionnaire: a derived label,
// advice summary and recommended catalog item ids. Cached for a bounded time
// keyed by conversation for pagination follow-ups.
type Profile struct {
	Label          string            `json:"label"`
	Summary        string            `json:"summary"`
	MatchedItemIDs []string          `json:"matched_item_ids,omitempty"`
	SourceAnswers  map[string]string `json:"source_answers,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ProfileRule is an admin-defined finalize rule. The first rule whose every
// condition substring is found in the corresponding stored answer wins.
type ProfileRule struct {
	Conditions map[string]string `json:"conditions"`
	Label      string            `json:"label"`
	Summary    string            `json:"summary"`
	ItemIDs    []string          `json:"item_ids,omitempty"`
}
