// Package models defines the core data structures for ShopAssist.
//
// It includes the message envelopes exchanged with the outer surface, the
// conversation types persisted per chat, and validation errors shared across
// modules.
package models

import (
	"errors"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the shopper.
	RoleUser Role = "user"
	// RoleAssistant marks a turn written by the assistant.
	RoleAssistant Role = "assistant"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for an inbound message text
	MaxMessageLength = 4096
	// MaxConversationIDLength defines the maximum allowed length for a conversation id
	MaxConversationIDLength = 64
)

// Error variables for better error handling and testability
var (
	ErrEmptyMessage          = errors.New("message text cannot be empty")
	ErrMessageTooLong        = errors.New("message text exceeds maximum length")
	ErrConversationIDTooLong = errors.New("conversation id exceeds maximum length")
	ErrConversationNotFound  = errors.New("conversation not found")
)

// Turn is one role-tagged message in a conversation. Turns are immutable
// once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a logical exchange of turns under one opaque id.
type Conversation struct {
	ID    string `json:"id"`
	Turns []Turn `json:"turns"`
}

// SessionFlags carries pre-computed session decisions supplied by the caller.
type SessionFlags struct {
	QuestionnaireActive bool `json:"questionnaire_active,omitempty"`
	RateLimited         bool `json:"rate_limited,omitempty"`
}

// InboundMessage is the envelope consumed by the engine for one user message.
type InboundMessage struct {
	ConversationID string       `json:"conversation_id,omitempty"`
	Text           string       `json:"text"`
	SessionFlags   SessionFlags `json:"session_flags,omitempty"`
}

// Validate performs basic validation on an inbound message.
func (m *InboundMessage) Validate() error {
	if len(m.Text) == 0 {
		return ErrEmptyMessage
	}
	if len(m.Text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if len(m.ConversationID) > MaxConversationIDLength {
		return ErrConversationIDTooLong
	}
	return nil
}

// QuestionnaireMeta describes questionnaire progress attached to a response.
type QuestionnaireMeta struct {
	Active     bool   `json:"active"`
	StepIndex  int    `json:"step_index"`
	TotalSteps int    `json:"total_steps"`
	Key        string `json:"key,omitempty"`
}

// ResponseMeta carries optional structured extras on an outbound message.
type ResponseMeta struct {
	Questionnaire *QuestionnaireMeta `json:"questionnaire,omitempty"`
	QuickReplies  []string           `json:"quick_replies,omitempty"`
}

// OutboundMessage is the envelope produced by the engine for one response.
type OutboundMessage struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	ConversationID string        `json:"conversation_id"`
	Meta           *ResponseMeta `json:"meta,omitempty"`
}

// Tier enumerates authorization tiers for gated features.
type Tier string

const (
	// TierFree is the unlicensed tier; model-backed features are gated.
	TierFree Tier = "free"
	// TierStandard unlocks model-backed chat.
	TierStandard Tier = "standard"
	// TierPremium unlocks the guided questionnaire on top of standard.
	TierPremium Tier = "premium"
)

// IsValidTier checks if the given tier is supported.
func IsValidTier(t Tier) bool {
	switch t {
	case TierFree, TierStandard, TierPremium:
		return true
	default:
		return false
	}
}
