package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestInboundMessageValidate(t *testing.T) {
	cases := []struct {
		name string
		msg  InboundMessage
		want error
	}{
		{"valid", InboundMessage{Text: "hallo"}, nil},
		{"valid with id", InboundMessage{ConversationID: "c1", Text: "hallo"}, nil},
		{"empty text", InboundMessage{}, ErrEmptyMessage},
		{"too long", InboundMessage{Text: strings.Repeat("a", MaxMessageLength+1)}, ErrMessageTooLong},
		{"max length ok", InboundMessage{Text: strings.Repeat("a", MaxMessageLength)}, nil},
		{"conversation id too long", InboundMessage{ConversationID: strings.Repeat("x", MaxConversationIDLength+1), Text: "hi"}, ErrConversationIDTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.msg.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestConditionValuesUnmarshalString(t *testing.T) {
	var v ConditionValues
	if err := json.Unmarshal([]byte(`"ja"`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 1 || v[0] != "ja" {
		t.Errorf("expected [ja], got %v", v)
	}
}

func TestConditionValuesUnmarshalList(t *testing.T) {
	var v ConditionValues
	if err := json.Unmarshal([]byte(`["ja","misschien"]`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 2 || v[0] != "ja" || v[1] != "misschien" {
		t.Errorf("expected [ja misschien], got %v", v)
	}
}

func TestConditionValuesUnmarshalInvalid(t *testing.T) {
	var v ConditionValues
	if err := json.Unmarshal([]byte(`42`), &v); err == nil {
		t.Error("expected error for non-string condition value")
	}
}

func TestStepDefinitionValid(t *testing.T) {
	valid := StepDefinition{Key: "huidtype", Question: "Wat is jouw huidtype?", Options: []string{"Droog"}}
	if !valid.Valid() {
		t.Error("expected step to be valid")
	}
	for name, step := range map[string]StepDefinition{
		"missing key":      {Question: "q", Options: []string{"a"}},
		"missing question": {Key: "k", Options: []string{"a"}},
		"no options":       {Key: "k", Question: "q"},
	} {
		if step.Valid() {
			t.Errorf("%s: expected step to be invalid", name)
		}
	}
}

func TestIsValidTier(t *testing.T) {
	for _, tier := range []Tier{TierFree, TierStandard, TierPremium} {
		if !IsValidTier(tier) {
			t.Errorf("expected %s to be valid", tier)
		}
	}
	if IsValidTier(Tier("enterprise")) {
		t.Error("expected unknown tier to be invalid")
	}
}
