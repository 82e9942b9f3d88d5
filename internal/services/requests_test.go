package services

import (
	"errors"
	"strings"
	"testing"
)

func fieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

func TestNewConceptRequest(t *testing.T) {
	bad := int64(0)
	cases := []struct {
		name      string
		planID    *int64
		theme, pc string
		weight    float64
		field     string
	}{
		{"ok range", nil, "SF", "2~4명", 3.5, ""},
		{"ok single", nil, "SF", "3", 1, ""},
		{"ok spaced", nil, "SF", "2 ~ 4", 5, ""},
		{"no theme", nil, "  ", "2~4", 3, "theme"},
		{"no players", nil, "SF", "", 3, "playerCount"},
		{"bad players", nil, "SF", "two", 3, "playerCount"},
		{"inverted", nil, "SF", "4~2", 3, "playerCount"},
		{"zero players", nil, "SF", "0", 3, "playerCount"},
		{"light", nil, "SF", "2~4", 0.9, "averageWeight"},
		{"heavy", nil, "SF", "2~4", 5.1, "averageWeight"},
		{"bad plan", &bad, "SF", "2~4", 3, "planId"},
		{"long theme", nil, strings.Repeat("가", 101), "2~4", 3, "theme"},
	}
	for _, tc := range cases {
		_, err := NewConceptRequest(tc.planID, tc.theme, tc.pc, tc.weight)
		if got := fieldOf(err); got != tc.field {
			t.Errorf("%s: field %q, want %q (err=%v)", tc.name, got, tc.field, err)
		}
	}
}

func TestNewConceptRequest_NormalizesNFC(t *testing.T) {
	// "전략" written as conjoining jamo.
	decomposed := "\u110c\u1165\u11ab\u1105\u1163\u11a8"
	r, err := NewConceptRequest(nil, "  "+decomposed+" ", "2~4", 3)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if r.Theme != "전략" {
		t.Fatalf("expected composed theme, got %q", r.Theme)
	}
}

func TestNewSimulationRequest_Bounds(t *testing.T) {
	cases := []struct {
		rule                  int64
		count, players, turns int
		field                 string
	}{
		{23, 5, 3, 10, ""},
		{23, 1, 2, 5, ""},
		{23, 10, 4, 20, ""},
		{0, 5, 3, 10, "ruleId"},
		{23, 0, 3, 10, "simulationCount"},
		{23, 11, 3, 10, "simulationCount"},
		{23, 5, 1, 10, "playerCount"},
		{23, 5, 5, 10, "playerCount"},
		{23, 5, 3, 4, "maxTurns"},
		{23, 5, 3, 21, "maxTurns"},
	}
	for _, tc := range cases {
		_, err := NewSimulationRequest(tc.rule, tc.count, tc.players, tc.turns)
		if got := fieldOf(err); got != tc.field {
			t.Errorf("%+v: field %q, want %q", tc, got, tc.field)
		}
	}
}

func TestRegenerateRequests(t *testing.T) {
	if _, err := NewRegenerateConceptRequest(12, 13, "  "); fieldOf(err) != "feedback" {
		t.Errorf("blank feedback: %v", err)
	}
	if _, err := NewRegenerateConceptRequest(0, 13, "x"); fieldOf(err) != "conceptId" {
		t.Errorf("zero concept: %v", err)
	}
	if _, err := NewRegenerateConceptRequest(12, -1, "x"); fieldOf(err) != "planId" {
		t.Errorf("negative plan: %v", err)
	}
	if _, err := NewRegenerateRuleRequest(23, strings.Repeat("a", 2001)); fieldOf(err) != "feedback" {
		t.Errorf("long feedback: %v", err)
	}
	if _, err := NewRegenerateComponentsRequest(0, "x"); fieldOf(err) != "componentId" {
		t.Errorf("zero component: %v", err)
	}
	if r, err := NewRegenerateRuleRequest(23, " 턴을 짧게 "); err != nil || r.Feedback != "턴을 짧게" {
		t.Errorf("trimmed feedback: %+v %v", r, err)
	}
	if _, err := NewObjectiveRequest(0); fieldOf(err) != "conceptId" {
		t.Errorf("objective: %v", err)
	}
	if _, err := NewComponentsRequest(0); fieldOf(err) != "planId" {
		t.Errorf("components: %v", err)
	}
	if _, err := NewRuleRequest(0); fieldOf(err) != "conceptId" {
		t.Errorf("rule: %v", err)
	}
}
