package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// Input bounds. All are inclusive; out-of-range input is rejected, never
// clamped.
const (
	MinSimulationCount = 1
	MaxSimulationCount = 10
	MinPlayers         = 2
	MaxPlayers         = 4
	MinMaxTurns        = 5
	MaxMaxTurns        = 20
	MinWeight          = 1.0
	MaxWeight          = 5.0

	maxThemeRunes    = 100
	maxFeedbackRunes = 2000
)

var playerCountRE = regexp.MustCompile(`^(\d+)\s*(?:~\s*(\d+))?\s*명?$`)

// clean trims and NFC-normalizes user text so composed and decomposed
// Hangul compare equal.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ConceptRequest asks for a new concept, optionally under an existing plan.
type ConceptRequest struct {
	PlanID        *int64
	Theme         string
	PlayerCount   string
	AverageWeight float64
}

// NewConceptRequest validates and normalizes a generate-concept request.
func NewConceptRequest(planID *int64, theme, playerCount string, weight float64) (ConceptRequest, error) {
	r := ConceptRequest{PlanID: planID, Theme: clean(theme), PlayerCount: clean(playerCount), AverageWeight: weight}
	return r, r.validate()
}

func (r ConceptRequest) validate() error {
	if r.PlanID != nil && *r.PlanID <= 0 {
		return invalid("planId", "must be a positive integer")
	}
	if r.Theme == "" {
		return invalid("theme", "is required")
	}
	if utf8.RuneCountInString(r.Theme) > maxThemeRunes {
		return invalid("theme", "must be at most %d characters", maxThemeRunes)
	}
	if err := validatePlayerCount(r.PlayerCount); err != nil {
		return err
	}
	if r.AverageWeight < MinWeight || r.AverageWeight > MaxWeight {
		return invalid("averageWeight", "must be between %.1f and %.1f", MinWeight, MaxWeight)
	}
	return nil
}

// validatePlayerCount accepts "3", "2~4" and "2~4명".
func validatePlayerCount(s string) error {
	if s == "" {
		return invalid("playerCount", "is required")
	}
	m := playerCountRE.FindStringSubmatch(s)
	if m == nil {
		return invalid("playerCount", `must look like "2~4" or "2~4명"`)
	}
	lo, _ := strconv.Atoi(m[1])
	hi := lo
	if m[2] != "" {
		hi, _ = strconv.Atoi(m[2])
	}
	if lo < 1 || hi < lo {
		return invalid("playerCount", "range %d~%d is empty", lo, hi)
	}
	return nil
}

// RegenerateConceptRequest asks for a new version of a concept.
type RegenerateConceptRequest struct {
	ConceptID int64
	PlanID    int64
	Feedback  string
}

// NewRegenerateConceptRequest validates a regenerate-concept request.
func NewRegenerateConceptRequest(conceptID, planID int64, feedback string) (RegenerateConceptRequest, error) {
	r := RegenerateConceptRequest{ConceptID: conceptID, PlanID: planID, Feedback: clean(feedback)}
	return r, r.validate()
}

func (r RegenerateConceptRequest) validate() error {
	if err := positive("conceptId", r.ConceptID); err != nil {
		return err
	}
	if err := positive("planId", r.PlanID); err != nil {
		return err
	}
	return validateFeedback(r.Feedback)
}

// ObjectiveRequest asks for the objective of a concept.
type ObjectiveRequest struct{ ConceptID int64 }

// NewObjectiveRequest validates a generate-objective request.
func NewObjectiveRequest(conceptID int64) (ObjectiveRequest, error) {
	r := ObjectiveRequest{ConceptID: conceptID}
	return r, r.validate()
}

func (r ObjectiveRequest) validate() error { return positive("conceptId", r.ConceptID) }

// ComponentsRequest asks for a first component batch of a plan.
type ComponentsRequest struct{ PlanID int64 }

// NewComponentsRequest validates a generate-components request.
func NewComponentsRequest(planID int64) (ComponentsRequest, error) {
	r := ComponentsRequest{PlanID: planID}
	return r, r.validate()
}

func (r ComponentsRequest) validate() error { return positive("planId", r.PlanID) }

// RegenerateComponentsRequest asks for a new version of a component batch.
type RegenerateComponentsRequest struct {
	ComponentID int64
	Feedback    string
}

// NewRegenerateComponentsRequest validates a regenerate-components request.
func NewRegenerateComponentsRequest(componentID int64, feedback string) (RegenerateComponentsRequest, error) {
	r := RegenerateComponentsRequest{ComponentID: componentID, Feedback: clean(feedback)}
	return r, r.validate()
}

func (r RegenerateComponentsRequest) validate() error {
	if err := positive("componentId", r.ComponentID); err != nil {
		return err
	}
	return validateFeedback(r.Feedback)
}

// RuleRequest asks for a first rule of a concept.
type RuleRequest struct{ ConceptID int64 }

// NewRuleRequest validates a generate-rule request.
func NewRuleRequest(conceptID int64) (RuleRequest, error) {
	r := RuleRequest{ConceptID: conceptID}
	return r, r.validate()
}

func (r RuleRequest) validate() error { return positive("conceptId", r.ConceptID) }

// RegenerateRuleRequest asks for a new version of a rule.
type RegenerateRuleRequest struct {
	RuleID   int64
	Feedback string
}

// NewRegenerateRuleRequest validates a regenerate-rule request.
func NewRegenerateRuleRequest(ruleID int64, feedback string) (RegenerateRuleRequest, error) {
	r := RegenerateRuleRequest{RuleID: ruleID, Feedback: clean(feedback)}
	return r, r.validate()
}

func (r RegenerateRuleRequest) validate() error {
	if err := positive("ruleId", r.RuleID); err != nil {
		return err
	}
	return validateFeedback(r.Feedback)
}

// NewSimulationRequest validates a rule-test request.
func NewSimulationRequest(ruleID int64, count, players, maxTurns int) (domain.SimulationRequest, error) {
	r := domain.SimulationRequest{RuleID: ruleID, SimulationCount: count, PlayerCount: players, MaxTurns: maxTurns}
	return r, validateSimulation(r)
}

func validateSimulation(r domain.SimulationRequest) error {
	if err := positive("ruleId", r.RuleID); err != nil {
		return err
	}
	if r.SimulationCount < MinSimulationCount || r.SimulationCount > MaxSimulationCount {
		return invalid("simulationCount", "must be between %d and %d", MinSimulationCount, MaxSimulationCount)
	}
	if r.PlayerCount < MinPlayers || r.PlayerCount > MaxPlayers {
		return invalid("playerCount", "must be between %d and %d", MinPlayers, MaxPlayers)
	}
	if r.MaxTurns < MinMaxTurns || r.MaxTurns > MaxMaxTurns {
		return invalid("maxTurns", "must be between %d and %d", MinMaxTurns, MaxMaxTurns)
	}
	return nil
}

func positive(field string, id int64) error {
	if id <= 0 {
		return invalid(field, "must be a positive integer")
	}
	return nil
}

func validateFeedback(s string) error {
	if s == "" {
		return invalid("feedback", "is required")
	}
	if utf8.RuneCountInString(s) > maxFeedbackRunes {
		return invalid("feedback", "must be at most %d characters", maxFeedbackRunes)
	}
	return nil
}
