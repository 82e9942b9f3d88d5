// Package generator is the Content Generator port: it turns design context
// into concept, objective, component and rule drafts.
//
// Drafts carry content only. Identity, version numbers and ownership are
// assigned by the versioning layer, so a generator can never mint IDs or
// move an entity to another plan.
package generator

import (
	"context"
	"errors"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// ErrInvalidOutput reports a reply that could not be parsed into a draft
// or lacked required fields.
var ErrInvalidOutput = errors.New("generator: invalid output")

// ConceptInput is the context for a first concept.
type ConceptInput struct {
	Theme         string
	PlayerCount   string
	AverageWeight float64
	// References is the rendered block of similar published games.
	References string
}

// ConceptDraft is generated concept content.
type ConceptDraft struct {
	Theme         string  `json:"theme"`
	PlayerCount   string  `json:"playerCount"`
	AverageWeight float64 `json:"averageWeight"`
	IdeaText      string  `json:"ideaText"`
	Mechanics     string  `json:"mechanics"`
	Storyline     string  `json:"storyline"`
}

// ObjectiveDraft is generated objective content.
type ObjectiveDraft struct {
	MainGoal         string   `json:"mainGoal"`
	SubGoals         []string `json:"subGoals"`
	WinConditionType string   `json:"winConditionType"`
	DesignNote       string   `json:"designNote"`
}

// ComponentsDraft is a generated component list.
type ComponentsDraft struct {
	Components []domain.ComponentItem `json:"components"`
}

// RuleDraft is generated rule content.
type RuleDraft struct {
	TurnStructure    string   `json:"turnStructure"`
	ActionRules      []string `json:"actionRules"`
	VictoryCondition string   `json:"victoryCondition"`
	PenaltyRules     []string `json:"penaltyRules"`
	DesignNote       string   `json:"designNote"`
}

// Generator produces drafts. Revise* methods condition on user feedback and
// the source version; the source is never modified.
type Generator interface {
	Concept(ctx context.Context, in ConceptInput) (ConceptDraft, error)
	ReviseConcept(ctx context.Context, src *domain.Concept, feedback string) (ConceptDraft, error)
	Objective(ctx context.Context, c *domain.Concept) (ObjectiveDraft, error)
	Components(ctx context.Context, c *domain.Concept, obj *domain.Objective) (ComponentsDraft, error)
	ReviseComponents(ctx context.Context, src *domain.ComponentBatch, feedback string) (ComponentsDraft, error)
	Rule(ctx context.Context, c *domain.Concept, obj *domain.Objective) (RuleDraft, error)
	ReviseRule(ctx context.Context, src *domain.Rule, feedback string) (RuleDraft, error)
}

func (d ConceptDraft) validate() error {
	if d.IdeaText == "" || d.Mechanics == "" || d.Storyline == "" {
		return errors.New("concept draft missing ideaText, mechanics or storyline")
	}
	return nil
}

func (d ObjectiveDraft) validate() error {
	if d.MainGoal == "" {
		return errors.New("objective draft missing mainGoal")
	}
	return nil
}

func (d ComponentsDraft) validate() error {
	if len(d.Components) == 0 {
		return errors.New("components draft is empty")
	}
	for _, c := range d.Components {
		if c.Name == "" {
			return errors.New("component without name")
		}
	}
	return nil
}

func (d RuleDraft) validate() error {
	if d.TurnStructure == "" || len(d.ActionRules) == 0 {
		return errors.New("rule draft missing turnStructure or actionRules")
	}
	return nil
}
