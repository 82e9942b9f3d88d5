// Package services – VersionManager
//
// This file implements VersionManager, which owns the append-only version
// chains of concepts, component batches and rules. Every operation resolves
// its source rows, asks the Content Generator for a draft, and only then
// opens a single transaction that computes the next version number and
// inserts the new row. A generator failure therefore never leaves a partial
// write behind.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// carry the plan/concept/rule identifiers involved.

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
	"github.com/tbourn/go-boardgame-planner/internal/generator"
	"github.com/tbourn/go-boardgame-planner/internal/repo"
	"github.com/tbourn/go-boardgame-planner/internal/search"
	"github.com/tbourn/go-boardgame-planner/internal/utils"
)

const defaultMaxLineage = 100

// VersionManager appends entity versions under their owning plan or concept.
type VersionManager struct {
	DB  *gorm.DB
	Gen generator.Generator

	// Index, when set, supplies similar published games for first concepts.
	Index search.Index

	// MaxLineage bounds parent-pointer walks.
	MaxLineage int
}

func versionTracer() trace.Tracer { return otel.Tracer("services/VersionManager") }

// CreateConcept generates a concept. A nil PlanID mints a new plan; otherwise
// the concept becomes the next version under the existing plan.
func (s *VersionManager) CreateConcept(ctx context.Context, req ConceptRequest) (*domain.Concept, error) {
	ctx, span := versionTracer().Start(ctx, "CreateConcept",
		trace.WithAttributes(attribute.String("concept.theme", req.Theme)))
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	if req.PlanID != nil {
		if _, err := repo.GetPlan(ctx, s.DB, *req.PlanID); err != nil {
			return nil, resolve(err, "plan", *req.PlanID)
		}
	}
	in := generator.ConceptInput{
		Theme:         req.Theme,
		PlayerCount:   req.PlayerCount,
		AverageWeight: req.AverageWeight,
		References:    s.references(req),
	}

	p.advance(StageGenerating)
	draft, err := s.Gen.Concept(ctx, in)
	if err != nil {
		return nil, generationFailed("concept", err)
	}

	base := domain.Concept{Theme: req.Theme, PlayerCount: req.PlayerCount, AverageWeight: req.AverageWeight}
	c := conceptFrom(draft, base)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.PlanID == nil {
			plan, err := repo.CreatePlan(ctx, tx)
			if err != nil {
				return err
			}
			c.PlanID = plan.ID
		} else {
			c.PlanID = *req.PlanID
		}
		v, err := repo.NextVersion(ctx, tx, &domain.Concept{}, "plan_id", c.PlanID)
		if err != nil {
			return err
		}
		c.Version = v
		return repo.CreateConcept(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("plan.id", c.PlanID), attribute.Int64("concept.id", c.ID))
	return c, nil
}

// RegenerateConcept appends a new concept version derived from the source
// concept and feedback. The supplied plan must own the source.
func (s *VersionManager) RegenerateConcept(ctx context.Context, req RegenerateConceptRequest) (*domain.Concept, error) {
	ctx, span := versionTracer().Start(ctx, "RegenerateConcept",
		trace.WithAttributes(
			attribute.Int64("concept.id", req.ConceptID),
			attribute.Int64("plan.id", req.PlanID),
		),
	)
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	src, err := repo.GetConcept(ctx, s.DB, req.ConceptID)
	if err != nil {
		return nil, resolve(err, "concept", req.ConceptID)
	}
	if src.PlanID != req.PlanID {
		return nil, fmt.Errorf("%w: concept %d belongs to plan %d, not %d",
			ErrIntegrity, src.ID, src.PlanID, req.PlanID)
	}

	p.advance(StageGenerating)
	draft, err := s.Gen.ReviseConcept(ctx, src, req.Feedback)
	if err != nil {
		return nil, generationFailed("concept revision", err)
	}

	c := conceptFrom(draft, *src)
	c.PlanID = src.PlanID
	c.ParentID = &src.ID
	c.Feedback = req.Feedback
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := repo.NextVersion(ctx, tx, &domain.Concept{}, "plan_id", c.PlanID)
		if err != nil {
			return err
		}
		c.Version = v
		return repo.CreateConcept(ctx, tx, c)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("concept.new_id", c.ID), attribute.Int("concept.version", c.Version))
	return c, nil
}

// GenerateObjective returns the objective of a concept, generating it on the
// first call. Later calls return the stored objective unchanged.
func (s *VersionManager) GenerateObjective(ctx context.Context, req ObjectiveRequest) (*domain.Objective, error) {
	ctx, span := versionTracer().Start(ctx, "GenerateObjective",
		trace.WithAttributes(attribute.Int64("concept.id", req.ConceptID)))
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	c, err := repo.GetConcept(ctx, s.DB, req.ConceptID)
	if err != nil {
		return nil, resolve(err, "concept", req.ConceptID)
	}
	existing, err := s.objectiveOf(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("objective.existing", true))
		return existing, nil
	}

	p.advance(StageGenerating)
	draft, err := s.Gen.Objective(ctx, c)
	if err != nil {
		return nil, generationFailed("objective", err)
	}
	o := &domain.Objective{
		ConceptID:        c.ID,
		MainGoal:         draft.MainGoal,
		SubGoals:         nonNil(draft.SubGoals),
		WinConditionType: draft.WinConditionType,
		DesignNote:       draft.DesignNote,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.CreateObjective(ctx, tx, o)
	})
	if repo.IsDuplicate(err) {
		// A concurrent request won; serve its objective.
		return repo.GetObjectiveByConcept(ctx, s.DB, c.ID)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// GenerateComponents generates a component batch from the plan's latest
// concept and that concept's objective, if any.
func (s *VersionManager) GenerateComponents(ctx context.Context, req ComponentsRequest) (*domain.ComponentBatch, error) {
	ctx, span := versionTracer().Start(ctx, "GenerateComponents",
		trace.WithAttributes(attribute.Int64("plan.id", req.PlanID)))
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	if _, err := repo.GetPlan(ctx, s.DB, req.PlanID); err != nil {
		return nil, resolve(err, "plan", req.PlanID)
	}
	c, err := repo.LatestConcept(ctx, s.DB, req.PlanID)
	if err != nil {
		return nil, resolve(err, "concept of plan", req.PlanID)
	}
	obj, err := s.objectiveOf(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	p.advance(StageGenerating)
	draft, err := s.Gen.Components(ctx, c, obj)
	if err != nil {
		return nil, generationFailed("components", err)
	}

	b := &domain.ComponentBatch{PlanID: req.PlanID, Components: draft.Components}
	if err := s.appendBatch(ctx, b); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("component.id", b.ID))
	return b, nil
}

// RegenerateComponents appends a complete new batch derived from the source
// batch and feedback.
func (s *VersionManager) RegenerateComponents(ctx context.Context, req RegenerateComponentsRequest) (*domain.ComponentBatch, error) {
	ctx, span := versionTracer().Start(ctx, "RegenerateComponents",
		trace.WithAttributes(attribute.Int64("component.id", req.ComponentID)))
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	src, err := repo.GetComponentBatch(ctx, s.DB, req.ComponentID)
	if err != nil {
		return nil, resolve(err, "component batch", req.ComponentID)
	}

	p.advance(StageGenerating)
	draft, err := s.Gen.ReviseComponents(ctx, src, req.Feedback)
	if err != nil {
		return nil, generationFailed("components revision", err)
	}

	b := &domain.ComponentBatch{
		PlanID:     src.PlanID,
		ParentID:   &src.ID,
		Components: draft.Components,
		Feedback:   req.Feedback,
	}
	if err := s.appendBatch(ctx, b); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("component.new_id", b.ID))
	return b, nil
}

func (s *VersionManager) appendBatch(ctx context.Context, b *domain.ComponentBatch) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := repo.NextVersion(ctx, tx, &domain.ComponentBatch{}, "plan_id", b.PlanID)
		if err != nil {
			return err
		}
		b.Version = v
		return repo.CreateComponentBatch(ctx, tx, b)
	})
}

// GenerateRule generates a rule for a concept.
func (s *VersionManager) GenerateRule(ctx context.Context, req RuleRequest) (*domain.Rule, error) {
	ctx, span := versionTracer().Start(ctx, "GenerateRule",
		trace.WithAttributes(attribute.Int64("concept.id", req.ConceptID)))
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	c, err := repo.GetConcept(ctx, s.DB, req.ConceptID)
	if err != nil {
		return nil, resolve(err, "concept", req.ConceptID)
	}
	obj, err := s.objectiveOf(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	p.advance(StageGenerating)
	draft, err := s.Gen.Rule(ctx, c, obj)
	if err != nil {
		return nil, generationFailed("rule", err)
	}

	r := ruleFrom(draft)
	r.ConceptID, r.PlanID = c.ID, c.PlanID
	if err := s.appendRule(ctx, r); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("rule.id", r.ID))
	return r, nil
}

// RegenerateRule appends a new rule version derived from the source rule and
// feedback, under the same concept and plan.
func (s *VersionManager) RegenerateRule(ctx context.Context, req RegenerateRuleRequest) (*domain.Rule, error) {
	ctx, span := versionTracer().Start(ctx, "RegenerateRule",
		trace.WithAttributes(attribute.Int64("rule.id", req.RuleID)))
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	src, err := repo.GetRule(ctx, s.DB, req.RuleID)
	if err != nil {
		return nil, resolve(err, "rule", req.RuleID)
	}

	p.advance(StageGenerating)
	draft, err := s.Gen.ReviseRule(ctx, src, req.Feedback)
	if err != nil {
		return nil, generationFailed("rule revision", err)
	}

	r := ruleFrom(draft)
	r.ConceptID, r.PlanID = src.ConceptID, src.PlanID
	r.ParentID = &src.ID
	r.Feedback = req.Feedback
	if err := s.appendRule(ctx, r); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("rule.new_id", r.ID), attribute.Int("rule.version", r.Version))
	return r, nil
}

func (s *VersionManager) appendRule(ctx context.Context, r *domain.Rule) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := repo.NextVersion(ctx, tx, &domain.Rule{}, "concept_id", r.ConceptID)
		if err != nil {
			return err
		}
		r.Version = v
		return repo.CreateRule(ctx, tx, r)
	})
}

// ConceptHistory returns a page of a plan's concept versions, oldest first,
// and the total count.
func (s *VersionManager) ConceptHistory(ctx context.Context, planID int64, page, pageSize int) ([]domain.Concept, int64, error) {
	ctx, span := versionTracer().Start(ctx, "ConceptHistory",
		trace.WithAttributes(
			attribute.Int64("plan.id", planID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	pipelineFrom(ctx).advance(StageResolving)
	page, pageSize = utils.ClampPage(page, pageSize)

	if _, err := repo.GetPlan(ctx, s.DB, planID); err != nil {
		return nil, 0, resolve(err, "plan", planID)
	}
	total, err := repo.CountConcepts(ctx, s.DB, planID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Concept{}, 0, nil
	}
	items, err := repo.ListConceptsPage(ctx, s.DB, planID, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}

// ConceptStats returns the version count and newest timestamp of a plan's
// concept history, for conditional GETs.
func (s *VersionManager) ConceptStats(ctx context.Context, planID int64) (int64, *time.Time, error) {
	return repo.ConceptStats(ctx, s.DB, planID)
}

// RuleLineage returns the versions of a rule from the root to ruleID.
func (s *VersionManager) RuleLineage(ctx context.Context, ruleID int64) ([]domain.Rule, error) {
	ctx, span := versionTracer().Start(ctx, "RuleLineage",
		trace.WithAttributes(attribute.Int64("rule.id", ruleID)))
	defer span.End()

	pipelineFrom(ctx).advance(StageResolving)
	depth := s.MaxLineage
	if depth <= 0 {
		depth = defaultMaxLineage
	}
	chain, err := repo.RuleLineage(ctx, s.DB, ruleID, depth)
	if err != nil {
		return nil, resolve(err, "rule", ruleID)
	}
	span.SetAttributes(attribute.Int("rule.lineage_len", len(chain)))
	return chain, nil
}

// objectiveOf returns the concept's objective or nil when none exists yet.
func (s *VersionManager) objectiveOf(ctx context.Context, conceptID int64) (*domain.Objective, error) {
	o, err := repo.GetObjectiveByConcept(ctx, s.DB, conceptID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return o, err
}

func (s *VersionManager) references(req ConceptRequest) string {
	if s.Index == nil {
		return ""
	}
	q := search.Query(req.Theme, req.PlayerCount, req.AverageWeight)
	return search.Reference(s.Index.TopK(q, search.DefaultK))
}

// conceptFrom builds a concept row from a draft. Theme, player count and
// weight come from base unless the draft overrides them with valid values.
func conceptFrom(d generator.ConceptDraft, base domain.Concept) *domain.Concept {
	c := &domain.Concept{
		Theme:         base.Theme,
		PlayerCount:   base.PlayerCount,
		AverageWeight: base.AverageWeight,
		IdeaText:      d.IdeaText,
		Mechanics:     d.Mechanics,
		Storyline:     d.Storyline,
	}
	if t := clean(d.Theme); t != "" {
		c.Theme = t
	}
	if pc := clean(d.PlayerCount); pc != "" && validatePlayerCount(pc) == nil {
		c.PlayerCount = pc
	}
	if d.AverageWeight >= MinWeight && d.AverageWeight <= MaxWeight {
		c.AverageWeight = d.AverageWeight
	}
	return c
}

func ruleFrom(d generator.RuleDraft) *domain.Rule {
	return &domain.Rule{
		TurnStructure:    d.TurnStructure,
		ActionRules:      nonNil(d.ActionRules),
		VictoryCondition: d.VictoryCondition,
		PenaltyRules:     nonNil(d.PenaltyRules),
		DesignNote:       d.DesignNote,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
