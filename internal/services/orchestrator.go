package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/tbourn/go-boardgame-planner/internal/cache"
	"github.com/tbourn/go-boardgame-planner/internal/domain"
	"github.com/tbourn/go-boardgame-planner/internal/generator"
	"github.com/tbourn/go-boardgame-planner/internal/search"
	"github.com/tbourn/go-boardgame-planner/internal/simulation"
)

// Orchestrator is the entry point for every planner operation. Each call is
// one pipeline run: validate, resolve, generate or simulate, report.
type Orchestrator struct {
	Versions    *VersionManager
	Simulations *SimulationService
}

// NewOrchestrator wires the services over one database handle.
func NewOrchestrator(db *gorm.DB, gen generator.Generator, idx search.Index, runner *simulation.Runner, reports cache.Reports) *Orchestrator {
	return &Orchestrator{
		Versions:    &VersionManager{DB: db, Gen: gen, Index: idx},
		Simulations: &SimulationService{DB: db, Runner: runner, Reports: reports},
	}
}

// GenerateConcept creates a concept, minting a plan when req.PlanID is nil.
func (o *Orchestrator) GenerateConcept(ctx context.Context, req ConceptRequest) (*domain.Concept, error) {
	return run(ctx, "generate_concept", req.validate, func(ctx context.Context) (*domain.Concept, error) {
		return o.Versions.CreateConcept(ctx, req)
	})
}

// RegenerateConcept appends a concept version.
func (o *Orchestrator) RegenerateConcept(ctx context.Context, req RegenerateConceptRequest) (*domain.Concept, error) {
	return run(ctx, "regenerate_concept", req.validate, func(ctx context.Context) (*domain.Concept, error) {
		return o.Versions.RegenerateConcept(ctx, req)
	})
}

// GenerateObjective returns or creates the objective of a concept.
func (o *Orchestrator) GenerateObjective(ctx context.Context, req ObjectiveRequest) (*domain.Objective, error) {
	return run(ctx, "generate_objective", req.validate, func(ctx context.Context) (*domain.Objective, error) {
		return o.Versions.GenerateObjective(ctx, req)
	})
}

// GenerateComponents creates a component batch for a plan.
func (o *Orchestrator) GenerateComponents(ctx context.Context, req ComponentsRequest) (*domain.ComponentBatch, error) {
	return run(ctx, "generate_components", req.validate, func(ctx context.Context) (*domain.ComponentBatch, error) {
		return o.Versions.GenerateComponents(ctx, req)
	})
}

// RegenerateComponents appends a component batch version.
func (o *Orchestrator) RegenerateComponents(ctx context.Context, req RegenerateComponentsRequest) (*domain.ComponentBatch, error) {
	return run(ctx, "regenerate_components", req.validate, func(ctx context.Context) (*domain.ComponentBatch, error) {
		return o.Versions.RegenerateComponents(ctx, req)
	})
}

// GenerateRule creates a rule for a concept.
func (o *Orchestrator) GenerateRule(ctx context.Context, req RuleRequest) (*domain.Rule, error) {
	return run(ctx, "generate_rule", req.validate, func(ctx context.Context) (*domain.Rule, error) {
		return o.Versions.GenerateRule(ctx, req)
	})
}

// RegenerateRule appends a rule version.
func (o *Orchestrator) RegenerateRule(ctx context.Context, req RegenerateRuleRequest) (*domain.Rule, error) {
	return run(ctx, "regenerate_rule", req.validate, func(ctx context.Context) (*domain.Rule, error) {
		return o.Versions.RegenerateRule(ctx, req)
	})
}

// Simulate runs a rule test.
func (o *Orchestrator) Simulate(ctx context.Context, req domain.SimulationRequest) (*SimulationOutcome, error) {
	validate := func() error { return validateSimulation(req) }
	return run(ctx, "simulate", validate, func(ctx context.Context) (*SimulationOutcome, error) {
		return o.Simulations.Simulate(ctx, req)
	})
}

// LatestBalance returns the latest simulation run of a rule.
func (o *Orchestrator) LatestBalance(ctx context.Context, ruleID int64) (*domain.SimulationRun, error) {
	validate := func() error { return positive("ruleId", ruleID) }
	return run(ctx, "latest_balance", validate, func(ctx context.Context) (*domain.SimulationRun, error) {
		return o.Simulations.Latest(ctx, ruleID)
	})
}

// ConceptPage is one page of a plan's concept history.
type ConceptPage struct {
	Items []domain.Concept
	Total int64
}

// ConceptHistory returns a page of a plan's concept versions.
func (o *Orchestrator) ConceptHistory(ctx context.Context, planID int64, page, pageSize int) (*ConceptPage, error) {
	validate := func() error { return positive("planId", planID) }
	return run(ctx, "concept_history", validate, func(ctx context.Context) (*ConceptPage, error) {
		items, total, err := o.Versions.ConceptHistory(ctx, planID, page, pageSize)
		if err != nil {
			return nil, err
		}
		return &ConceptPage{Items: items, Total: total}, nil
	})
}

// ConceptStats returns the version count and newest timestamp of a plan's
// concept history. It is a cheap read used for ETags and is not a pipeline
// run of its own.
func (o *Orchestrator) ConceptStats(ctx context.Context, planID int64) (int64, *time.Time, error) {
	return o.Versions.ConceptStats(ctx, planID)
}

// RuleLineage returns a rule's versions from the root to ruleID.
func (o *Orchestrator) RuleLineage(ctx context.Context, ruleID int64) ([]domain.Rule, error) {
	validate := func() error { return positive("ruleId", ruleID) }
	return run(ctx, "rule_lineage", validate, func(ctx context.Context) ([]domain.Rule, error) {
		return o.Versions.RuleLineage(ctx, ruleID)
	})
}

// run executes one pipeline: a span, the stage machine, an outcome counter
// and a log line carrying the stage path.
func run[T any](ctx context.Context, op string, validate func() error, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := otel.Tracer("services/Orchestrator").Start(ctx, op)
	defer span.End()

	p := newPipeline(op)
	ctx = withPipeline(ctx, p)
	start := time.Now()

	var out T
	p.advance(StageValidating)
	err := validate()
	if err == nil {
		out, err = fn(ctx)
	}

	outcome := Outcome(err)
	if err != nil {
		p.fail()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		p.finish()
	}
	span.SetAttributes(
		attribute.String("pipeline.outcome", outcome),
		attribute.String("pipeline.stages", p.String()),
	)
	pipelineRequests.WithLabelValues(op, outcome).Inc()

	logEvent(outcome).
		Str("operation", op).
		Str("outcome", outcome).
		Str("stages", p.String()).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("pipeline finished")

	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func logEvent(outcome string) *zerolog.Event {
	switch outcome {
	case "ok":
		return log.Info()
	case "validation", "not_found", "integrity":
		return log.Warn()
	default:
		return log.Error()
	}
}
