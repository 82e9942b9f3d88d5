// Package services – SimulationService
//
// This file implements SimulationService: it resolves a rule, plays a batch
// of games through the simulation.Runner, analyzes the batch, and persists
// the aggregated report. Individual game results are returned to the caller
// and not stored.
//
// Observability: public methods are OpenTelemetry-instrumented and every
// completed batch is logged with its score and failure count.

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-boardgame-planner/internal/analysis"
	"github.com/tbourn/go-boardgame-planner/internal/cache"
	"github.com/tbourn/go-boardgame-planner/internal/domain"
	"github.com/tbourn/go-boardgame-planner/internal/repo"
	"github.com/tbourn/go-boardgame-planner/internal/simulation"
)

// SimulationOutcome is the response of one rule test.
type SimulationOutcome struct {
	SimulationID int64                `json:"simulationId"`
	History      []domain.GameResult  `json:"simulationHistory"`
	Report       domain.BalanceReport `json:"balanceAnalysis"`
}

// SimulationService runs rule tests and serves their latest reports.
type SimulationService struct {
	DB     *gorm.DB
	Runner *simulation.Runner

	// Reports, when set, caches the latest run per rule.
	Reports cache.Reports
}

func simTracer() trace.Tracer { return otel.Tracer("services/SimulationService") }

// Simulate plays req.SimulationCount games of the rule and stores the
// resulting balance report. It fails with ErrSimulation only when every game
// failed.
func (s *SimulationService) Simulate(ctx context.Context, req domain.SimulationRequest) (*SimulationOutcome, error) {
	ctx, span := simTracer().Start(ctx, "Simulate",
		trace.WithAttributes(
			attribute.Int64("rule.id", req.RuleID),
			attribute.Int("simulation.count", req.SimulationCount),
			attribute.Int("simulation.players", req.PlayerCount),
			attribute.Int("simulation.max_turns", req.MaxTurns),
		),
	)
	defer span.End()

	p := pipelineFrom(ctx)
	p.advance(StageResolving)
	rule, err := repo.GetRule(ctx, s.DB, req.RuleID)
	if err != nil {
		return nil, resolve(err, "rule", req.RuleID)
	}

	p.advance(StageSimulating)
	results, err := s.Runner.RunBatch(ctx, rule, req)
	if errors.Is(err, simulation.ErrAllGamesFailed) {
		return nil, fmt.Errorf("%w: all %d games of rule %d failed", ErrSimulation, req.SimulationCount, req.RuleID)
	}
	if err != nil {
		return nil, err
	}

	p.advance(StageReporting)
	report := analysis.Analyze(results, req)
	run := &domain.SimulationRun{
		RuleID:          req.RuleID,
		SimulationCount: req.SimulationCount,
		PlayerCount:     req.PlayerCount,
		MaxTurns:        req.MaxTurns,
		Completed:       report.Stats.Completed,
		Failed:          report.Stats.Failed,
		Report:          report,
	}
	if err := repo.CreateSimulationRun(ctx, s.DB, run); err != nil {
		return nil, err
	}
	if s.Reports != nil {
		if err := s.Reports.Put(ctx, run); err != nil {
			log.Warn().Err(err).Int64("rule_id", req.RuleID).Msg("balance report cache put failed")
		}
	}
	balanceScore.Observe(report.BalanceScore)

	span.SetAttributes(
		attribute.Int64("simulation.id", run.ID),
		attribute.Float64("balance.score", report.BalanceScore),
	)
	log.Info().
		Int64("rule_id", req.RuleID).
		Int64("simulation_id", run.ID).
		Int("completed", report.Stats.Completed).
		Int("failed", report.Stats.Failed).
		Float64("balance_score", report.BalanceScore).
		Msg("simulation batch analyzed")

	return &SimulationOutcome{SimulationID: run.ID, History: results, Report: report}, nil
}

// Latest returns the most recent simulation run of a rule.
func (s *SimulationService) Latest(ctx context.Context, ruleID int64) (*domain.SimulationRun, error) {
	ctx, span := simTracer().Start(ctx, "Latest",
		trace.WithAttributes(attribute.Int64("rule.id", ruleID)))
	defer span.End()

	pipelineFrom(ctx).advance(StageResolving)
	load := func(ctx context.Context) (*domain.SimulationRun, error) {
		run, err := repo.LatestSimulationRun(ctx, s.DB, ruleID)
		if err != nil {
			return nil, resolve(err, "simulation of rule", ruleID)
		}
		return run, nil
	}
	if s.Reports == nil {
		return load(ctx)
	}
	return s.Reports.Latest(ctx, ruleID, load)
}
