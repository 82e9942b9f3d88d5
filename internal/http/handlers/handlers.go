// Package handlers exposes the planner pipeline over HTTP.
//
// Handlers are transport-thin: they decode JSON, build the validated request
// value through the services constructors, call the Planner and translate
// results or errors into responses. No handler touches the Store directly.
package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
	"github.com/tbourn/go-boardgame-planner/internal/services"
)

// Planner is the application surface consumed by the handlers. It is
// implemented by *services.Orchestrator.
//
// Implementations must be safe for concurrent use and honor ctx for
// cancellation.
type Planner interface {
	GenerateConcept(ctx context.Context, req services.ConceptRequest) (*domain.Concept, error)
	RegenerateConcept(ctx context.Context, req services.RegenerateConceptRequest) (*domain.Concept, error)
	GenerateObjective(ctx context.Context, req services.ObjectiveRequest) (*domain.Objective, error)
	GenerateComponents(ctx context.Context, req services.ComponentsRequest) (*domain.ComponentBatch, error)
	RegenerateComponents(ctx context.Context, req services.RegenerateComponentsRequest) (*domain.ComponentBatch, error)
	GenerateRule(ctx context.Context, req services.RuleRequest) (*domain.Rule, error)
	RegenerateRule(ctx context.Context, req services.RegenerateRuleRequest) (*domain.Rule, error)

	Simulate(ctx context.Context, req domain.SimulationRequest) (*services.SimulationOutcome, error)
	LatestBalance(ctx context.Context, ruleID int64) (*domain.SimulationRun, error)

	ConceptHistory(ctx context.Context, planID int64, page, pageSize int) (*services.ConceptPage, error)
	ConceptStats(ctx context.Context, planID int64) (int64, *time.Time, error)
	RuleLineage(ctx context.Context, ruleID int64) ([]domain.Rule, error)
}

// Handlers groups the HTTP endpoints of the planner API.
type Handlers struct {
	planner Planner
}

// New constructs a Handlers bound to p.
func New(p Planner) *Handlers {
	return &Handlers{planner: p}
}

// pathID parses a positive integer path parameter. It reports false after
// writing a validation error.
func pathID(c *gin.Context, name, field string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		failErr(c, &services.ValidationError{Field: field, Reason: "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// queryID is pathID for query parameters.
func queryID(c *gin.Context, name string) (int64, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		failErr(c, &services.ValidationError{Field: name, Reason: "is required"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		failErr(c, &services.ValidationError{Field: name, Reason: "must be a positive integer"})
		return 0, false
	}
	return id, true
}
