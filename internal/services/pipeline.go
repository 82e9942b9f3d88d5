package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage is a step of one pipeline run.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageResolving  Stage = "resolving"
	StageGenerating Stage = "generating"
	StageSimulating Stage = "simulating"
	StageReporting  Stage = "reporting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// transitions lists the legal successors of each stage. Failed is reachable
// from every non-terminal stage and is not listed.
var transitions = map[Stage][]Stage{
	StageIdle:       {StageValidating},
	StageValidating: {StageResolving},
	StageResolving:  {StageGenerating, StageSimulating, StageReporting},
	StageGenerating: {StageReporting},
	StageSimulating: {StageReporting},
	StageReporting:  {StageDone},
}

var (
	pipelineRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_requests_total",
			Help: "Pipeline runs by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	balanceScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simulation_balance_score",
			Help:    "Balance score of completed simulation requests.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)
)

func init() {
	prometheus.MustRegister(pipelineRequests, balanceScore)
}

// pipeline tracks the stage of one request. It is carried in the context so
// lower layers can advance it without extra parameters.
type pipeline struct {
	op   string
	mu   sync.Mutex
	path []Stage
}

type pipelineKey struct{}

func newPipeline(op string) *pipeline {
	return &pipeline{op: op, path: []Stage{StageIdle}}
}

func withPipeline(ctx context.Context, p *pipeline) context.Context {
	return context.WithValue(ctx, pipelineKey{}, p)
}

// pipelineFrom returns the pipeline in ctx, or nil. All methods accept a nil
// receiver so services work outside an orchestrated run.
func pipelineFrom(ctx context.Context) *pipeline {
	p, _ := ctx.Value(pipelineKey{}).(*pipeline)
	return p
}

// Stage reports the current stage.
func (p *pipeline) Stage() Stage {
	if p == nil {
		return StageIdle
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path[len(p.path)-1]
}

// advance moves to next. An illegal transition is a programming error.
func (p *pipeline) advance(next Stage) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.path[len(p.path)-1]
	if !legal(cur, next) {
		panic(fmt.Sprintf("pipeline %s: illegal transition %s -> %s", p.op, cur, next))
	}
	p.path = append(p.path, next)
}

// finish walks the remaining stages to Done.
func (p *pipeline) finish() {
	if p.Stage() != StageReporting {
		p.advance(StageReporting)
	}
	p.advance(StageDone)
}

func (p *pipeline) fail() {
	if s := p.Stage(); s == StageDone || s == StageFailed {
		return
	}
	p.advance(StageFailed)
}

// String renders the stage path, e.g. "idle>validating>resolving>failed".
func (p *pipeline) String() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	parts := make([]string, len(p.path))
	for i, s := range p.path {
		parts[i] = string(s)
	}
	return strings.Join(parts, ">")
}

func legal(from, to Stage) bool {
	if from == StageDone || from == StageFailed {
		return false
	}
	if to == StageFailed {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
