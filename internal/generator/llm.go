package generator

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.New("prompts").
	Funcs(template.FuncMap{"json": toJSON}).
	ParseFS(promptFS, "prompts/*.tmpl"))

var tracer = otel.Tracer("generator")

// TextModel is the minimal capability the LLM generator needs:
// generate text for a prompt.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LLM is a Generator backed by a TextModel. Prompts are rendered from the
// embedded templates and replies are parsed from their JSON block.
type LLM struct {
	Model TextModel
	// Timeout bounds one model call (<=0 means no extra bound).
	Timeout time.Duration
}

// NewLLM returns an LLM generator over m.
func NewLLM(m TextModel, timeout time.Duration) *LLM {
	return &LLM{Model: m, Timeout: timeout}
}

func (g *LLM) ask(ctx context.Context, name string, data any) (string, error) {
	ctx, span := tracer.Start(ctx, "generator."+strings.TrimSuffix(name, ".tmpl"),
		trace.WithAttributes(attribute.String("generator.prompt", name)))
	defer span.End()

	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}
	reply, err := g.Model.Generate(ctx, buf.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("generator.reply_bytes", len(reply)))
	return reply, nil
}

// Concept implements Generator.
func (g *LLM) Concept(ctx context.Context, in ConceptInput) (ConceptDraft, error) {
	reply, err := g.ask(ctx, "concept.tmpl", in)
	if err != nil {
		return ConceptDraft{}, err
	}
	d, err := decode[ConceptDraft](reply)
	if err != nil {
		return ConceptDraft{}, err
	}
	// The request fixes these; a model that drifts is overruled.
	d.Theme, d.PlayerCount, d.AverageWeight = in.Theme, in.PlayerCount, in.AverageWeight
	return d, nil
}

// ReviseConcept implements Generator. Theme, player count and weight are
// carried forward from src unless the reply overrides them with valid values.
func (g *LLM) ReviseConcept(ctx context.Context, src *domain.Concept, feedback string) (ConceptDraft, error) {
	reply, err := g.ask(ctx, "revise_concept.tmpl", struct {
		Source   *domain.Concept
		Feedback string
	}{src, feedback})
	if err != nil {
		return ConceptDraft{}, err
	}
	d, err := decode[ConceptDraft](reply)
	if err != nil {
		return ConceptDraft{}, err
	}
	return carryForward(d, src), nil
}

// Objective implements Generator.
func (g *LLM) Objective(ctx context.Context, c *domain.Concept) (ObjectiveDraft, error) {
	reply, err := g.ask(ctx, "objective.tmpl", struct{ Concept *domain.Concept }{c})
	if err != nil {
		return ObjectiveDraft{}, err
	}
	return decode[ObjectiveDraft](reply)
}

// Components implements Generator. obj may be nil.
func (g *LLM) Components(ctx context.Context, c *domain.Concept, obj *domain.Objective) (ComponentsDraft, error) {
	reply, err := g.ask(ctx, "components.tmpl", struct {
		Concept   *domain.Concept
		Objective *domain.Objective
	}{c, obj})
	if err != nil {
		return ComponentsDraft{}, err
	}
	return decode[ComponentsDraft](reply)
}

// ReviseComponents implements Generator.
func (g *LLM) ReviseComponents(ctx context.Context, src *domain.ComponentBatch, feedback string) (ComponentsDraft, error) {
	reply, err := g.ask(ctx, "revise_components.tmpl", struct {
		Source   []domain.ComponentItem
		Feedback string
	}{src.Components, feedback})
	if err != nil {
		return ComponentsDraft{}, err
	}
	return decode[ComponentsDraft](reply)
}

// Rule implements Generator. obj may be nil.
func (g *LLM) Rule(ctx context.Context, c *domain.Concept, obj *domain.Objective) (RuleDraft, error) {
	reply, err := g.ask(ctx, "rule.tmpl", struct {
		Concept   *domain.Concept
		Objective *domain.Objective
	}{c, obj})
	if err != nil {
		return RuleDraft{}, err
	}
	return decode[RuleDraft](reply)
}

// ReviseRule implements Generator.
func (g *LLM) ReviseRule(ctx context.Context, src *domain.Rule, feedback string) (RuleDraft, error) {
	reply, err := g.ask(ctx, "revise_rule.tmpl", struct {
		Source   *domain.Rule
		Feedback string
	}{src, feedback})
	if err != nil {
		return RuleDraft{}, err
	}
	return decode[RuleDraft](reply)
}

func carryForward(d ConceptDraft, src *domain.Concept) ConceptDraft {
	if strings.TrimSpace(d.Theme) == "" {
		d.Theme = src.Theme
	}
	if strings.TrimSpace(d.PlayerCount) == "" {
		d.PlayerCount = src.PlayerCount
	}
	if d.AverageWeight < 1 || d.AverageWeight > 5 {
		d.AverageWeight = src.AverageWeight
	}
	return d
}

func toJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
