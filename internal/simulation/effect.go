// Package simulation plays a Rule out turn by turn and produces GameResults.
//
// Rule text is natural language and cannot be executed directly. The
// mechanical effect of one turn is therefore delegated to a TurnEffect:
// the Runner owns turn progression, score accumulation and termination,
// the effect owns what happens inside a turn.
package simulation

import (
	"context"
	"fmt"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// TurnInput is the state handed to a TurnEffect for one turn.
// Scores is a copy; mutating it has no effect on the game.
type TurnInput struct {
	Rule     *domain.Rule
	GameID   int
	Turn     int
	MaxTurns int
	Players  []string
	Scores   map[string]float64
}

// TurnOutcome is what a TurnEffect reports back for one turn.
type TurnOutcome struct {
	// Deltas are added to the players' scores. Unknown labels are an error.
	Deltas map[string]float64

	// Log is a one-line description of the turn.
	Log string

	// Strategy and Critical are optional annotations collected into
	// GameResult.KeyStrategies and GameResult.CriticalMoments.
	Strategy string
	Critical string

	// Winner lets an effect end the game explicitly. It must be a player
	// label; the victory check still runs when it is empty.
	Winner string
}

// TurnEffect computes the mechanical effect of one turn.
type TurnEffect interface {
	Apply(ctx context.Context, in TurnInput) (TurnOutcome, error)
}

// EffectFactory builds a fresh TurnEffect for one game. Effects are never
// shared between games, so implementations need not be concurrency-safe.
type EffectFactory func(rule *domain.Rule, gameID int) (TurnEffect, error)

// EffectFunc adapts a plain function to TurnEffect.
type EffectFunc func(ctx context.Context, in TurnInput) (TurnOutcome, error)

// Apply implements TurnEffect.
func (f EffectFunc) Apply(ctx context.Context, in TurnInput) (TurnOutcome, error) {
	return f(ctx, in)
}

// NewEffectFactory returns the factory for a TURN_EFFECT name.
// "lua" requires a script; "heuristic" (or empty) ignores it.
func NewEffectFactory(kind, script string) (EffectFactory, error) {
	switch kind {
	case "", "heuristic":
		return NewHeuristic, nil
	case "lua":
		if script == "" {
			return nil, fmt.Errorf("simulation: lua turn effect requires a script")
		}
		if err := CheckScript(script); err != nil {
			return nil, err
		}
		return LuaFactory(script), nil
	default:
		return nil, fmt.Errorf("simulation: unknown turn effect %q", kind)
	}
}

// PlayerLabels returns "Player 1".."Player n".
func PlayerLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Player %d", i+1)
	}
	return out
}
