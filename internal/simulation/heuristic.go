package simulation

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// move is one action or penalty line reduced to a numeric weight.
type move struct {
	text   string
	weight float64
}

// HeuristicEffect approximates a turn from the shape of the rule text.
// Each action line becomes a move whose weight depends on its wording;
// every turn each player draws a move and may trigger a penalty. The
// random source is seeded from (rule, game) so a game is reproducible.
type HeuristicEffect struct {
	rng       *rand.Rand
	actions   []move
	penalties []move
}

// NewHeuristic is the EffectFactory for HeuristicEffect.
func NewHeuristic(rule *domain.Rule, gameID int) (TurnEffect, error) {
	if rule == nil {
		return nil, fmt.Errorf("simulation: nil rule")
	}
	return &HeuristicEffect{
		rng:       rand.New(rand.NewSource(seedFor(rule.ID, gameID))),
		actions:   moves(rule.ActionRules, 2, 6),
		penalties: moves(rule.PenaltyRules, 1, 4),
	}, nil
}

// Apply implements TurnEffect.
func (h *HeuristicEffect) Apply(ctx context.Context, in TurnInput) (TurnOutcome, error) {
	if err := ctx.Err(); err != nil {
		return TurnOutcome{}, err
	}

	out := TurnOutcome{Deltas: make(map[string]float64, len(in.Players))}
	var parts []string
	bestGain, bestPlayer, bestMove := -1.0, "", ""

	for _, p := range in.Players {
		m := h.actions[h.rng.Intn(len(h.actions))]
		// Late turns swing harder so games converge instead of drifting.
		gain := m.weight * (0.5 + h.rng.Float64()) * (1 + float64(in.Turn)/float64(in.MaxTurns+1))
		gain = math.Round(gain*10) / 10

		loss := 0.0
		if len(h.penalties) > 0 && h.rng.Float64() < 0.2 {
			pm := h.penalties[h.rng.Intn(len(h.penalties))]
			loss = pm.weight
			parts = append(parts, fmt.Sprintf("%s: %s (-%.0f)", p, clip(pm.text, 40), loss))
		}

		out.Deltas[p] = gain - loss
		parts = append(parts, fmt.Sprintf("%s +%.1f", p, gain))
		if gain > bestGain {
			bestGain, bestPlayer, bestMove = gain, p, m.text
		}
	}

	out.Log = fmt.Sprintf("Turn %d: %s", in.Turn, strings.Join(parts, ", "))
	out.Strategy = clip(bestMove, 60)
	if bestGain >= 8 {
		out.Critical = fmt.Sprintf("Turn %d: %s surges ahead with %q", in.Turn, bestPlayer, clip(bestMove, 40))
	}
	return out, nil
}

// moves turns rule lines into weighted moves in [lo, hi]. Rules without
// action text fall back to a single generic move.
func moves(lines []string, lo, hi float64) []move {
	out := make([]move, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		out = append(out, move{text: l, weight: lo + float64(hash(l)%1000)/1000*(hi-lo)})
	}
	if len(out) == 0 && lo >= 2 {
		out = append(out, move{text: "generic action", weight: (lo + hi) / 2})
	}
	return out
}

func seedFor(ruleID int64, gameID int) int64 {
	return int64(hash(fmt.Sprintf("%d/%d", ruleID, gameID)) & math.MaxInt64)
}

func hash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
