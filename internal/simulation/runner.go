package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// ErrAllGamesFailed is returned by RunBatch when no game of the batch
// completed. The placeholders are still returned alongside it.
var ErrAllGamesFailed = errors.New("simulation: all games failed")

const (
	maxAnnotations = 5
	baseMinutes    = 10
	minutesPerMove = 3
)

// Runner orchestrates games: turn progression, score accumulation and
// termination. Turn mechanics come from the EffectFactory.
type Runner struct {
	// NewEffect builds the per-game turn effect.
	NewEffect EffectFactory
	// Workers bounds concurrently running games (<=0 means one per game).
	Workers int
	// GameTimeout is the wall-clock watchdog per game (<=0 disables it).
	GameTimeout time.Duration
	// KeepTurnsLog copies the per-turn log into GameResult.TurnsLog.
	KeepTurnsLog bool
}

// NewRunner returns a Runner with the default worker and watchdog limits.
func NewRunner(f EffectFactory) *Runner {
	if f == nil {
		f = NewHeuristic
	}
	return &Runner{NewEffect: f, Workers: 4, GameTimeout: 5 * time.Second, KeepTurnsLog: true}
}

// RunBatch plays req.SimulationCount games of rule. Results are ordered by
// gameId (1..N) regardless of completion order. A game that errors, panics
// or overruns the watchdog yields a failed placeholder instead of failing
// the batch; only a batch with no completed game returns ErrAllGamesFailed.
func (r *Runner) RunBatch(ctx context.Context, rule *domain.Rule, req domain.SimulationRequest) ([]domain.GameResult, error) {
	n := req.SimulationCount
	if n <= 0 {
		return []domain.GameResult{}, nil
	}
	start := time.Now()
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	results := make([]domain.GameResult, n)
	var g errgroup.Group
	workers := r.Workers
	if workers <= 0 || workers > n {
		workers = n
	}
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		gameID := i + 1
		g.Go(func() error {
			results[gameID-1] = r.guarded(ctx, rule, gameID, req.PlayerCount, req.MaxTurns)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failed := 0
	for _, res := range results {
		gamesTotal.WithLabelValues(outcomeLabel(res)).Inc()
		if res.Failed {
			failed++
		}
	}
	log.Debug().
		Int64("rule_id", rule.ID).
		Int("games", n).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("simulation batch finished")

	if failed == n {
		return results, ErrAllGamesFailed
	}
	return results, nil
}

// guarded runs one game under the watchdog and converts errors and panics
// into a failed placeholder.
func (r *Runner) guarded(ctx context.Context, rule *domain.Rule, gameID, players, maxTurns int) domain.GameResult {
	gctx, cancel := ctx, context.CancelFunc(func() {})
	if r.GameTimeout > 0 {
		gctx, cancel = context.WithTimeout(ctx, r.GameTimeout)
	}
	defer cancel()

	done := make(chan domain.GameResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- placeholder(gameID, fmt.Errorf("panic: %v", p))
			}
		}()
		res, err := r.Run(gctx, rule, gameID, players, maxTurns)
		if err != nil {
			res = placeholder(gameID, err)
		}
		done <- res
	}()

	select {
	case res := <-done:
		if res.Failed {
			log.Warn().Int("game_id", gameID).Str("error", res.Error).Msg("simulated game failed")
		}
		return res
	case <-gctx.Done():
		log.Warn().Int("game_id", gameID).Err(gctx.Err()).Msg("simulated game abandoned")
		return placeholder(gameID, gctx.Err())
	}
}

func placeholder(gameID int, err error) domain.GameResult {
	return domain.GameResult{
		GameID:          gameID,
		Winner:          domain.ErrorWinner,
		Score:           map[string]float64{},
		KeyStrategies:   []string{},
		CriticalMoments: []string{},
		Failed:          true,
		Error:           err.Error(),
	}
}

// Run plays a single game. totalTurns never exceeds maxTurns: a game the
// victory check never ends stops at maxTurns with no winner.
func (r *Runner) Run(ctx context.Context, rule *domain.Rule, gameID, playerCount, maxTurns int) (domain.GameResult, error) {
	if rule == nil {
		return domain.GameResult{}, errors.New("simulation: nil rule")
	}
	if playerCount < 1 || maxTurns < 1 {
		return domain.GameResult{}, fmt.Errorf("simulation: invalid game shape (%d players, %d turns)", playerCount, maxTurns)
	}
	effect, err := r.NewEffect(rule, gameID)
	if err != nil {
		return domain.GameResult{}, err
	}

	players := PlayerLabels(playerCount)
	scores := make(map[string]float64, playerCount)
	for _, p := range players {
		scores[p] = 0
	}
	victory := ParseVictory(rule.VictoryCondition)

	var (
		turnsLog   []string
		strategies = newAnnotations(maxAnnotations)
		critical   = newAnnotations(maxAnnotations)
		winner     string
		turn       int
	)

	for turn = 1; turn <= maxTurns; turn++ {
		out, err := effect.Apply(ctx, TurnInput{
			Rule:     rule,
			GameID:   gameID,
			Turn:     turn,
			MaxTurns: maxTurns,
			Players:  players,
			Scores:   copyScores(scores),
		})
		if err != nil {
			return domain.GameResult{}, fmt.Errorf("game %d turn %d: %w", gameID, turn, err)
		}
		for p, d := range out.Deltas {
			if _, ok := scores[p]; !ok {
				return domain.GameResult{}, fmt.Errorf("game %d turn %d: unknown player %q", gameID, turn, p)
			}
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return domain.GameResult{}, fmt.Errorf("game %d turn %d: non-finite delta for %s", gameID, turn, p)
			}
			scores[p] += d
		}
		if out.Log != "" {
			turnsLog = append(turnsLog, out.Log)
		}
		strategies.add(out.Strategy)
		critical.add(out.Critical)

		if out.Winner != "" {
			if _, ok := scores[out.Winner]; !ok {
				return domain.GameResult{}, fmt.Errorf("game %d turn %d: winner %q is not a player", gameID, turn, out.Winner)
			}
			winner = out.Winner
			break
		}
		if w, ok := victory.Winner(scores); ok {
			winner = w
			break
		}
	}

	total := turn
	if winner == "" {
		winner, total = domain.NoWinner, maxTurns
	} else {
		critical.add(fmt.Sprintf("Turn %d: %s meets the victory condition", total, winner))
	}
	for p, s := range scores {
		scores[p] = math.Round(s*10) / 10
	}

	res := domain.GameResult{
		GameID:            gameID,
		Winner:            winner,
		TotalTurns:        total,
		DurationMinutes:   Duration(total, playerCount),
		Score:             scores,
		KeyStrategies:     strategies.list(),
		CriticalMoments:   critical.list(),
		OverallPacing:     pacing(total, maxTurns, winner),
		BalanceEvaluation: evaluate(scores, total, maxTurns),
	}
	if r.KeepTurnsLog {
		res.TurnsLog = turnsLog
	}
	return res, nil
}

// Duration estimates table time in minutes from turn and player counts.
func Duration(totalTurns, playerCount int) int {
	return baseMinutes + totalTurns*playerCount*minutesPerMove
}

func pacing(total, maxTurns int, winner string) string {
	ratio := float64(total) / float64(maxTurns)
	switch {
	case winner == domain.NoWinner:
		return fmt.Sprintf("Slow: no player reached the victory condition within %d turns.", maxTurns)
	case ratio <= 0.3:
		return fmt.Sprintf("Fast: the game ended on turn %d of %d.", total, maxTurns)
	case ratio >= 0.9:
		return fmt.Sprintf("Long: the game went to turn %d of %d.", total, maxTurns)
	default:
		return fmt.Sprintf("Steady: the game ended on turn %d of %d.", total, maxTurns)
	}
}

func evaluate(scores map[string]float64, total, maxTurns int) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range scores {
		lo, hi = math.Min(lo, s), math.Max(hi, s)
	}
	spread := hi - lo
	closeness := "scores stayed close"
	if hi > 0 && spread/hi > 0.5 {
		closeness = "one player pulled far ahead"
	} else if hi > 0 && spread/hi > 0.2 {
		closeness = "a clear leader emerged"
	}

	length := "a reasonable length"
	switch r := float64(total) / float64(maxTurns); {
	case r <= 0.3:
		length = "short"
	case r >= 0.9:
		length = "long"
	}
	return fmt.Sprintf("The game ran %s and %s (spread %.1f points).", length, closeness, spread)
}

func copyScores(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// annotations keeps the first n distinct non-empty strings.
type annotations struct {
	max  int
	seen map[string]bool
	out  []string
}

func newAnnotations(n int) *annotations {
	return &annotations{max: n, seen: map[string]bool{}, out: []string{}}
}

func (a *annotations) add(s string) {
	if s == "" || a.seen[s] || len(a.out) >= a.max {
		return
	}
	a.seen[s] = true
	a.out = append(a.out, s)
}

func (a *annotations) list() []string { return a.out }
