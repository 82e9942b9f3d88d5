// Package analysis reduces a batch of simulated games to a BalanceReport.
//
// Analyze is a pure function: no clock, no randomness, no I/O. Map-derived
// output is always emitted in sorted player order, so two calls on equal
// batches produce equal reports regardless of result order.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// Thresholds.
const (
	SkewThreshold    = 0.6 // win share above which one seat dominates
	MinGamesForSkew  = 3
	LongRatio        = 0.9 // mean turns >= LongRatio*maxTurns
	ShortRatio       = 0.3 // mean turns <= ShortRatio*maxTurns
	RunawayRatio     = 0.5 // mean spread / mean score magnitude
	NoWinnerRatio    = 0.5
	maxBalanceScore  = 10.0
	minBalanceScore  = 0.0
	scoreRoundFactor = 10
)

// NoDataIssue is the sole issue of a report built from zero completed games.
const NoDataIssue = "no data"

// Issue identifies one kind of detected imbalance.
type Issue int

const (
	IssueDominant Issue = iota
	IssueTooLong
	IssueTooShort
	IssueRunaway
	IssueRarelyEnds
	IssueFailures
)

var penalties = map[Issue]float64{
	IssueDominant:   3.0,
	IssueTooLong:    2.0,
	IssueTooShort:   2.0,
	IssueRunaway:    2.0,
	IssueRarelyEnds: 1.5,
	IssueFailures:   1.0,
}

var recommendations = map[Issue]string{
	IssueDominant:   "Introduce a catch-up mechanic or rotate first-player advantage so no single seat dominates.",
	IssueTooLong:    "Lower the victory threshold or add an end-game trigger so games finish before the turn limit.",
	IssueTooShort:   "Raise the victory threshold or slow early scoring so the game has time to develop.",
	IssueRunaway:    "Add rubber-banding (bonuses for trailing players, costs for the leader) to narrow score gaps.",
	IssueRarelyEnds: "Make the victory condition reachable within the turn limit or add a score-based tiebreak at time-out.",
	IssueFailures:   "Review rules that make the turn simulation fail; ambiguous action text is the usual cause.",
}

// Penalty returns the score deduction applied for an issue.
func Penalty(i Issue) float64 { return penalties[i] }

// Analyze builds the BalanceReport for results simulated under req.
// Failed placeholders count toward Stats.Failed but not toward statistics.
func Analyze(results []domain.GameResult, req domain.SimulationRequest) domain.BalanceReport {
	completed := make([]domain.GameResult, 0, len(results))
	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
			continue
		}
		completed = append(completed, r)
	}

	stats := domain.BalanceStats{
		Requested: req.SimulationCount,
		Completed: len(completed),
		Failed:    failed,
	}
	if stats.Requested < len(results) {
		stats.Requested = len(results)
	}
	if len(completed) == 0 {
		return emptyReport(stats)
	}

	wins, noWinner := winCounts(completed)
	n := float64(len(completed))
	stats.WinShare = make(map[string]float64, len(wins))
	for p, w := range wins {
		stats.WinShare[p] = float64(w) / n
	}
	stats.NoWinnerShare = float64(noWinner) / n
	stats.MeanTurns, stats.MinTurns, stats.MaxTurns = turnStats(completed)
	stats.MeanSpread, stats.RelSpread = spreadStats(completed)

	var issues []string
	var recs []string
	score := maxBalanceScore
	flag := func(kind Issue, text string) {
		issues = append(issues, text)
		recs = append(recs, recommendations[kind])
		score -= penalties[kind]
	}

	if len(completed) >= MinGamesForSkew {
		if p, share := topShare(stats.WinShare); share > SkewThreshold {
			flag(IssueDominant, fmt.Sprintf(
				"dominant strategy / player-position advantage: %s won %d of %d games (%.0f%%)",
				p, wins[p], len(completed), share*100))
		}
	}

	if req.MaxTurns > 0 {
		limit := float64(req.MaxTurns)
		switch {
		case stats.MeanTurns >= LongRatio*limit:
			flag(IssueTooLong, fmt.Sprintf(
				"game runs too long: average %.1f turns against a limit of %d", stats.MeanTurns, req.MaxTurns))
		case stats.MeanTurns <= ShortRatio*limit:
			flag(IssueTooShort, fmt.Sprintf(
				"game ends too early: average %.1f turns against a limit of %d", stats.MeanTurns, req.MaxTurns))
		}
	}

	if stats.RelSpread > RunawayRatio {
		flag(IssueRunaway, fmt.Sprintf(
			"runaway leader: average score gap %.1f points (%.0f%% of the score scale)",
			stats.MeanSpread, stats.RelSpread*100))
	}

	if stats.NoWinnerShare >= NoWinnerRatio {
		flag(IssueRarelyEnds, fmt.Sprintf(
			"victory condition rarely triggers: %d of %d games ended without a winner", noWinner, len(completed)))
	}

	if failed > 0 {
		flag(IssueFailures, fmt.Sprintf(
			"simulation failures: %d of %d games could not be simulated", failed, len(results)))
	}

	score = clamp(round1(score))
	return domain.BalanceReport{
		SimulationSummary: summary(stats, wins, noWinner, req.MaxTurns, score),
		IssuesDetected:    nonNil(issues),
		Recommendations:   nonNil(recs),
		BalanceScore:      score,
		Stats:             stats,
	}
}

func emptyReport(stats domain.BalanceStats) domain.BalanceReport {
	return domain.BalanceReport{
		SimulationSummary: fmt.Sprintf(
			"No games completed: %d requested, %d failed. Balance cannot be assessed.",
			stats.Requested, stats.Failed),
		IssuesDetected:  []string{NoDataIssue},
		Recommendations: []string{"Check that the rule can be simulated and run the batch again."},
		BalanceScore:    0,
		Stats:           stats,
	}
}

// winCounts tallies wins per player label and games without a winner.
func winCounts(results []domain.GameResult) (map[string]int, int) {
	wins := make(map[string]int)
	none := 0
	for _, r := range results {
		if r.Winner == "" || r.Winner == domain.NoWinner {
			none++
			continue
		}
		wins[r.Winner]++
	}
	return wins, none
}

func turnStats(results []domain.GameResult) (mean float64, lo, hi int) {
	lo = math.MaxInt
	sum := 0
	for _, r := range results {
		sum += r.TotalTurns
		if r.TotalTurns < lo {
			lo = r.TotalTurns
		}
		if r.TotalTurns > hi {
			hi = r.TotalTurns
		}
	}
	return float64(sum) / float64(len(results)), lo, hi
}

// spreadStats returns the mean of (max-min) score per game and that mean
// relative to the mean score magnitude, max(|max|, |min|) per game. The
// magnitude equals the top score when no score is negative and still scales
// games where everyone finished at or below zero. Games with no scores are
// skipped.
func spreadStats(results []domain.GameResult) (meanSpread, rel float64) {
	var spreadSum, scaleSum float64
	n := 0
	for _, r := range results {
		if len(r.Score) == 0 {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range r.Score {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		spreadSum += hi - lo
		scaleSum += math.Max(math.Abs(hi), math.Abs(lo))
		n++
	}
	if n == 0 {
		return 0, 0
	}
	meanSpread = spreadSum / float64(n)
	if scale := scaleSum / float64(n); scale > 0 {
		rel = meanSpread / scale
	}
	return round2(meanSpread), round2(rel)
}

// topShare returns the player with the largest share; ties go to the
// lexically smallest label.
func topShare(shares map[string]float64) (string, float64) {
	best, bestShare := "", -1.0
	for _, p := range sortedKeys(shares) {
		if shares[p] > bestShare {
			best, bestShare = p, shares[p]
		}
	}
	return best, bestShare
}

func summary(stats domain.BalanceStats, wins map[string]int, noWinner, maxTurns int, score float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d simulated games completed", stats.Completed, stats.Requested)
	if stats.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", stats.Failed)
	}
	fmt.Fprintf(&b, ". Games lasted %.1f turns on average (min %d, max %d, limit %d).",
		stats.MeanTurns, stats.MinTurns, stats.MaxTurns, maxTurns)

	if len(wins) > 0 {
		parts := make([]string, 0, len(wins))
		for _, p := range sortedKeys(stats.WinShare) {
			parts = append(parts, fmt.Sprintf("%s %d (%.0f%%)", p, wins[p], stats.WinShare[p]*100))
		}
		fmt.Fprintf(&b, " Wins: %s.", strings.Join(parts, ", "))
	}
	if noWinner > 0 {
		fmt.Fprintf(&b, " %d game(s) ended without a winner.", noWinner)
	}
	fmt.Fprintf(&b, " Average score gap between first and last place was %.1f points. Overall balance score %.1f/10.",
		stats.MeanSpread, score)
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func clamp(v float64) float64 {
	return math.Max(minBalanceScore, math.Min(maxBalanceScore, v))
}

func round1(v float64) float64 { return math.Round(v*scoreRoundFactor) / scoreRoundFactor }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
