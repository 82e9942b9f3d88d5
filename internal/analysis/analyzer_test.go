package analysis

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

func game(id int, winner string, turns int, scores ...float64) domain.GameResult {
	sc := make(map[string]float64, len(scores))
	for i, s := range scores {
		sc[label(i)] = s
	}
	return domain.GameResult{GameID: id, Winner: winner, TotalTurns: turns, Score: sc}
}

func label(i int) string { return "Player " + string(rune('1'+i)) }

func req(n, maxTurns int) domain.SimulationRequest {
	return domain.SimulationRequest{RuleID: 1, SimulationCount: n, PlayerCount: 2, MaxTurns: maxTurns}
}

func hasIssue(r domain.BalanceReport, prefix string) bool {
	for _, i := range r.IssuesDetected {
		if strings.HasPrefix(i, prefix) {
			return true
		}
	}
	return false
}

func TestAnalyze_EmptyBatch(t *testing.T) {
	r := Analyze(nil, req(5, 10))
	if r.BalanceScore != 0 {
		t.Fatalf("expected score 0, got %v", r.BalanceScore)
	}
	if len(r.IssuesDetected) != 1 || r.IssuesDetected[0] != NoDataIssue {
		t.Fatalf("expected single %q issue, got %v", NoDataIssue, r.IssuesDetected)
	}
	if !strings.Contains(r.SimulationSummary, "No games completed") {
		t.Fatalf("summary should state no games completed: %q", r.SimulationSummary)
	}
}

func TestAnalyze_AllFailedIsNoData(t *testing.T) {
	batch := []domain.GameResult{
		{GameID: 1, Winner: domain.ErrorWinner, Failed: true},
		{GameID: 2, Winner: domain.ErrorWinner, Failed: true},
	}
	r := Analyze(batch, req(2, 10))
	if r.BalanceScore != 0 || r.IssuesDetected[0] != NoDataIssue {
		t.Fatalf("unexpected report: %+v", r)
	}
	if r.Stats.Failed != 2 || r.Stats.Completed != 0 {
		t.Fatalf("unexpected stats: %+v", r.Stats)
	}
}

func TestAnalyze_BalancedBatchScoresTen(t *testing.T) {
	batch := []domain.GameResult{
		game(1, "Player 1", 6, 30, 26),
		game(2, "Player 2", 7, 25, 31),
		game(3, "Player 1", 5, 32, 28),
		game(4, "Player 2", 6, 27, 30),
	}
	r := Analyze(batch, req(4, 10))
	if r.BalanceScore != 10 {
		t.Fatalf("expected 10, got %v (issues %v)", r.BalanceScore, r.IssuesDetected)
	}
	if len(r.IssuesDetected) != 0 || len(r.Recommendations) != 0 {
		t.Fatalf("expected no issues, got %v / %v", r.IssuesDetected, r.Recommendations)
	}
	if r.Stats.MeanTurns != 6 || r.Stats.MinTurns != 5 || r.Stats.MaxTurns != 7 {
		t.Fatalf("unexpected turn stats: %+v", r.Stats)
	}
}

func TestAnalyze_DominantPlayer(t *testing.T) {
	batch := []domain.GameResult{
		game(1, "Player 1", 6, 30, 26),
		game(2, "Player 1", 6, 30, 26),
		game(3, "Player 1", 6, 30, 26),
		game(4, "Player 2", 6, 26, 30),
	}
	r := Analyze(batch, req(4, 10))
	if !hasIssue(r, "dominant strategy") {
		t.Fatalf("expected dominant issue, got %v", r.IssuesDetected)
	}
	if r.BalanceScore != 10-Penalty(IssueDominant) {
		t.Fatalf("score = %v; want %v", r.BalanceScore, 10-Penalty(IssueDominant))
	}
	if !strings.Contains(r.Recommendations[0], "catch-up") {
		t.Fatalf("expected catch-up recommendation, got %v", r.Recommendations)
	}
}

func TestAnalyze_SkewNeedsThreeGames(t *testing.T) {
	batch := []domain.GameResult{
		game(1, "Player 1", 6, 30, 26),
		game(2, "Player 1", 6, 30, 26),
	}
	r := Analyze(batch, req(2, 10))
	if hasIssue(r, "dominant strategy") {
		t.Fatalf("two games must not trigger skew, got %v", r.IssuesDetected)
	}
}

func TestAnalyze_TooLongAndRarelyEnds(t *testing.T) {
	batch := []domain.GameResult{
		game(1, domain.NoWinner, 10, 20, 18),
		game(2, domain.NoWinner, 10, 19, 21),
		game(3, "Player 1", 9, 30, 25),
	}
	r := Analyze(batch, req(3, 10))
	if !hasIssue(r, "game runs too long") {
		t.Fatalf("expected too-long issue, got %v", r.IssuesDetected)
	}
	if !hasIssue(r, "victory condition rarely triggers") {
		t.Fatalf("expected rarely-triggers issue, got %v", r.IssuesDetected)
	}
	want := 10 - Penalty(IssueTooLong) - Penalty(IssueRarelyEnds)
	if r.BalanceScore != want {
		t.Fatalf("score = %v; want %v", r.BalanceScore, want)
	}
}

func TestAnalyze_TooEarlyAndRunaway(t *testing.T) {
	batch := []domain.GameResult{
		game(1, "Player 1", 3, 30, 2),
		game(2, "Player 2", 2, 1, 30),
		game(3, "Player 1", 3, 31, 0),
		game(4, "Player 2", 3, 3, 30),
	}
	r := Analyze(batch, req(4, 20))
	if !hasIssue(r, "game ends too early") {
		t.Fatalf("expected too-early issue, got %v", r.IssuesDetected)
	}
	if !hasIssue(r, "runaway leader") {
		t.Fatalf("expected runaway issue, got %v", r.IssuesDetected)
	}
	if len(r.Recommendations) != len(r.IssuesDetected) {
		t.Fatalf("one recommendation per issue expected: %v vs %v", r.Recommendations, r.IssuesDetected)
	}
}

func TestAnalyze_PartialFailureTolerated(t *testing.T) {
	batch := []domain.GameResult{
		game(1, "Player 1", 6, 30, 26),
		{GameID: 2, Winner: domain.ErrorWinner, Failed: true, Error: "timeout"},
		game(3, "Player 2", 6, 26, 30),
	}
	r := Analyze(batch, req(3, 10))
	if r.Stats.Completed != 2 || r.Stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", r.Stats)
	}
	if !hasIssue(r, "simulation failures") {
		t.Fatalf("expected failure issue, got %v", r.IssuesDetected)
	}
	if !strings.Contains(r.SimulationSummary, "(1 failed)") {
		t.Fatalf("summary should mention failure: %q", r.SimulationSummary)
	}
}

func TestAnalyze_ScoreAlwaysClamped(t *testing.T) {
	// Every issue that can co-occur: dominant, too long, runaway, rarely ends, failures.
	batch := []domain.GameResult{
		game(1, "Player 1", 20, 40, 0),
		game(2, domain.NoWinner, 20, 40, 1),
		game(3, domain.NoWinner, 20, 40, 0),
		game(4, domain.NoWinner, 20, 40, 2),
		{GameID: 5, Winner: domain.ErrorWinner, Failed: true},
	}
	r := Analyze(batch, req(5, 20))
	if r.BalanceScore < 0 || r.BalanceScore > 10 {
		t.Fatalf("score out of range: %v", r.BalanceScore)
	}
}

func TestAnalyze_DeterministicAndOrderInsensitive(t *testing.T) {
	batch := []domain.GameResult{
		game(1, "Player 1", 6, 30, 10),
		game(2, "Player 2", 8, 12, 30),
		game(3, domain.NoWinner, 10, 20, 22),
		game(4, "Player 1", 4, 30, 6),
	}
	a := Analyze(batch, req(4, 10))
	b := Analyze(batch, req(4, 10))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Analyze not deterministic:\n%+v\n%+v", a, b)
	}

	reversed := []domain.GameResult{batch[3], batch[2], batch[1], batch[0]}
	c := Analyze(reversed, req(4, 10))
	if !reflect.DeepEqual(a, c) {
		t.Fatalf("Analyze depends on result order:\n%+v\n%+v", a, c)
	}
}

func TestAnalyze_RunawayWithNonPositiveScores(t *testing.T) {
	batch := []domain.GameResult{
		game(1, domain.NoWinner, 10, 0, -25, -30),
		game(2, domain.NoWinner, 10, 0, -25, -30),
		game(3, domain.NoWinner, 10, 0, -25, -30),
		game(4, domain.NoWinner, 10, 0, -25, -30),
	}
	r := Analyze(batch, domain.SimulationRequest{RuleID: 1, SimulationCount: 4, PlayerCount: 3, MaxTurns: 20})
	if r.Stats.MeanSpread != 30 || r.Stats.RelSpread != 1 {
		t.Fatalf("spread stats: mean=%v rel=%v", r.Stats.MeanSpread, r.Stats.RelSpread)
	}
	if !hasIssue(r, "runaway leader") {
		t.Fatalf("expected runaway issue, got %v", r.IssuesDetected)
	}
}

func TestSpreadStats_PositiveScoresUseTopScore(t *testing.T) {
	mean, rel := spreadStats([]domain.GameResult{game(1, "Player 1", 5, 40, 10)})
	if mean != 30 || rel != 0.75 {
		t.Fatalf("spreadStats = %v, %v; want 30, 0.75", mean, rel)
	}
}
