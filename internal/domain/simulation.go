package domain

// Winner markers used in GameResult.Winner besides player labels.
const (
	NoWinner    = "없음"
	ErrorWinner = "오류"
)

// GameResult is the outcome of one simulated playthrough.
type GameResult struct {
	GameID            int                `json:"gameId"`
	Winner            string             `json:"winner"`
	TotalTurns        int                `json:"totalTurns"`
	DurationMinutes   int                `json:"durationMinutes"`
	Score             map[string]float64 `json:"score"`
	KeyStrategies     []string           `json:"keyStrategies"`
	CriticalMoments   []string           `json:"criticalMoments"`
	OverallPacing     string             `json:"overallPacing"`
	BalanceEvaluation string             `json:"balanceEvaluation"`
	TurnsLog          []string           `json:"turnsLog,omitempty"`

	// Failed marks a placeholder for a game that errored or timed out.
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BalanceStats carries the raw figures a BalanceReport was derived from.
type BalanceStats struct {
	Requested     int                `json:"requested"`
	Completed     int                `json:"completed"`
	Failed        int                `json:"failed"`
	WinShare      map[string]float64 `json:"winShare,omitempty"`
	NoWinnerShare float64            `json:"noWinnerShare"`
	MeanTurns     float64            `json:"meanTurns"`
	MinTurns      int                `json:"minTurns"`
	MaxTurns      int                `json:"maxTurns"`
	MeanSpread    float64            `json:"meanScoreSpread"`
	RelSpread     float64            `json:"relativeScoreSpread"`
}

// BalanceReport summarizes a batch of GameResults.
type BalanceReport struct {
	SimulationSummary string       `json:"simulationSummary"`
	IssuesDetected    []string     `json:"issuesDetected"`
	Recommendations   []string     `json:"recommendations"`
	BalanceScore      float64      `json:"balanceScore"`
	Stats             BalanceStats `json:"stats"`
}

// SimulationRequest is a validated request to simulate one rule.
type SimulationRequest struct {
	RuleID          int64 `json:"ruleId"`
	SimulationCount int   `json:"simulationCount"`
	PlayerCount     int   `json:"playerCount"`
	MaxTurns        int   `json:"maxTurns"`
}
