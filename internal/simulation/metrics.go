package simulation

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

var (
	// gamesTotal counts simulated games by outcome: "winner", "no_winner"
	// or "failed".
	gamesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simulation_games_total",
			Help: "Total number of simulated games by outcome.",
		},
		[]string{"outcome"},
	)

	// batchDuration records wall-clock time of a whole batch.
	batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simulation_batch_duration_seconds",
			Help:    "Duration of simulation batches in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(gamesTotal, batchDuration)
}

func outcomeLabel(r domain.GameResult) string {
	switch {
	case r.Failed:
		return "failed"
	case r.Winner == domain.NoWinner:
		return "no_winner"
	default:
		return "winner"
	}
}
