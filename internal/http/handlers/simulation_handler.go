// Simulation HTTP handlers.
//
//   - POST /simulate/rule-test      (run a batch and analyze it)
//   - GET  /feedback/balance?ruleId (latest stored report of a rule)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
	"github.com/tbourn/go-boardgame-planner/internal/services"
)

// RuleTestRequest is the simulation payload. Bounds: simulationCount 1..10,
// playerCount 2..4, maxTurns 5..20.
type RuleTestRequest struct {
	RuleID          int64 `json:"ruleId" example:"23"`
	SimulationCount int   `json:"simulationCount" example:"5"`
	PlayerCount     int   `json:"playerCount" example:"3"`
	MaxTurns        int   `json:"maxTurns" example:"10"`
}

// BalanceFeedbackResponse is the latest stored analysis of a rule.
type BalanceFeedbackResponse struct {
	SimulationID    int64                `json:"simulationId"`
	RuleID          int64                `json:"ruleId"`
	SimulationCount int                  `json:"simulationCount"`
	PlayerCount     int                  `json:"playerCount"`
	MaxTurns        int                  `json:"maxTurns"`
	BalanceAnalysis domain.BalanceReport `json:"balanceAnalysis"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// SimulateRule godoc
// @ID          simulateRule
// @Summary     Simulate a rule set
// @Description Plays simulationCount games of the rule and returns every game plus a balance analysis.
// @Tags        Simulation
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.RuleTestRequest true "Simulation bounds"
// @Success     200 {object} services.SimulationOutcome
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Rule not found"
// @Failure     500 {object} handlers.ErrorResponse "All games failed"
// @Router      /simulate/rule-test [post]
func (h *Handlers) SimulateRule(c *gin.Context) {
	var body RuleTestRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewSimulationRequest(body.RuleID, body.SimulationCount, body.PlayerCount, body.MaxTurns)
	if err != nil {
		failErr(c, err)
		return
	}
	out, err := h.planner.Simulate(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// BalanceFeedback godoc
// @ID          balanceFeedback
// @Summary     Latest balance analysis of a rule
// @Tags        Simulation
// @Produce     json
// @Param       ruleId query int true "Rule ID" example(23)
// @Success     200 {object} handlers.BalanceFeedbackResponse
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "No simulation for rule"
// @Router      /feedback/balance [get]
func (h *Handlers) BalanceFeedback(c *gin.Context) {
	ruleID, valid := queryID(c, "ruleId")
	if !valid {
		return
	}
	run, err := h.planner.LatestBalance(c.Request.Context(), ruleID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, BalanceFeedbackResponse{
		SimulationID:    run.ID,
		RuleID:          run.RuleID,
		SimulationCount: run.SimulationCount,
		PlayerCount:     run.PlayerCount,
		MaxTurns:        run.MaxTurns,
		BalanceAnalysis: run.Report,
		CreatedAt:       run.CreatedAt,
	})
}
