// Plan HTTP handlers.
//
// This file exposes the design-entity endpoints:
//   - POST /plans/generate-concept
//   - POST /plans/regenerate-concept
//   - POST /plans/generate-goal          (alias /plans/generate-objective)
//   - POST /plans/generate-components
//   - POST /plans/regenerate-components
//   - POST /plans/generate-rule
//   - POST /plans/regenerate-rule
//   - GET  /plans/{id}/concepts          (version history, ETag support)
//   - GET  /rules/{id}/lineage
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
	"github.com/tbourn/go-boardgame-planner/internal/services"
	"github.com/tbourn/go-boardgame-planner/internal/utils"
)

//
// DTOs
//

// GenerateConceptRequest is the payload for a first concept. A missing planId
// starts a new plan.
type GenerateConceptRequest struct {
	PlanID        *int64  `json:"planId,omitempty" example:"13"`
	Theme         string  `json:"theme" example:"심해 탐사"`
	PlayerCount   string  `json:"playerCount" example:"2~4명"`
	AverageWeight float64 `json:"averageWeight" example:"2.5"`
}

// RegenerateConceptRequest asks for a revised concept version.
type RegenerateConceptRequest struct {
	ConceptID int64  `json:"conceptId" example:"12"`
	PlanID    int64  `json:"planId" example:"13"`
	Feedback  string `json:"feedback" example:"좀 더 캐주얼하게"`
}

// ConceptRefRequest names the concept an objective or rule is generated for.
type ConceptRefRequest struct {
	ConceptID int64 `json:"conceptId" example:"12"`
}

// GenerateComponentsRequest names the plan whose latest concept is used.
type GenerateComponentsRequest struct {
	PlanID int64 `json:"planId" example:"13"`
}

// RegenerateComponentsRequest asks for a revised component batch.
type RegenerateComponentsRequest struct {
	ComponentID int64  `json:"componentId" example:"7"`
	Feedback    string `json:"feedback" example:"카드 수를 줄여 주세요"`
}

// RegenerateRuleRequest asks for a revised rule version.
type RegenerateRuleRequest struct {
	RuleID   int64  `json:"ruleId" example:"23"`
	Feedback string `json:"feedback" example:"후반 역전 요소를 추가해 주세요"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ConceptHistoryResponse is one page of a plan's concept versions, oldest
// first.
type ConceptHistoryResponse struct {
	PlanID     int64            `json:"planId"`
	Concepts   []domain.Concept `json:"concepts"`
	Pagination Pagination       `json:"pagination"`
}

// RuleLineageResponse lists rule versions from the root to the requested one.
type RuleLineageResponse struct {
	RuleID   int64         `json:"ruleId"`
	Versions []domain.Rule `json:"versions"`
}

//
// Handlers
//

// GenerateConcept godoc
// @ID          generateConcept
// @Summary     Generate a concept
// @Description Generates a concept from a theme, player count and weight. Without planId a new plan is created.
// @Tags        Plans
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.GenerateConceptRequest true "Concept input"
// @Success     201 {object} domain.Concept
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Plan not found"
// @Failure     502 {object} handlers.ErrorResponse "Generation failed"
// @Router      /plans/generate-concept [post]
func (h *Handlers) GenerateConcept(c *gin.Context) {
	var body GenerateConceptRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewConceptRequest(body.PlanID, body.Theme, body.PlayerCount, body.AverageWeight)
	if err != nil {
		failErr(c, err)
		return
	}
	concept, err := h.planner.GenerateConcept(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, concept)
}

// RegenerateConcept godoc
// @ID          regenerateConcept
// @Summary     Regenerate a concept
// @Description Appends a revised concept version to the same plan using the given feedback.
// @Tags        Plans
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.RegenerateConceptRequest true "Regeneration input"
// @Success     201 {object} domain.Concept
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Concept not found"
// @Failure     409 {object} handlers.ErrorResponse "Concept does not belong to plan"
// @Failure     502 {object} handlers.ErrorResponse "Generation failed"
// @Router      /plans/regenerate-concept [post]
func (h *Handlers) RegenerateConcept(c *gin.Context) {
	var body RegenerateConceptRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewRegenerateConceptRequest(body.ConceptID, body.PlanID, body.Feedback)
	if err != nil {
		failErr(c, err)
		return
	}
	concept, err := h.planner.RegenerateConcept(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, concept)
}

// GenerateObjective godoc
// @ID          generateObjective
// @Summary     Generate the objective of a concept
// @Description Returns the concept's objective, generating it on first request.
// @Tags        Plans
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.ConceptRefRequest true "Concept reference"
// @Success     200 {object} domain.Objective
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Concept not found"
// @Failure     502 {object} handlers.ErrorResponse "Generation failed"
// @Router      /plans/generate-goal [post]
func (h *Handlers) GenerateObjective(c *gin.Context) {
	var body ConceptRefRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewObjectiveRequest(body.ConceptID)
	if err != nil {
		failErr(c, err)
		return
	}
	obj, err := h.planner.GenerateObjective(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, obj)
}

// GenerateComponents godoc
// @ID          generateComponents
// @Summary     Generate components for a plan
// @Description Generates a component batch from the plan's latest concept and its objective.
// @Tags        Plans
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.GenerateComponentsRequest true "Plan reference"
// @Success     201 {object} domain.ComponentBatch
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Plan or concept not found"
// @Failure     502 {object} handlers.ErrorResponse "Generation failed"
// @Router      /plans/generate-components [post]
func (h *Handlers) GenerateComponents(c *gin.Context) {
	var body GenerateComponentsRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewComponentsRequest(body.PlanID)
	if err != nil {
		failErr(c, err)
		return
	}
	batch, err := h.planner.GenerateComponents(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, batch)
}

// RegenerateComponents godoc
// @ID          regenerateComponents
// @Summary     Regenerate a component batch
// @Description Appends a revised component batch to the same plan using the given feedback.
// @Tags        Plans
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.RegenerateComponentsRequest true "Regeneration input"
// @Success     201 {object} domain.ComponentBatch
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Component batch not found"
// @Failure     502 {object} handlers.ErrorResponse "Generation failed"
// @Router      /plans/regenerate-components [post]
func (h *Handlers) RegenerateComponents(c *gin.Context) {
	var body RegenerateComponentsRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewRegenerateComponentsRequest(body.ComponentID, body.Feedback)
	if err != nil {
		failErr(c, err)
		return
	}
	batch, err := h.planner.RegenerateComponents(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, batch)
}

// GenerateRule godoc
// @ID          generateRule
// @Summary     Generate a rule set
// @Description Generates a new rule version for a concept.
// @Tags        Plans
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.ConceptRefRequest true "Concept reference"
// @Success     201 {object} domain.Rule
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Concept not found"
// @Failure     502 {object} handlers.ErrorResponse "Generation failed"
// @Router      /plans/generate-rule [post]
func (h *Handlers) GenerateRule(c *gin.Context) {
	var body ConceptRefRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewRuleRequest(body.ConceptID)
	if err != nil {
		failErr(c, err)
		return
	}
	rule, err := h.planner.GenerateRule(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, rule)
}

// RegenerateRule godoc
// @ID          regenerateRule
// @Summary     Regenerate a rule set
// @Description Appends a revised rule version under the same concept using the given feedback.
// @Tags        Plans
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Replay-safe retry key"
// @Param       body body handlers.RegenerateRuleRequest true "Regeneration input"
// @Success     201 {object} domain.Rule
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Rule not found"
// @Failure     502 {object} handlers.ErrorResponse "Generation failed"
// @Router      /plans/regenerate-rule [post]
func (h *Handlers) RegenerateRule(c *gin.Context) {
	var body RegenerateRuleRequest
	if !bindJSON(c, &body) {
		return
	}
	req, err := services.NewRegenerateRuleRequest(body.RuleID, body.Feedback)
	if err != nil {
		failErr(c, err)
		return
	}
	rule, err := h.planner.RegenerateRule(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, rule)
}

// ListConcepts godoc
// @ID          listConcepts
// @Summary     List a plan's concept versions (paginated)
// @Description Returns concept versions oldest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Plans
// @Produce     json
// @Param       id             path   int    true  "Plan ID" example(13)
// @Param       If-None-Match  header string false "Return 304 if ETag matches"
// @Param       page           query  int    false "Page number"    minimum(1) default(1)
// @Param       page_size      query  int    false "Items per page" minimum(1) maximum(100) default(20)
// @Success     200 {object} handlers.ConceptHistoryResponse
// @Header      200 {string} ETag "Weak ETag for current history"
// @Success     304 {string} string "Not Modified"
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Plan not found"
// @Router      /plans/{id}/concepts [get]
func (h *Handlers) ListConcepts(c *gin.Context) {
	planID, valid := pathID(c, "id", "planId")
	if !valid {
		return
	}
	ctx := c.Request.Context()
	page, pageSize := utils.ClampPage(
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), utils.DefaultPageSize),
	)

	// ETag pre-check (best effort).
	if count, newest, err := h.planner.ConceptStats(ctx, planID); err == nil && count > 0 {
		var ts int64
		if newest != nil {
			ts = newest.UnixNano()
		}
		etag := fmt.Sprintf(`W/"concepts:%d:%d:%d"`, planID, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	res, err := h.planner.ConceptHistory(ctx, planID, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}

	totalPages := utils.TotalPages(res.Total, pageSize)
	ok(c, http.StatusOK, ConceptHistoryResponse{
		PlanID:   planID,
		Concepts: res.Items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      res.Total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// RuleLineage godoc
// @ID          ruleLineage
// @Summary     Rule version lineage
// @Description Returns the versions of a rule from its root to the requested rule.
// @Tags        Rules
// @Produce     json
// @Param       id path int true "Rule ID" example(23)
// @Success     200 {object} handlers.RuleLineageResponse
// @Failure     400 {object} handlers.ErrorResponse "Validation failed"
// @Failure     404 {object} handlers.ErrorResponse "Rule not found"
// @Router      /rules/{id}/lineage [get]
func (h *Handlers) RuleLineage(c *gin.Context) {
	ruleID, valid := pathID(c, "id", "ruleId")
	if !valid {
		return
	}
	rules, err := h.planner.RuleLineage(c.Request.Context(), ruleID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RuleLineageResponse{RuleID: ruleID, Versions: rules})
}
