// Package domain defines the persistence models for board-game design plans:
// plans, concept versions, objectives, component batches, rules and
// simulation runs. These types are mapped with GORM and shared by the
// repository, service and transport layers.
//
// Every regenerable entity forms an append-only version chain: a new row
// points at its source through a Parent*ID column and carries the next
// Version number under the same owner. Rows are never updated in place.
package domain

import "time"

// Plan is the stable root identifier of one game design. It has no content of
// its own; concepts, component batches and rules hang off it.
type Plan struct {
	ID        int64     `json:"planId"    gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the database table name for Plan.
func (Plan) TableName() string { return "plans" }

// Concept is one version of a plan's concept text.
//
// Fields:
//   - ID: conceptId, fresh for every version.
//   - PlanID: owning plan; identical across the whole chain.
//   - ParentID: the concept this version was regenerated from (nil for roots).
//   - Version: 1-based position in the plan's concept history.
//   - PlayerCount: range string such as "2~4" or "2~4명".
//   - AverageWeight: complexity in [1.0, 5.0].
//   - Feedback: the designer feedback that produced this version, if any.
type Concept struct {
	ID            int64     `json:"conceptId"                 gorm:"primaryKey;autoIncrement"`
	PlanID        int64     `json:"planId"                    gorm:"not null;index:idx_plan_concepts,priority:1"`
	ParentID      *int64    `json:"parentConceptId,omitempty" gorm:"index"`
	Version       int       `json:"version"                   gorm:"not null;default:1;index:idx_plan_concepts,priority:2"`
	Theme         string    `json:"theme"                     gorm:"type:varchar(255);not null"`
	PlayerCount   string    `json:"playerCount"               gorm:"type:varchar(32);not null"`
	AverageWeight float64   `json:"averageWeight"             gorm:"not null;check:average_weight >= 1 AND average_weight <= 5"`
	IdeaText      string    `json:"ideaText"                  gorm:"type:text"`
	Mechanics     string    `json:"mechanics"                 gorm:"type:text"`
	Storyline     string    `json:"storyline"                 gorm:"type:text"`
	Feedback      string    `json:"feedback,omitempty"        gorm:"type:text"`
	CreatedAt     time.Time `json:"createdAt"`

	Plan Plan `json:"-" gorm:"foreignKey:PlanID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Concept.
func (Concept) TableName() string { return "concepts" }

// Objective is the game goal derived from a single concept. It has no
// regeneration path; the unique index on ConceptID keeps it one-per-concept.
type Objective struct {
	ID               int64     `json:"objectiveId"      gorm:"primaryKey;autoIncrement"`
	ConceptID        int64     `json:"conceptId"        gorm:"not null;uniqueIndex:ux_objective_concept"`
	MainGoal         string    `json:"mainGoal"         gorm:"type:text;not null"`
	SubGoals         []string  `json:"subGoals"         gorm:"type:text;serializer:json"`
	WinConditionType string    `json:"winConditionType" gorm:"type:varchar(64)"`
	DesignNote       string    `json:"designNote"       gorm:"type:text"`
	CreatedAt        time.Time `json:"createdAt"`

	Concept Concept `json:"-" gorm:"foreignKey:ConceptID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Objective.
func (Objective) TableName() string { return "objectives" }

// ComponentItem is one physical component in a batch (card, token, board...).
type ComponentItem struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Effect     string `json:"effect"`
	VisualType string `json:"visualType"`
}

// ComponentBatch is one generated set of components for a plan. Regeneration
// stores a complete new batch; items are never edited individually.
type ComponentBatch struct {
	ID         int64           `json:"componentId"                 gorm:"primaryKey;autoIncrement"`
	PlanID     int64           `json:"planId"                      gorm:"not null;index:idx_plan_components,priority:1"`
	ParentID   *int64          `json:"parentComponentId,omitempty" gorm:"index"`
	Version    int             `json:"version"                     gorm:"not null;default:1;index:idx_plan_components,priority:2"`
	Components []ComponentItem `json:"components"                  gorm:"type:text;serializer:json"`
	Feedback   string          `json:"feedback,omitempty"          gorm:"type:text"`
	CreatedAt  time.Time       `json:"createdAt"`

	Plan Plan `json:"-" gorm:"foreignKey:PlanID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for ComponentBatch.
func (ComponentBatch) TableName() string { return "component_batches" }

// Rule is one version of a concept's rulebook. PlanID is denormalized from
// the owning concept so lineage queries do not need a join.
type Rule struct {
	ID               int64     `json:"ruleId"                 gorm:"primaryKey;autoIncrement"`
	ConceptID        int64     `json:"conceptId"              gorm:"not null;index:idx_concept_rules,priority:1"`
	PlanID           int64     `json:"planId"                 gorm:"not null;index"`
	ParentID         *int64    `json:"parentRuleId,omitempty" gorm:"index"`
	Version          int       `json:"version"                gorm:"not null;default:1;index:idx_concept_rules,priority:2"`
	TurnStructure    string    `json:"turnStructure"          gorm:"type:text"`
	ActionRules      []string  `json:"actionRules"            gorm:"type:text;serializer:json"`
	VictoryCondition string    `json:"victoryCondition"       gorm:"type:text"`
	PenaltyRules     []string  `json:"penaltyRules"           gorm:"type:text;serializer:json"`
	DesignNote       string    `json:"designNote"             gorm:"type:text"`
	Feedback         string    `json:"feedback,omitempty"     gorm:"type:text"`
	CreatedAt        time.Time `json:"createdAt"`

	Concept Concept `json:"-" gorm:"foreignKey:ConceptID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName returns the database table name for Rule.
func (Rule) TableName() string { return "rules" }

// SimulationRun is the persisted outcome of one simulation request. Only the
// aggregated report is stored; individual game results are returned to the
// caller and then dropped.
type SimulationRun struct {
	ID              int64         `json:"simulationId"    gorm:"primaryKey;autoIncrement"`
	RuleID          int64         `json:"ruleId"          gorm:"not null;index:idx_rule_runs,priority:1"`
	SimulationCount int           `json:"simulationCount" gorm:"not null"`
	PlayerCount     int           `json:"playerCount"     gorm:"not null"`
	MaxTurns        int           `json:"maxTurns"        gorm:"not null"`
	Completed       int           `json:"completed"`
	Failed          int           `json:"failed"`
	Report          BalanceReport `json:"balanceAnalysis" gorm:"type:text;serializer:json"`
	CreatedAt       time.Time     `json:"createdAt"       gorm:"index:idx_rule_runs,priority:2"`

	Rule Rule `json:"-" gorm:"foreignKey:RuleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for SimulationRun.
func (SimulationRun) TableName() string { return "simulation_runs" }
