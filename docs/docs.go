// Package docs holds the OpenAPI description of the planner API in the
// layout produced by swag. Regenerate with:
//
//	swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/plans/generate-concept": {
            "post": {
                "operationId": "generateConcept",
                "summary": "Generate a concept",
                "tags": ["Plans"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.GenerateConceptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Concept"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "502": {"$ref": "#/responses/Generation"}
                }
            }
        },
        "/plans/regenerate-concept": {
            "post": {
                "operationId": "regenerateConcept",
                "summary": "Regenerate a concept",
                "tags": ["Plans"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegenerateConceptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Concept"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "409": {"$ref": "#/responses/Integrity"},
                    "502": {"$ref": "#/responses/Generation"}
                }
            }
        },
        "/plans/generate-goal": {
            "post": {
                "operationId": "generateObjective",
                "summary": "Generate the objective of a concept",
                "tags": ["Plans"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ConceptRefRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Objective"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "502": {"$ref": "#/responses/Generation"}
                }
            }
        },
        "/plans/generate-components": {
            "post": {
                "operationId": "generateComponents",
                "summary": "Generate components for a plan",
                "tags": ["Plans"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.GenerateComponentsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.ComponentBatch"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "502": {"$ref": "#/responses/Generation"}
                }
            }
        },
        "/plans/regenerate-components": {
            "post": {
                "operationId": "regenerateComponents",
                "summary": "Regenerate a component batch",
                "tags": ["Plans"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegenerateComponentsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.ComponentBatch"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "502": {"$ref": "#/responses/Generation"}
                }
            }
        },
        "/plans/generate-rule": {
            "post": {
                "operationId": "generateRule",
                "summary": "Generate a rule set",
                "tags": ["Plans"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ConceptRefRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Rule"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "502": {"$ref": "#/responses/Generation"}
                }
            }
        },
        "/plans/regenerate-rule": {
            "post": {
                "operationId": "regenerateRule",
                "summary": "Regenerate a rule set",
                "tags": ["Plans"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegenerateRuleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Rule"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "502": {"$ref": "#/responses/Generation"}
                }
            }
        },
        "/plans/{id}/concepts": {
            "get": {
                "operationId": "listConcepts",
                "summary": "List a plan's concept versions (paginated)",
                "tags": ["Plans"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "header", "name": "If-None-Match", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer", "minimum": 1, "default": 1},
                    {"in": "query", "name": "page_size", "type": "integer", "minimum": 1, "maximum": 100, "default": 20}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ConceptHistoryResponse"}, "headers": {"ETag": {"type": "string"}}},
                    "304": {"description": "Not Modified"},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            }
        },
        "/rules/{id}/lineage": {
            "get": {
                "operationId": "ruleLineage",
                "summary": "Rule version lineage",
                "tags": ["Rules"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RuleLineageResponse"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            }
        },
        "/simulate/rule-test": {
            "post": {
                "operationId": "simulateRule",
                "summary": "Simulate a rule set",
                "tags": ["Simulation"],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/IdempotencyKey"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RuleTestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.SimulationOutcome"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"},
                    "500": {"description": "All games failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/feedback/balance": {
            "get": {
                "operationId": "balanceFeedback",
                "summary": "Latest balance analysis of a rule",
                "tags": ["Simulation"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "ruleId", "type": "integer", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.BalanceFeedbackResponse"}},
                    "400": {"$ref": "#/responses/Validation"},
                    "404": {"$ref": "#/responses/NotFound"}
                }
            }
        }
    },
    "parameters": {
        "IdempotencyKey": {"in": "header", "name": "Idempotency-Key", "type": "string", "description": "Replay-safe retry key"}
    },
    "responses": {
        "Validation": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
        "NotFound": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
        "Integrity": {"description": "Integrity violation", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
        "Generation": {"description": "Generation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "code": {"type": "string", "example": "validation_failed"},
                "message": {"type": "string"}
            }
        },
        "handlers.GenerateConceptRequest": {
            "type": "object",
            "properties": {
                "planId": {"type": "integer"},
                "theme": {"type": "string", "example": "심해 탐사"},
                "playerCount": {"type": "string", "example": "2~4명"},
                "averageWeight": {"type": "number", "example": 2.5}
            }
        },
        "handlers.RegenerateConceptRequest": {
            "type": "object",
            "properties": {
                "conceptId": {"type": "integer", "example": 12},
                "planId": {"type": "integer", "example": 13},
                "feedback": {"type": "string"}
            }
        },
        "handlers.ConceptRefRequest": {
            "type": "object",
            "properties": {"conceptId": {"type": "integer", "example": 12}}
        },
        "handlers.GenerateComponentsRequest": {
            "type": "object",
            "properties": {"planId": {"type": "integer", "example": 13}}
        },
        "handlers.RegenerateComponentsRequest": {
            "type": "object",
            "properties": {
                "componentId": {"type": "integer"},
                "feedback": {"type": "string"}
            }
        },
        "handlers.RegenerateRuleRequest": {
            "type": "object",
            "properties": {
                "ruleId": {"type": "integer", "example": 23},
                "feedback": {"type": "string"}
            }
        },
        "handlers.RuleTestRequest": {
            "type": "object",
            "properties": {
                "ruleId": {"type": "integer", "example": 23},
                "simulationCount": {"type": "integer", "minimum": 1, "maximum": 10, "example": 5},
                "playerCount": {"type": "integer", "minimum": 2, "maximum": 4, "example": 3},
                "maxTurns": {"type": "integer", "minimum": 5, "maximum": 20, "example": 10}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ConceptHistoryResponse": {
            "type": "object",
            "properties": {
                "planId": {"type": "integer"},
                "concepts": {"type": "array", "items": {"$ref": "#/definitions/domain.Concept"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.RuleLineageResponse": {
            "type": "object",
            "properties": {
                "ruleId": {"type": "integer"},
                "versions": {"type": "array", "items": {"$ref": "#/definitions/domain.Rule"}}
            }
        },
        "handlers.BalanceFeedbackResponse": {
            "type": "object",
            "properties": {
                "simulationId": {"type": "integer"},
                "ruleId": {"type": "integer"},
                "simulationCount": {"type": "integer"},
                "playerCount": {"type": "integer"},
                "maxTurns": {"type": "integer"},
                "balanceAnalysis": {"$ref": "#/definitions/domain.BalanceReport"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "services.SimulationOutcome": {
            "type": "object",
            "properties": {
                "simulationId": {"type": "integer"},
                "simulationHistory": {"type": "array", "items": {"$ref": "#/definitions/domain.GameResult"}},
                "balanceAnalysis": {"$ref": "#/definitions/domain.BalanceReport"}
            }
        },
        "domain.Concept": {
            "type": "object",
            "properties": {
                "conceptId": {"type": "integer"},
                "planId": {"type": "integer"},
                "parentConceptId": {"type": "integer"},
                "version": {"type": "integer"},
                "theme": {"type": "string"},
                "playerCount": {"type": "string"},
                "averageWeight": {"type": "number"},
                "ideaText": {"type": "string"},
                "mechanics": {"type": "string"},
                "storyline": {"type": "string"},
                "feedback": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "domain.Objective": {
            "type": "object",
            "properties": {
                "objectiveId": {"type": "integer"},
                "conceptId": {"type": "integer"},
                "mainGoal": {"type": "string"},
                "subGoals": {"type": "array", "items": {"type": "string"}},
                "winConditionType": {"type": "string"},
                "designNote": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "domain.ComponentItem": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "name": {"type": "string"},
                "effect": {"type": "string"},
                "visualType": {"type": "string"}
            }
        },
        "domain.ComponentBatch": {
            "type": "object",
            "properties": {
                "componentId": {"type": "integer"},
                "planId": {"type": "integer"},
                "parentComponentId": {"type": "integer"},
                "version": {"type": "integer"},
                "components": {"type": "array", "items": {"$ref": "#/definitions/domain.ComponentItem"}},
                "feedback": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "domain.Rule": {
            "type": "object",
            "properties": {
                "ruleId": {"type": "integer"},
                "conceptId": {"type": "integer"},
                "planId": {"type": "integer"},
                "parentRuleId": {"type": "integer"},
                "version": {"type": "integer"},
                "turnStructure": {"type": "string"},
                "actionRules": {"type": "array", "items": {"type": "string"}},
                "victoryCondition": {"type": "string"},
                "penaltyRules": {"type": "array", "items": {"type": "string"}},
                "designNote": {"type": "string"},
                "feedback": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"}
            }
        },
        "domain.GameResult": {
            "type": "object",
            "properties": {
                "gameId": {"type": "integer"},
                "winner": {"type": "string"},
                "totalTurns": {"type": "integer"},
                "durationMinutes": {"type": "integer"},
                "score": {"type": "object", "additionalProperties": {"type": "number"}},
                "keyStrategies": {"type": "array", "items": {"type": "string"}},
                "criticalMoments": {"type": "array", "items": {"type": "string"}},
                "overallPacing": {"type": "string"},
                "balanceEvaluation": {"type": "string"},
                "turnsLog": {"type": "array", "items": {"type": "string"}},
                "failed": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "domain.BalanceReport": {
            "type": "object",
            "properties": {
                "simulationSummary": {"type": "string"},
                "issuesDetected": {"type": "array", "items": {"type": "string"}},
                "recommendations": {"type": "array", "items": {"type": "string"}},
                "balanceScore": {"type": "number", "minimum": 0, "maximum": 10},
                "stats": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Board-game Planner API",
	Description:      "Versioned board-game design pipeline with rule simulation and balance analysis.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
