package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

type ruleFile struct {
	RuleID           int64    `yaml:"ruleId"`
	TurnStructure    string   `yaml:"turnStructure"`
	ActionRules      []string `yaml:"actionRules"`
	VictoryCondition string   `yaml:"victoryCondition"`
	PenaltyRules     []string `yaml:"penaltyRules"`
}

// loadRule reads a rule in the same shape the seed file uses. A missing
// ruleId defaults to 1 since it only seeds the game RNG here.
func loadRule(path string) (*domain.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ruleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	if f.TurnStructure == "" && len(f.ActionRules) == 0 {
		return nil, fmt.Errorf("rule file %s: turnStructure or actionRules required", path)
	}
	if f.RuleID <= 0 {
		f.RuleID = 1
	}
	return &domain.Rule{
		ID:               f.RuleID,
		Version:          1,
		TurnStructure:    f.TurnStructure,
		ActionRules:      f.ActionRules,
		VictoryCondition: f.VictoryCondition,
		PenaltyRules:     f.PenaltyRules,
	}, nil
}
