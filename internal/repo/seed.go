package repo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

//go:embed seed/demo.yaml
var demoSeed []byte

type seedFile struct {
	Concepts []struct {
		ConceptID     int64     `yaml:"conceptId"`
		PlanID        int64     `yaml:"planId"`
		Theme         string    `yaml:"theme"`
		PlayerCount   string    `yaml:"playerCount"`
		AverageWeight float64   `yaml:"averageWeight"`
		IdeaText      string    `yaml:"ideaText"`
		Mechanics     string    `yaml:"mechanics"`
		Storyline     string    `yaml:"storyline"`
		CreatedAt     time.Time `yaml:"createdAt"`
	} `yaml:"concepts"`
	Objectives []struct {
		ConceptID        int64    `yaml:"conceptId"`
		MainGoal         string   `yaml:"mainGoal"`
		SubGoals         []string `yaml:"subGoals"`
		WinConditionType string   `yaml:"winConditionType"`
		DesignNote       string   `yaml:"designNote"`
	} `yaml:"objectives"`
	Rules []struct {
		RuleID           int64    `yaml:"ruleId"`
		ConceptID        int64    `yaml:"conceptId"`
		TurnStructure    string   `yaml:"turnStructure"`
		ActionRules      []string `yaml:"actionRules"`
		VictoryCondition string   `yaml:"victoryCondition"`
		PenaltyRules     []string `yaml:"penaltyRules"`
		DesignNote       string   `yaml:"designNote"`
	} `yaml:"rules"`
}

// SeedDemo loads the embedded demo designs. Rows whose IDs already exist are
// left untouched, so calling it on every start is safe.
func SeedDemo(ctx context.Context, db *gorm.DB) error {
	return Seed(ctx, db, demoSeed)
}

// Seed loads plans, concepts, objectives and rules from a YAML document with
// fixed IDs inside one transaction.
func Seed(ctx context.Context, db *gorm.DB, doc []byte) error {
	var f seedFile
	if err := yaml.Unmarshal(doc, &f); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		planOf := make(map[int64]int64, len(f.Concepts))
		for _, c := range f.Concepts {
			planOf[c.ConceptID] = c.PlanID
			if err := insertMissing(tx, &domain.Plan{ID: c.PlanID, CreatedAt: c.CreatedAt}, c.PlanID); err != nil {
				return err
			}
			row := &domain.Concept{
				ID:            c.ConceptID,
				PlanID:        c.PlanID,
				Version:       1,
				Theme:         c.Theme,
				PlayerCount:   c.PlayerCount,
				AverageWeight: c.AverageWeight,
				IdeaText:      c.IdeaText,
				Mechanics:     c.Mechanics,
				Storyline:     c.Storyline,
				CreatedAt:     c.CreatedAt,
			}
			if err := insertMissing(tx, row, c.ConceptID); err != nil {
				return err
			}
		}

		for _, o := range f.Objectives {
			if _, err := GetObjectiveByConcept(ctx, tx, o.ConceptID); err == nil {
				continue
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := &domain.Objective{
				ConceptID:        o.ConceptID,
				MainGoal:         o.MainGoal,
				SubGoals:         o.SubGoals,
				WinConditionType: o.WinConditionType,
				DesignNote:       o.DesignNote,
			}
			if err := CreateObjective(ctx, tx, row); err != nil {
				return err
			}
		}

		for _, r := range f.Rules {
			planID, ok := planOf[r.ConceptID]
			if !ok {
				c, err := GetConcept(ctx, tx, r.ConceptID)
				if err != nil {
					return fmt.Errorf("seed rule %d: concept %d: %w", r.RuleID, r.ConceptID, err)
				}
				planID = c.PlanID
			}
			row := &domain.Rule{
				ID:               r.RuleID,
				ConceptID:        r.ConceptID,
				PlanID:           planID,
				Version:          1,
				TurnStructure:    r.TurnStructure,
				ActionRules:      r.ActionRules,
				VictoryCondition: r.VictoryCondition,
				PenaltyRules:     r.PenaltyRules,
				DesignNote:       r.DesignNote,
			}
			if err := insertMissing(tx, row, r.RuleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return resyncSequences(ctx, db)
}

// insertMissing creates row unless a row with the same primary key exists.
func insertMissing(tx *gorm.DB, row any, id int64) error {
	var n int64
	if err := tx.Model(row).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return tx.Create(row).Error
}

// resyncSequences moves postgres identity sequences past explicitly inserted
// IDs. SQLite AUTOINCREMENT already tracks the max rowid.
func resyncSequences(ctx context.Context, db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"plans", "concepts", "objectives", "rules"} {
		q := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 1))",
			table,
		)
		if err := db.WithContext(ctx).Exec(q).Error; err != nil {
			return err
		}
	}
	return nil
}
