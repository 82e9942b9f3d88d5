package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// CreateRule inserts a rule version.
func CreateRule(ctx context.Context, db *gorm.DB, r *domain.Rule) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetRule fetches a rule by ID, or ErrNotFound.
func GetRule(ctx context.Context, db *gorm.DB, id int64) (*domain.Rule, error) {
	var r domain.Rule
	if err := db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// RuleLineage walks parent pointers from ruleID to the root and returns the
// chain root first. maxDepth guards against corrupt cycles.
func RuleLineage(ctx context.Context, db *gorm.DB, ruleID int64, maxDepth int) ([]domain.Rule, error) {
	var chain []domain.Rule
	next := &ruleID
	for depth := 0; next != nil && depth < maxDepth; depth++ {
		r, err := GetRule(ctx, db, *next)
		if err != nil {
			if depth > 0 && errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}
		chain = append(chain, *r)
		next = r.ParentID
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// CreateSimulationRun stores the aggregated outcome of a simulation request.
func CreateSimulationRun(ctx context.Context, db *gorm.DB, run *domain.SimulationRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(run).Error
}

// LatestSimulationRun returns the most recent run for ruleID, or ErrNotFound.
func LatestSimulationRun(ctx context.Context, db *gorm.DB, ruleID int64) (*domain.SimulationRun, error) {
	var run domain.SimulationRun
	err := db.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("created_at DESC, id DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}
