// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for plans and their
// concept versions.
//
// All functions are context-aware and accept a *gorm.DB handle, so they work
// the same on a plain handle and inside a transaction. They follow the "thin
// repository" approach: no business rules, only persistence and queries.
//
// Error semantics:
//   - Missing rows surface as gorm.ErrRecordNotFound (exported as ErrNotFound).
//   - Any other DB error is propagated unchanged.
//
// Version chains: every regenerable table carries an owner column and a
// version column. NextVersion computes max(version)+1 for an owner; callers
// run it in the same transaction as the insert.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePlan mints a new plan root.
func CreatePlan(ctx context.Context, db *gorm.DB) (*domain.Plan, error) {
	p := &domain.Plan{CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPlan fetches a plan by ID, or ErrNotFound.
func GetPlan(ctx context.Context, db *gorm.DB, id int64) (*domain.Plan, error) {
	var p domain.Plan
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// NextVersion returns max(version)+1 among rows of model whose ownerCol
// equals ownerID (1 when none exist).
func NextVersion(ctx context.Context, db *gorm.DB, model any, ownerCol string, ownerID int64) (int, error) {
	var cur int
	err := db.WithContext(ctx).
		Model(model).
		Where(ownerCol+" = ?", ownerID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&cur).Error
	if err != nil {
		return 0, err
	}
	return cur + 1, nil
}

// CreateConcept inserts c as-is. Callers set PlanID, ParentID and Version.
func CreateConcept(ctx context.Context, db *gorm.DB, c *domain.Concept) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(c).Error
}

// GetConcept fetches a concept by ID, or ErrNotFound.
func GetConcept(ctx context.Context, db *gorm.DB, id int64) (*domain.Concept, error) {
	var c domain.Concept
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// LatestConcept returns the highest-version concept of a plan, or ErrNotFound.
func LatestConcept(ctx context.Context, db *gorm.DB, planID int64) (*domain.Concept, error) {
	var c domain.Concept
	err := db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("version DESC, id DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountConcepts returns the number of concept versions under a plan.
func CountConcepts(ctx context.Context, db *gorm.DB, planID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Concept{}).Where("plan_id = ?", planID).Count(&n).Error
	return n, err
}

// ListConceptsPage returns concept versions of a plan oldest first.
func ListConceptsPage(ctx context.Context, db *gorm.DB, planID int64, offset, limit int) ([]domain.Concept, error) {
	var out []domain.Concept
	err := db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("version ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
