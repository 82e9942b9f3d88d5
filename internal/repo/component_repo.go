package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// CreateObjective inserts an objective. The unique index on concept_id makes
// a second insert for the same concept fail.
func CreateObjective(ctx context.Context, db *gorm.DB, o *domain.Objective) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(o).Error
}

// GetObjectiveByConcept returns the objective owned by conceptID, or ErrNotFound.
func GetObjectiveByConcept(ctx context.Context, db *gorm.DB, conceptID int64) (*domain.Objective, error) {
	var o domain.Objective
	if err := db.WithContext(ctx).First(&o, "concept_id = ?", conceptID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateComponentBatch inserts a component batch.
func CreateComponentBatch(ctx context.Context, db *gorm.DB, b *domain.ComponentBatch) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(b).Error
}

// GetComponentBatch fetches a component batch by ID, or ErrNotFound.
func GetComponentBatch(ctx context.Context, db *gorm.DB, id int64) (*domain.ComponentBatch, error) {
	var b domain.ComponentBatch
	if err := db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
