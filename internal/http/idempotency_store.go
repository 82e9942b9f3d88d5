package httpapi

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-boardgame-planner/internal/http/middleware"
	"github.com/tbourn/go-boardgame-planner/internal/repo"
)

// idempotencyStore persists replayable POST responses in the idempotency
// table. A nil db disables replay.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func (s *idempotencyStore) Lookup(ctx context.Context, userID, route, key string, now time.Time) (*middleware.StoredResponse, error) {
	if s.db == nil {
		return nil, nil
	}
	rec, err := repo.GetIdempotency(ctx, s.db, userID, route, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &middleware.StoredResponse{Status: rec.Status, Body: rec.Body}, nil
}

// Save ignores duplicates: two concurrent first attempts both ran and the
// earlier stored response wins.
func (s *idempotencyStore) Save(ctx context.Context, userID, route, key string, status int, body []byte) error {
	if s.db == nil {
		return nil
	}
	_, err := repo.CreateIdempotency(ctx, s.db, userID, route, key, status, body, s.ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}
