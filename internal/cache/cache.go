// Package cache keeps the latest balance report per rule close to the
// HTTP layer so GET /feedback/balance does not hit the database on every
// poll. The database stays the source of truth; a cache miss or a cache
// error falls through to the loader.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// Reports caches SimulationRuns by rule ID.
type Reports interface {
	// Latest returns the cached run for ruleID, calling load on a miss
	// and caching its result. Concurrent misses for one rule share a load.
	Latest(ctx context.Context, ruleID int64, load func(context.Context) (*domain.SimulationRun, error)) (*domain.SimulationRun, error)
	// Put stores run as the latest for its rule unless a run with a
	// higher ID is already cached, so a slow loader cannot overwrite a
	// newer simulation with the one it read earlier.
	Put(ctx context.Context, run *domain.SimulationRun) error
}

func key(ruleID int64) string { return fmt.Sprintf("balance:rule:%d", ruleID) }

type entry struct {
	id      int64
	body    []byte
	expires time.Time
}

// Memory is an in-process Reports with per-entry TTL.
type Memory struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]entry
	group singleflight.Group
}

// NewMemory returns a Memory cache. ttl <= 0 means entries never expire.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, items: map[string]entry{}}
}

// Latest implements Reports.
func (m *Memory) Latest(ctx context.Context, ruleID int64, load func(context.Context) (*domain.SimulationRun, error)) (*domain.SimulationRun, error) {
	k := key(ruleID)
	if run, ok := m.get(k); ok {
		return run, nil
	}
	v, err, _ := m.group.Do(k, func() (any, error) {
		if run, ok := m.get(k); ok {
			return run, nil
		}
		run, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = m.Put(ctx, run)
		return run, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SimulationRun), nil
}

// Put implements Reports.
func (m *Memory) Put(_ context.Context, run *domain.SimulationRun) error {
	b, err := json.Marshal(run)
	if err != nil {
		return err
	}
	now := m.now()
	e := entry{id: run.ID, body: b}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	k := key(run.RuleID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.items[k]; ok && cur.id > run.ID && (cur.expires.IsZero() || now.Before(cur.expires)) {
		return nil
	}
	m.items[k] = e
	return nil
}

// get decodes a fresh copy so callers cannot mutate the cached value.
func (m *Memory) get(k string) (*domain.SimulationRun, bool) {
	m.mu.RLock()
	e, ok := m.items[k]
	m.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && !m.now().Before(e.expires)) {
		return nil, false
	}
	var run domain.SimulationRun
	if err := json.Unmarshal(e.body, &run); err != nil {
		return nil, false
	}
	return &run, true
}
