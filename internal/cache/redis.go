package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

var cacheTracer = otel.Tracer("cache.reports")

// putNewer sets KEYS[1] to ARGV[1] unless the cached run has a higher
// simulationId than ARGV[2]. ARGV[3] is the TTL in milliseconds, 0 for none.
var putNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, run = pcall(cjson.decode, cur)
  if ok and type(run) == 'table' and tonumber(run.simulationId) and tonumber(run.simulationId) > tonumber(ARGV[2]) then
    return 0
  end
end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// Redis is a Reports backed by a Redis server. Redis errors are logged and
// treated as misses; they never fail a request.
type Redis struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	group singleflight.Group
}

// NewRedis connects to addr and pings it once.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping %s: %w", addr, err)
	}
	return NewRedisWithClient(rdb, ttl), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Close closes the client.
func (r *Redis) Close() error { return r.rdb.Close() }

// Latest implements Reports.
func (r *Redis) Latest(ctx context.Context, ruleID int64, load func(context.Context) (*domain.SimulationRun, error)) (*domain.SimulationRun, error) {
	k := key(ruleID)
	ctx, span := cacheTracer.Start(ctx, "cache.Latest",
		trace.WithAttributes(attribute.String("cache.key", k)))
	defer span.End()

	if run, ok := r.get(ctx, k); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return run, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, shared := r.group.Do(k, func() (any, error) {
		run, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := r.Put(ctx, run); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("report cache write failed")
		}
		return run, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.(*domain.SimulationRun), nil
}

// Put implements Reports.
func (r *Redis) Put(ctx context.Context, run *domain.SimulationRun) error {
	b, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("cache: marshal run: %w", err)
	}
	return putNewer.Run(ctx, r.rdb, []string{key(run.RuleID)}, b, run.ID, r.ttl.Milliseconds()).Err()
}

func (r *Redis) get(ctx context.Context, k string) (*domain.SimulationRun, bool) {
	b, err := r.rdb.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", k).Msg("report cache read failed")
		}
		return nil, false
	}
	var run domain.SimulationRun
	if err := json.Unmarshal(b, &run); err != nil {
		return nil, false
	}
	return &run, true
}
