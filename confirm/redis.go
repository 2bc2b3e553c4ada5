package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/canvasflow/canvasflow/engine"
)

const (
	keyPrefix = "canvasflow:confirm"

	// decisionTTL keeps unconsumed decisions from leaking keys when the
	// awaiting run was cancelled before it could pop them.
	decisionTTL = 24 * time.Hour

	// pollInterval bounds each blocking pop so Await can notice context
	// cancellation between polls.
	pollInterval = 2 * time.Second
)

// RedisResolver resolves confirmation decisions through a Redis list keyed
// by (runID, confirmID), so the process resolving a decision need not be the
// one awaiting it.
type RedisResolver struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisResolver creates a Redis-backed decision resolver.
func NewRedisResolver(client *redis.Client, logger *zap.Logger) *RedisResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisResolver{
		client: client,
		logger: logger.With(zap.String("component", "redis_resolver")),
	}
}

func redisKey(runID, confirmID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, runID, confirmID)
}

// Await blocks until a decision is pushed for (runID, confirmID) or ctx is
// done.
func (r *RedisResolver) Await(ctx context.Context, runID, confirmID string) (engine.Decision, error) {
	key := redisKey(runID, confirmID)
	for {
		if err := ctx.Err(); err != nil {
			return engine.DecisionDeny, err
		}
		values, err := r.client.BRPop(ctx, pollInterval, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return engine.DecisionDeny, fmt.Errorf("await decision %s: %w", key, err)
		}
		// BRPOP returns [key, value].
		if len(values) != 2 {
			return engine.DecisionDeny, fmt.Errorf("await decision %s: unexpected reply %v", key, values)
		}
		if values[1] == string(engine.DecisionAllow) {
			return engine.DecisionAllow, nil
		}
		return engine.DecisionDeny, nil
	}
}

// Resolve pushes the decision for (runID, confirmID).
func (r *RedisResolver) Resolve(ctx context.Context, runID, confirmID string, decision engine.Decision) error {
	key := redisKey(runID, confirmID)
	if err := r.client.LPush(ctx, key, string(decision)).Err(); err != nil {
		return fmt.Errorf("resolve decision %s: %w", key, err)
	}
	if err := r.client.Expire(ctx, key, decisionTTL).Err(); err != nil {
		r.logger.Warn("failed to set decision TTL",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return nil
}
