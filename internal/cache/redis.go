package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/myta-ai/myta/internal/agent/core"
)

const redisKeyPrefix = "myta:response:"

// Redis is the shared response cache for multi-instance deployments.
// Redis expires entries natively, so ClearExpired is a no-op here.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}
}

func (r *Redis) Get(ctx context.Context, message string, userCtx map[string]interface{}, intent core.QueryType) (core.ChatTurnResult, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+Key(message, userCtx, intent)).Result()
	if err == redis.Nil {
		return core.ChatTurnResult{}, false
	}
	if err != nil {
		r.logger.Printf("redis get failed: %v", err)
		return core.ChatTurnResult{}, false
	}
	var result core.ChatTurnResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		r.logger.Printf("corrupt cache entry dropped: %v", err)
		return core.ChatTurnResult{}, false
	}
	return result, true
}

func (r *Redis) Set(ctx context.Context, message string, userCtx map[string]interface{}, result core.ChatTurnResult, intent core.QueryType) {
	raw, err := json.Marshal(result)
	if err != nil {
		r.logger.Printf("marshaling cache entry failed: %v", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+Key(message, userCtx, intent), raw, r.ttl).Err(); err != nil {
		r.logger.Printf("redis set failed: %v", err)
	}
}

func (r *Redis) ClearExpired(ctx context.Context) int { return 0 }
