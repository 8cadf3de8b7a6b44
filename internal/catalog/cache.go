package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/printhouse-ops/printhouse/internal/pricing"
)

const rulesVersionKey = "catalog:rules:version"

// RulesCache wraps a Repository with a Redis cache for the active-rules read
// path, using versioned keys so invalidation is a single counter bump.
type RulesCache struct {
	Repository
	client *redis.Client
	ttl    time.Duration
}

// NewRulesCache decorates repo with rule caching. A nil client disables
// caching and delegates straight to repo.
func NewRulesCache(repo Repository, client *redis.Client, ttl time.Duration) *RulesCache {
	return &RulesCache{Repository: repo, client: client, ttl: ttl}
}

func (c *RulesCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, rulesVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, rulesVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Invalidate bumps the cache version, orphaning every cached rule set.
func (c *RulesCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, rulesVersionKey).Err()
}

// ListActiveRules serves rules from cache when possible, falling through to
// the repository (and populating the cache) otherwise. Cache failures are not
// fatal; the repository remains the source of truth.
func (c *RulesCache) ListActiveRules(ctx context.Context, serviceID int64) ([]pricing.Rule, error) {
	if c.client == nil {
		return c.Repository.ListActiveRules(ctx, serviceID)
	}

	ver, err := c.version(ctx)
	if err != nil {
		return c.Repository.ListActiveRules(ctx, serviceID)
	}
	key := fmt.Sprintf("catalog:rules:%d:%d", serviceID, ver)

	if payload, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var rules []pricing.Rule
		if err := json.Unmarshal(payload, &rules); err == nil {
			return rules, nil
		}
	}

	rules, err := c.Repository.ListActiveRules(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(rules); err == nil {
		_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	return rules, nil
}
