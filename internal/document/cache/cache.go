// Package cache provides an optional snapshot cache for the full document
// scan. Search, CATS grouping, and stats all iterate every document record;
// caching the decoded scan for a short TTL keeps repeated queries from
// hammering the ledger. The cache is strictly an optimization: a miss or a
// cache failure falls back to the ledger, and writes invalidate eagerly.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"truthchain/internal/document/models"
)

// Snapshot caches the decoded document scan.
type Snapshot interface {
	Get(ctx context.Context) ([]*models.DocumentRecord, bool)
	Set(ctx context.Context, docs []*models.DocumentRecord)
	Invalidate(ctx context.Context)
}

// Noop satisfies Snapshot without caching anything. Selected when Redis is
// not configured.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Get(context.Context) ([]*models.DocumentRecord, bool) { return nil, false }
func (Noop) Set(context.Context, []*models.DocumentRecord)        {}
func (Noop) Invalidate(context.Context)                           {}

const snapshotKey = "truthchain:documents:snapshot"

// Redis caches the scan in Redis with a TTL. Failures degrade to a miss; the
// cache never turns a ledger outage into stale success, because writes
// invalidate before they return.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context) ([]*models.DocumentRecord, bool) {
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		return nil, false
	}
	var docs []*models.DocumentRecord
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, false
	}
	return docs, true
}

func (c *Redis) Set(ctx context.Context, docs []*models.DocumentRecord) {
	raw, err := json.Marshal(docs)
	if err != nil {
		return
	}
	c.client.Set(ctx, snapshotKey, raw, c.ttl)
}

func (c *Redis) Invalidate(ctx context.Context) {
	c.client.Del(ctx, snapshotKey)
}
