package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache fronts the settings table with a short-lived redis entry so quote
// rendering does not hit postgres on every request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(orgID int64) string {
	return fmt.Sprintf("fieldquote:settings:%d", orgID)
}

func (c *Cache) Get(ctx context.Context, orgID int64) (QuoteSettings, bool) {
	if c == nil || c.client == nil {
		return QuoteSettings{}, false
	}
	data, err := c.client.Get(ctx, cacheKey(orgID)).Bytes()
	if err != nil {
		return QuoteSettings{}, false
	}
	var s QuoteSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return QuoteSettings{}, false
	}
	return s, true
}

func (c *Cache) Set(ctx context.Context, s QuoteSettings) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(s.OrgID), data, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, orgID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKey(orgID)).Err()
}
