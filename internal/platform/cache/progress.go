package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

// ProgressCache stores derived progress views as JSON. Every key embeds a
// generation counter; Invalidate bumps it, so all previously cached views
// become unreachable at once and expire on their own.
type ProgressCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewProgressCache creates a progress cache on c, keyed under
// "{namespace}:progress". A non-positive ttl selects the default of five
// minutes.
func NewProgressCache(c *Cache, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ProgressCache{client: c.Client, prefix: c.Key("progress"), ttl: ttl}
}

// Get loads the view stored under name into dst. ok is false on a miss. The
// returned generation must be passed to Set when the caller fills the miss, so
// a view computed before an invalidation is never stored as current.
func (p *ProgressCache) Get(ctx context.Context, name string, dst any) (gen int64, ok bool, err error) {
	gen, err = p.Generation(ctx)
	if err != nil {
		return 0, false, err
	}
	key := p.key(gen, name)
	data, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return gen, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return gen, true, nil
}

// Set stores v under name in generation gen for the configured TTL.
func (p *ProgressCache) Set(ctx context.Context, gen int64, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode progress view: %w", err)
	}
	key := p.key(gen, name)
	if err := p.client.Set(ctx, key, data, p.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Generation returns the current invalidation counter.
func (p *ProgressCache) Generation(ctx context.Context) (int64, error) {
	gen, err := p.client.Get(ctx, p.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read progress generation: %w", err)
	}
	return gen, nil
}

// Invalidate drops every cached view.
func (p *ProgressCache) Invalidate(ctx context.Context) error {
	gen, err := p.client.Incr(ctx, p.generationKey()).Result()
	if err != nil {
		return fmt.Errorf("bump progress generation: %w", err)
	}
	slog.Debug("progress cache invalidated", "generation", gen)
	return nil
}

func (p *ProgressCache) key(gen int64, name string) string {
	return fmt.Sprintf("%s:g%d:%s", p.prefix, gen, name)
}

func (p *ProgressCache) generationKey() string {
	return p.prefix + ":generation"
}
