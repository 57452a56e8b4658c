// Package cache provides a Redis client wrapper and the cached progress views
// built on it.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "voca"

// Cache wraps a Redis client. Every key written through it lives under
// Namespace so several deployments can share one Redis database.
type Cache struct {
	Client    *redis.Client
	Namespace string
}

// Option configures New.
type Option func(*Cache)

// WithNamespace sets the key namespace (default "voca"). Empty values are
// ignored.
func WithNamespace(ns string) Option {
	return func(c *Cache) {
		if ns = strings.Trim(ns, ":"); ns != "" {
			c.Namespace = ns
		}
	}
}

// Key joins parts under the cache namespace with ':'.
func (c *Cache) Key(parts ...string) string {
	ns := c.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	return strings.Join(append([]string{ns}, parts...), ":")
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client and pings it.
func New(ctx context.Context, url string, opts ...Option) (*Cache, error) {
	ropts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	ropts.DialTimeout = 5 * time.Second
	ropts.ReadTimeout = 3 * time.Second
	ropts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(ropts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	c := &Cache{Client: client, Namespace: defaultNamespace}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
