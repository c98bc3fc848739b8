// Package ragcache is the best-effort cache layer of spec.md §5's
// Shared-resource policy ("Cache: best-effort; failures are logged
// and bypassed — never fatal") and §6's doc:{hash} / qa:{hash} key
// scheme. Adapted from
// go-enhanced-rag-service/pkg/cache/cache.go's Cache interface,
// InMemoryCache, RedisCache, KeyHash, and GetOrCompute.
package ragcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache is the duck-typed contract spec.md §9 calls out explicitly
// ("a duck-typed cache/index interface with Redis/in-memory
// variants").
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// KeyHash returns the stable hex-sha256 key used to build doc:{hash}
// and qa:{hash} cache keys.
func KeyHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// DocKey builds the spec.md §3 "doc:{hash(url)}" cache key.
func DocKey(url string) string {
	return "doc:" + KeyHash(url)
}

// QAKey builds the spec.md §3 "qa:{hash(doc_id‖question)}" cache key.
func QAKey(docID, question string) string {
	return "qa:" + KeyHash(docID+question)
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryCache is a process-local TTL cache, used in tests and as
// the single-process deployment fallback.
type InMemoryCache struct {
	mu      sync.RWMutex
	items   map[string]memEntry
	stopCh  chan struct{}
	stopped bool
}

func NewInMemory() *InMemoryCache {
	c := &InMemoryCache{
		items:  make(map[string]memEntry, 1024),
		stopCh: make(chan struct{}),
	}
	go c.janitor(15 * time.Second)
	return c
}

func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.Delete(context.Background(), key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = memEntry{value: append([]byte(nil), value...), expiresAt: exp}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Close() error {
	if c.stopped {
		return nil
	}
	close(c.stopCh)
	c.stopped = true
	return nil
}

func (c *InMemoryCache) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, v := range c.items {
				if !v.expiresAt.IsZero() && now.After(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

// RedisCache is the production cache backing, go-redis v9.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedis(url string, log *zap.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	cli := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &RedisCache{client: cli, log: log}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// GetOrCompute returns the cached value under key, or computes it
// with fn and best-effort caches the result. Cache failures (Get or
// Set) never block computation — spec.md §5: "best-effort; failures
// are logged and bypassed".
func GetOrCompute(ctx context.Context, c Cache, log *zap.Logger, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error) {
	if c != nil {
		if v, ok, err := c.Get(ctx, key); err != nil {
			if log != nil {
				log.Warn("cache get failed, bypassing", zap.String("key", key), zap.Error(err))
			}
		} else if ok {
			return v, nil
		}
	}

	v, err := fn()
	if err != nil {
		return nil, err
	}

	if c != nil {
		if err := c.Set(ctx, key, v, ttl); err != nil && log != nil {
			log.Warn("cache set failed, bypassing", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}
