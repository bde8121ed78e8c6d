package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/observability"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// IndexPagePrefix namespaces cached renderings of the global post listing.
const IndexPagePrefix = "index_page:"

const (
	flushScanCount        = 100
	memoryCleanupInterval = time.Minute
)

// PageCache stores rendered pages under short keys with a TTL.
type PageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Flush removes every entry this cache owns and reports how many.
	Flush(ctx context.Context) (int, error)
}

// RedisPageCache keeps pages in Redis under a fixed key prefix, so a flush
// never touches keys written by anything else.
type RedisPageCache struct {
	client *redis.Client
	prefix string
}

// NewRedisPageCache returns a PageCache backed by client.
func NewRedisPageCache(client *redis.Client, prefix string) *RedisPageCache {
	return &RedisPageCache{client: client, prefix: prefix}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := observability.StartRedisSpan(ctx, "GET")
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.EndSpan(span, nil)
		return nil, false, nil
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := observability.StartRedisSpan(ctx, "SET")
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	observability.EndSpan(span, err)
	return err
}

// Flush walks the prefix with SCAN and deletes in batches. Calling it on an
// empty cache is fine and returns zero.
func (c *RedisPageCache) Flush(ctx context.Context) (int, error) {
	ctx, span := observability.StartRedisSpan(ctx, "FLUSH")
	var (
		cursor  uint64
		removed int
		err     error
	)
	for {
		var keys []string
		keys, cursor, err = c.client.Scan(ctx, cursor, c.prefix+"*", flushScanCount).Result()
		if err != nil {
			break
		}
		if len(keys) > 0 {
			var n int64
			n, err = c.client.Del(ctx, keys...).Result()
			if err != nil {
				break
			}
			removed += int(n)
		}
		if cursor == 0 {
			break
		}
	}
	observability.EndSpan(span, err)
	if err != nil {
		return removed, err
	}
	observability.PageCacheFlushedKeys.Add(float64(removed))
	return removed, nil
}

// MemoryPageCache keeps pages in process memory. It serves single-instance
// deployments that run without Redis.
type MemoryPageCache struct {
	store  *gocache.Cache
	prefix string
}

// NewMemoryPageCache returns an empty in-process PageCache.
func NewMemoryPageCache(prefix string) *MemoryPageCache {
	return &MemoryPageCache{
		store:  gocache.New(gocache.NoExpiration, memoryCleanupInterval),
		prefix: prefix,
	}
}

func (c *MemoryPageCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(c.prefix + key)
	if !ok {
		return nil, false, nil
	}
	body, ok := v.([]byte)
	return body, ok, nil
}

func (c *MemoryPageCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(c.prefix+key, value, ttl)
	return nil
}

// Flush deletes the live entries under the prefix and reports how many.
func (c *MemoryPageCache) Flush(context.Context) (int, error) {
	removed := 0
	for key := range c.store.Items() {
		if strings.HasPrefix(key, c.prefix) {
			c.store.Delete(key)
			removed++
		}
	}
	c.store.DeleteExpired()
	observability.PageCacheFlushedKeys.Add(float64(removed))
	return removed, nil
}

// NewPageCache picks the Redis cache when a client is available and the
// in-process cache otherwise.
func NewPageCache(client *redis.Client) PageCache {
	if client == nil {
		return NewMemoryPageCache(IndexPagePrefix)
	}
	return NewRedisPageCache(client, IndexPagePrefix)
}
