package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogCache caches catalog payloads in Redis as JSON and falls back to the
// backing catalog on cache miss. Keys:
//
//	catalog:course:{courseID}
//	catalog:package:{packageID}
//	catalog:questions:{packageID}
type CatalogCache struct {
	client *redis.Client
	source app.Catalog
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, source app.Catalog, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CatalogCache) GetCourse(ctx context.Context, courseID string) (domain.Course, error) {
	return cacheGet(ctx, c, "catalog:course:"+courseID, courseID, c.source.GetCourse)
}

func (c *CatalogCache) GetPackage(ctx context.Context, packageID string) (domain.QuizPackage, error) {
	return cacheGet(ctx, c, "catalog:package:"+packageID, packageID, c.source.GetPackage)
}

func (c *CatalogCache) GetQuestions(ctx context.Context, packageID string) ([]domain.Question, error) {
	return cacheGet(ctx, c, "catalog:questions:"+packageID, packageID, c.source.GetQuestions)
}

func cacheGet[T any](ctx context.Context, c *CatalogCache, key, id string, load func(context.Context, string) (T, error)) (T, error) {
	var zero T

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var value T
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
		// Corrupt cache entry; fall through and reload.
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
		}

		value, err := load(ctx, id)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(value); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
