package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// StaticCatalog serves courses, packages and questions from in-memory maps
// (useful for tests/demos).
type StaticCatalog struct {
	courses   map[string]domain.Course
	packages  map[string]domain.QuizPackage
	questions map[string][]domain.Question // keyed by package ID
}

func NewStaticCatalog(courses map[string]domain.Course, packages map[string]domain.QuizPackage, questions map[string][]domain.Question) *StaticCatalog {
	return &StaticCatalog{courses: courses, packages: packages, questions: questions}
}

func (c *StaticCatalog) GetCourse(_ context.Context, courseID string) (domain.Course, error) {
	if course, ok := c.courses[courseID]; ok {
		return course, nil
	}
	return domain.Course{}, domain.ErrCourseNotFound
}

func (c *StaticCatalog) GetPackage(_ context.Context, packageID string) (domain.QuizPackage, error) {
	if pkg, ok := c.packages[packageID]; ok {
		return pkg, nil
	}
	return domain.QuizPackage{}, domain.ErrPackageNotFound
}

func (c *StaticCatalog) GetQuestions(_ context.Context, packageID string) ([]domain.Question, error) {
	if _, ok := c.packages[packageID]; !ok {
		return nil, domain.ErrPackageNotFound
	}
	return c.questions[packageID], nil
}

// CatalogCache caches catalog reads with TTL to avoid repeated backing-store
// hits while an attempt is being set up.
type CatalogCache struct {
	source app.Catalog
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	courses   map[string]cachedEntry[domain.Course]
	packages  map[string]cachedEntry[domain.QuizPackage]
	questions map[string]cachedEntry[[]domain.Question]
}

type cachedEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func NewCatalogCache(source app.Catalog, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		source:    source,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		courses:   make(map[string]cachedEntry[domain.Course]),
		packages:  make(map[string]cachedEntry[domain.QuizPackage]),
		questions: make(map[string]cachedEntry[[]domain.Question]),
	}
}

func (c *CatalogCache) GetCourse(ctx context.Context, courseID string) (domain.Course, error) {
	return cacheGet(ctx, c, "course:"+courseID, c.courses, courseID, c.source.GetCourse)
}

func (c *CatalogCache) GetPackage(ctx context.Context, packageID string) (domain.QuizPackage, error) {
	return cacheGet(ctx, c, "package:"+packageID, c.packages, packageID, c.source.GetPackage)
}

func (c *CatalogCache) GetQuestions(ctx context.Context, packageID string) ([]domain.Question, error) {
	return cacheGet(ctx, c, "questions:"+packageID, c.questions, packageID, c.source.GetQuestions)
}

func cacheGet[T any](ctx context.Context, c *CatalogCache, sfKey string, cache map[string]cachedEntry[T], id string, load func(context.Context, string) (T, error)) (T, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := cache[id]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.value, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(sfKey, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := cache[id]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.value, nil
		}
		c.mu.RUnlock()

		value, err := load(ctx, id)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		cache[id] = cachedEntry[T]{value: value, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
