package redis

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
)

func TestCatalogCacheCachesInRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingCatalog{Catalog: sampleCatalog()}
	cache := NewCatalogCache(newClient(mr), loader, time.Minute)

	questions, err := cache.GetQuestions(ctx, "pkg-1")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "4" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("catalog:questions:pkg-1") {
		t.Fatalf("expected cached key")
	}

	// Second call should hit Redis, loader not incremented.
	if _, err := cache.GetQuestions(ctx, "pkg-1"); err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestCatalogCachePackageAndCourse(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewCatalogCache(newClient(mr), sampleCatalog(), time.Minute)

	pkg, err := cache.GetPackage(ctx, "pkg-1")
	if err != nil || pkg.MaxRetakes != 2 {
		t.Fatalf("unexpected package %+v err=%v", pkg, err)
	}
	course, err := cache.GetCourse(ctx, "course-1")
	if err != nil || course.ExamMinutes != 30 {
		t.Fatalf("unexpected course %+v err=%v", course, err)
	}

	if _, err := cache.GetPackage(ctx, "missing"); err != domain.ErrPackageNotFound {
		t.Fatalf("expected pass-through error, got %v", err)
	}
}

type countingCatalog struct {
	app.Catalog
	calls int
}

func (c *countingCatalog) GetQuestions(ctx context.Context, packageID string) ([]domain.Question, error) {
	c.calls++
	return c.Catalog.GetQuestions(ctx, packageID)
}
