package memory

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestCatalogCacheHitsOnce(t *testing.T) {
	loader := &countingCatalog{StaticCatalog: sampleCatalog()}
	cache := NewCatalogCache(loader, time.Minute)

	if _, err := cache.GetQuestions(context.Background(), "pkg-1"); err != nil {
		t.Fatalf("get questions: %v", err)
	}
	if loader.questionCalls != 1 {
		t.Fatalf("expected loader once, got %d", loader.questionCalls)
	}

	if _, err := cache.GetQuestions(context.Background(), "pkg-1"); err != nil {
		t.Fatalf("get questions 2: %v", err)
	}
	if loader.questionCalls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.questionCalls)
	}
}

func TestCatalogCachePassesThroughErrors(t *testing.T) {
	cache := NewCatalogCache(sampleCatalog(), time.Minute)

	if _, err := cache.GetPackage(context.Background(), "missing"); err != domain.ErrPackageNotFound {
		t.Fatalf("expected package not found, got %v", err)
	}
	if _, err := cache.GetCourse(context.Background(), "missing"); err != domain.ErrCourseNotFound {
		t.Fatalf("expected course not found, got %v", err)
	}
}

type countingCatalog struct {
	*StaticCatalog
	questionCalls int
}

func (c *countingCatalog) GetQuestions(ctx context.Context, packageID string) ([]domain.Question, error) {
	c.questionCalls++
	return c.StaticCatalog.GetQuestions(ctx, packageID)
}

func sampleCatalog() *StaticCatalog {
	return NewStaticCatalog(
		map[string]domain.Course{
			"course-1": {ID: "course-1", Title: "N5 Grammar", ExamMinutes: 30},
		},
		map[string]domain.QuizPackage{
			"pkg-1": {ID: "pkg-1", CourseID: "course-1", Title: "Week 1", MaxRetakes: 2},
		},
		map[string][]domain.Question{
			"pkg-1": {
				{ID: "q1", Text: "2 + 2?", Type: domain.TypeMultipleChoice, Options: []string{"3", "4"}, CorrectAnswer: "4", Points: 1},
			},
		},
	)
}
