package memory

import (
	"context"
	"testing"

	"quiz-attempt-service/internal/domain"
)

func TestAttemptStoreHistoryAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(sampleCatalog()) // pkg-1 allows 2 attempts

	attempt := domain.AttemptContext{AttemptID: "att-1", StudentKey: "device-abc", CourseID: "course-1", PackageID: "pkg-1"}

	history, err := store.AttemptHistory(ctx, "device-abc", "pkg-1")
	if err != nil || history.PriorAttempts != 0 {
		t.Fatalf("expected empty history, got %+v err=%v", history, err)
	}

	result := domain.Result{Score: 1, TotalPoints: 1, Percentage: 100, TimeTaken: 20}
	if err := store.FinalizeAttempt(ctx, attempt, result); err != nil {
		t.Fatalf("finalize 1: %v", err)
	}

	history, _ = store.AttemptHistory(ctx, "device-abc", "pkg-1")
	if history.PriorAttempts != 1 || history.Latest == nil || history.Latest.Score != 1 {
		t.Fatalf("expected one prior attempt with summary, got %+v", history)
	}

	attempt.AttemptID = "att-2"
	if err := store.FinalizeAttempt(ctx, attempt, result); err != nil {
		t.Fatalf("finalize 2: %v", err)
	}

	attempt.AttemptID = "att-3"
	if err := store.FinalizeAttempt(ctx, attempt, result); err != domain.ErrRetakeLimit {
		t.Fatalf("expected retake limit rejection, got %v", err)
	}
}

func TestAttemptStoreAnswerUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(sampleCatalog())
	attempt := domain.AttemptContext{AttemptID: "att-1", StudentKey: "s1", PackageID: "pkg-1"}

	_ = store.SubmitAnswer(ctx, attempt, "q1", "3")
	_ = store.SubmitAnswer(ctx, attempt, "q1", "4")

	answers := store.Answers("att-1")
	if answers["q1"] != "4" {
		t.Fatalf("expected upserted answer, got %+v", answers)
	}
}

func TestAttemptStoreHistoryIsPerStudentAndPackage(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore(sampleCatalog())
	result := domain.Result{Score: 1, TotalPoints: 1, Percentage: 100}

	_ = store.FinalizeAttempt(ctx, domain.AttemptContext{AttemptID: "a1", StudentKey: "s1", PackageID: "pkg-1"}, result)

	history, _ := store.AttemptHistory(ctx, "s2", "pkg-1")
	if history.PriorAttempts != 0 {
		t.Fatalf("history leaked across students: %+v", history)
	}
}
