package redis

import (
	"context"
	"strconv"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// AttemptStore keeps attempt history in Redis so the retake limit holds
// across service instances. Layout:
//
//	attempt:{studentKey}:{packageID}:count   counter of finished attempts
//	attempt:{studentKey}:{packageID}:latest  hash with the last summary
//	attempt:answers:{attemptID}              hash questionID -> answer (TTL)
type AttemptStore struct {
	client    *redis.Client
	catalog   app.Catalog
	answerTTL time.Duration
	clock     func() time.Time
}

func NewAttemptStore(client *redis.Client, catalog app.Catalog, answerTTL time.Duration) *AttemptStore {
	return &AttemptStore{client: client, catalog: catalog, answerTTL: answerTTL, clock: time.Now}
}

func (s *AttemptStore) AttemptHistory(ctx context.Context, studentKey, packageID string) (domain.AttemptHistory, error) {
	count, err := s.client.Get(ctx, countKey(studentKey, packageID)).Int()
	if err == redis.Nil {
		return domain.AttemptHistory{}, nil
	}
	if err != nil {
		return domain.AttemptHistory{}, err
	}

	history := domain.AttemptHistory{PriorAttempts: count}
	if count > 0 {
		if fields, err := s.client.HGetAll(ctx, latestKey(studentKey, packageID)).Result(); err == nil && len(fields) > 0 {
			history.Latest = summaryFromHash(fields)
		}
	}
	return history, nil
}

// SubmitAnswer records the advisory per-question answer; best effort with a
// TTL so abandoned attempts age out.
func (s *AttemptStore) SubmitAnswer(ctx context.Context, attempt domain.AttemptContext, questionID, answer string) error {
	key := answersKey(attempt.AttemptID)
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, questionID, answer)
	if s.answerTTL > 0 {
		pipe.Expire(ctx, key, s.answerTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AttemptStore) FinalizeAttempt(ctx context.Context, attempt domain.AttemptContext, result domain.Result) error {
	pkg, err := s.catalog.GetPackage(ctx, attempt.PackageID)
	if err != nil {
		return err
	}

	// Re-check the limit at finalize time; a racing second session must not
	// slip past the pre-start gate.
	count, err := s.client.Get(ctx, countKey(attempt.StudentKey, attempt.PackageID)).Int()
	if err != nil && err != redis.Nil {
		return err
	}
	if count >= pkg.MaxRetakes {
		return domain.ErrRetakeLimit
	}

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, countKey(attempt.StudentKey, attempt.PackageID))
	pipe.HSet(ctx, latestKey(attempt.StudentKey, attempt.PackageID),
		"score", result.Score,
		"totalPoints", result.TotalPoints,
		"percentage", result.Percentage,
		"timeTaken", result.TimeTaken,
		"completedAt", s.clock().Unix(),
	)
	_, err = pipe.Exec(ctx)
	return err
}

func summaryFromHash(fields map[string]string) *domain.AttemptSummary {
	summary := &domain.AttemptSummary{}
	summary.Score = atoi(fields["score"])
	summary.TotalPoints = atoi(fields["totalPoints"])
	summary.Percentage = atoi(fields["percentage"])
	summary.TimeTaken = atoi(fields["timeTaken"])
	if unix := atoi(fields["completedAt"]); unix > 0 {
		summary.CompletedAt = time.Unix(int64(unix), 0)
	}
	return summary
}

func atoi(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}

func countKey(studentKey, packageID string) string {
	return "attempt:" + studentKey + ":" + packageID + ":count"
}

func latestKey(studentKey, packageID string) string {
	return "attempt:" + studentKey + ":" + packageID + ":latest"
}

func answersKey(attemptID string) string {
	return "attempt:answers:" + attemptID
}
