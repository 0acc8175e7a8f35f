package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore persists finished attempts and advisory answers in Postgres.
// It serves the eligibility gate from the attempts table and enforces the
// retake limit again on finalize.
type AttemptStore struct {
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool, clock: time.Now}
}

func (s *AttemptStore) AttemptHistory(ctx context.Context, studentKey, packageID string) (domain.AttemptHistory, error) {
	var history domain.AttemptHistory
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM attempts WHERE student_key=$1 AND quiz_package_id=$2`,
		studentKey, packageID).Scan(&history.PriorAttempts)
	if err != nil {
		return domain.AttemptHistory{}, fmt.Errorf("count attempts: %w", err)
	}
	if history.PriorAttempts == 0 {
		return history, nil
	}

	var latest domain.AttemptSummary
	err = s.pool.QueryRow(ctx,
		`SELECT score, total_points, percentage, time_taken, completed_at
		 FROM attempts
		 WHERE student_key=$1 AND quiz_package_id=$2
		 ORDER BY completed_at DESC LIMIT 1`,
		studentKey, packageID).
		Scan(&latest.Score, &latest.TotalPoints, &latest.Percentage, &latest.TimeTaken, &latest.CompletedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.AttemptHistory{}, fmt.Errorf("load latest attempt: %w", err)
	}
	if err == nil {
		history.Latest = &latest
	}
	return history, nil
}

func (s *AttemptStore) SubmitAnswer(ctx context.Context, attempt domain.AttemptContext, questionID, answer string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO attempt_answers (attempt_id, question_id, student_answer)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (attempt_id, question_id)
		 DO UPDATE SET student_answer = EXCLUDED.student_answer`,
		attempt.AttemptID, questionID, answer)
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

func (s *AttemptStore) FinalizeAttempt(ctx context.Context, attempt domain.AttemptContext, result domain.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback(ctx)

	var maxRetakes int
	err = tx.QueryRow(ctx,
		`SELECT max_retakes FROM quiz_packages WHERE id=$1`, attempt.PackageID).Scan(&maxRetakes)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPackageNotFound
	}
	if err != nil {
		return fmt.Errorf("load retake limit: %w", err)
	}

	var prior int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM attempts WHERE student_key=$1 AND quiz_package_id=$2`,
		attempt.StudentKey, attempt.PackageID).Scan(&prior)
	if err != nil {
		return fmt.Errorf("count attempts: %w", err)
	}
	if prior >= maxRetakes {
		return domain.ErrRetakeLimit
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO attempts (id, student_key, course_id, quiz_package_id, score, total_points, percentage, time_taken, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		attempt.AttemptID, attempt.StudentKey, attempt.CourseID, attempt.PackageID,
		result.Score, result.TotalPoints, result.Percentage, result.TimeTaken, s.clock())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return tx.Commit(ctx)
}
