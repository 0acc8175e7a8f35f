package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quiz-attempt-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Catalog loads courses, packages and questions from Postgres.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) GetCourse(ctx context.Context, courseID string) (domain.Course, error) {
	course := domain.Course{ID: courseID}
	err := c.pool.QueryRow(ctx,
		`SELECT title, exam_minutes FROM courses WHERE id=$1`, courseID).
		Scan(&course.Title, &course.ExamMinutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Course{}, domain.ErrCourseNotFound
	}
	if err != nil {
		return domain.Course{}, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

func (c *Catalog) GetPackage(ctx context.Context, packageID string) (domain.QuizPackage, error) {
	pkg := domain.QuizPackage{ID: packageID}
	err := c.pool.QueryRow(ctx,
		`SELECT course_id, title, description, max_retakes FROM quiz_packages WHERE id=$1`, packageID).
		Scan(&pkg.CourseID, &pkg.Title, &pkg.Description, &pkg.MaxRetakes)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizPackage{}, domain.ErrPackageNotFound
	}
	if err != nil {
		return domain.QuizPackage{}, fmt.Errorf("load package: %w", err)
	}
	return pkg, nil
}

func (c *Catalog) GetQuestions(ctx context.Context, packageID string) ([]domain.Question, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, question_text, question_type, options, correct_answer, points, order_number
		 FROM questions
		 WHERE quiz_package_id=$1 AND is_active
		 ORDER BY order_number ASC`, packageID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var options []byte
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &options, &q.CorrectAnswer, &q.Points, &q.Order); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("unmarshal options: %w", err)
			}
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
