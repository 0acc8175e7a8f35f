package memory

import (
	"context"
	"sync"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// AttemptStore keeps finalized attempts in memory. It backs both sides of the
// retake limit: app.EligibilityProvider for the pre-start gate and
// app.AttemptSink for persistence, re-checking the limit on finalize so a
// racing second session is still rejected.
type AttemptStore struct {
	catalog app.Catalog
	clock   func() time.Time

	mu        sync.RWMutex
	finalized map[string][]domain.AttemptSummary // studentKey|packageID -> history
	answers   map[string]map[string]string       // attemptID -> questionID -> answer
}

func NewAttemptStore(catalog app.Catalog) *AttemptStore {
	return &AttemptStore{
		catalog:   catalog,
		clock:     time.Now,
		finalized: make(map[string][]domain.AttemptSummary),
		answers:   make(map[string]map[string]string),
	}
}

func (s *AttemptStore) AttemptHistory(_ context.Context, studentKey, packageID string) (domain.AttemptHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.finalized[key(studentKey, packageID)]
	out := domain.AttemptHistory{PriorAttempts: len(history)}
	if len(history) > 0 {
		latest := history[len(history)-1]
		out.Latest = &latest
	}
	return out, nil
}

// SubmitAnswer upserts the per-question answer for an attempt. Advisory only;
// scoring always runs off the machine's local ledger.
func (s *AttemptStore) SubmitAnswer(_ context.Context, attempt domain.AttemptContext, questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[attempt.AttemptID]; !ok {
		s.answers[attempt.AttemptID] = make(map[string]string)
	}
	s.answers[attempt.AttemptID][questionID] = answer
	return nil
}

func (s *AttemptStore) FinalizeAttempt(ctx context.Context, attempt domain.AttemptContext, result domain.Result) error {
	pkg, err := s.catalog.GetPackage(ctx, attempt.PackageID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(attempt.StudentKey, attempt.PackageID)
	if len(s.finalized[k]) >= pkg.MaxRetakes {
		return domain.ErrRetakeLimit
	}

	s.finalized[k] = append(s.finalized[k], domain.AttemptSummary{
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
		Percentage:  result.Percentage,
		TimeTaken:   result.TimeTaken,
		CompletedAt: s.clock(),
	})
	return nil
}

// Answers returns the advisory answer record for an attempt.
func (s *AttemptStore) Answers(attemptID string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.answers[attemptID]))
	for id, answer := range s.answers[attemptID] {
		out[id] = answer
	}
	return out
}

func key(studentKey, packageID string) string {
	return studentKey + "|" + packageID
}
