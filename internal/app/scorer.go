package app

import (
	"math"
	"strings"

	"quiz-attempt-service/internal/domain"
)

// Score grades every loaded question against the ledger and builds the final
// Result. Pure function: details are emitted in question order, unanswered
// questions count as incorrect, and there is no partial credit.
func Score(questions []domain.Question, ledger *AnswerLedger, elapsedSeconds int) domain.Result {
	result := domain.Result{
		TimeTaken: elapsedSeconds,
		Details:   make([]domain.QuestionResult, 0, len(questions)),
	}

	for _, q := range questions {
		result.TotalPoints += q.Points

		answer, _ := ledger.Get(q.ID)
		correct := answerMatches(answer, q.CorrectAnswer)

		earned := 0
		if correct {
			earned = q.Points
			result.Score += earned
			result.Correct++
		} else {
			result.Incorrect++
		}

		result.Details = append(result.Details, domain.QuestionResult{
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			StudentAnswer: answer,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       correct,
			PointsEarned:  earned,
			MaxPoints:     q.Points,
		})
	}

	if result.TotalPoints > 0 {
		result.Percentage = int(math.Round(float64(result.Score) / float64(result.TotalPoints) * 100))
	}
	return result
}

// answerMatches applies the correctness rule: trim both sides, compare
// case-insensitively, exact match only. A blank answer is never correct.
func answerMatches(answer, correct string) bool {
	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return false
	}
	return normalized == strings.ToLower(strings.TrimSpace(correct))
}
