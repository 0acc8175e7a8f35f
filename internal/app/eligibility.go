package app

import "quiz-attempt-service/internal/domain"

// CheckEligibility decides whether a student may begin an attempt given their
// prior attempt history and the package's retake limit. Pure function of its
// inputs. A limit of 1 means first attempt only.
func CheckEligibility(history domain.AttemptHistory, maxRetakes int) domain.Eligibility {
	verdict := domain.Eligibility{
		Approved:      history.PriorAttempts < maxRetakes,
		PriorAttempts: history.PriorAttempts,
		MaxRetakes:    maxRetakes,
	}
	if !verdict.Approved {
		// Attach the most recent attempt so callers can show it on the
		// "already taken" screen.
		verdict.Previous = history.Latest
	}
	return verdict
}
