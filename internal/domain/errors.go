package domain

import "errors"

var (
	// ErrCourseNotFound indicates the course could not be loaded.
	ErrCourseNotFound = errors.New("course not found")
	// ErrPackageNotFound indicates the quiz package could not be loaded.
	ErrPackageNotFound = errors.New("quiz package not found")
	// ErrQuestionNotFound indicates an answer referenced an unknown question ID.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidDuration indicates a course with a non-positive exam time.
	ErrInvalidDuration = errors.New("exam duration must be positive")
	// ErrInvalidTransition is returned when an operation is not valid for the
	// machine's current state (e.g. answering after completion).
	ErrInvalidTransition = errors.New("operation not valid in current state")
	// ErrSubmitNotConfirmed is returned when Submit is called before the
	// caller confirmed the submission.
	ErrSubmitNotConfirmed = errors.New("submission not confirmed")
	// ErrRetakeLimit is returned by attempt persistence when the retake limit
	// has been reached (including the server-side race on finalize).
	ErrRetakeLimit = errors.New("retake limit reached")
)
