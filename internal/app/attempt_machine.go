package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quiz-attempt-service/internal/domain"
)

// Catalog loads quiz content (from cache/backing store).
type Catalog interface {
	GetPackage(ctx context.Context, packageID string) (domain.QuizPackage, error)
	GetCourse(ctx context.Context, courseID string) (domain.Course, error)
	GetQuestions(ctx context.Context, packageID string) ([]domain.Question, error)
}

// EligibilityProvider reports a student's prior attempts against a package.
type EligibilityProvider interface {
	AttemptHistory(ctx context.Context, studentKey, packageID string) (domain.AttemptHistory, error)
}

// AttemptSink persists attempt data. SubmitAnswer is best effort; the machine
// never blocks on it and its failures do not affect local scoring.
// FinalizeAttempt may reject with domain.ErrRetakeLimit.
type AttemptSink interface {
	SubmitAnswer(ctx context.Context, attempt domain.AttemptContext, questionID, answer string) error
	FinalizeAttempt(ctx context.Context, attempt domain.AttemptContext, result domain.Result) error
}

// State enumerates the attempt lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateInProgress
	StateSubmitting
	StateCompleted
	StateBlocked
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateBlocked:
		return "blocked"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the read-only view the machine exposes to its caller/UI.
type Snapshot struct {
	State         State               `json:"-"`
	StateName     string              `json:"state"`
	Attempt       domain.AttemptContext `json:"attempt"`
	QuestionCount int                 `json:"questionCount"`
	Index         int                 `json:"index"`
	Question      *domain.Question    `json:"question,omitempty"`
	Answers       map[string]string   `json:"answers"`
	Unanswered    int                 `json:"unanswered"`
	Remaining     int                 `json:"remaining"` // seconds
	Result        *domain.Result      `json:"result,omitempty"`
	Blocked       *domain.Eligibility `json:"blocked,omitempty"`
	Reason        string              `json:"reason,omitempty"`
}

// AttemptMachine orchestrates one attempt: eligibility, question loading,
// navigation, the countdown, and the terminal scoring/finalization path.
// One machine drives at most one attempt; a new attempt needs a new machine.
// All operations are safe for concurrent use, though a session is expected
// to issue them sequentially.
type AttemptMachine struct {
	catalog     Catalog
	eligibility EligibilityProvider
	sink        AttemptSink
	studentKey  string
	timer       *Timer
	now         func() time.Time

	mu          sync.RWMutex
	state       State
	attempt     domain.AttemptContext
	course      domain.Course
	questions   []domain.Question
	questionIDs []string
	ledger      *AnswerLedger
	index       int
	duration    int // seconds
	remaining   int
	confirmed   bool
	result      *domain.Result
	blocked     *domain.Eligibility
	reason      string
	subscribers map[chan Snapshot]struct{}
}

// Option customizes an AttemptMachine; used by tests to speed up the clock.
type Option func(*AttemptMachine)

// WithTimerInterval shortens the tick interval (test-only).
func WithTimerInterval(interval time.Duration) Option {
	return func(m *AttemptMachine) { m.timer = NewTimerWithInterval(interval) }
}

// WithClock injects a deterministic clock (test-only).
func WithClock(now func() time.Time) Option {
	return func(m *AttemptMachine) { m.now = now }
}

func NewAttemptMachine(catalog Catalog, eligibility EligibilityProvider, sink AttemptSink, studentKey string, opts ...Option) *AttemptMachine {
	m := &AttemptMachine{
		catalog:     catalog,
		eligibility: eligibility,
		sink:        sink,
		studentKey:  studentKey,
		timer:       NewTimer(),
		now:         time.Now,
		state:       StateIdle,
		ledger:      NewAnswerLedger(),
		subscribers: make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs the Loading phase: fetch course, package and questions, check
// eligibility, then either enter InProgress with the timer running, Blocked
// with the rejection detail, or Error. Valid only from Idle.
func (m *AttemptMachine) Start(ctx context.Context, courseID, packageID string) error {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	m.state = StateLoading
	m.broadcastLocked()
	m.mu.Unlock()

	pkg, err := m.catalog.GetPackage(ctx, packageID)
	if err != nil {
		return m.fail(fmt.Sprintf("load package: %v", err))
	}
	course, err := m.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return m.fail(fmt.Sprintf("load course: %v", err))
	}
	if course.ExamMinutes <= 0 {
		return m.fail(domain.ErrInvalidDuration.Error())
	}

	history, err := m.eligibility.AttemptHistory(ctx, m.studentKey, packageID)
	if err != nil {
		return m.fail(fmt.Sprintf("check eligibility: %v", err))
	}
	if verdict := CheckEligibility(history, pkg.MaxRetakes); !verdict.Approved {
		m.mu.Lock()
		m.state = StateBlocked
		m.blocked = &verdict
		m.broadcastLocked()
		m.mu.Unlock()
		return nil
	}

	questions, err := m.catalog.GetQuestions(ctx, packageID)
	if err != nil {
		return m.fail(fmt.Sprintf("load questions: %v", err))
	}

	m.mu.Lock()
	m.course = course
	m.questions = questions
	m.questionIDs = make([]string, len(questions))
	for i, q := range questions {
		m.questionIDs[i] = q.ID
	}
	m.attempt = domain.AttemptContext{
		AttemptID:  fmt.Sprintf("att-%d", m.now().UnixNano()),
		StudentKey: m.studentKey,
		CourseID:   courseID,
		PackageID:  packageID,
	}
	m.index = 0
	m.ledger = NewAnswerLedger()
	m.duration = course.ExamMinutes * 60
	m.remaining = m.duration
	m.state = StateInProgress
	m.broadcastLocked()
	m.mu.Unlock()

	m.timer.Start(m.duration, m.onTick, m.onExpire)
	return nil
}

// Answer records an answer in the ledger and forwards it to the sink without
// blocking. Valid only while InProgress.
func (m *AttemptMachine) Answer(ctx context.Context, questionID, answer string) error {
	m.mu.Lock()
	if m.state != StateInProgress {
		m.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	if !m.hasQuestionLocked(questionID) {
		m.mu.Unlock()
		return domain.ErrQuestionNotFound
	}
	m.ledger.Set(questionID, answer)
	attempt := m.attempt
	m.broadcastLocked()
	m.mu.Unlock()

	// Fire and forget; the local ledger stays authoritative.
	go func() {
		_ = m.sink.SubmitAnswer(ctx, attempt, questionID, answer)
	}()
	return nil
}

// Next advances to the following question; no-op at the last index.
func (m *AttemptMachine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateInProgress {
		return domain.ErrInvalidTransition
	}
	if m.index < len(m.questions)-1 {
		m.index++
		m.broadcastLocked()
	}
	return nil
}

// Previous retreats to the preceding question; no-op at index 0.
func (m *AttemptMachine) Previous() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateInProgress {
		return domain.ErrInvalidTransition
	}
	if m.index > 0 {
		m.index--
		m.broadcastLocked()
	}
	return nil
}

// ConfirmSubmit arms the explicit submission. Submit refuses until this has
// been called; timer expiry bypasses it.
func (m *AttemptMachine) ConfirmSubmit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateInProgress {
		return domain.ErrInvalidTransition
	}
	m.confirmed = true
	return nil
}

// Submit finalizes the attempt: cancel the timer, score the ledger, persist
// the result. Requires a prior ConfirmSubmit.
func (m *AttemptMachine) Submit(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateInProgress {
		m.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	if !m.confirmed {
		m.mu.Unlock()
		return domain.ErrSubmitNotConfirmed
	}
	return m.finalizeLocked(ctx)
}

// onTick runs on the timer goroutine once per second.
func (m *AttemptMachine) onTick(remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateInProgress {
		return
	}
	if remaining < m.remaining {
		m.remaining = remaining
		m.broadcastLocked()
	}
}

// onExpire forces submission when the countdown reaches zero. The state check
// makes a late-firing expiry after Submitting/Completed a no-op.
func (m *AttemptMachine) onExpire() {
	m.mu.Lock()
	if m.state != StateInProgress {
		m.mu.Unlock()
		return
	}
	m.remaining = 0
	_ = m.finalizeLocked(context.Background())
}

// finalizeLocked is entered holding the lock and releases it before returning.
func (m *AttemptMachine) finalizeLocked(ctx context.Context) error {
	m.state = StateSubmitting
	m.broadcastLocked()
	m.timer.Cancel()

	elapsed := m.duration - m.remaining
	result := Score(m.questions, m.ledger, elapsed)
	m.result = &result
	attempt := m.attempt
	m.mu.Unlock()

	err := m.sink.FinalizeAttempt(ctx, attempt, result)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		// The result stays available for local display even though it was
		// not accepted upstream.
		m.state = StateError
		m.reason = fmt.Sprintf("finalize attempt: %v", err)
		m.broadcastLocked()
		return err
	}
	m.state = StateCompleted
	m.broadcastLocked()
	return nil
}

func (m *AttemptMachine) fail(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timer.Cancel()
	m.state = StateError
	m.reason = reason
	m.broadcastLocked()
	return fmt.Errorf("attempt failed: %s", reason)
}

func (m *AttemptMachine) hasQuestionLocked(questionID string) bool {
	for _, id := range m.questionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// Snapshot returns the current view of the attempt.
func (m *AttemptMachine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every transition,
// answer, navigation and tick. The caller must invoke the returned cancel
// function to avoid leaks.
func (m *AttemptMachine) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	initial := m.snapshotLocked()
	m.mu.Unlock()

	ch <- initial

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subscribers[ch]; ok {
			delete(m.subscribers, ch)
			close(ch)
		}
		m.mu.Unlock()
	}
	return ch, cancel
}

func (m *AttemptMachine) broadcastLocked() {
	snap := m.snapshotLocked()
	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot so a slow consumer never blocks the
			// timer or the state machine.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (m *AttemptMachine) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         m.state,
		StateName:     m.state.String(),
		Attempt:       m.attempt,
		QuestionCount: len(m.questions),
		Index:         m.index,
		Answers:       m.ledger.Snapshot(),
		Unanswered:    m.ledger.UnansweredCount(m.questionIDs),
		Remaining:     m.remaining,
		Result:        m.result,
		Blocked:       m.blocked,
		Reason:        m.reason,
	}
	if m.index >= 0 && m.index < len(m.questions) {
		q := m.questions[m.index]
		snap.Question = &q
	}
	return snap
}
