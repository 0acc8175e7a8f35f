package app

import (
	"strings"
	"sync"
)

// AnswerLedger is the in-memory record of a student's answers for the active
// attempt, keyed by question ID. It is the authoritative input for scoring;
// server-side answer persistence is advisory only.
type AnswerLedger struct {
	mu      sync.RWMutex
	answers map[string]string
}

func NewAnswerLedger() *AnswerLedger {
	return &AnswerLedger{answers: make(map[string]string)}
}

// Set upserts the answer for a question.
func (l *AnswerLedger) Set(questionID, answer string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.answers[questionID] = answer
}

// Get returns the stored answer and whether one was recorded.
func (l *AnswerLedger) Get(questionID string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	answer, ok := l.answers[questionID]
	return answer, ok
}

// Snapshot returns a copy of the ledger.
func (l *AnswerLedger) Snapshot() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]string, len(l.answers))
	for id, answer := range l.answers {
		out[id] = answer
	}
	return out
}

// UnansweredCount counts the given question IDs that are absent from the
// ledger or mapped to a blank answer.
func (l *AnswerLedger) UnansweredCount(questionIDs []string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, id := range questionIDs {
		if strings.TrimSpace(l.answers[id]) == "" {
			count++
		}
	}
	return count
}
