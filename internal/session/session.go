package session

import (
	"fmt"
	"time"
)

// Response is one answered question with its evaluation, immutable once
// appended.
type Response struct {
	QuestionIndex int       `json:"question_index"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Score         float64   `json:"score"`
	Feedback      string    `json:"feedback"`
	Strengths     []string  `json:"strengths"`
	Improvements  []string  `json:"improvements"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session holds one interview run from start to finish. It lives only for
// the duration of the run; durable storage belongs to the scoring service.
type Session struct {
	InterviewID string
	UserID      string
	Questions   []string // fixed at start, never mutated
	StartedAt   time.Time
	Responses   []Response // append-only
}

// NewSession creates a session over a fixed question list.
func NewSession(interviewID, userID string, questions []string) *Session {
	qs := make([]string, len(questions))
	copy(qs, questions)
	return &Session{
		InterviewID: interviewID,
		UserID:      userID,
		Questions:   qs,
	}
}

// Question returns the question at idx.
func (s *Session) Question(idx int) (string, error) {
	if idx < 0 || idx >= len(s.Questions) {
		return "", fmt.Errorf("question index %d out of range [0,%d)", idx, len(s.Questions))
	}
	return s.Questions[idx], nil
}

// Append records a response. Responses must arrive in question order and at
// most once per question.
func (s *Session) Append(r Response) error {
	if r.QuestionIndex != len(s.Responses) {
		return fmt.Errorf("response for question %d but %d responses recorded", r.QuestionIndex, len(s.Responses))
	}
	if r.QuestionIndex >= len(s.Questions) {
		return fmt.Errorf("response index %d exceeds question count %d", r.QuestionIndex, len(s.Questions))
	}
	s.Responses = append(s.Responses, r)
	return nil
}

// DurationMinutes returns elapsed whole minutes since StartedAt, rounded.
func (s *Session) DurationMinutes(now time.Time) int {
	if s.StartedAt.IsZero() {
		return 0
	}
	return int(now.Sub(s.StartedAt).Round(time.Minute) / time.Minute)
}
